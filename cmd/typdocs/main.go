package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/typdocs/typdocs-go/internal/config"
	"github.com/typdocs/typdocs-go/internal/utils"
	"github.com/typdocs/typdocs-go/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "typdocs",
	Short: "Render and package Typst documentation",
	Long: `Typdocs converts Typst files into markdown documentation, rendering
tagged example blocks to images via the typst binary and converting the
prose via pandoc. It also packages source trees into the local Typst
package directory or a registry fork checkout, and executes labeled
external code blocks.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.typdocs/typdocs.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(mdCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// loadConfig loads configuration and builds the logger for a command.
func loadConfig() (*config.Config, *utils.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		utils.SetGlobalLevel("debug")
	} else {
		utils.SetGlobalLevel(cfg.Logging.Level)
	}
	log := utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})
	return cfg, log, nil
}

// commandContext returns a context cancelled on SIGINT/SIGTERM.
func commandContext(log *utils.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down gracefully...")
		cancel()
	}()

	return ctx, cancel
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
