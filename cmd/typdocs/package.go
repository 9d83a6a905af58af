package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/typdocs/typdocs-go/internal/packager"
)

var packageCmd = &cobra.Command{
	Use:   "package <typst.toml>",
	Short: "Package a Typst source tree for distribution",
	Long: `Copies the paths listed under tool.packager.paths in the manifest
into <dest>/<namespace>/<name>/<version>/. The destination defaults to
$TYPDOCS_PACKAGES_DIR, then the platform's local Typst package
directory; point it at a registry fork checkout when submitting.

An existing target is only replaced with --overwrite (full replace; a
failure mid-copy can leave a partial target). Include paths are checked
before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runPackage,
}

func init() {
	packageCmd.Flags().String("dest", "", "Packages folder (default: local Typst package directory)")
	packageCmd.Flags().String("namespace", "", `Package namespace (default "local"; "preview" for registry submission)`)
	packageCmd.Flags().Bool("overwrite", false, "Replace an existing package target")
	packageCmd.Flags().Bool("symlink", false, "Symlink entries instead of copying (requires --overwrite)")
	packageCmd.Flags().Bool("archive", false, "Also write <name>-<version>.tar.gz next to the target")

	_ = viper.BindPFlag("packager.dest", packageCmd.Flags().Lookup("dest"))
	_ = viper.BindPFlag("packager.namespace", packageCmd.Flags().Lookup("namespace"))
}

func runPackage(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	opts := packager.Options{
		Dest:      cfg.Packager.Dest,
		Namespace: cfg.Packager.Namespace,
	}
	opts.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	opts.Symlink, _ = cmd.Flags().GetBool("symlink")
	opts.Archive, _ = cmd.Flags().GetBool("archive")

	ctx, cancel := commandContext(log)
	defer cancel()

	target, err := packager.New(log).Package(ctx, args[0], opts)
	if err != nil {
		return err
	}
	fmt.Println(target)
	return nil
}
