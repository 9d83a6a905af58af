package main

import (
	"github.com/spf13/cobra"
	"github.com/typdocs/typdocs-go/internal/proc"
	"github.com/typdocs/typdocs-go/internal/runner"
	"github.com/typdocs/typdocs-go/internal/typst"
)

var runCmd = &cobra.Command{
	Use:   "run <file.typ>",
	Short: "Execute labeled code blocks and cache their outputs",
	Long: `Queries the Typst file for code blocks carrying the given labels and
pipes each block to the command configured for its language (runner.languages
in the config file). Outputs land in the JSON result cache in the workspace
root; blocks whose source is unchanged are not re-executed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("root", "", "Workspace directory (default: source's parent)")
	runCmd.Flags().StringSlice("label", nil, "Block label to execute (repeatable; default: all configured languages)")
	runCmd.Flags().Bool("keep-going", false, "Report failing blocks and continue instead of aborting")
	runCmd.Flags().Bool("no-cache", false, "Disable the result cache")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	opts := runner.Options{}
	opts.Root, _ = cmd.Flags().GetString("root")
	opts.Labels, _ = cmd.Flags().GetStringSlice("label")
	opts.KeepGoing, _ = cmd.Flags().GetBool("keep-going")
	opts.NoCache, _ = cmd.Flags().GetBool("no-cache")

	ctx, cancel := commandContext(log)
	defer cancel()

	exec := proc.NewExecRunner()
	r := runner.New(typst.NewClient(cfg.Tools.Typst, exec, log), exec, cfg.Runner, log)
	return r.Run(ctx, args[0], opts)
}
