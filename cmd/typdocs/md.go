package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/typdocs/typdocs-go/internal/assembler"
	"github.com/typdocs/typdocs-go/internal/config"
	"github.com/typdocs/typdocs-go/internal/pandoc"
	"github.com/typdocs/typdocs-go/internal/proc"
	"github.com/typdocs/typdocs-go/internal/typst"
)

var mdCmd = &cobra.Command{
	Use:   "md <file.typ>",
	Short: "Convert a Typst file to markdown with rendered examples",
	Long: `Converts a Typst file to markdown. Example blocks tagged with a
showable label are rendered to images via typst; the document itself is
converted via pandoc and each example block is followed by a reference
to its rendered image.

With --git-url the image references point at the repository's raw
content URL, so the markdown keeps working after the source tree is
vendored into a package registry that excludes the assets folder.`,
	Args: cobra.ExactArgs(1),
	RunE: runMd,
}

func init() {
	mdCmd.Flags().StringP("output", "o", "", "Output markdown file (default: source with .md extension)")
	mdCmd.Flags().String("root", "", "Directory typst compiles from (default: source's parent)")
	mdCmd.Flags().String("assets-dir", "", "Directory for rendered images (default: <stem>-assets)")
	mdCmd.Flags().String("image-name", "", "Image name template, must contain {n}")
	mdCmd.Flags().StringSlice("label", nil, "Showable label marking example output (repeatable)")
	mdCmd.Flags().String("git-url", "", "Repository URL of form https://www.<site>/<user>/<repo>/<ref>/ for distribution-safe image links")
	mdCmd.Flags().Bool("git-remote", false, "Derive --git-url from the root's origin remote")
	mdCmd.Flags().Bool("force", false, "Regenerate images even if they already exist")
	mdCmd.Flags().Bool("dry-run", false, "Resolve paths and report what would be done without writing anything")
	mdCmd.Flags().Bool("keep-build", false, "Keep the scratch build directory for inspection")

	_ = viper.BindPFlag("assembler.root", mdCmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("assembler.assets_dir", mdCmd.Flags().Lookup("assets-dir"))
	_ = viper.BindPFlag("assembler.image_name", mdCmd.Flags().Lookup("image-name"))
	_ = viper.BindPFlag("assembler.labels", mdCmd.Flags().Lookup("label"))
	_ = viper.BindPFlag("assembler.git_url", mdCmd.Flags().Lookup("git-url"))
	_ = viper.BindPFlag("assembler.force", mdCmd.Flags().Lookup("force"))
}

func runMd(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	source := args[0]

	// The sidecar overrides the config file but explicit flags win.
	sidecar, err := config.LoadSidecar(source)
	if err != nil {
		return err
	}
	applySidecar(cmd, sidecar, &cfg.Assembler)

	opts := assembler.Options{
		Root:      cfg.Assembler.Root,
		AssetsDir: cfg.Assembler.AssetsDir,
		ImageName: cfg.Assembler.ImageName,
		Labels:    cfg.Assembler.Labels,
		GitURL:    cfg.Assembler.GitURL,
		Force:     cfg.Assembler.Force,
	}
	opts.Output, _ = cmd.Flags().GetString("output")
	if opts.Output == "" && sidecar != nil {
		opts.Output = sidecar.Output
	}
	opts.DetectGitURL, _ = cmd.Flags().GetBool("git-remote")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.KeepBuildDir, _ = cmd.Flags().GetBool("keep-build")
	if verbose {
		opts.KeepBuildDir = true
	}

	ctx, cancel := commandContext(log)
	defer cancel()

	exec := proc.NewExecRunner()
	a := assembler.New(
		typst.NewClient(cfg.Tools.Typst, exec, log),
		pandoc.NewClient(cfg.Tools.Pandoc, exec, log),
		log,
	)

	output, err := a.Assemble(ctx, source, opts)
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}

// applySidecar merges the per-document sidecar, keeping values the user
// set explicitly on the command line.
func applySidecar(cmd *cobra.Command, sidecar *config.Sidecar, cfg *config.AssemblerConfig) {
	if sidecar == nil {
		return
	}

	sc := *sidecar
	if cmd.Flags().Changed("root") {
		sc.Root = ""
	}
	if cmd.Flags().Changed("assets-dir") {
		sc.AssetsDir = ""
	}
	if cmd.Flags().Changed("image-name") {
		sc.ImageName = ""
	}
	if cmd.Flags().Changed("label") {
		sc.Labels = nil
	}
	if cmd.Flags().Changed("git-url") {
		sc.GitURL = ""
	}
	sc.Apply(cfg)
}
