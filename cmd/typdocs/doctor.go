package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/typdocs/typdocs-go/internal/config"
	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/pandoc"
	"github.com/typdocs/typdocs-go/internal/proc"
	"github.com/typdocs/typdocs-go/internal/typst"
	"github.com/typdocs/typdocs-go/internal/utils"
)

// newDoctorLogger keeps tool chatter out of the doctor report.
func newDoctorLogger() *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{Level: "error", Format: "pretty"})
}

// Dependencies for testing
var execLookPath = exec.LookPath

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system dependencies",
	Long:  "Verifies that the typst and pandoc binaries are installed and that the environment is usable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cfgErr := loadConfig()
		if cfgErr != nil {
			cfg = config.Default()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		doctorReport(ctx, cmd.OutOrStdout(), cfg, cfgErr, proc.NewExecRunner())
		return nil
	},
}

// doctorReport runs the checks against an already-loaded configuration
// and writes the report to w.
func doctorReport(ctx context.Context, w io.Writer, cfg *config.Config, cfgErr error, runner domain.CommandRunner) {
	fmt.Fprintln(w, "Checking system dependencies...")
	allPassed := true

	// Check 1: typst binary
	fmt.Fprint(w, "  typst: ")
	if path, lookErr := execLookPath(cfg.Tools.Typst); lookErr == nil {
		if v, vErr := typst.NewClient(cfg.Tools.Typst, runner, newDoctorLogger()).Version(ctx); vErr == nil {
			fmt.Fprintf(w, "OK (%s, %s)\n", path, v)
		} else {
			fmt.Fprintf(w, "OK (%s)\n", path)
		}
	} else {
		fmt.Fprintln(w, "NOT FOUND")
		allPassed = false
	}

	// Check 2: pandoc binary
	fmt.Fprint(w, "  pandoc: ")
	if path, lookErr := execLookPath(cfg.Tools.Pandoc); lookErr == nil {
		if v, vErr := pandoc.NewClient(cfg.Tools.Pandoc, runner, newDoctorLogger()).Version(ctx); vErr == nil {
			fmt.Fprintf(w, "OK (%s, %s)\n", path, v)
		} else {
			fmt.Fprintf(w, "OK (%s)\n", path)
		}
	} else {
		fmt.Fprintln(w, "NOT FOUND")
		allPassed = false
	}

	// Check 3: write permissions in the current directory
	fmt.Fprint(w, "  Write permissions: ")
	if checkWritePermissions() {
		fmt.Fprintln(w, "OK")
	} else {
		fmt.Fprintln(w, "FAILED")
		allPassed = false
	}

	// Check 4: config file
	fmt.Fprint(w, "  Config file: ")
	if cfgErr != nil {
		fmt.Fprintf(w, "WARN (%v)\n", cfgErr)
	} else {
		fmt.Fprintf(w, "OK (%s)\n", config.ConfigFilePath())
	}

	// Check 5: local package directory
	fmt.Fprint(w, "  Package directory: ")
	pkgDir := typst.LocalPackagesDir()
	if info, statErr := os.Stat(pkgDir); statErr == nil && info.IsDir() {
		fmt.Fprintf(w, "OK (%s)\n", pkgDir)
	} else {
		fmt.Fprintf(w, "WARN (%s will be created on first use)\n", pkgDir)
	}

	fmt.Fprintln(w)
	if allPassed {
		fmt.Fprintln(w, "All critical checks passed!")
	} else {
		fmt.Fprintln(w, "Some checks failed. Please resolve the issues above.")
	}
}

// checkWritePermissions checks if we can write to the current directory
func checkWritePermissions() bool {
	tmpFile := ".typdocs_test_write"
	f, err := os.Create(tmpFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(tmpFile)
	return true
}
