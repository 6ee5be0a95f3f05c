// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command vc4c compiles TGSI shaders to VC4 QIR.
//
// Usage:
//
//	vc4c <command> [flags] <input>
//
// Examples:
//
//	vc4c dump shader.tgsi                        # Print the QIR
//	vc4c compile -o shader.mp shader.tgsi        # Write the msgpack record
//	vc4c compile --fs frag.tgsi vert.tgsi        # Vertex shader feeding frag.tgsi
//	vc4c pipeline -o pipe.mp frag.tgsi vert.tgsi # All three shaders
//	vc4c run --varyings 1,0,0,1 shader.tgsi      # Execute one fragment
//	vc4c --config state.toml dump shader.tgsi    # Variant from a pipeline-state file
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/vc4c"
	"github.com/gogpu/vc4c/tgsi"
)

// globalOptions are the persistent flags.
type globalOptions struct {
	color      string
	configPath string
	verbose    bool
	noValidate bool
}

var global globalOptions

var rootCmd = &cobra.Command{
	Use:           "vc4c",
	Short:         "TGSI to VC4 QIR shader compiler",
	Long:          `vc4c lowers Gallium TGSI shaders to QIR for the Broadcom VideoCore IV.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(global.color); err != nil {
			return err
		}
		if global.verbose {
			vc4c.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return nil
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&global.color, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&global.configPath, "config", "", "pipeline-state TOML file")
	rootCmd.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "log compiler activity to stderr")
	rootCmd.PersistentFlags().BoolVar(&global.noValidate, "no-validate", false, "skip QIR validation")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func setupColor(mode string) error {
	switch mode {
	case "auto":
		// fatih/color already disables itself off a terminal.
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("--color: unknown mode %q (want auto, on or off)", mode)
	}
	return nil
}

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
)

// printError shows assembler errors with their source line.
func printError(w io.Writer, err error) {
	var list tgsi.SourceErrors
	var single *tgsi.SourceError
	switch {
	case errors.As(err, &list):
		fmt.Fprintln(w, list.FormatAll())
	case errors.As(err, &single):
		fmt.Fprintln(w, single.FormatWithContext())
	default:
		errorLabel.Fprint(w, "error: ")
		fmt.Fprintln(w, err)
	}
}

func printWarnings(w io.Writer, name string, warnings []string) {
	for _, msg := range warnings {
		warningLabel.Fprint(w, "warning: ")
		fmt.Fprintf(w, "%s: %s\n", name, msg)
	}
}
