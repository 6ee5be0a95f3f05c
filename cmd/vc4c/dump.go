// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/vc4c"
	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/vc4"
)

var (
	dumpFS    string
	dumpCoord bool
)

func init() {
	dumpCmd.Flags().StringVar(&dumpFS, "fs", "", "fragment shader the vertex shader feeds")
	dumpCmd.Flags().BoolVar(&dumpCoord, "coord", false, "dump the coordinate shader of a vertex shader")
}

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <shader.tgsi | shader.mp>",
	Short: "Print the QIR and bind information of a shader",
	Long: `Print the QIR and bind information of a shader. A .mp file is read as a
record written by "vc4c compile"; anything else is compiled first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sh *vc4.Shader
		var err error
		if filepath.Ext(args[0]) == ".mp" {
			data, rerr := os.ReadFile(args[0])
			if rerr != nil {
				return rerr
			}
			sh, err = vc4c.Decode(data)
		} else {
			sh, err = compileFile(args[0], dumpFS, dumpCoord)
		}
		if err != nil {
			return err
		}
		return dumpShader(cmd.OutOrStdout(), sh)
	},
}

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

func heading(w io.Writer, title string) {
	if color.NoColor {
		fmt.Fprintf(w, "== %s ==\n", title)
		return
	}
	fmt.Fprintln(w, headingStyle.Render(title))
}

func dumpShader(w io.Writer, sh *vc4.Shader) error {
	heading(w, "program")
	if err := sh.Program.Dump(w); err != nil {
		return err
	}

	heading(w, "inputs")
	if sh.Stage == qir.StageFragment {
		for i, sem := range sh.InputSemantics {
			flat := ""
			if sh.ColorInputs&(1<<i) != 0 {
				flat = " (color)"
			}
			fmt.Fprintf(w, "  v%d: %s%s\n", i, sem, flat)
		}
	} else {
		fmt.Fprintf(w, "  %d VPM words\n", sh.NumInputs)
	}

	if len(sh.UBORanges) > 0 {
		heading(w, "indirect constants")
		for _, r := range sh.UBORanges {
			fmt.Fprintf(w, "  [%d, +%d) <- constants[%d]\n", r.DstOffset, r.Size, r.SrcOffset)
		}
		fmt.Fprintf(w, "  %d bytes\n", sh.UBOSize)
	}
	if sh.NumTextureSamples > 0 {
		fmt.Fprintf(w, "%d texture samples\n", sh.NumTextureSamples)
	}
	printWarnings(w, "shader", sh.Warnings)
	return nil
}
