// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/term"

	"github.com/gogpu/vc4c"
	"github.com/gogpu/vc4c/config"
	"github.com/gogpu/vc4c/tgsi"
	"github.com/gogpu/vc4c/vc4"
)

var (
	compileOutput string
	compileFS     string
	compileCoord  bool
	compileForce  bool

	pipelineOutput string
	pipelineForce  bool
)

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().StringVar(&compileFS, "fs", "", "fragment shader the vertex shader feeds")
	compileCmd.Flags().BoolVar(&compileCoord, "coord", false, "compile the coordinate shader of a vertex shader")
	compileCmd.Flags().BoolVarP(&compileForce, "force", "f", false, "write binary output to a terminal")

	pipelineCmd.Flags().StringVarP(&pipelineOutput, "output", "o", "", "output file (default: stdout)")
	pipelineCmd.Flags().BoolVarP(&pipelineForce, "force", "f", false, "write binary output to a terminal")
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <shader.tgsi>",
	Short: "Compile a shader to a msgpack record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sh, err := compileFile(args[0], compileFS, compileCoord)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), args[0], sh.Warnings)

		data, err := vc4c.Encode(sh)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), compileOutput, data, compileForce)
	},
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline [flags] <fragment.tgsi> <vertex.tgsi>",
	Short: "Compile the fragment, vertex and coordinate shaders of a pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsSource, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		vsSource, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		state, err := loadState()
		if err != nil {
			return err
		}

		p, err := vc4c.CompilePipeline(context.Background(), string(fsSource), string(vsSource),
			state.Fragment, state.Vertex, compileOptions())
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), args[0], p.Fragment.Warnings)
		printWarnings(cmd.ErrOrStderr(), args[1], p.Vertex.Warnings)

		data, err := msgpack.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode pipeline: %w", err)
		}
		return writeOutput(cmd.OutOrStdout(), pipelineOutput, data, pipelineForce)
	},
}

func compileOptions() *vc4.Options {
	return &vc4.Options{Validate: !global.noValidate}
}

// loadState reads --config, or returns default keys.
func loadState() (*config.Pipeline, error) {
	if global.configPath == "" {
		return &config.Pipeline{Fragment: vc4.DefaultFSKey(), Vertex: vc4.DefaultVSKey()}, nil
	}
	return config.Load(global.configPath)
}

// compileFile compiles path for the stage its header names. A vertex
// shader is paired with fsPath when given.
func compileFile(path, fsPath string, coord bool) (*vc4.Shader, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := tgsi.Parse(string(source))
	if err != nil {
		return nil, err
	}
	state, err := loadState()
	if err != nil {
		return nil, err
	}

	if prog.Processor == tgsi.ProcessorFragment {
		if fsPath != "" || coord {
			return nil, fmt.Errorf("%s: --fs and --coord apply to vertex shaders", path)
		}
		return vc4.CompileFragment(prog, state.Fragment, compileOptions())
	}

	key := *state.Vertex
	key.Coord = coord
	if fsPath != "" {
		fsSource, err := os.ReadFile(fsPath)
		if err != nil {
			return nil, err
		}
		fs, err := vc4c.CompileFragment(string(fsSource), state.Fragment, compileOptions())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fsPath, err)
		}
		key.FSInputs = fs.InputSemantics
	}
	return vc4.CompileVertex(prog, &key, compileOptions())
}

// writeOutput writes binary data to path, or to stdout when path is
// empty. Stdout is refused when it is a terminal unless force is set.
func writeOutput(stdout io.Writer, path string, data []byte, force bool) error {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) && !force {
		return fmt.Errorf("refusing to write binary output to a terminal (use -o or --force)")
	}
	_, err := stdout.Write(data)
	return err
}
