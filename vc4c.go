// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vc4c compiles TGSI shaders for the Broadcom VideoCore IV GPU.
//
// vc4c is the shader front half of a VC4 driver: it parses the Gallium
// TGSI text format, and lowers it to QIR, the VC4 intermediate
// representation, with the fixed-function pipeline state the hardware
// lacks (blending, alpha test, viewport transform, user clip planes)
// compiled into the shader. Register allocation and QPU code emission
// happen downstream.
//
// Example usage:
//
//	source := `FRAG
//	DCL IN[0], COLOR
//	DCL OUT[0], COLOR
//	MOV OUT[0], IN[0]
//	END
//	`
//	sh, err := vc4c.CompileFragment(source, vc4.DefaultFSKey(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(sh.Program)
//
// A vertex shader must be compiled against the fragment shader it feeds,
// because it writes exactly the varyings that fragment shader reads.
// CompilePipeline does that and also builds the coordinate shader the
// binner runs:
//
//	p, err := vc4c.CompilePipeline(ctx, fsSource, vsSource, fsKey, vsKey, nil)
//
// Compiled shaders can be handed to the emitter as msgpack with Encode and
// Decode.
package vc4c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
	"github.com/gogpu/vc4c/vc4"
)

// Parse parses TGSI source text.
func Parse(source string) (*tgsi.Program, error) {
	prog, err := tgsi.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return prog, nil
}

// CompileFragment parses and compiles a fragment shader. If opts is nil,
// vc4.DefaultOptions are used.
func CompileFragment(source string, key *vc4.FSKey, opts *vc4.Options) (*vc4.Shader, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	sh, err := vc4.CompileFragment(prog, key, opts)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	return sh, nil
}

// CompileVertex parses and compiles a vertex shader, or the coordinate
// shader when key.Coord is set.
func CompileVertex(source string, key *vc4.VSKey, opts *vc4.Options) (*vc4.Shader, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	sh, err := vc4.CompileVertex(prog, key, opts)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	return sh, nil
}

// Pipeline is the set of shaders one draw binds.
type Pipeline struct {
	Fragment   *vc4.Shader `msgpack:"fragment"`
	Vertex     *vc4.Shader `msgpack:"vertex"`
	Coordinate *vc4.Shader `msgpack:"coordinate"`
}

// CompilePipeline compiles a fragment shader, then the vertex and
// coordinate shaders that feed it. The vertex key's FSInputs and Coord
// fields are ignored; they are derived from the fragment shader. vsKey is
// not modified.
func CompilePipeline(ctx context.Context, fsSource, vsSource string,
	fsKey *vc4.FSKey, vsKey *vc4.VSKey, opts *vc4.Options) (*Pipeline, error) {
	if vsKey == nil {
		return nil, fmt.Errorf("vertex shader: %w", vc4.NewError(vc4.ErrInvalidProgram, "compile key is nil"))
	}

	fs, err := CompileFragment(fsSource, fsKey, opts)
	if err != nil {
		return nil, err
	}
	vsProg, err := Parse(vsSource)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{Fragment: fs}
	g, gctx := errgroup.WithContext(ctx)
	for _, coord := range []bool{false, true} {
		key := *vsKey
		key.Coord = coord
		key.FSInputs = fs.InputSemantics
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sh, err := vc4.CompileVertex(vsProg, &key, opts)
			if err != nil {
				if coord {
					return fmt.Errorf("coordinate shader: %w", err)
				}
				return fmt.Errorf("vertex shader: %w", err)
			}
			if coord {
				p.Coordinate = sh
			} else {
				p.Vertex = sh
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode serializes a compiled shader for the code emitter.
func Encode(sh *vc4.Shader) ([]byte, error) {
	b, err := msgpack.Marshal(sh)
	if err != nil {
		return nil, fmt.Errorf("encode shader: %w", err)
	}
	return b, nil
}

// Decode reads a shader written by Encode and checks that its program is
// well formed.
func Decode(data []byte) (*vc4.Shader, error) {
	var sh vc4.Shader
	if err := msgpack.Unmarshal(data, &sh); err != nil {
		return nil, fmt.Errorf("decode shader: %w", err)
	}
	if sh.Program == nil {
		return nil, fmt.Errorf("decode shader: no program")
	}
	problems, err := qir.Validate(sh.Program)
	if err != nil {
		return nil, fmt.Errorf("decode shader: %w", err)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("decode shader: %w", problems[0])
	}
	return &sh, nil
}

// SetLogger configures the logger used by the compiler packages. Pass nil
// to disable logging.
func SetLogger(l *slog.Logger) {
	vc4.SetLogger(l)
}
