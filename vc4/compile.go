// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vc4 translates TGSI shaders into QIR for the Broadcom
// VideoCore IV 3D core.
//
// The hardware has no fixed-function blending, alpha test, user clip
// planes or viewport transform, so every compiled shader carries its
// stage's share of that pipeline state. Shader variants are selected by
// FSKey and VSKey.
//
// Basic usage:
//
//	prog, err := tgsi.Parse(source)
//	if err != nil {
//	    return err
//	}
//	sh, err := vc4.CompileFragment(prog, vc4.DefaultFSKey(), nil)
//	if err != nil {
//	    return err
//	}
//	fmt.Print(sh.Program)
package vc4

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// StageKey is a compile key: *FSKey or *VSKey.
type StageKey interface {
	stage() qir.Stage
	base() *Key
}

func (k *FSKey) stage() qir.Stage { return qir.StageFragment }
func (k *FSKey) base() *Key       { return &k.Key }

func (k *VSKey) stage() qir.Stage {
	if k.Coord {
		return qir.StageCoordinate
	}
	return qir.StageVertex
}
func (k *VSKey) base() *Key { return &k.Key }

// DefaultFSKey returns a key for an opaque RGBA8 render target with all
// channels written and no depth, stencil or blending.
func DefaultFSKey() *FSKey {
	return &FSKey{
		ColorFormat: gputypes.TextureFormatRGBA8Unorm,
		Blend:       BlendState{WriteMask: gputypes.ColorWriteMaskAll},
		Topology:    gputypes.PrimitiveTopologyTriangleList,
	}
}

// DefaultVSKey returns a vertex shader key with float32x4 attributes.
func DefaultVSKey() *VSKey {
	k := &VSKey{}
	for i := range k.AttrFormats {
		k.AttrFormats[i] = gputypes.VertexFormatFloat32x4
	}
	return k
}

// CompileFragment compiles a fragment shader.
func CompileFragment(prog *tgsi.Program, key *FSKey, opts *Options) (*Shader, error) {
	return Compile(prog, key, opts)
}

// CompileVertex compiles a vertex shader, or the coordinate shader when
// key.Coord is set.
func CompileVertex(prog *tgsi.Program, key *VSKey, opts *Options) (*Shader, error) {
	return Compile(prog, key, opts)
}

// Compile translates prog for the stage key selects. If opts is nil,
// DefaultOptions are used.
func Compile(prog *tgsi.Program, key StageKey, opts *Options) (sh *Shader, err error) {
	if prog == nil {
		return nil, NewError(ErrInvalidProgram, "program is nil")
	}
	var fs *FSKey
	var vs *VSKey
	switch k := key.(type) {
	case *FSKey:
		fs = k
	case *VSKey:
		vs = k
	}
	if fs == nil && vs == nil {
		return nil, NewError(ErrInvalidProgram, "compile key is nil")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	stage := key.stage()
	switch {
	case stage == qir.StageFragment && prog.Processor != tgsi.ProcessorFragment,
		stage != qir.StageFragment && prog.Processor != tgsi.ProcessorVertex:
		return nil, NewError(ErrInvalidProgram,
			fmt.Sprintf("%s program compiled with a %s key", prog.Processor, stage))
	}

	c := newCompiler(stage, key.base())
	c.fs, c.vs = fs, vs

	defer func() {
		if r := recover(); r != nil {
			sh, err = nil, recoverError(r)
		}
	}()

	c.run(prog)

	if opts.Validate {
		problems, verr := qir.Validate(c.prog)
		if verr != nil {
			return nil, verr
		}
		if len(problems) > 0 {
			return nil, &Error{
				Kind:    ErrInternal,
				Message: fmt.Sprintf("invalid output: %v", errors.Join(asErrors(problems)...)),
			}
		}
	}

	sh = c.finalize()
	Logger().Debug("vc4: compiled shader",
		slog.String("stage", stage.String()),
		slog.Int("instructions", c.prog.Len()),
		slog.Int("temps", int(c.prog.NumTemps)),
		slog.Int("uniforms", c.prog.Uniforms.Len()),
		slog.Int("warnings", len(c.warnings)))
	return sh, nil
}

// recoverError turns a compiler panic back into an error. Panics that
// are not compilation failures are re-raised.
func recoverError(r any) error {
	switch v := r.(type) {
	case *Error:
		return v
	case error:
		if errors.Is(v, qir.ErrStaleAccumulator) {
			return &Error{Kind: ErrInternal, Message: v.Error()}
		}
	}
	panic(r)
}

func asErrors(problems []qir.ValidationError) []error {
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return errs
}

// run is the single translation pass.
func (c *compiler) run(prog *tgsi.Program) {
	for i := range c.addr {
		c.addr[i] = c.uniformF(0)
	}

	if c.stage == qir.StageFragment {
		if c.fs.isPoints() {
			c.pointX = c.fragmentVarying(pseudoSemantic, ^0, 0)
			c.pointY = c.fragmentVarying(pseudoSemantic, ^0, 0)
		} else if c.fs.isLines() {
			c.lineX = c.fragmentVarying(pseudoSemantic, ^0, 0)
		}
	}

	for _, tok := range prog.Tokens {
		switch t := tok.(type) {
		case *tgsi.Declaration:
			c.emitDeclaration(t)
		case *tgsi.Immediate:
			c.emitImmediate(t)
		case *tgsi.Instruction:
			c.emitInstruction(t)
		}
	}
	c.inst = nil

	switch c.stage {
	case qir.StageFragment:
		c.emitFragEnd()
	case qir.StageVertex:
		c.emitVertEnd()
	case qir.StageCoordinate:
		c.emitCoordEnd()
	}
}

func (c *compiler) emitInstruction(inst *tgsi.Instruction) {
	c.inst = inst
	if inst.Opcode == tgsi.OpcodeEND || inst.Opcode == tgsi.OpcodeNop {
		return
	}

	src := c.srcChannels(inst)

	switch inst.Opcode {
	case tgsi.OpcodeTEX, tgsi.OpcodeTXP, tgsi.OpcodeTXB, tgsi.OpcodeTXL:
		c.emitTex(inst, &src)
		return
	case tgsi.OpcodeKILL:
		c.discard = c.uniformF(1)
		return
	case tgsi.OpcodeKILLIF:
		for i := 0; i < 4; i++ {
			c.killIf(src[0][i])
		}
		return
	}

	entry, ok := opTable[inst.Opcode]
	if !ok {
		c.fail(ErrUnsupportedOpcode, "unsupported opcode %s", inst.Opcode)
	}
	if len(inst.Dst) == 0 {
		c.fail(ErrInvalidProgram, "%s has no destination", inst.Opcode)
	}

	for i := 0; i < 4; i++ {
		if !inst.Dst[0].WriteMask.Has(i) {
			continue
		}
		r := entry.lower(c, inst, entry.op, &src, i)

		switch inst.Saturate {
		case tgsi.SaturateZeroOne:
			r = c.prog.FMax(c.prog.FMin(r, c.uniformF(1)), c.uniformF(0))
		case tgsi.SaturateMinusPlusOne:
			r = c.prog.FMax(c.prog.FMin(r, c.uniformF(1)), c.uniformF(-1))
		}

		c.updateDst(inst, i, r)
	}
}
