// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"fmt"
	"log/slog"
	"math"

	"fortio.org/safecast"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// uboRange describes one declared constant array. Arrays read with a
// dynamic index are copied into the indirect-access buffer; dst is their
// offset there, assigned on first use.
type uboRange struct {
	declared bool
	used     bool
	src      uint32
	dst      uint32
	size     uint32
}

// compiler is the state of one translation.
type compiler struct {
	prog  *qir.Program
	stage qir.Stage
	key   *Key
	fs    *FSKey
	vs    *VSKey

	temps   []qir.Value
	inputs  []qir.Value
	outputs []qir.Value
	consts  []qir.Value
	addr    [4]qir.Value

	outputSems []InputSemantic
	inputSems  []InputSemantic

	ranges        []uboRange
	nextUBOOffset uint32
	numUBORanges  int

	numInputs         int
	numOutputs        int
	numConsts         int
	numTextureSamples int

	discard qir.Value
	pointX  qir.Value
	pointY  qir.Value
	lineX   qir.Value

	// Output register offsets of the named outputs, or -1.
	outPosition   int
	outClipVertex int
	outColor      int
	outPointSize  int

	warnings []string

	// inst is the instruction being translated, for error context.
	inst *tgsi.Instruction
}

func newCompiler(stage qir.Stage, key *Key) *compiler {
	return &compiler{
		prog:          qir.NewProgram(stage),
		stage:         stage,
		key:           key,
		outPosition:   -1,
		outClipVertex: -1,
		outColor:      -1,
		outPointSize:  -1,
	}
}

// fail aborts the translation. Compile recovers the panic.
func (c *compiler) fail(kind ErrorKind, format string, args ...any) {
	err := &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if c.inst != nil {
		err.Instruction = c.inst.String()
	}
	panic(err)
}

// warn records a recoverable problem.
func (c *compiler) warn(msg string, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("stage", c.stage.String()))
	text := msg
	for _, a := range attrs {
		args = append(args, a)
		text += " " + a.String()
	}
	Logger().Warn(msg, args...)
	c.warnings = append(c.warnings, text)
}

// u32 converts a non-negative program index.
func (c *compiler) u32(v int) uint32 {
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		c.fail(ErrInvalidProgram, "index %d out of range", v)
	}
	return u
}

// uniform loads a uniform slot into a fresh temporary. Requests for the
// same slot share one table entry but each emits its own MOV.
func (c *compiler) uniform(contents qir.UniformContents, data uint32) qir.Value {
	return c.prog.Mov(c.prog.AddUniform(contents, data))
}

func (c *compiler) uniformUI(bits uint32) qir.Value {
	return c.uniform(qir.UniformConstant, bits)
}

func (c *compiler) uniformF(f float32) qir.Value {
	return c.uniformUI(math.Float32bits(f))
}

// swizzledChannel picks one channel of vals, or a constant for the ZERO
// and ONE selectors.
func (c *compiler) swizzledChannel(vals *[4]qir.Value, swz tgsi.Swizzle) qir.Value {
	switch swz {
	case tgsi.SwizzleX, tgsi.SwizzleY, tgsi.SwizzleZ, tgsi.SwizzleW:
		return vals[swz]
	case tgsi.SwizzleZero:
		return c.uniformF(0)
	case tgsi.SwizzleOne:
		return c.uniformF(1)
	default:
		c.warn("unknown swizzle", slog.String("swizzle", swz.String()))
		return c.uniformF(0)
	}
}
