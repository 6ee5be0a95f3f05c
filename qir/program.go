// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

import (
	"errors"
	"fmt"
)

// ErrStaleAccumulator is raised when an instruction reads an accumulator
// value that a later texture or tile-buffer read has already overwritten.
var ErrStaleAccumulator = errors.New("qir: stale accumulator read")

// Inst is one device instruction.
type Inst struct {
	Op  Op      `msgpack:"op"`
	Dst Value   `msgpack:"dst"`
	Src []Value `msgpack:"src"`
}

// String formats the instruction as "op dst, src...".
func (i Inst) String() string {
	s := i.Op.String()
	sep := " "
	if i.Op.Info().HasDst {
		s += sep + i.Dst.String()
		sep = ", "
	}
	for _, src := range i.Src {
		s += sep + src.String()
		sep = ", "
	}
	return s
}

// Program is an in-progress or finished device IR program. The zero value is
// not usable; create programs with NewProgram.
type Program struct {
	Stage    Stage        `msgpack:"stage"`
	Insts    []Inst       `msgpack:"insts"`
	NumTemps uint32       `msgpack:"num_temps"`
	Uniforms UniformTable `msgpack:"uniforms"`

	// r4Gen counts accumulator writes; a FileR4 Value is only readable
	// while its Index equals the current generation.
	r4Gen uint32
}

// NewProgram creates an empty program for stage.
func NewProgram(stage Stage) *Program {
	return &Program{
		Stage: stage,
		Insts: make([]Inst, 0, 64),
	}
}

// NewTemp allocates a fresh temporary.
func (p *Program) NewTemp() Value {
	t := Temp(p.NumTemps)
	p.NumTemps++
	return t
}

// Emit appends an instruction. The number of sources must match the opcode.
func (p *Program) Emit(op Op, dst Value, srcs ...Value) {
	if !op.Valid() {
		panic(fmt.Sprintf("qir: invalid opcode %d", uint8(op)))
	}
	if len(srcs) != op.NumSrc() {
		panic(fmt.Sprintf("qir: %s takes %d sources, got %d", op, op.NumSrc(), len(srcs)))
	}
	for _, s := range srcs {
		if s.File == FileR4 && s.Index != p.r4Gen {
			panic(fmt.Errorf("%w: %s reads generation %d, current is %d",
				ErrStaleAccumulator, op, s.Index, p.r4Gen))
		}
	}
	p.Insts = append(p.Insts, Inst{Op: op, Dst: dst, Src: srcs})
}

// AddUniform returns the uniform slot for (contents, data).
func (p *Program) AddUniform(contents UniformContents, data uint32) Value {
	return Unif(p.Uniforms.Add(contents, data))
}

// Len returns the number of instructions emitted so far.
func (p *Program) Len() int { return len(p.Insts) }

// Count returns how many instructions use op.
func (p *Program) Count(op Op) int {
	n := 0
	for i := range p.Insts {
		if p.Insts[i].Op == op {
			n++
		}
	}
	return n
}
