// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// srcChannels resolves every channel of the first three source operands.
// Missing operands resolve to qir.Undef.
func (c *compiler) srcChannels(inst *tgsi.Instruction) [3][4]qir.Value {
	var src [3][4]qir.Value
	for s := 0; s < len(src) && s < len(inst.Src); s++ {
		for ch := 0; ch < 4; ch++ {
			src[s][ch] = c.getSrc(inst, &inst.Src[s], ch)
		}
	}
	return src
}

func (c *compiler) getSrc(inst *tgsi.Instruction, r *tgsi.SrcRegister, ch int) qir.Value {
	swz := r.Swizzle[ch]
	if swz > tgsi.SwizzleW {
		c.fail(ErrInvalidProgram, "source swizzle %s", swz)
	}
	s := int(swz)

	var v qir.Value
	switch r.File {
	case tgsi.FileNull, tgsi.FileSampler, tgsi.FileSamplerView:
		return qir.Undef
	case tgsi.FileTemporary:
		v = c.readReg(c.temps, "TEMP", r.Index*4+s)
	case tgsi.FileImmediate:
		v = c.readReg(c.consts, "IMM", r.Index*4+s)
	case tgsi.FileInput:
		v = c.readReg(c.inputs, "IN", r.Index*4+s)
	case tgsi.FileConstant:
		if r.Indirect {
			v = c.indirectUniform(r, s)
		} else {
			v = c.uniform(qir.UniformData, c.u32(r.Index*4+s))
		}
	default:
		c.fail(ErrUnsupportedFile, "unsupported source file %s", r.File)
	}

	if r.Absolute {
		v = c.prog.FMaxAbs(v, v)
	}
	if r.Negate {
		if inst.Opcode.Info().SrcType == tgsi.TypeFloat {
			v = c.prog.FSub(c.uniformF(0), v)
		} else {
			v = c.prog.Sub(c.uniformUI(0), v)
		}
	}
	return v
}

// lookupRange finds the constant array an indirect read targets.
func (c *compiler) lookupRange(r *tgsi.SrcRegister) *uboRange {
	if r.ArrayID >= 0 && r.ArrayID < len(c.ranges) && c.ranges[r.ArrayID].declared {
		return &c.ranges[r.ArrayID]
	}
	if r.ArrayID == 0 {
		idx := c.u32(r.Index) * 16
		for i := range c.ranges {
			rng := &c.ranges[i]
			if rng.declared && idx >= rng.src && idx < rng.src+rng.size {
				return rng
			}
		}
	}
	c.fail(ErrInvalidProgram, "indirect read of CONST[%d] outside any declared array", r.Index)
	return nil
}

// indirectUniform loads a constant through the address register. The
// array is copied to the indirect-access buffer on first use and the
// computed offset is clamped to its last element.
func (c *compiler) indirectUniform(r *tgsi.SrcRegister, swz int) qir.Value {
	if r.IndirectFile != tgsi.FileAddress || r.IndirectIndex != 0 || r.IndirectSwizzle > tgsi.SwizzleW {
		c.fail(ErrUnsupportedFile, "indirect addressing through %s[%d]", r.IndirectFile, r.IndirectIndex)
	}
	rng := c.lookupRange(r)
	if !rng.used {
		rng.used = true
		rng.dst = c.nextUBOOffset
		c.nextUBOOffset += rng.size
		c.numUBORanges++
	}

	elem := c.u32(r.Index - int(rng.src/16))
	if elem*16 >= rng.size {
		c.fail(ErrInvalidProgram, "CONST[%d] is outside its array", r.Index)
	}

	p := c.prog
	offset := p.Add(c.addr[r.IndirectSwizzle], c.uniformUI(rng.dst+elem*16+c.u32(swz)*4))
	offset = p.Min(offset, c.uniformUI(rng.dst+rng.size-4))
	p.TexDirect(offset, p.AddUniform(qir.UniformUBOAddr, 0))
	c.numTextureSamples++
	return p.Mov(p.TexResult())
}

// updateDst writes channel ch of the instruction's destination.
func (c *compiler) updateDst(inst *tgsi.Instruction, ch int, v qir.Value) {
	if len(inst.Dst) == 0 {
		c.fail(ErrInvalidProgram, "%s has no destination", inst.Opcode)
	}
	d := &inst.Dst[0]
	if d.Indirect {
		c.fail(ErrIndirectWrite, "indirect destination %s[%d]", d.File, d.Index)
	}

	switch d.File {
	case tgsi.FileTemporary:
		i := d.Index*4 + ch
		c.checkSlot(len(c.temps), "TEMP", i)
		c.temps[i] = v
	case tgsi.FileOutput:
		i := d.Index*4 + ch
		c.checkSlot(len(c.outputs), "OUT", i)
		c.outputs[i] = v
		c.numOutputs = max(c.numOutputs, i+1)
	case tgsi.FileAddress:
		if d.Index != 0 {
			c.fail(ErrInvalidProgram, "address register ADDR[%d]", d.Index)
		}
		c.addr[ch] = v
	default:
		c.fail(ErrUnsupportedFile, "unsupported destination file %s", d.File)
	}
}
