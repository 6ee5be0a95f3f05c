// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"log/slog"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

func (c *compiler) emitDeclaration(d *tgsi.Declaration) {
	if d.First < 0 || d.Last < d.First {
		c.fail(ErrInvalidDeclaration, "%s[%d..%d]: empty range", d.File, d.First, d.Last)
	}

	switch d.File {
	case tgsi.FileTemporary:
		old := len(c.temps)
		ensureRegs(&c.temps, (d.Last+1)*4)
		for i := old; i < len(c.temps); i++ {
			c.temps[i] = c.uniformUI(0)
		}

	case tgsi.FileInput:
		ensureRegs(&c.inputs, (d.Last+1)*4)
		for i := d.First; i <= d.Last; i++ {
			if c.stage == qir.StageFragment {
				c.emitFragmentDeclInput(d, i)
			} else {
				c.emitVertexInput(i)
			}
		}

	case tgsi.FileOutput:
		ensureRegs(&c.outputs, (d.Last+1)*4)
		for i := 0; i < 4; i++ {
			c.addOutput(d.First*4+i, d.Semantic, d.SemanticIndex, i)
		}
		switch d.Semantic {
		case tgsi.SemanticPosition:
			c.outPosition = d.First * 4
		case tgsi.SemanticClipVertex:
			c.outClipVertex = d.First * 4
		case tgsi.SemanticColor:
			c.outColor = d.First * 4
		case tgsi.SemanticPSize:
			c.outPointSize = d.First * 4
		}

	case tgsi.FileConstant:
		if d.ArrayID < 0 {
			c.fail(ErrInvalidDeclaration, "negative array id %d", d.ArrayID)
		}
		ensureRegs(&c.ranges, d.ArrayID+1)
		c.ranges[d.ArrayID] = uboRange{
			declared: true,
			src:      c.u32(d.First) * 16,
			size:     c.u32(d.Last-d.First+1) * 16,
		}

	case tgsi.FileSampler, tgsi.FileSamplerView, tgsi.FileAddress:

	default:
		c.fail(ErrInvalidDeclaration, "unsupported declaration of %s", d.File)
	}
}

// emitImmediate appends one vec4 to the immediate table.
func (c *compiler) emitImmediate(imm *tgsi.Immediate) {
	ensureRegs(&c.consts, c.numConsts+4)
	for i, bits := range imm.Values {
		c.consts[c.numConsts+i] = c.uniformUI(bits)
	}
	c.numConsts += 4
}

// addOutput records which varying output slot i carries.
func (c *compiler) addOutput(i int, sem tgsi.Semantic, index, swizzle int) {
	ensureRegs(&c.outputSems, i+1)
	c.outputSems[i] = InputSemantic{Semantic: sem, Index: index, Swizzle: swizzle}
}

func (c *compiler) emitFragmentDeclInput(d *tgsi.Declaration, attr int) {
	switch {
	case d.Semantic == tgsi.SemanticPosition:
		c.emitFragcoordInput(attr)
	case d.Semantic == tgsi.SemanticFace:
		c.emitFaceInput(attr)
	case d.Semantic == tgsi.SemanticGeneric && d.SemanticIndex >= 0 && d.SemanticIndex < 8 &&
		c.fs.PointSpriteMask&(1<<d.SemanticIndex) != 0:
		c.emitPointCoordInput(attr)
	case d.Semantic == tgsi.SemanticColor && c.fs.LightTwoSide:
		c.emitTwoSidedColorInput(attr, d.SemanticIndex)
	default:
		c.emitFragmentInput(attr, d.Semantic, d.SemanticIndex)
	}
}

func (c *compiler) emitFragcoordInput(attr int) {
	p := c.prog
	c.inputs[attr*4+0] = p.FragX()
	c.inputs[attr*4+1] = p.FragY()
	c.inputs[attr*4+2] = p.FMul(p.IToF(p.FragZ()), c.uniformF(1.0/0xffffff))
	c.inputs[attr*4+3] = p.Rcp(p.FragW())
}

// emitFaceInput yields +1.0 for front faces and -1.0 for back faces.
func (c *compiler) emitFaceInput(attr int) {
	p := c.prog
	c.inputs[attr*4+0] = p.FSub(c.uniformF(1), p.FMul(p.IToF(p.FragRevFlag()), c.uniformF(2)))
	c.inputs[attr*4+1] = c.uniformF(0)
	c.inputs[attr*4+2] = c.uniformF(0)
	c.inputs[attr*4+3] = c.uniformF(1)
}

func (c *compiler) emitPointCoordInput(attr int) {
	if c.pointX.IsUndef() {
		c.pointX = c.uniformF(0)
		c.pointY = c.uniformF(0)
	}

	c.inputs[attr*4+0] = c.pointX
	if c.fs.PointCoordUpperLeft {
		c.inputs[attr*4+1] = c.prog.FSub(c.uniformF(1), c.pointY)
	} else {
		c.inputs[attr*4+1] = c.pointY
	}
	c.inputs[attr*4+2] = c.uniformF(0)
	c.inputs[attr*4+3] = c.uniformF(1)
}

// fragmentVarying allocates the next varying slot for (sem, index,
// swizzle) and returns its perspective-correct value.
func (c *compiler) fragmentVarying(sem tgsi.Semantic, index, swizzle int) qir.Value {
	i := len(c.inputSems)
	c.inputSems = append(c.inputSems, InputSemantic{Semantic: sem, Index: index, Swizzle: swizzle})

	p := c.prog
	return p.VaryAddC(p.FMul(qir.Vary(c.u32(i)), p.FragW()))
}

func (c *compiler) emitFragmentInput(attr int, sem tgsi.Semantic, index int) {
	for i := 0; i < 4; i++ {
		c.inputs[attr*4+i] = c.fragmentVarying(sem, index, i)
		c.numInputs++
	}
}

// emitTwoSidedColorInput reads both the front and back color and selects
// the back one for back-facing primitives.
func (c *compiler) emitTwoSidedColorInput(attr, index int) {
	p := c.prog
	var front, back [4]qir.Value
	for i := 0; i < 4; i++ {
		front[i] = c.fragmentVarying(tgsi.SemanticColor, index, i)
		back[i] = c.fragmentVarying(tgsi.SemanticBColor, index, i)
		c.numInputs += 2
	}
	p.SF(p.IToF(p.FragRevFlag()))
	for i := 0; i < 4; i++ {
		c.inputs[attr*4+i] = p.SelXYZC(back[i], front[i])
	}
}

// emitVertexInput reads one attribute from the VPM and converts it from
// its vertex format. The VPM is set up 16 bytes wide per attribute, so
// four words are always read.
func (c *compiler) emitVertexInput(attr int) {
	if attr >= MaxVertexAttribs {
		c.fail(ErrInvalidDeclaration, "vertex attribute %d beyond %d", attr, MaxVertexAttribs)
	}
	p := c.prog
	var vpm [4]qir.Value
	for i := range vpm {
		vpm[i] = p.VPMRead()
		c.numInputs++
	}

	format := c.vs.AttrFormats[attr]
	kind, swz := vertexFormatDesc(format)

	warned := false
	for i := 0; i < 4; i++ {
		var result qir.Value
		switch {
		case swz[i] > tgsi.SwizzleW:
			result = c.swizzledChannel(&vpm, swz[i])
		case kind == channelFloat32:
			result = vpm[swz[i]]
		case kind == channelUnorm8 || kind == channelSnorm8:
			word := vpm[0]
			if kind == channelSnorm8 {
				word = p.Xor(word, c.uniformUI(0x80808080))
			}
			result = p.Unpack8(word, int(swz[i]))
		default:
			if !warned {
				c.warn("unsupported vertex attribute format",
					slog.Int("attr", attr), slog.String("format", format.String()))
				warned = true
			}
			result = c.uniformF(0)
		}

		if kind == channelSnorm8 && swz[i] <= tgsi.SwizzleW {
			result = p.FSub(p.FMul(result, c.uniformF(2)), c.uniformF(1))
		}
		c.inputs[attr*4+i] = result
	}
}
