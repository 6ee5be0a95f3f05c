// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// outputChannel returns channel i of the vec4 output at base. Missing or
// unwritten channels read as (0, 0, 0, 1).
func (c *compiler) outputChannel(base, i int) qir.Value {
	if base >= 0 && base+i < len(c.outputs) && !c.outputs[base+i].IsUndef() {
		return c.outputs[base+i]
	}
	if i == 3 {
		return c.uniformF(1)
	}
	return c.uniformF(0)
}

func (c *compiler) emitFragEnd() {
	p := c.prog
	fs := c.fs

	c.clipDistanceDiscard()
	c.alphaTestDiscard()

	fswz, ok := formatSwizzle(fs.ColorFormat)
	if !ok {
		c.warn("unsupported render target format", slog.String("format", fs.ColorFormat.String()))
	}
	srgb := fs.ColorFormat.IsSrgb()

	var dstColor, linearDst [4]qir.Value
	if fs.Blend.Enable || fs.Blend.WriteMask != gputypes.ColorWriteMaskAll {
		r4 := p.TLBColorRead()
		var tlb [4]qir.Value
		for i := range tlb {
			tlb[i] = p.R4Unpack(r4, i)
		}
		for i := range dstColor {
			dstColor[i] = c.swizzledChannel(&tlb, fswz[i])
			if srgb && i != 3 {
				linearDst[i] = c.srgbDecode(dstColor[i])
			} else {
				linearDst[i] = dstColor[i]
			}
		}
	}

	var src [4]qir.Value
	if c.outColor != -1 {
		copy(src[:], c.outputs[c.outColor:c.outColor+4])
	}
	if fs.Blend.Enable {
		for i := range src {
			if src[i].IsUndef() {
				src[i] = c.uniformF(0)
			}
		}
	}

	color := c.blend(&linearDst, &src)

	if srgb {
		for i := 0; i < 3; i++ {
			if !color[i].IsUndef() {
				color[i] = c.srgbEncode(color[i])
			}
		}
	}

	// Masked-off channels keep the tile buffer's contents.
	for i := range color {
		if fs.Blend.WriteMask&(1<<i) == 0 {
			color[i] = dstColor[i]
		}
	}

	var out [4]qir.Value
	for i := range out {
		out[i] = c.swizzledChannel(&color, fswz[i])
	}

	if !c.discard.IsUndef() {
		p.TLBDiscardSetup(c.discard)
	}

	if fs.StencilEnabled {
		p.TLBStencilSetup(p.AddUniform(qir.UniformStencil, 0))
		if fs.StencilTwoSide {
			p.TLBStencilSetup(p.AddUniform(qir.UniformStencil, 1))
		}
		if fs.StencilFullWriteMasks {
			p.TLBStencilSetup(p.AddUniform(qir.UniformStencil, 2))
		}
	}

	if fs.DepthEnabled {
		var z qir.Value
		if c.outPosition != -1 && !c.outputs[c.outPosition+2].IsUndef() {
			z = p.FToI(p.FMul(c.outputs[c.outPosition+2], c.uniformF(0xffffff)))
		} else {
			z = p.FragZ()
		}
		p.TLBZWrite(z)
	}

	written := false
	for _, v := range out {
		if !v.IsUndef() {
			written = true
		}
	}

	var packed qir.Value
	if written {
		for i := range out {
			if out[i].IsUndef() {
				out[i] = c.uniformF(0)
			}
		}
		packed = p.PackColors(out[0], out[1], out[2], out[3])
	} else {
		packed = c.uniformUI(0)
	}
	p.TLBColorWrite(packed)
}

// emitScaledViewportWrite writes the screen-space X/Y as two 16-bit
// fixed-point values in one word.
func (c *compiler) emitScaledViewportWrite(rcpW qir.Value) {
	p := c.prog
	var xy [2]qir.Value
	for i := range xy {
		scale := p.AddUniform(qir.UniformViewportXScale+qir.UniformContents(i), 0)
		xy[i] = p.FToI(p.FMul(p.FMul(c.outputChannel(c.outPosition, i), scale), rcpW))
	}
	p.VPMWrite(p.PackScaled(xy[0], xy[1]))
}

func (c *compiler) emitZSWrite(rcpW qir.Value) {
	p := c.prog
	zs := p.FMul(c.outputChannel(c.outPosition, 2), p.AddUniform(qir.UniformViewportZScale, 0))
	zs = p.FAdd(zs, p.AddUniform(qir.UniformViewportZOffset, 0))
	p.VPMWrite(p.FMul(zs, rcpW))
}

func (c *compiler) emitRcpWCWrite(rcpW qir.Value) {
	c.prog.VPMWrite(rcpW)
}

func (c *compiler) emitPointSizeWrite() {
	var size qir.Value
	if c.outPointSize != -1 && !c.outputs[c.outPointSize].IsUndef() {
		size = c.outputs[c.outPointSize]
	} else {
		size = c.uniformF(1)
	}
	// Sizes below 1/8 pixel are clamped.
	c.prog.VPMWrite(c.prog.FMax(size, c.uniformF(0.125)))
}

// emitStubVPMRead reads one attribute when the shader has none; the VPM
// read setup must always be consumed.
func (c *compiler) emitStubVPMRead() {
	if c.numInputs > 0 {
		return
	}
	for i := 0; i < 4; i++ {
		c.prog.VPMRead()
		c.numInputs++
	}
}

// emitUCPClipDistance appends one output per enabled user clip plane
// holding the distance of the clip vertex (or position) to the plane.
func (c *compiler) emitUCPClipDistance() {
	cv := c.outClipVertex
	if cv == -1 {
		cv = c.outPosition
	}
	if cv == -1 {
		return
	}

	p := c.prog
	for plane := 0; plane < MaxClipPlanes; plane++ {
		if c.key.UCPEnables&(1<<plane) == 0 {
			continue
		}

		out := max(c.numOutputs, len(c.outputs))
		c.numOutputs = out + 1
		ensureRegs(&c.outputs, out+1)
		c.addOutput(out, tgsi.SemanticClipDist, plane, int(tgsi.SwizzleX))

		dist := c.uniformF(0)
		for i := 0; i < 4; i++ {
			ucp := p.AddUniform(qir.UniformUserClipPlane, c.u32(plane*4+i))
			dist = p.FAdd(dist, p.FMul(c.outputChannel(cv, i), ucp))
		}
		c.outputs[out] = dist
	}
}

// findOutput returns the output slot carrying sem, or -1.
func (c *compiler) findOutput(sem InputSemantic) int {
	for j := 0; j < c.numOutputs && j < len(c.outputSems); j++ {
		if c.outputSems[j] == sem {
			return j
		}
	}
	return -1
}

func (c *compiler) emitVertEnd() {
	p := c.prog
	rcpW := p.Rcp(c.outputChannel(c.outPosition, 3))

	c.emitStubVPMRead()
	c.emitUCPClipDistance()

	c.emitScaledViewportWrite(rcpW)
	c.emitZSWrite(rcpW)
	c.emitRcpWCWrite(rcpW)
	if c.vs.PerVertexPointSize {
		c.emitPointSizeWrite()
	}

	for _, in := range c.vs.FSInputs {
		j := c.findOutput(in)
		if j == -1 || c.outputs[j].IsUndef() {
			p.VPMWrite(c.uniformF(0))
			continue
		}
		p.VPMWrite(c.outputs[j])
	}
}

func (c *compiler) emitCoordEnd() {
	p := c.prog
	rcpW := p.Rcp(c.outputChannel(c.outPosition, 3))

	c.emitStubVPMRead()

	for i := 0; i < 4; i++ {
		p.VPMWrite(c.outputChannel(c.outPosition, i))
	}

	c.emitScaledViewportWrite(rcpW)
	c.emitZSWrite(rcpW)
	c.emitRcpWCWrite(rcpW)
	if c.vs.PerVertexPointSize {
		c.emitPointSizeWrite()
	}
}
