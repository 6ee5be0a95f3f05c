// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// defaultTextureKey is used for units without sampler state.
var defaultTextureKey = TextureKey{Format: gputypes.TextureFormatRGBA8Unorm}

func (c *compiler) textureKey(unit int) *TextureKey {
	if unit >= 0 && unit < len(c.key.Textures) {
		return &c.key.Textures[unit]
	}
	return &defaultTextureKey
}

// emitTex lowers a sampling instruction. The coordinate writes are issued
// T, then B, then S: writing S starts the fetch.
func (c *compiler) emitTex(inst *tgsi.Instruction, src *[3][4]qir.Value) {
	if len(inst.Src) < 2 {
		c.fail(ErrInvalidProgram, "%s needs a sampler operand", inst.Opcode)
	}
	p := c.prog
	op := inst.Opcode
	unit := c.u32(inst.Src[1].Index)
	tk := c.textureKey(inst.Src[1].Index)

	s, t, r := src[0][0], src[0][1], src[0][2]

	var proj qir.Value
	if op == tgsi.OpcodeTXP {
		proj = p.Rcp(src[0][3])
		s = p.FMul(s, proj)
		t = p.FMul(t, proj)
	}

	texU := [4]qir.Value{
		p.AddUniform(qir.UniformTextureConfigP0, unit),
		p.AddUniform(qir.UniformTextureConfigP1, unit),
		p.AddUniform(qir.UniformConstant, 0),
		p.AddUniform(qir.UniformConstant, 0),
	}
	next := 0

	if inst.Texture.IsRect() {
		s = p.FMul(s, c.uniform(qir.UniformTexrectScaleX, unit))
		t = p.FMul(t, c.uniform(qir.UniformTexrectScaleY, unit))
	}

	if inst.Texture.IsCube() || op == tgsi.OpcodeTXL {
		p2 := unit
		if op == tgsi.OpcodeTXL {
			p2 |= 1 << 16
		}
		texU[2] = p.AddUniform(qir.UniformTextureConfigP2, p2)
	}

	if inst.Texture.IsCube() {
		ma := p.FMaxAbs(p.FMaxAbs(s, t), r)
		rcpMA := p.Rcp(ma)
		s = p.FMul(s, rcpMA)
		t = p.FMul(t, rcpMA)
		r = p.FMul(r, rcpMA)

		p.Tex(qir.OpTexR, r, texU[next])
		next++
	} else if tk.WrapS.needsBorder() || tk.WrapT.needsBorder() {
		p.Tex(qir.OpTexR, c.uniform(qir.UniformTextureBorderColor, unit), texU[next])
		next++
	}

	if tk.WrapS == WrapClamp {
		s = p.FMin(p.FMax(s, c.uniformF(0)), c.uniformF(1))
	}
	if tk.WrapT == WrapClamp {
		t = p.FMin(p.FMax(t, c.uniformF(0)), c.uniformF(1))
	}

	p.Tex(qir.OpTexT, t, texU[next])
	next++

	if op == tgsi.OpcodeTXB || op == tgsi.OpcodeTXL {
		p.Tex(qir.OpTexB, src[0][3], texU[next])
		next++
	}

	p.Tex(qir.OpTexS, s, texU[next])

	c.numTextureSamples++
	r4 := p.TexResult()

	var unpacked [4]qir.Value
	if tk.Format.HasDepth() {
		normalized := p.FMul(p.IToF(p.Shr(r4, c.uniformUI(8))), c.uniformF(1.0/0xffffff))

		depth := normalized
		if tk.CompareMode {
			cmp := src[0][2]
			if op == tgsi.OpcodeTXP {
				cmp = p.FMul(cmp, proj)
			}
			depth = c.depthCompare(tk.CompareFunc, cmp, normalized)
		}
		for i := range unpacked {
			unpacked[i] = depth
		}
	} else {
		for i := range unpacked {
			unpacked[i] = p.R4Unpack(r4, i)
		}
	}

	fswz, ok := formatSwizzle(tk.Format)
	if !ok {
		c.warn("unsupported texture format", slog.Int("unit", inst.Src[1].Index),
			slog.String("format", tk.Format.String()))
	}
	var texel [4]qir.Value
	for i := range texel {
		texel[i] = c.swizzledChannel(&unpacked, fswz[i])
	}
	if tk.Format.IsSrgb() {
		for i := 0; i < 3; i++ {
			texel[i] = c.srgbDecode(texel[i])
		}
	}

	swz := tk.swizzle()
	for i := 0; i < 4; i++ {
		if len(inst.Dst) > 0 && !inst.Dst[0].WriteMask.Has(i) {
			continue
		}
		c.updateDst(inst, i, c.swizzledChannel(&texel, swz[i]))
	}
}
