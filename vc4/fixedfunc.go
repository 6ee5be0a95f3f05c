// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// srgbDecode converts an sRGB-encoded channel to linear.
func (c *compiler) srgbDecode(srgb qir.Value) qir.Value {
	p := c.prog
	low := p.FMul(srgb, c.uniformF(1.0/12.92))
	high := p.Pow(p.FMul(p.FAdd(srgb, c.uniformF(0.055)), c.uniformF(1.0/1.055)),
		c.uniformF(2.4))

	p.SF(p.FSub(srgb, c.uniformF(0.04045)))
	return p.SelXYNS(low, high)
}

// srgbEncode converts a linear channel to sRGB.
func (c *compiler) srgbEncode(linear qir.Value) qir.Value {
	p := c.prog
	low := p.FMul(linear, c.uniformF(12.92))
	high := p.FSub(p.FMul(c.uniformF(1.055), p.Pow(linear, c.uniformF(0.41666))),
		c.uniformF(0.055))

	p.SF(p.FSub(linear, c.uniformF(0.0031308)))
	return p.SelXYNS(low, high)
}

// killIf sets the discard flag when v is negative.
func (c *compiler) killIf(v qir.Value) {
	if c.discard.IsUndef() {
		c.discard = c.uniformF(0)
	}
	c.prog.SF(v)
	c.discard = c.prog.SelXYNS(c.uniformF(1), c.discard)
}

// clipDistanceDiscard discards fragments whose interpolated distance to
// an enabled user clip plane is negative.
func (c *compiler) clipDistanceDiscard() {
	for i := 0; i < MaxClipPlanes; i++ {
		if c.key.UCPEnables&(1<<i) == 0 {
			continue
		}
		dist := c.fragmentVarying(tgsi.SemanticClipDist, i, int(tgsi.SwizzleX))
		c.killIf(dist)
	}
}

// alphaTestDiscard emulates the fixed-function alpha test.
func (c *compiler) alphaTestDiscard() {
	if !c.fs.AlphaTest {
		return
	}
	p := c.prog
	ref := c.uniform(qir.UniformAlphaRef, 0)

	alpha := qir.Undef
	if c.outColor != -1 {
		alpha = c.outputs[c.outColor+3]
	}
	if alpha.IsUndef() {
		alpha = c.uniformF(1)
	}

	if c.discard.IsUndef() {
		c.discard = c.uniformF(0)
	}

	switch c.fs.AlphaTestFunc {
	case gputypes.CompareFunctionNever, gputypes.CompareFunctionUndefined:
		c.discard = c.uniformF(1)
	case gputypes.CompareFunctionAlways:
	case gputypes.CompareFunctionEqual:
		p.SF(p.FSub(alpha, ref))
		c.discard = p.SelXYZS(c.discard, c.uniformF(1))
	case gputypes.CompareFunctionNotEqual:
		p.SF(p.FSub(alpha, ref))
		c.discard = p.SelXYZC(c.discard, c.uniformF(1))
	case gputypes.CompareFunctionGreater:
		p.SF(p.FSub(alpha, ref))
		c.discard = p.SelXYNC(c.discard, c.uniformF(1))
	case gputypes.CompareFunctionGreaterEqual:
		p.SF(p.FSub(ref, alpha))
		c.discard = p.SelXYNS(c.discard, c.uniformF(1))
	case gputypes.CompareFunctionLess:
		p.SF(p.FSub(alpha, ref))
		c.discard = p.SelXYNS(c.discard, c.uniformF(1))
	case gputypes.CompareFunctionLessEqual:
		p.SF(p.FSub(ref, alpha))
		c.discard = p.SelXYNC(c.discard, c.uniformF(1))
	default:
		c.fail(ErrInvalidProgram, "alpha test function %s", c.fs.AlphaTestFunc)
	}
}

// depthCompare emulates shadow sampling: 1.0 where cmp passes against
// the stored depth, else 0.0.
func (c *compiler) depthCompare(fn gputypes.CompareFunction, cmp, depth qir.Value) qir.Value {
	p := c.prog
	one := c.uniformF(1)
	switch fn {
	case gputypes.CompareFunctionNever, gputypes.CompareFunctionUndefined:
		return c.uniformF(0)
	case gputypes.CompareFunctionAlways:
		return one
	case gputypes.CompareFunctionEqual:
		p.SF(p.FSub(cmp, depth))
		return p.SelX0ZS(one)
	case gputypes.CompareFunctionNotEqual:
		p.SF(p.FSub(cmp, depth))
		return p.SelX0ZC(one)
	case gputypes.CompareFunctionGreater:
		p.SF(p.FSub(cmp, depth))
		return p.SelX0NC(one)
	case gputypes.CompareFunctionGreaterEqual:
		p.SF(p.FSub(depth, cmp))
		return p.SelX0NS(one)
	case gputypes.CompareFunctionLess:
		p.SF(p.FSub(cmp, depth))
		return p.SelX0NS(one)
	case gputypes.CompareFunctionLessEqual:
		p.SF(p.FSub(depth, cmp))
		return p.SelX0NC(one)
	default:
		c.fail(ErrInvalidProgram, "texture compare function %s", fn)
		return qir.Undef
	}
}
