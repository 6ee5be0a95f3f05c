// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/qir"
)

// blendChannel scales val, channel ch of the source or destination
// color, by factor.
func (c *compiler) blendChannel(dst, src *[4]qir.Value, val qir.Value, factor BlendFactor, ch int) qir.Value {
	p := c.prog
	switch factor {
	case BlendOne:
		return val
	case BlendSrcColor:
		return p.FMul(val, src[ch])
	case BlendSrcAlpha:
		return p.FMul(val, src[3])
	case BlendDstAlpha:
		return p.FMul(val, dst[3])
	case BlendDstColor:
		return p.FMul(val, dst[ch])
	case BlendSrcAlphaSaturate:
		if ch == 3 {
			return val
		}
		return p.FMul(val, p.FMin(src[3], p.FSub(c.uniformF(1), dst[3])))
	case BlendConstColor:
		return p.FMul(val, c.uniform(qir.UniformBlendConstColor, uint32(ch)))
	case BlendConstAlpha:
		return p.FMul(val, c.uniform(qir.UniformBlendConstColor, 3))
	case BlendZero:
		return c.uniformF(0)
	case BlendInvSrcColor:
		return p.FMul(val, p.FSub(c.uniformF(1), src[ch]))
	case BlendInvSrcAlpha:
		return p.FMul(val, p.FSub(c.uniformF(1), src[3]))
	case BlendInvDstAlpha:
		return p.FMul(val, p.FSub(c.uniformF(1), dst[3]))
	case BlendInvDstColor:
		return p.FMul(val, p.FSub(c.uniformF(1), dst[ch]))
	case BlendInvConstColor:
		return p.FMul(val, p.FSub(c.uniformF(1), c.uniform(qir.UniformBlendConstColor, uint32(ch))))
	case BlendInvConstAlpha:
		return p.FMul(val, p.FSub(c.uniformF(1), c.uniform(qir.UniformBlendConstColor, 3)))
	default:
		c.warn("unsupported blend factor", slog.String("factor", factor.String()))
		return val
	}
}

// blendFunc combines the scaled source and destination.
func (c *compiler) blendFunc(src, dst qir.Value, fn gputypes.BlendOperation) qir.Value {
	p := c.prog
	switch fn {
	case gputypes.BlendOperationAdd:
		return p.FAdd(src, dst)
	case gputypes.BlendOperationSubtract:
		return p.FSub(src, dst)
	case gputypes.BlendOperationReverseSubtract:
		return p.FSub(dst, src)
	case gputypes.BlendOperationMin:
		return p.FMin(src, dst)
	case gputypes.BlendOperationMax:
		return p.FMax(src, dst)
	default:
		c.warn("unsupported blend function", slog.String("func", fn.String()))
		return src
	}
}

// blend emulates fixed-function blending. The hardware has none: the
// shader reads the tile buffer and does the math itself.
func (c *compiler) blend(dst, src *[4]qir.Value) [4]qir.Value {
	bs := &c.fs.Blend
	if !bs.Enable {
		return *src
	}

	var srcBlend, dstBlend [4]qir.Value
	for i := 0; i < 3; i++ {
		srcBlend[i] = c.blendChannel(dst, src, src[i], bs.RGB.SrcFactor, i)
		dstBlend[i] = c.blendChannel(dst, src, dst[i], bs.RGB.DstFactor, i)
	}
	srcBlend[3] = c.blendChannel(dst, src, src[3], bs.Alpha.SrcFactor, 3)
	dstBlend[3] = c.blendChannel(dst, src, dst[3], bs.Alpha.DstFactor, 3)

	var result [4]qir.Value
	for i := 0; i < 3; i++ {
		result[i] = c.blendFunc(srcBlend[i], dstBlend[i], bs.RGB.Func)
	}
	result[3] = c.blendFunc(srcBlend[3], dstBlend[3], bs.Alpha.Func)
	return result
}
