// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/tgsi"
)

var identitySwizzle = tgsi.IdentitySwizzle

// formatSwizzle returns how the channels of a texel or tile-buffer word
// map onto RGBA for the formats the hardware samples and renders.
func formatSwizzle(f gputypes.TextureFormat) ([4]tgsi.Swizzle, bool) {
	const (
		x, y, z, w = tgsi.SwizzleX, tgsi.SwizzleY, tgsi.SwizzleZ, tgsi.SwizzleW
		zero, one  = tgsi.SwizzleZero, tgsi.SwizzleOne
	)
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return identitySwizzle, true
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return [4]tgsi.Swizzle{z, y, x, w}, true
	case gputypes.TextureFormatR8Unorm:
		return [4]tgsi.Swizzle{x, zero, zero, one}, true
	case gputypes.TextureFormatRG8Unorm:
		return [4]tgsi.Swizzle{x, y, zero, one}, true
	}
	if f.HasDepth() {
		return identitySwizzle, true
	}
	return identitySwizzle, false
}

// swizzle returns the sampler swizzle, treating the zero value as identity.
func (k *TextureKey) swizzle() [4]tgsi.Swizzle {
	if k.Swizzle == ([4]tgsi.Swizzle{}) {
		return identitySwizzle
	}
	return k.Swizzle
}

type vertexChannel uint8

const (
	channelUnsupported vertexChannel = iota
	channelFloat32
	channelUnorm8
	channelSnorm8
)

// vertexFormatDesc returns the channel type of a vertex format and its
// swizzle. Missing channels read as 0, or 1 for W.
func vertexFormatDesc(f gputypes.VertexFormat) (vertexChannel, [4]tgsi.Swizzle) {
	var kind vertexChannel
	var n int
	switch f {
	case gputypes.VertexFormatFloat32:
		kind, n = channelFloat32, 1
	case gputypes.VertexFormatFloat32x2:
		kind, n = channelFloat32, 2
	case gputypes.VertexFormatFloat32x3:
		kind, n = channelFloat32, 3
	case gputypes.VertexFormatFloat32x4:
		kind, n = channelFloat32, 4
	case gputypes.VertexFormatUnorm8x2:
		kind, n = channelUnorm8, 2
	case gputypes.VertexFormatUnorm8x4:
		kind, n = channelUnorm8, 4
	case gputypes.VertexFormatSnorm8x2:
		kind, n = channelSnorm8, 2
	case gputypes.VertexFormatSnorm8x4:
		kind, n = channelSnorm8, 4
	default:
		return channelUnsupported, identitySwizzle
	}
	swz := [4]tgsi.Swizzle{tgsi.SwizzleZero, tgsi.SwizzleZero, tgsi.SwizzleZero, tgsi.SwizzleOne}
	for i := 0; i < n; i++ {
		swz[i] = tgsi.Swizzle(i)
	}
	return kind, swz
}
