// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

import "fmt"

// UniformContents says what the driver must write into a uniform slot at
// draw time.
type UniformContents uint8

const (
	// UniformConstant is a literal; Data holds the 32-bit pattern.
	UniformConstant UniformContents = iota
	// UniformData reads dword Data of the bound constant buffer.
	UniformData
	// UniformUBOAddr is the base address of the indirect-access buffer.
	UniformUBOAddr
	UniformTextureConfigP0
	UniformTextureConfigP1
	// UniformTextureConfigP2 carries the unit in the low 16 bits and the
	// explicit-LOD flag in bit 16.
	UniformTextureConfigP2
	UniformTextureBorderColor
	UniformTexrectScaleX
	UniformTexrectScaleY
	UniformViewportXScale
	UniformViewportYScale
	UniformViewportZScale
	UniformViewportZOffset
	// UniformUserClipPlane holds plane*4 + component.
	UniformUserClipPlane
	UniformBlendConstColor
	UniformStencil
	UniformAlphaRef
)

var uniformNames = [...]string{
	UniformConstant:           "constant",
	UniformData:               "uniform",
	UniformUBOAddr:            "ubo_addr",
	UniformTextureConfigP0:    "tex_p0",
	UniformTextureConfigP1:    "tex_p1",
	UniformTextureConfigP2:    "tex_p2",
	UniformTextureBorderColor: "tex_border_color",
	UniformTexrectScaleX:      "texrect_scale_x",
	UniformTexrectScaleY:      "texrect_scale_y",
	UniformViewportXScale:     "vp_x_scale",
	UniformViewportYScale:     "vp_y_scale",
	UniformViewportZScale:     "vp_z_scale",
	UniformViewportZOffset:    "vp_z_offset",
	UniformUserClipPlane:      "ucp",
	UniformBlendConstColor:    "blend_color",
	UniformStencil:            "stencil",
	UniformAlphaRef:           "alpha_ref",
}

// String returns the dump name of the contents kind.
func (c UniformContents) String() string {
	if int(c) < len(uniformNames) {
		return uniformNames[c]
	}
	return fmt.Sprintf("contents(%d)", uint8(c))
}

// UniformTable is the deduplicated list of (contents, data) pairs a shader
// reads. The slot index is only an identity; later passes may reorder it.
type UniformTable struct {
	Contents []UniformContents `msgpack:"contents"`
	Data     []uint32          `msgpack:"data"`
}

// Add returns the slot for (contents, data), appending it if the pair is new.
func (t *UniformTable) Add(contents UniformContents, data uint32) uint32 {
	for i := range t.Contents {
		if t.Contents[i] == contents && t.Data[i] == data {
			return uint32(i)
		}
	}
	t.Contents = append(t.Contents, contents)
	t.Data = append(t.Data, data)
	return uint32(len(t.Contents) - 1)
}

// Len returns the number of slots.
func (t *UniformTable) Len() int { return len(t.Contents) }

// Entry returns slot i.
func (t *UniformTable) Entry(i uint32) (UniformContents, uint32) {
	return t.Contents[i], t.Data[i]
}

// Clone returns a deep copy of the table.
func (t *UniformTable) Clone() UniformTable {
	return UniformTable{
		Contents: append([]UniformContents(nil), t.Contents...),
		Data:     append([]uint32(nil), t.Data...),
	}
}
