// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// UBORange is a constant array copied into the indirect-access buffer
// before the draw: Size bytes from SrcOffset of the constant buffer to
// DstOffset of the indirect-access buffer.
type UBORange struct {
	DstOffset uint32 `msgpack:"dst_offset"`
	SrcOffset uint32 `msgpack:"src_offset"`
	Size      uint32 `msgpack:"size"`
}

// Shader is a compiled shader and everything the driver needs to bind it.
type Shader struct {
	Stage   qir.Stage    `msgpack:"stage"`
	Program *qir.Program `msgpack:"program"`

	// Uniforms lists the values to upload, in slot order.
	Uniforms qir.UniformTable `msgpack:"uniforms"`

	UBORanges []UBORange `msgpack:"ubo_ranges"`
	UBOSize   uint32     `msgpack:"ubo_size"`

	// InputSemantics are the varyings a fragment shader reads, in slot
	// order. Varyings whose values never reach an output are dropped.
	InputSemantics []InputSemantic `msgpack:"input_semantics"`
	// ColorInputs has bit i set when InputSemantics[i] is a color, which
	// the hardware interpolates with flat shading when requested.
	ColorInputs uint32 `msgpack:"color_inputs"`

	// NumInputs is the number of VPM words a vertex shader reads.
	NumInputs int `msgpack:"num_inputs"`

	NumTextureSamples int `msgpack:"num_texture_samples"`

	Warnings []string `msgpack:"warnings,omitempty"`
}

// finalize builds the Shader record from the compiler state.
func (c *compiler) finalize() *Shader {
	sh := &Shader{
		Stage:             c.stage,
		Program:           c.prog,
		Uniforms:          c.prog.Uniforms.Clone(),
		NumTextureSamples: c.numTextureSamples,
		Warnings:          c.warnings,
	}

	if c.stage == qir.StageFragment {
		live := qir.LiveVaryings(c.prog, len(c.inputSems))
		for i, sem := range c.inputSems {
			if !live[i] || sem.Semantic == pseudoSemantic {
				continue
			}
			if sem.Semantic == tgsi.SemanticColor {
				sh.ColorInputs |= 1 << len(sh.InputSemantics)
			}
			sh.InputSemantics = append(sh.InputSemantics, sem)
		}
	} else {
		sh.NumInputs = c.numInputs
	}

	for _, r := range c.ranges {
		if !r.used {
			continue
		}
		sh.UBORanges = append(sh.UBORanges, UBORange{DstOffset: r.dst, SrcOffset: r.src, Size: r.size})
		sh.UBOSize += r.size
	}
	return sh
}
