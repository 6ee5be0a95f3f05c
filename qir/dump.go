// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Dump writes a readable listing of the program and its uniform table.
func (p *Program) Dump(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d instructions, %d temps, %d uniforms\n",
		p.Stage, len(p.Insts), p.NumTemps, p.Uniforms.Len())
	for i := range p.Insts {
		fmt.Fprintf(&sb, "%4d: %s\n", i, p.Insts[i])
	}
	if p.Uniforms.Len() > 0 {
		sb.WriteString("uniforms:\n")
		for i := range p.Uniforms.Contents {
			sb.WriteString(FormatUniform(uint32(i), p.Uniforms.Contents[i], p.Uniforms.Data[i]))
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the Dump output.
func (p *Program) String() string {
	var sb strings.Builder
	_ = p.Dump(&sb)
	return sb.String()
}

// FormatUniform renders one uniform slot.
func FormatUniform(slot uint32, contents UniformContents, data uint32) string {
	if contents == UniformConstant {
		return fmt.Sprintf("  u%d: %s 0x%08x (%g)", slot, contents, data, math.Float32frombits(data))
	}
	return fmt.Sprintf("  u%d: %s %d", slot, contents, data)
}
