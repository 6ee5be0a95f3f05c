// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"math"
	"strings"
)

// String renders the program in the text format accepted by Parse.
func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString(p.Processor.String())
	sb.WriteByte('\n')
	imm, label := 0, 0
	for _, tok := range p.Tokens {
		switch t := tok.(type) {
		case *Declaration:
			sb.WriteString(t.String())
		case *Immediate:
			fmt.Fprintf(&sb, "IMM[%d] %s", imm, t)
			imm++
		case *Instruction:
			fmt.Fprintf(&sb, "%3d: %s", label, t)
			label++
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (d *Declaration) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DCL %s[%d", d.File, d.First)
	if d.Last != d.First {
		fmt.Fprintf(&sb, "..%d", d.Last)
	}
	sb.WriteByte(']')
	if d.HasSemantic {
		fmt.Fprintf(&sb, ", %s", d.Semantic)
		if d.SemanticIndex != 0 {
			fmt.Fprintf(&sb, "[%d]", d.SemanticIndex)
		}
	}
	if d.ArrayID != 0 {
		fmt.Fprintf(&sb, ", ARRAY(%d)", d.ArrayID)
	}
	return sb.String()
}

func (imm *Immediate) String() string {
	vals := make([]string, 4)
	for i, v := range imm.Values {
		switch imm.Type {
		case ImmFloat32:
			vals[i] = fmt.Sprintf("%.4f", math.Float32frombits(v))
		case ImmInt32:
			vals[i] = fmt.Sprintf("%d", int32(v))
		default:
			vals[i] = fmt.Sprintf("%d", v)
		}
	}
	return fmt.Sprintf("%s {%s}", imm.Type, strings.Join(vals, ", "))
}

func (inst *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(inst.Opcode.String())
	switch inst.Saturate {
	case SaturateZeroOne:
		sb.WriteString("_SAT")
	case SaturateMinusPlusOne:
		sb.WriteString("_SSAT")
	}
	sep := " "
	for _, d := range inst.Dst {
		sb.WriteString(sep)
		sb.WriteString(d.String())
		sep = ", "
	}
	for _, s := range inst.Src {
		sb.WriteString(sep)
		sb.WriteString(s.String())
		sep = ", "
	}
	if inst.Opcode.Info().IsTex {
		sb.WriteString(sep)
		sb.WriteString(inst.Texture.String())
	}
	return sb.String()
}

func (d DstRegister) String() string {
	idx := fmt.Sprintf("%d", d.Index)
	if d.Indirect {
		idx = fmt.Sprintf("ADDR[0].x%+d", d.Index)
	}
	s := fmt.Sprintf("%s[%s]", d.File, idx)
	if d.WriteMask != WriteXYZW {
		var mask strings.Builder
		for i := 0; i < 4; i++ {
			if d.WriteMask.Has(i) {
				mask.WriteString(Swizzle(i).String())
			}
		}
		s += "." + mask.String()
	}
	return s
}

func (s SrcRegister) String() string {
	var sb strings.Builder
	if s.Negate {
		sb.WriteByte('-')
	}
	if s.Absolute {
		sb.WriteByte('|')
	}
	if s.Indirect {
		fmt.Fprintf(&sb, "%s[%s[%d].%s", s.File, s.IndirectFile, s.IndirectIndex, s.IndirectSwizzle)
		if s.Index != 0 {
			fmt.Fprintf(&sb, "%+d", s.Index)
		}
		sb.WriteByte(']')
	} else {
		fmt.Fprintf(&sb, "%s[%d]", s.File, s.Index)
	}
	if s.ArrayID != 0 {
		fmt.Fprintf(&sb, "(%d)", s.ArrayID)
	}
	if s.Swizzle != IdentitySwizzle {
		sb.WriteByte('.')
		for _, c := range s.Swizzle {
			sb.WriteString(c.String())
		}
	}
	if s.Absolute {
		sb.WriteByte('|')
	}
	return sb.String()
}
