// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package interp executes device IR programs on one scalar lane.
//
// The interpreter is a reference model, not a cycle-accurate simulator. It
// exists so compiled shaders can be checked numerically: it evaluates every
// ALU opcode with the hardware's semantics (truncating float-to-int, 24-bit
// integer multiply, flag-driven selects) and models the low-precision
// reciprocal units by discarding mantissa bits.
package interp

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"github.com/gogpu/vc4c/qir"
)

// lowPrecisionMask clears the mantissa bits the hardware RCP/RSQ units do
// not produce.
const lowPrecisionMask = ^uint32(0x1fff)

// TexRequest is one texture fetch as seen by the texture unit.
type TexRequest struct {
	// Unit is taken from the P0 setup uniform latched with the coordinates.
	Unit uint32
	S, T float32
	// R and B are only valid when HasR / HasB are set.
	R, B       float32
	HasR, HasB bool
}

// Env provides the inputs of one shader invocation.
type Env struct {
	// Uniform resolves a uniform slot. When nil, constants resolve to their
	// payload and everything else to zero.
	Uniform func(contents qir.UniformContents, data uint32) uint32

	// Varyings are indexed by varying slot.
	Varyings []float32

	// Attributes is the VPM read stream for vertex and coordinate shaders.
	Attributes []uint32

	FragX, FragY float32
	// FragZ is the 24-bit integer depth of the fragment.
	FragZ uint32
	FragW float32
	// BackFacing sets the reverse flag.
	BackFacing bool

	// DstColor is the current tile-buffer color as an RGBA8888 word.
	DstColor uint32

	// Sample returns the packed texel for a texture fetch.
	Sample func(req TexRequest) uint32

	// UBO is the indirect-access buffer, addressed in bytes.
	UBO []uint32
}

// NewEnv returns an environment with a unit fragment W.
func NewEnv() *Env {
	return &Env{FragW: 1}
}

// Result is the observable output of one invocation.
type Result struct {
	Temps []uint32

	VPM []uint32

	Color        uint32
	ColorWritten bool
	Z            uint32
	ZWritten     bool
	Discard      bool
	Stencil      []uint32

	Fetches []TexRequest
}

// Float returns temporary v as a float.
func (r *Result) Float(v qir.Value) float32 {
	return math.Float32frombits(r.Temps[v.Index])
}

// Bits returns temporary v as raw bits.
func (r *Result) Bits(v qir.Value) uint32 {
	return r.Temps[v.Index]
}

// VPMFloat returns VPM output word i as a float.
func (r *Result) VPMFloat(i int) float32 {
	return math.Float32frombits(r.VPM[i])
}

type machine struct {
	prog *qir.Program
	env  *Env
	res  *Result

	zero, neg bool

	r4      uint32
	pending TexRequest
	fifo    []uint32
	attr    int
}

// Run executes p once.
func Run(p *qir.Program, env *Env) (*Result, error) {
	if env == nil {
		env = NewEnv()
	}
	m := &machine{
		prog: p,
		env:  env,
		res:  &Result{Temps: make([]uint32, p.NumTemps)},
	}
	for i := range p.Insts {
		if err := m.step(&p.Insts[i]); err != nil {
			return m.res, fmt.Errorf("instruction %d (%s): %w", i, p.Insts[i], err)
		}
	}
	return m.res, nil
}

func (m *machine) read(v qir.Value) (uint32, error) {
	switch v.File {
	case qir.FileTemp:
		return m.res.Temps[v.Index], nil
	case qir.FileUnif:
		if int(v.Index) >= m.prog.Uniforms.Len() {
			return 0, fmt.Errorf("uniform u%d out of range", v.Index)
		}
		c, d := m.prog.Uniforms.Entry(v.Index)
		return m.uniform(c, d), nil
	case qir.FileVary:
		if int(v.Index) < len(m.env.Varyings) {
			return math.Float32bits(m.env.Varyings[v.Index]), nil
		}
		return 0, nil
	case qir.FileR4:
		return m.r4, nil
	default:
		return 0, fmt.Errorf("read of %s", v)
	}
}

func (m *machine) uniform(c qir.UniformContents, data uint32) uint32 {
	if m.env.Uniform != nil {
		return m.env.Uniform(c, data)
	}
	if c == qir.UniformConstant {
		return data
	}
	return 0
}

func (m *machine) write(v qir.Value, bits uint32) {
	switch v.File {
	case qir.FileTemp:
		m.res.Temps[v.Index] = bits
	case qir.FileR4:
		m.r4 = bits
	}
}

func f(bits uint32) float32   { return math.Float32frombits(bits) }
func fb(x float32) uint32     { return math.Float32bits(x) }
func fb64(x float64) uint32   { return math.Float32bits(float32(x)) }
func lowp(x float32) float32  { return f(fb(x) & lowPrecisionMask) }
func absf(x float32) float32  { return float32(math.Abs(float64(x))) }
func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// ftoi truncates toward zero and saturates out-of-range inputs.
func ftoi(x float32) uint32 {
	if x != x {
		return 0
	}
	v, err := safecast.Truncate[int32](x)
	if err != nil {
		if x < 0 {
			return uint32(1) << 31
		}
		return math.MaxInt32
	}
	return uint32(v)
}

// unorm8 converts byte i of w to a float in [0,1].
func unorm8(w uint32, i int) float32 {
	return float32((w>>(8*uint(i)))&0xff) / 255
}

func packUnorm8(x float32) uint32 {
	x = minf(maxf(x, 0), 1)
	return uint32(safecast.MustRound[uint8](x * 255))
}

//nolint:gocyclo,cyclop // one case per opcode
func (m *machine) step(inst *qir.Inst) error {
	var src [4]uint32
	for i, s := range inst.Src {
		v, err := m.read(s)
		if err != nil {
			return err
		}
		src[i] = v
	}
	a, b := src[0], src[1]

	var out uint32
	switch inst.Op {
	case qir.OpUndef:
	case qir.OpMov:
		out = a
	case qir.OpFAdd:
		out = fb(f(a) + f(b))
	case qir.OpFSub:
		out = fb(f(a) - f(b))
	case qir.OpFMul:
		out = fb(f(a) * f(b))
	case qir.OpMul24:
		out = (a & 0xffffff) * (b & 0xffffff)
	case qir.OpFMin:
		out = fb(minf(f(a), f(b)))
	case qir.OpFMax:
		out = fb(maxf(f(a), f(b)))
	case qir.OpFMinAbs:
		out = fb(minf(absf(f(a)), absf(f(b))))
	case qir.OpFMaxAbs:
		out = fb(maxf(absf(f(a)), absf(f(b))))
	case qir.OpAdd:
		out = a + b
	case qir.OpSub:
		out = a - b
	case qir.OpShl:
		out = a << (b & 31)
	case qir.OpShr:
		out = a >> (b & 31)
	case qir.OpAsr:
		out = uint32(int32(a) >> (b & 31))
	case qir.OpMin:
		out = uint32(min(int32(a), int32(b)))
	case qir.OpMax:
		out = uint32(max(int32(a), int32(b)))
	case qir.OpAnd:
		out = a & b
	case qir.OpOr:
		out = a | b
	case qir.OpXor:
		out = a ^ b
	case qir.OpNot:
		out = ^a

	case qir.OpSF:
		m.zero = a == 0
		m.neg = a&0x80000000 != 0
		return nil
	case qir.OpSelX0ZS, qir.OpSelX0ZC, qir.OpSelX0NS, qir.OpSelX0NC:
		if m.cond(inst.Op - qir.OpSelX0ZS) {
			out = a
		}
	case qir.OpSelXYZS, qir.OpSelXYZC, qir.OpSelXYNS, qir.OpSelXYNC:
		out = b
		if m.cond(inst.Op - qir.OpSelXYZS) {
			out = a
		}

	case qir.OpFToI:
		out = ftoi(f(a))
	case qir.OpIToF:
		out = fb(float32(int32(a)))
	case qir.OpRcp:
		out = fb(lowp(1 / f(a)))
	case qir.OpRsq:
		out = fb(lowp(float32(1 / math.Sqrt(float64(f(a))))))
	case qir.OpExp2:
		out = fb64(math.Exp2(float64(f(a))))
	case qir.OpLog2:
		out = fb64(math.Log2(float64(f(a))))

	case qir.OpPackColors:
		for i := 0; i < 4; i++ {
			out |= packUnorm8(f(src[i])) << (8 * uint(i))
		}
	case qir.OpPackScaled:
		out = a&0xffff | b<<16
	case qir.OpVPMWrite:
		m.res.VPM = append(m.res.VPM, a)
		return nil
	case qir.OpVPMRead:
		if m.attr < len(m.env.Attributes) {
			out = m.env.Attributes[m.attr]
		}
		m.attr++

	case qir.OpTLBDiscardSetup:
		m.res.Discard = a != 0
		return nil
	case qir.OpTLBStencilSetup:
		m.res.Stencil = append(m.res.Stencil, a)
		return nil
	case qir.OpTLBZWrite:
		m.res.Z, m.res.ZWritten = a, true
		return nil
	case qir.OpTLBColorWrite:
		m.res.Color, m.res.ColorWritten = a, true
		return nil
	case qir.OpTLBColorRead:
		out = m.env.DstColor

	case qir.OpVaryAddC:
		out = a
	case qir.OpFragX:
		out = fb(m.env.FragX)
	case qir.OpFragY:
		out = fb(m.env.FragY)
	case qir.OpFragZ:
		out = m.env.FragZ
	case qir.OpFragW:
		out = fb(m.env.FragW)
	case qir.OpFragRevFlag:
		if m.env.BackFacing {
			out = 1
		}

	case qir.OpUnpack8A, qir.OpUnpack8B, qir.OpUnpack8C, qir.OpUnpack8D:
		out = fb(unorm8(a, int(inst.Op-qir.OpUnpack8A)))
	case qir.OpR4UnpackA, qir.OpR4UnpackB, qir.OpR4UnpackC, qir.OpR4UnpackD:
		out = fb(unorm8(a, int(inst.Op-qir.OpR4UnpackA)))

	case qir.OpTexR, qir.OpTexT, qir.OpTexB, qir.OpTexS:
		m.texWrite(inst, a)
		return nil
	case qir.OpTexDirect:
		addr := a + b
		var word uint32
		if i := int(addr / 4); i < len(m.env.UBO) {
			word = m.env.UBO[i]
		}
		m.fifo = append(m.fifo, word)
		return nil
	case qir.OpTexResult:
		if len(m.fifo) == 0 {
			return fmt.Errorf("texture result without a pending fetch")
		}
		out = m.fifo[0]
		m.fifo = m.fifo[1:]

	default:
		return fmt.Errorf("unhandled opcode %s", inst.Op)
	}

	m.write(inst.Dst, out)
	return nil
}

// cond evaluates flag condition 0..3 = ZS, ZC, NS, NC.
func (m *machine) cond(c qir.Op) bool {
	switch c {
	case 0:
		return m.zero
	case 1:
		return !m.zero
	case 2:
		return m.neg
	default:
		return !m.neg
	}
}

func (m *machine) texWrite(inst *qir.Inst, coord uint32) {
	if u := inst.Src[1]; u.File == qir.FileUnif {
		if c, d := m.prog.Uniforms.Entry(u.Index); c == qir.UniformTextureConfigP0 {
			m.pending.Unit = d
		}
	}
	switch inst.Op {
	case qir.OpTexR:
		m.pending.R, m.pending.HasR = f(coord), true
	case qir.OpTexT:
		m.pending.T = f(coord)
	case qir.OpTexB:
		m.pending.B, m.pending.HasB = f(coord), true
	case qir.OpTexS:
		m.pending.S = f(coord)
		req := m.pending
		m.res.Fetches = append(m.res.Fetches, req)
		var texel uint32
		if m.env.Sample != nil {
			texel = m.env.Sample(req)
		}
		m.fifo = append(m.fifo, texel)
		m.pending = TexRequest{}
	}
}
