// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package interp

import (
	"math"
	"testing"

	"github.com/gogpu/vc4c/qir"
)

func constF(p *qir.Program, x float32) qir.Value {
	return p.AddUniform(qir.UniformConstant, math.Float32bits(x))
}

func TestRun_FloatALU(t *testing.T) {
	tests := []struct {
		name string
		op   func(p *qir.Program, a, b qir.Value) qir.Value
		a, b float32
		want float32
	}{
		{"fadd", (*qir.Program).FAdd, 1.5, 2, 3.5},
		{"fsub", (*qir.Program).FSub, 1.5, 2, -0.5},
		{"fmul", (*qir.Program).FMul, 1.5, 2, 3},
		{"fmin", (*qir.Program).FMin, 1.5, 2, 1.5},
		{"fmax", (*qir.Program).FMax, 1.5, 2, 2},
		{"fmaxabs", (*qir.Program).FMaxAbs, -3, 2, 3},
		{"fminabs", (*qir.Program).FMinAbs, -3, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := qir.NewProgram(qir.StageFragment)
			r := tt.op(p, p.Mov(constF(p, tt.a)), p.Mov(constF(p, tt.b)))
			res, err := Run(p, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Float(r); got != tt.want {
				t.Errorf("%s(%g, %g) = %g, want %g", tt.name, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRun_IntegerALU(t *testing.T) {
	tests := []struct {
		name string
		op   func(p *qir.Program, a, b qir.Value) qir.Value
		a, b uint32
		want uint32
	}{
		{"add", (*qir.Program).Add, 7, 9, 16},
		{"sub", (*qir.Program).Sub, 7, 9, 0xfffffffe},
		{"shl", (*qir.Program).Shl, 3, 4, 48},
		{"shl_wraps_count", (*qir.Program).Shl, 1, 33, 2},
		{"shr", (*qir.Program).Shr, 0x80000000, 31, 1},
		{"asr", (*qir.Program).Asr, 0x80000000, 31, 0xffffffff},
		{"min_signed", (*qir.Program).Min, 0xffffffff, 1, 0xffffffff},
		{"max_signed", (*qir.Program).Max, 0xffffffff, 1, 1},
		{"mul24", (*qir.Program).Mul24, 0x01000003, 5, 15},
		{"xor", (*qir.Program).Xor, 0xff, 0x0f, 0xf0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := qir.NewProgram(qir.StageFragment)
			a := p.Mov(p.AddUniform(qir.UniformConstant, tt.a))
			b := p.Mov(p.AddUniform(qir.UniformConstant, tt.b))
			r := tt.op(p, a, b)
			res, err := Run(p, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Bits(r); got != tt.want {
				t.Errorf("%s(%#x, %#x) = %#x, want %#x", tt.name, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRun_Selects(t *testing.T) {
	tests := []struct {
		x    float32
		zs   bool
		ns   bool
		name string
	}{
		{0, true, false, "zero"},
		{-2, false, true, "negative"},
		{3, false, false, "positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := qir.NewProgram(qir.StageFragment)
			x := p.Mov(constF(p, tt.x))
			one := p.Mov(constF(p, 1))
			two := p.Mov(constF(p, 2))
			p.SF(x)
			zs := p.SelX0ZS(one)
			zc := p.SelX0ZC(one)
			ns := p.SelXYNS(one, two)
			nc := p.SelXYNC(one, two)

			res, err := Run(p, nil)
			if err != nil {
				t.Fatal(err)
			}
			check := func(name string, v qir.Value, cond bool, ifTrue, ifFalse float32) {
				want := ifFalse
				if cond {
					want = ifTrue
				}
				if got := res.Float(v); got != want {
					t.Errorf("%s = %g, want %g", name, got, want)
				}
			}
			check("zs", zs, tt.zs, 1, 0)
			check("zc", zc, !tt.zs, 1, 0)
			check("ns", ns, tt.ns, 1, 2)
			check("nc", nc, !tt.ns, 1, 2)
		})
	}
}

func TestRun_NegativeZeroSetsN(t *testing.T) {
	p := qir.NewProgram(qir.StageFragment)
	x := p.Mov(p.AddUniform(qir.UniformConstant, 0x80000000))
	p.SF(x)
	r := p.SelX0NS(p.Mov(constF(p, 1)))
	res, err := Run(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Float(r) != 1 {
		t.Error("-0.0 should set the negative flag")
	}
}

func TestRun_FToI(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{1.9, 1},
		{-1.9, -1},
		{0, 0},
		{3e9, math.MaxInt32},
		{-3e9, math.MinInt32},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		p := qir.NewProgram(qir.StageFragment)
		r := p.FToI(p.Mov(constF(p, tt.in)))
		res, err := Run(p, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := int32(res.Bits(r)); got != tt.want {
			t.Errorf("ftoi(%g) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRun_LowPrecisionReciprocal(t *testing.T) {
	p := qir.NewProgram(qir.StageFragment)
	x := p.Mov(constF(p, 3))
	r := p.Rcp(x)
	s := p.Rsq(x)
	res, err := Run(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	rcp := float64(res.Float(r))
	if rcp == 1.0/3 {
		t.Error("rcp should not be exact")
	}
	if math.Abs(rcp-1.0/3) > 1e-3 {
		t.Errorf("rcp(3) = %g, too far from 1/3", rcp)
	}
	if rsq := float64(res.Float(s)); math.Abs(rsq-1/math.Sqrt(3)) > 1e-3 {
		t.Errorf("rsq(3) = %g", rsq)
	}
}

func TestRun_PackColors(t *testing.T) {
	p := qir.NewProgram(qir.StageFragment)
	r := p.PackColors(
		p.Mov(constF(p, 1)),
		p.Mov(constF(p, 0)),
		p.Mov(constF(p, 2)),
		p.Mov(constF(p, 0.5)),
	)
	p.TLBColorWrite(r)
	res, err := Run(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.ColorWritten {
		t.Fatal("color not written")
	}
	if want := uint32(0x80ff00ff); res.Color != want {
		t.Errorf("color = %#08x, want %#08x", res.Color, want)
	}
}

func TestRun_TextureFIFO(t *testing.T) {
	p := qir.NewProgram(qir.StageFragment)
	s := p.Mov(constF(p, 0.25))
	tc := p.Mov(constF(p, 0.75))
	p.Tex(qir.OpTexT, tc, p.AddUniform(qir.UniformTextureConfigP1, 2))
	p.Tex(qir.OpTexS, s, p.AddUniform(qir.UniformTextureConfigP0, 2))
	r4 := p.TexResult()
	red := p.R4Unpack(r4, 0)

	env := NewEnv()
	env.Sample = func(req TexRequest) uint32 {
		if req.Unit != 2 || req.S != 0.25 || req.T != 0.75 {
			t.Errorf("unexpected fetch %+v", req)
		}
		return 0x000000ff
	}
	res, err := Run(p, env)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Float(red); got != 1 {
		t.Errorf("red = %g, want 1", got)
	}
	if len(res.Fetches) != 1 {
		t.Errorf("got %d fetches, want 1", len(res.Fetches))
	}
}

func TestRun_TexResultWithoutFetch(t *testing.T) {
	p := qir.NewProgram(qir.StageFragment)
	p.TexResult()
	if _, err := Run(p, nil); err == nil {
		t.Error("expected an error for an unmatched texture result")
	}
}

func TestRun_TexDirect(t *testing.T) {
	p := qir.NewProgram(qir.StageVertex)
	off := p.Mov(p.AddUniform(qir.UniformConstant, 8))
	p.TexDirect(off, p.AddUniform(qir.UniformUBOAddr, 0))
	r := p.Mov(p.TexResult())

	env := NewEnv()
	env.UBO = []uint32{10, 20, 30}
	res, err := Run(p, env)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Bits(r); got != 30 {
		t.Errorf("direct fetch = %d, want 30", got)
	}
}

func TestRun_VPM(t *testing.T) {
	p := qir.NewProgram(qir.StageVertex)
	a := p.VPMRead()
	b := p.VPMRead()
	p.VPMWrite(b)
	p.VPMWrite(a)

	env := NewEnv()
	env.Attributes = []uint32{1, 2}
	res, err := Run(p, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.VPM) != 2 || res.VPM[0] != 2 || res.VPM[1] != 1 {
		t.Errorf("VPM = %v, want [2 1]", res.VPM)
	}
}

func TestRun_UniformResolver(t *testing.T) {
	p := qir.NewProgram(qir.StageFragment)
	r := p.Mov(p.AddUniform(qir.UniformData, 5))

	env := NewEnv()
	env.Uniform = func(c qir.UniformContents, d uint32) uint32 {
		if c == qir.UniformData {
			return d * 100
		}
		return 0
	}
	res, err := Run(p, env)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Bits(r); got != 500 {
		t.Errorf("resolved uniform = %d, want 500", got)
	}
}
