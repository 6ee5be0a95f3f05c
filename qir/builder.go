// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

// Builder helpers. Each one allocates a fresh temporary for its result,
// emits a single instruction, and returns the temporary.

func (p *Program) op1(op Op, a Value) Value {
	dst := p.NewTemp()
	p.Emit(op, dst, a)
	return dst
}

func (p *Program) op2(op Op, a, b Value) Value {
	dst := p.NewTemp()
	p.Emit(op, dst, a, b)
	return dst
}

func (p *Program) op0(op Op) Value {
	dst := p.NewTemp()
	p.Emit(op, dst)
	return dst
}

func (p *Program) Mov(a Value) Value     { return p.op1(OpMov, a) }
func (p *Program) FAdd(a, b Value) Value { return p.op2(OpFAdd, a, b) }
func (p *Program) FSub(a, b Value) Value { return p.op2(OpFSub, a, b) }
func (p *Program) FMul(a, b Value) Value { return p.op2(OpFMul, a, b) }
func (p *Program) FMin(a, b Value) Value { return p.op2(OpFMin, a, b) }
func (p *Program) FMax(a, b Value) Value { return p.op2(OpFMax, a, b) }

// FMaxAbs computes max(|a|, |b|).
func (p *Program) FMaxAbs(a, b Value) Value { return p.op2(OpFMaxAbs, a, b) }
func (p *Program) FMinAbs(a, b Value) Value { return p.op2(OpFMinAbs, a, b) }

// Mul24 multiplies the low 24 bits of a and b.
func (p *Program) Mul24(a, b Value) Value { return p.op2(OpMul24, a, b) }
func (p *Program) Add(a, b Value) Value   { return p.op2(OpAdd, a, b) }
func (p *Program) Sub(a, b Value) Value   { return p.op2(OpSub, a, b) }
func (p *Program) Shl(a, b Value) Value   { return p.op2(OpShl, a, b) }
func (p *Program) Shr(a, b Value) Value   { return p.op2(OpShr, a, b) }
func (p *Program) Asr(a, b Value) Value   { return p.op2(OpAsr, a, b) }
func (p *Program) Min(a, b Value) Value   { return p.op2(OpMin, a, b) }
func (p *Program) Max(a, b Value) Value   { return p.op2(OpMax, a, b) }
func (p *Program) And(a, b Value) Value   { return p.op2(OpAnd, a, b) }
func (p *Program) Or(a, b Value) Value    { return p.op2(OpOr, a, b) }
func (p *Program) Xor(a, b Value) Value   { return p.op2(OpXor, a, b) }
func (p *Program) Not(a Value) Value      { return p.op1(OpNot, a) }
func (p *Program) FToI(a Value) Value     { return p.op1(OpFToI, a) }
func (p *Program) IToF(a Value) Value     { return p.op1(OpIToF, a) }
func (p *Program) Rcp(a Value) Value      { return p.op1(OpRcp, a) }
func (p *Program) Rsq(a Value) Value      { return p.op1(OpRsq, a) }
func (p *Program) Exp2(a Value) Value     { return p.op1(OpExp2, a) }
func (p *Program) Log2(a Value) Value     { return p.op1(OpLog2, a) }

// Pow computes x^y as exp2(y * log2(x)).
func (p *Program) Pow(x, y Value) Value {
	return p.Exp2(p.FMul(y, p.Log2(x)))
}

// SF sets the condition flags from a.
func (p *Program) SF(a Value) { p.Emit(OpSF, Undef, a) }

func (p *Program) SelX0ZS(x Value) Value { return p.op1(OpSelX0ZS, x) }
func (p *Program) SelX0ZC(x Value) Value { return p.op1(OpSelX0ZC, x) }
func (p *Program) SelX0NS(x Value) Value { return p.op1(OpSelX0NS, x) }
func (p *Program) SelX0NC(x Value) Value { return p.op1(OpSelX0NC, x) }

func (p *Program) SelXYZS(x, y Value) Value { return p.op2(OpSelXYZS, x, y) }
func (p *Program) SelXYZC(x, y Value) Value { return p.op2(OpSelXYZC, x, y) }
func (p *Program) SelXYNS(x, y Value) Value { return p.op2(OpSelXYNS, x, y) }
func (p *Program) SelXYNC(x, y Value) Value { return p.op2(OpSelXYNC, x, y) }

func (p *Program) FragX() Value       { return p.op0(OpFragX) }
func (p *Program) FragY() Value       { return p.op0(OpFragY) }
func (p *Program) FragZ() Value       { return p.op0(OpFragZ) }
func (p *Program) FragW() Value       { return p.op0(OpFragW) }
func (p *Program) FragRevFlag() Value { return p.op0(OpFragRevFlag) }

// VaryAddC adds the interpolation coefficient to a perspective-scaled varying.
func (p *Program) VaryAddC(a Value) Value { return p.op1(OpVaryAddC, a) }

// Unpack8 extracts byte i of a as a normalized float.
func (p *Program) Unpack8(a Value, i int) Value {
	return p.op1(OpUnpack8A+Op(i), a)
}

// R4Unpack extracts byte i of the accumulator as a normalized float.
func (p *Program) R4Unpack(r4 Value, i int) Value {
	return p.op1(OpR4UnpackA+Op(i), r4)
}

func (p *Program) PackScaled(x, y Value) Value { return p.op2(OpPackScaled, x, y) }

// PackColors packs four [0,1] floats into one RGBA8888 word.
func (p *Program) PackColors(c0, c1, c2, c3 Value) Value {
	dst := p.NewTemp()
	p.Emit(OpPackColors, dst, c0, c1, c2, c3)
	return dst
}

func (p *Program) VPMRead() Value { return p.op0(OpVPMRead) }

func (p *Program) VPMWrite(a Value) { p.Emit(OpVPMWrite, Undef, a) }

// Tex writes one texture-unit coordinate register. op is one of OpTexS,
// OpTexT, OpTexR or OpTexB; unif is the setup uniform latched with it.
func (p *Program) Tex(op Op, coord, unif Value) { p.Emit(op, Undef, coord, unif) }

// TexDirect issues a direct memory fetch at addr + the base in unif.
func (p *Program) TexDirect(addr, unif Value) { p.Emit(OpTexDirect, Undef, addr, unif) }

// TexResult waits for the texture unit and returns the accumulator.
func (p *Program) TexResult() Value { return p.emitR4(OpTexResult) }

// TLBColorRead loads the current tile-buffer color into the accumulator.
func (p *Program) TLBColorRead() Value { return p.emitR4(OpTLBColorRead) }

func (p *Program) emitR4(op Op) Value {
	p.r4Gen++
	r4 := Value{File: FileR4, Index: p.r4Gen}
	p.Emit(op, r4)
	return r4
}

func (p *Program) TLBDiscardSetup(a Value) { p.Emit(OpTLBDiscardSetup, Undef, a) }
func (p *Program) TLBStencilSetup(a Value) { p.Emit(OpTLBStencilSetup, Undef, a) }
func (p *Program) TLBZWrite(a Value)       { p.Emit(OpTLBZWrite, Undef, a) }
func (p *Program) TLBColorWrite(a Value)   { p.Emit(OpTLBColorWrite, Undef, a) }
