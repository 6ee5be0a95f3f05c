// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"math"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/tgsi"
)

// lowerFunc computes channel i of an instruction's result from the
// resolved source channels.
type lowerFunc func(c *compiler, inst *tgsi.Instruction, op qir.Op, src *[3][4]qir.Value, i int) qir.Value

type opEntry struct {
	op    qir.Op
	lower lowerFunc
}

var opTable = map[tgsi.Opcode]opEntry{
	tgsi.OpcodeMOV:  {qir.OpMov, lowerALU},
	tgsi.OpcodeMUL:  {qir.OpFMul, lowerALU},
	tgsi.OpcodeADD:  {qir.OpFAdd, lowerALU},
	tgsi.OpcodeSUB:  {qir.OpFSub, lowerALU},
	tgsi.OpcodeMIN:  {qir.OpFMin, lowerALU},
	tgsi.OpcodeMAX:  {qir.OpFMax, lowerALU},
	tgsi.OpcodeF2I:  {qir.OpFToI, lowerALU},
	tgsi.OpcodeI2F:  {qir.OpIToF, lowerALU},
	tgsi.OpcodeUADD: {qir.OpAdd, lowerALU},
	tgsi.OpcodeUSHR: {qir.OpShr, lowerALU},
	tgsi.OpcodeISHR: {qir.OpAsr, lowerALU},
	tgsi.OpcodeSHL:  {qir.OpShl, lowerALU},
	tgsi.OpcodeIMIN: {qir.OpMin, lowerALU},
	tgsi.OpcodeIMAX: {qir.OpMax, lowerALU},
	tgsi.OpcodeAND:  {qir.OpAnd, lowerALU},
	tgsi.OpcodeOR:   {qir.OpOr, lowerALU},
	tgsi.OpcodeXOR:  {qir.OpXor, lowerALU},
	tgsi.OpcodeNOT:  {qir.OpNot, lowerALU},

	tgsi.OpcodeUMUL: {qir.OpUndef, lowerUMul},
	tgsi.OpcodeIDIV: {qir.OpUndef, lowerIDiv},
	tgsi.OpcodeINEG: {qir.OpUndef, lowerINeg},

	tgsi.OpcodeSEQ:  {qir.OpSelX0ZS, lowerFloatSet},
	tgsi.OpcodeSNE:  {qir.OpSelX0ZC, lowerFloatSet},
	tgsi.OpcodeSLT:  {qir.OpSelX0NS, lowerFloatSet},
	tgsi.OpcodeSGE:  {qir.OpSelX0NC, lowerFloatSet},
	tgsi.OpcodeFSEQ: {qir.OpSelX0ZS, lowerFloatCompare},
	tgsi.OpcodeFSNE: {qir.OpSelX0ZC, lowerFloatCompare},
	tgsi.OpcodeFSLT: {qir.OpSelX0NS, lowerFloatCompare},
	tgsi.OpcodeFSGE: {qir.OpSelX0NC, lowerFloatCompare},
	tgsi.OpcodeUSEQ: {qir.OpSelX0ZS, lowerIntCompare},
	tgsi.OpcodeUSNE: {qir.OpSelX0ZC, lowerIntCompare},
	tgsi.OpcodeISLT: {qir.OpSelX0NS, lowerIntCompare},
	tgsi.OpcodeISGE: {qir.OpSelX0NC, lowerIntCompare},

	tgsi.OpcodeCMP:   {qir.OpUndef, lowerCmp},
	tgsi.OpcodeMAD:   {qir.OpUndef, lowerMad},
	tgsi.OpcodeLRP:   {qir.OpUndef, lowerLrp},
	tgsi.OpcodeRCP:   {qir.OpUndef, lowerRcp},
	tgsi.OpcodeRSQ:   {qir.OpUndef, lowerRsq},
	tgsi.OpcodeEX2:   {qir.OpExp2, lowerScalar},
	tgsi.OpcodeLG2:   {qir.OpLog2, lowerScalar},
	tgsi.OpcodeTRUNC: {qir.OpUndef, lowerTrunc},
	tgsi.OpcodeFRC:   {qir.OpUndef, lowerFrc},
	tgsi.OpcodeFLR:   {qir.OpUndef, lowerFlr},
	tgsi.OpcodeCEIL:  {qir.OpUndef, lowerCeil},
	tgsi.OpcodeABS:   {qir.OpUndef, lowerAbs},
	tgsi.OpcodeSIN:   {qir.OpUndef, lowerSin},
	tgsi.OpcodeCOS:   {qir.OpUndef, lowerCos},
	tgsi.OpcodeCLAMP: {qir.OpUndef, lowerClamp},
	tgsi.OpcodeSSG:   {qir.OpUndef, lowerSsg},
	tgsi.OpcodeARL:   {qir.OpUndef, lowerArl},
	tgsi.OpcodeUARL:  {qir.OpUndef, lowerUarl},

	tgsi.OpcodeDP2: {qir.OpUndef, lowerDot(2)},
	tgsi.OpcodeDP3: {qir.OpUndef, lowerDot(3)},
	tgsi.OpcodeDP4: {qir.OpUndef, lowerDot(4)},
	tgsi.OpcodeDPH: {qir.OpUndef, lowerDph},
	tgsi.OpcodePOW: {qir.OpUndef, lowerPow},
	tgsi.OpcodeXPD: {qir.OpUndef, lowerXpd},
}

// lowerALU emits op over channel i of as many sources as op reads.
func lowerALU(c *compiler, _ *tgsi.Instruction, op qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	args := make([]qir.Value, op.NumSrc())
	for s := range args {
		args[s] = src[s][i]
	}
	dst := c.prog.NewTemp()
	c.prog.Emit(op, dst, args...)
	return dst
}

// lowerScalar reads only src0.x; the result is replicated to every channel.
func lowerScalar(c *compiler, _ *tgsi.Instruction, op qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	dst := c.prog.NewTemp()
	c.prog.Emit(op, dst, src[0][0])
	return dst
}

// lowerRcp refines the hardware reciprocal with one Newton-Raphson step.
func lowerRcp(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	p := c.prog
	x := src[0][0]
	r := p.Rcp(x)
	return p.FMul(r, p.FSub(c.uniformF(2.0), p.FMul(x, r)))
}

// lowerRsq refines the hardware reciprocal square root with one
// Newton-Raphson step.
func lowerRsq(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	p := c.prog
	x := src[0][0]
	r := p.Rsq(x)
	return p.FMul(r, p.FSub(c.uniformF(1.5),
		p.FMul(c.uniformF(0.5), p.FMul(x, p.FMul(r, r)))))
}

// lowerUMul builds a 32-bit product from 16-bit halves, since MUL24 only
// sees the low 24 bits of each operand.
func lowerUMul(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	src0Hi := p.Shr(src[0][i], c.uniformUI(16))
	src0Lo := p.And(src[0][i], c.uniformUI(0xffff))
	src1Hi := p.Shr(src[1][i], c.uniformUI(16))
	src1Lo := p.And(src[1][i], c.uniformUI(0xffff))

	hilo := p.Mul24(src0Hi, src1Lo)
	lohi := p.Mul24(src0Lo, src1Hi)
	lolo := p.Mul24(src0Lo, src1Lo)

	return p.Add(lolo, p.Shl(p.Add(hilo, lohi), c.uniformUI(16)))
}

// lowerIDiv divides through the float reciprocal. Inexact for large
// operands.
func lowerIDiv(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	return p.FToI(p.FMul(p.IToF(src[0][i]), p.Rcp(p.IToF(src[1][i]))))
}

func lowerINeg(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	return c.prog.Sub(c.uniformUI(0), src[0][i])
}

// selectOnFlags emits sel, a SEL_X_0 variant, choosing x when its
// condition holds.
func (c *compiler) selectOnFlags(sel qir.Op, x qir.Value) qir.Value {
	dst := c.prog.NewTemp()
	c.prog.Emit(sel, dst, x)
	return dst
}

// lowerFloatSet is the legacy comparison family returning 1.0 or 0.0.
func lowerFloatSet(c *compiler, _ *tgsi.Instruction, sel qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	c.prog.SF(c.prog.FSub(src[0][i], src[1][i]))
	return c.selectOnFlags(sel, c.uniformF(1.0))
}

// lowerFloatCompare returns ~0 or 0 from a float comparison.
func lowerFloatCompare(c *compiler, _ *tgsi.Instruction, sel qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	c.prog.SF(c.prog.FSub(src[0][i], src[1][i]))
	return c.selectOnFlags(sel, c.uniformUI(^uint32(0)))
}

// lowerIntCompare returns ~0 or 0 from an integer comparison.
func lowerIntCompare(c *compiler, _ *tgsi.Instruction, sel qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	c.prog.SF(c.prog.Sub(src[0][i], src[1][i]))
	return c.selectOnFlags(sel, c.uniformUI(^uint32(0)))
}

// lowerCmp selects src1 where src0 is negative, else src2.
func lowerCmp(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	c.prog.SF(src[0][i])
	return c.prog.SelXYNS(src[1][i], src[2][i])
}

func lowerMad(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	return p.FAdd(p.FMul(src[0][i], src[1][i]), src[2][i])
}

// lowerLrp computes src0*src1 + (1-src0)*src2 as src2 + src0*(src1-src2).
func lowerLrp(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	return p.FAdd(src[2][i], p.FMul(src[0][i], p.FSub(src[1][i], src[2][i])))
}

func (c *compiler) trunc(x qir.Value) qir.Value {
	return c.prog.IToF(c.prog.FToI(x))
}

func lowerTrunc(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	return c.trunc(src[0][i])
}

// frc computes x - floor(x). FTOI rounds toward zero, so a negative
// difference from the truncation is corrected by adding one.
func (c *compiler) frc(x qir.Value) qir.Value {
	p := c.prog
	t := c.trunc(x)
	diff := p.FSub(x, t)
	p.SF(diff)
	return p.SelXYNS(p.FAdd(diff, c.uniformF(1.0)), diff)
}

func lowerFrc(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	return c.frc(src[0][i])
}

func lowerFlr(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	t := c.trunc(src[0][i])
	// Negative when a negative input was truncated upward.
	p.SF(p.FSub(src[0][i], t))
	return p.SelXYNS(p.FSub(t, c.uniformF(1.0)), t)
}

func lowerCeil(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	t := c.trunc(src[0][i])
	// Negative when a positive input was truncated downward.
	p.SF(p.FSub(t, src[0][i]))
	return p.SelXYNS(p.FAdd(t, c.uniformF(1.0)), t)
}

func lowerAbs(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	return c.prog.FMaxAbs(src[0][i], src[0][i])
}

// Taylor coefficients of sin(2πu) and cos(2πu) around u = 0.5.
var (
	sinCoeff = [...]float32{
		float32(-2 * math.Pi),
		float32(math.Pow(2*math.Pi, 3) / 6),
		float32(-math.Pow(2*math.Pi, 5) / 120),
		float32(math.Pow(2*math.Pi, 7) / 5040),
		float32(-math.Pow(2*math.Pi, 9) / 362880),
	}
	cosCoeff = [...]float32{
		-1,
		float32(math.Pow(2*math.Pi, 2) / 2),
		float32(-math.Pow(2*math.Pi, 4) / 24),
		float32(math.Pow(2*math.Pi, 6) / 720),
		float32(-math.Pow(2*math.Pi, 8) / 40320),
		float32(math.Pow(2*math.Pi, 10) / 3628800),
	}
)

// periodFraction maps x to frac(x/2π) - 0.5.
func (c *compiler) periodFraction(x qir.Value) qir.Value {
	p := c.prog
	scaled := p.FMul(x, c.uniformF(float32(1/(2*math.Pi))))
	return p.FAdd(c.frc(scaled), c.uniformF(-0.5))
}

// lowerSin reads src0.x; the result is replicated to every channel.
func lowerSin(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	p := c.prog
	x := c.periodFraction(src[0][0])
	x2 := p.FMul(x, x)
	sum := p.FMul(x, c.uniformF(sinCoeff[0]))
	for _, k := range sinCoeff[1:] {
		x = p.FMul(x, x2)
		sum = p.FAdd(sum, p.FMul(x, c.uniformF(k)))
	}
	return sum
}

// lowerCos reads src0.x; the result is replicated to every channel.
func lowerCos(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	p := c.prog
	u := c.periodFraction(src[0][0])
	sum := c.uniformF(cosCoeff[0])
	x2 := p.FMul(u, u)
	x := x2
	for n, k := range cosCoeff[1:] {
		if n > 0 {
			x = p.FMul(x, x2)
		}
		sum = p.FAdd(sum, p.FMul(x, c.uniformF(k)))
	}
	return sum
}

// lowerClamp computes max(min(src0, src2), src1).
func lowerClamp(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	return p.FMax(p.FMin(src[0][i], src[2][i]), src[1][i])
}

func lowerSsg(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	p.SF(src[0][i])
	return p.SelXYNC(p.SelX0ZC(c.uniformF(1.0)), c.uniformF(-1.0))
}

// lowerArl floors src0 and scales it to a byte offset into the
// indirect-access buffer, 16 bytes per vec4.
func lowerArl(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	p := c.prog
	t := p.FToI(src[0][i])
	scaled := p.Shl(t, c.uniformUI(4))
	p.SF(p.FSub(src[0][i], p.IToF(t)))
	return p.SelXYNS(p.Sub(scaled, c.uniformUI(16)), scaled)
}

func lowerUarl(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	return c.prog.Shl(src[0][i], c.uniformUI(4))
}

// lowerDot sums the products of the first n channels. The result is
// replicated to every channel.
func lowerDot(n int) lowerFunc {
	return func(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
		return c.dot(src, n)
	}
}

func (c *compiler) dot(src *[3][4]qir.Value, n int) qir.Value {
	p := c.prog
	sum := p.FMul(src[0][0], src[1][0])
	for k := 1; k < n; k++ {
		sum = p.FAdd(sum, p.FMul(src[0][k], src[1][k]))
	}
	return sum
}

// lowerDph is DP3 plus src1.w.
func lowerDph(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	return c.prog.FAdd(c.dot(src, 3), src[1][3])
}

func lowerPow(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, _ int) qir.Value {
	return c.prog.Pow(src[0][0], src[1][0])
}

// lowerXpd is the cross product of src0.xyz and src1.xyz, with w = 1.
func lowerXpd(c *compiler, _ *tgsi.Instruction, _ qir.Op, src *[3][4]qir.Value, i int) qir.Value {
	if i == 3 {
		return c.uniformF(1.0)
	}
	p := c.prog
	a, b := (i+1)%3, (i+2)%3
	return p.FSub(p.FMul(src[0][a], src[1][b]), p.FMul(src[0][b], src[1][a]))
}
