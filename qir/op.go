// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

import "fmt"

// Op is a device IR opcode.
type Op uint8

const (
	OpUndef Op = iota
	OpMov
	OpFAdd
	OpFSub
	OpFMul
	OpMul24
	OpFMin
	OpFMax
	OpFMinAbs
	OpFMaxAbs
	OpAdd
	OpSub
	OpShl
	OpShr
	OpAsr
	OpMin
	OpMax
	OpAnd
	OpOr
	OpXor
	OpNot

	// OpSF sets the condition flags from its operand.
	OpSF

	// Select x when the flag condition holds, else zero.
	OpSelX0ZS
	OpSelX0ZC
	OpSelX0NS
	OpSelX0NC

	// Select x when the flag condition holds, else y.
	OpSelXYZS
	OpSelXYZC
	OpSelXYNS
	OpSelXYNC

	OpFToI
	OpIToF
	OpRcp
	OpRsq
	OpExp2
	OpLog2

	OpPackColors
	OpPackScaled
	OpVPMWrite
	OpVPMRead

	OpTLBDiscardSetup
	OpTLBStencilSetup
	OpTLBZWrite
	OpTLBColorWrite
	OpTLBColorRead

	OpVaryAddC
	OpFragX
	OpFragY
	OpFragZ
	OpFragW
	OpFragRevFlag

	OpUnpack8A
	OpUnpack8B
	OpUnpack8C
	OpUnpack8D

	// Texture unit coordinate writes. S must be written last.
	OpTexS
	OpTexT
	OpTexR
	OpTexB
	OpTexDirect
	OpTexResult

	OpR4UnpackA
	OpR4UnpackB
	OpR4UnpackC
	OpR4UnpackD

	opCount
)

// OpInfo describes the shape of an opcode.
type OpInfo struct {
	Name string
	// NumSrc is the number of source operands the opcode reads.
	NumSrc int
	// HasDst is true when the instruction produces a value.
	HasDst bool
	// SideEffects marks instructions that must never be removed.
	SideEffects bool
	// ReadsFlags marks the conditional selects.
	ReadsFlags bool
}

var opInfos = [opCount]OpInfo{
	OpUndef:   {"undef", 0, true, false, false},
	OpMov:     {"mov", 1, true, false, false},
	OpFAdd:    {"fadd", 2, true, false, false},
	OpFSub:    {"fsub", 2, true, false, false},
	OpFMul:    {"fmul", 2, true, false, false},
	OpMul24:   {"mul24", 2, true, false, false},
	OpFMin:    {"fmin", 2, true, false, false},
	OpFMax:    {"fmax", 2, true, false, false},
	OpFMinAbs: {"fminabs", 2, true, false, false},
	OpFMaxAbs: {"fmaxabs", 2, true, false, false},
	OpAdd:     {"add", 2, true, false, false},
	OpSub:     {"sub", 2, true, false, false},
	OpShl:     {"shl", 2, true, false, false},
	OpShr:     {"shr", 2, true, false, false},
	OpAsr:     {"asr", 2, true, false, false},
	OpMin:     {"min", 2, true, false, false},
	OpMax:     {"max", 2, true, false, false},
	OpAnd:     {"and", 2, true, false, false},
	OpOr:      {"or", 2, true, false, false},
	OpXor:     {"xor", 2, true, false, false},
	OpNot:     {"not", 1, true, false, false},

	OpSF: {"sf", 1, false, true, false},

	OpSelX0ZS: {"sel_x_0_zs", 1, true, false, true},
	OpSelX0ZC: {"sel_x_0_zc", 1, true, false, true},
	OpSelX0NS: {"sel_x_0_ns", 1, true, false, true},
	OpSelX0NC: {"sel_x_0_nc", 1, true, false, true},
	OpSelXYZS: {"sel_x_y_zs", 2, true, false, true},
	OpSelXYZC: {"sel_x_y_zc", 2, true, false, true},
	OpSelXYNS: {"sel_x_y_ns", 2, true, false, true},
	OpSelXYNC: {"sel_x_y_nc", 2, true, false, true},

	OpFToI: {"ftoi", 1, true, false, false},
	OpIToF: {"itof", 1, true, false, false},
	OpRcp:  {"rcp", 1, true, false, false},
	OpRsq:  {"rsq", 1, true, false, false},
	OpExp2: {"exp2", 1, true, false, false},
	OpLog2: {"log2", 1, true, false, false},

	OpPackColors: {"pack_colors", 4, true, false, false},
	OpPackScaled: {"pack_scaled", 2, true, false, false},
	OpVPMWrite:   {"vpm_write", 1, false, true, false},
	OpVPMRead:    {"vpm_read", 0, true, true, false},

	OpTLBDiscardSetup: {"discard", 1, false, true, false},
	OpTLBStencilSetup: {"tlb_stencil_setup", 1, false, true, false},
	OpTLBZWrite:       {"tlb_z", 1, false, true, false},
	OpTLBColorWrite:   {"tlb_color", 1, false, true, false},
	OpTLBColorRead:    {"tlb_color_read", 0, true, true, false},

	OpVaryAddC:    {"vary_add_c", 1, true, false, false},
	OpFragX:       {"frag_x", 0, true, false, false},
	OpFragY:       {"frag_y", 0, true, false, false},
	OpFragZ:       {"frag_z", 0, true, false, false},
	OpFragW:       {"frag_w", 0, true, false, false},
	OpFragRevFlag: {"frag_rev_flag", 0, true, false, false},

	OpUnpack8A: {"unpack_8a", 1, true, false, false},
	OpUnpack8B: {"unpack_8b", 1, true, false, false},
	OpUnpack8C: {"unpack_8c", 1, true, false, false},
	OpUnpack8D: {"unpack_8d", 1, true, false, false},

	OpTexS:      {"tex_s", 2, false, true, false},
	OpTexT:      {"tex_t", 2, false, true, false},
	OpTexR:      {"tex_r", 2, false, true, false},
	OpTexB:      {"tex_b", 2, false, true, false},
	OpTexDirect: {"tex_direct", 2, false, true, false},
	OpTexResult: {"tex_result", 0, true, true, false},

	OpR4UnpackA: {"r4_unpack_a", 1, true, false, false},
	OpR4UnpackB: {"r4_unpack_b", 1, true, false, false},
	OpR4UnpackC: {"r4_unpack_c", 1, true, false, false},
	OpR4UnpackD: {"r4_unpack_d", 1, true, false, false},
}

// Info returns the opcode description.
func (op Op) Info() OpInfo {
	if op >= opCount {
		return OpInfo{Name: fmt.Sprintf("op(%d)", uint8(op))}
	}
	return opInfos[op]
}

// NumSrc returns the number of sources the opcode reads.
func (op Op) NumSrc() int { return op.Info().NumSrc }

// String returns the lower-case mnemonic.
func (op Op) String() string { return op.Info().Name }

// Valid reports whether op is a known opcode.
func (op Op) Valid() bool { return op < opCount }

// WritesR4 reports whether the instruction result lands in the accumulator.
func (op Op) WritesR4() bool {
	return op == OpTexResult || op == OpTLBColorRead
}
