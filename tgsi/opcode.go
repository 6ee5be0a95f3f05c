// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "fmt"

// Opcode is an instruction opcode.
type Opcode uint8

const (
	OpcodeNop Opcode = iota
	OpcodeARL
	OpcodeMOV
	OpcodeLIT
	OpcodeRCP
	OpcodeRSQ
	OpcodeMUL
	OpcodeADD
	OpcodeDP2
	OpcodeDP3
	OpcodeDP4
	OpcodeDPH
	OpcodeMIN
	OpcodeMAX
	OpcodeSLT
	OpcodeSGE
	OpcodeSGT
	OpcodeSLE
	OpcodeSEQ
	OpcodeSNE
	OpcodeMAD
	OpcodeSUB
	OpcodeLRP
	OpcodeSQRT
	OpcodeFRC
	OpcodeCLAMP
	OpcodeFLR
	OpcodeROUND
	OpcodeEX2
	OpcodeLG2
	OpcodePOW
	OpcodeXPD
	OpcodeABS
	OpcodeCOS
	OpcodeSIN
	OpcodeDDX
	OpcodeDDY
	OpcodeKILL
	OpcodeKILLIF
	OpcodeTEX
	OpcodeTXB
	OpcodeTXL
	OpcodeTXP
	OpcodeTXD
	OpcodeTXF
	OpcodeTXQ
	OpcodeSSG
	OpcodeCMP
	OpcodeTRUNC
	OpcodeCEIL
	OpcodeI2F
	OpcodeU2F
	OpcodeF2I
	OpcodeF2U
	OpcodeNOT
	OpcodeAND
	OpcodeOR
	OpcodeXOR
	OpcodeSHL
	OpcodeISHR
	OpcodeUSHR
	OpcodeUADD
	OpcodeUMUL
	OpcodeUDIV
	OpcodeUMOD
	OpcodeIDIV
	OpcodeMOD
	OpcodeINEG
	OpcodeIMIN
	OpcodeIMAX
	OpcodeUMIN
	OpcodeUMAX
	OpcodeISGE
	OpcodeISLT
	OpcodeUSEQ
	OpcodeUSNE
	OpcodeUSGE
	OpcodeUSLT
	OpcodeFSEQ
	OpcodeFSNE
	OpcodeFSGE
	OpcodeFSLT
	OpcodeUARL
	OpcodeIF
	OpcodeELSE
	OpcodeENDIF
	OpcodeBGNLOOP
	OpcodeENDLOOP
	OpcodeBRK
	OpcodeEND
	opcodeCount
)

// Type is the inferred operand type of an opcode.
type Type uint8

const (
	TypeFloat Type = iota
	TypeUnsigned
	TypeSigned
)

// OpcodeInfo describes an opcode's shape.
type OpcodeInfo struct {
	Name   string
	NumDst int
	NumSrc int
	// SrcType is the type sources are interpreted as.
	SrcType Type
	// IsTex marks sampling instructions, which take a texture target.
	IsTex bool
}

func info(name string, ndst, nsrc int, t Type) OpcodeInfo {
	return OpcodeInfo{Name: name, NumDst: ndst, NumSrc: nsrc, SrcType: t}
}

func texInfo(name string, nsrc int) OpcodeInfo {
	return OpcodeInfo{Name: name, NumDst: 1, NumSrc: nsrc, IsTex: true}
}

var opcodeInfo = [opcodeCount]OpcodeInfo{
	OpcodeNop:     info("NOP", 0, 0, TypeFloat),
	OpcodeARL:     info("ARL", 1, 1, TypeFloat),
	OpcodeMOV:     info("MOV", 1, 1, TypeFloat),
	OpcodeLIT:     info("LIT", 1, 1, TypeFloat),
	OpcodeRCP:     info("RCP", 1, 1, TypeFloat),
	OpcodeRSQ:     info("RSQ", 1, 1, TypeFloat),
	OpcodeMUL:     info("MUL", 1, 2, TypeFloat),
	OpcodeADD:     info("ADD", 1, 2, TypeFloat),
	OpcodeDP2:     info("DP2", 1, 2, TypeFloat),
	OpcodeDP3:     info("DP3", 1, 2, TypeFloat),
	OpcodeDP4:     info("DP4", 1, 2, TypeFloat),
	OpcodeDPH:     info("DPH", 1, 2, TypeFloat),
	OpcodeMIN:     info("MIN", 1, 2, TypeFloat),
	OpcodeMAX:     info("MAX", 1, 2, TypeFloat),
	OpcodeSLT:     info("SLT", 1, 2, TypeFloat),
	OpcodeSGE:     info("SGE", 1, 2, TypeFloat),
	OpcodeSGT:     info("SGT", 1, 2, TypeFloat),
	OpcodeSLE:     info("SLE", 1, 2, TypeFloat),
	OpcodeSEQ:     info("SEQ", 1, 2, TypeFloat),
	OpcodeSNE:     info("SNE", 1, 2, TypeFloat),
	OpcodeMAD:     info("MAD", 1, 3, TypeFloat),
	OpcodeSUB:     info("SUB", 1, 2, TypeFloat),
	OpcodeLRP:     info("LRP", 1, 3, TypeFloat),
	OpcodeSQRT:    info("SQRT", 1, 1, TypeFloat),
	OpcodeFRC:     info("FRC", 1, 1, TypeFloat),
	OpcodeCLAMP:   info("CLAMP", 1, 3, TypeFloat),
	OpcodeFLR:     info("FLR", 1, 1, TypeFloat),
	OpcodeROUND:   info("ROUND", 1, 1, TypeFloat),
	OpcodeEX2:     info("EX2", 1, 1, TypeFloat),
	OpcodeLG2:     info("LG2", 1, 1, TypeFloat),
	OpcodePOW:     info("POW", 1, 2, TypeFloat),
	OpcodeXPD:     info("XPD", 1, 2, TypeFloat),
	OpcodeABS:     info("ABS", 1, 1, TypeFloat),
	OpcodeCOS:     info("COS", 1, 1, TypeFloat),
	OpcodeSIN:     info("SIN", 1, 1, TypeFloat),
	OpcodeDDX:     info("DDX", 1, 1, TypeFloat),
	OpcodeDDY:     info("DDY", 1, 1, TypeFloat),
	OpcodeKILL:    info("KILL", 0, 0, TypeFloat),
	OpcodeKILLIF:  info("KILL_IF", 0, 1, TypeFloat),
	OpcodeTEX:     texInfo("TEX", 2),
	OpcodeTXB:     texInfo("TXB", 2),
	OpcodeTXL:     texInfo("TXL", 2),
	OpcodeTXP:     texInfo("TXP", 2),
	OpcodeTXD:     texInfo("TXD", 4),
	OpcodeTXF:     texInfo("TXF", 2),
	OpcodeTXQ:     texInfo("TXQ", 2),
	OpcodeSSG:     info("SSG", 1, 1, TypeFloat),
	OpcodeCMP:     info("CMP", 1, 3, TypeFloat),
	OpcodeTRUNC:   info("TRUNC", 1, 1, TypeFloat),
	OpcodeCEIL:    info("CEIL", 1, 1, TypeFloat),
	OpcodeI2F:     info("I2F", 1, 1, TypeSigned),
	OpcodeU2F:     info("U2F", 1, 1, TypeUnsigned),
	OpcodeF2I:     info("F2I", 1, 1, TypeFloat),
	OpcodeF2U:     info("F2U", 1, 1, TypeFloat),
	OpcodeNOT:     info("NOT", 1, 1, TypeUnsigned),
	OpcodeAND:     info("AND", 1, 2, TypeUnsigned),
	OpcodeOR:      info("OR", 1, 2, TypeUnsigned),
	OpcodeXOR:     info("XOR", 1, 2, TypeUnsigned),
	OpcodeSHL:     info("SHL", 1, 2, TypeUnsigned),
	OpcodeISHR:    info("ISHR", 1, 2, TypeSigned),
	OpcodeUSHR:    info("USHR", 1, 2, TypeUnsigned),
	OpcodeUADD:    info("UADD", 1, 2, TypeUnsigned),
	OpcodeUMUL:    info("UMUL", 1, 2, TypeUnsigned),
	OpcodeUDIV:    info("UDIV", 1, 2, TypeUnsigned),
	OpcodeUMOD:    info("UMOD", 1, 2, TypeUnsigned),
	OpcodeIDIV:    info("IDIV", 1, 2, TypeSigned),
	OpcodeMOD:     info("MOD", 1, 2, TypeSigned),
	OpcodeINEG:    info("INEG", 1, 1, TypeSigned),
	OpcodeIMIN:    info("IMIN", 1, 2, TypeSigned),
	OpcodeIMAX:    info("IMAX", 1, 2, TypeSigned),
	OpcodeUMIN:    info("UMIN", 1, 2, TypeUnsigned),
	OpcodeUMAX:    info("UMAX", 1, 2, TypeUnsigned),
	OpcodeISGE:    info("ISGE", 1, 2, TypeSigned),
	OpcodeISLT:    info("ISLT", 1, 2, TypeSigned),
	OpcodeUSEQ:    info("USEQ", 1, 2, TypeUnsigned),
	OpcodeUSNE:    info("USNE", 1, 2, TypeUnsigned),
	OpcodeUSGE:    info("USGE", 1, 2, TypeUnsigned),
	OpcodeUSLT:    info("USLT", 1, 2, TypeUnsigned),
	OpcodeFSEQ:    info("FSEQ", 1, 2, TypeFloat),
	OpcodeFSNE:    info("FSNE", 1, 2, TypeFloat),
	OpcodeFSGE:    info("FSGE", 1, 2, TypeFloat),
	OpcodeFSLT:    info("FSLT", 1, 2, TypeFloat),
	OpcodeUARL:    info("UARL", 1, 1, TypeUnsigned),
	OpcodeIF:      info("IF", 0, 1, TypeFloat),
	OpcodeELSE:    info("ELSE", 0, 0, TypeFloat),
	OpcodeENDIF:   info("ENDIF", 0, 0, TypeFloat),
	OpcodeBGNLOOP: info("BGNLOOP", 0, 0, TypeFloat),
	OpcodeENDLOOP: info("ENDLOOP", 0, 0, TypeFloat),
	OpcodeBRK:     info("BRK", 0, 0, TypeFloat),
	OpcodeEND:     info("END", 0, 0, TypeFloat),
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, opcodeCount)
	for op := Opcode(0); op < opcodeCount; op++ {
		m[opcodeInfo[op].Name] = op
	}
	// Older spelling of KILL.
	m["KILP"] = OpcodeKILL
	return m
}()

// Info returns the opcode's description.
func (op Opcode) Info() OpcodeInfo {
	if op < opcodeCount {
		return opcodeInfo[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("Opcode(%d)", uint8(op))}
}

func (op Opcode) String() string { return op.Info().Name }

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool { return op < opcodeCount }

// LookupOpcode finds an opcode by its assembler name.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}
