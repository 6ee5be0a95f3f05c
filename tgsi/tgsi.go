// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package tgsi defines the mid-level shader IR consumed by the vc4 backend.
//
// A program is a flat token stream of declarations, immediates and
// instructions. Registers are four-channel vectors addressed by file and
// index; every instruction operates per scalar channel under a write mask.
// Programs are usually built in memory by a front end, or assembled from
// the Gallium text format with [Parse].
package tgsi

import "fmt"

// Processor is the pipeline stage a program was written for.
type Processor uint8

const (
	ProcessorFragment Processor = iota
	ProcessorVertex
)

func (p Processor) String() string {
	switch p {
	case ProcessorFragment:
		return "FRAG"
	case ProcessorVertex:
		return "VERT"
	default:
		return fmt.Sprintf("Processor(%d)", uint8(p))
	}
}

// File is a register file.
type File uint8

const (
	FileNull File = iota
	FileConstant
	FileInput
	FileOutput
	FileTemporary
	FileSampler
	FileAddress
	FileImmediate
	FileSystemValue
	FileSamplerView
)

var fileNames = [...]string{
	FileNull:        "NULL",
	FileConstant:    "CONST",
	FileInput:       "IN",
	FileOutput:      "OUT",
	FileTemporary:   "TEMP",
	FileSampler:     "SAMP",
	FileAddress:     "ADDR",
	FileImmediate:   "IMM",
	FileSystemValue: "SV",
	FileSamplerView: "SVIEW",
}

func (f File) String() string {
	if int(f) < len(fileNames) {
		return fileNames[f]
	}
	return fmt.Sprintf("File(%d)", uint8(f))
}

// Semantic names the meaning of an input or output register.
type Semantic uint8

const (
	SemanticPosition Semantic = iota
	SemanticColor
	SemanticBColor
	SemanticFog
	SemanticPSize
	SemanticGeneric
	SemanticNormal
	SemanticFace
	SemanticEdgeFlag
	SemanticPrimID
	SemanticInstanceID
	SemanticVertexID
	SemanticStencil
	SemanticClipDist
	SemanticClipVertex
	SemanticTexCoord
	SemanticPCoord
)

var semanticNames = [...]string{
	SemanticPosition:   "POSITION",
	SemanticColor:      "COLOR",
	SemanticBColor:     "BCOLOR",
	SemanticFog:        "FOG",
	SemanticPSize:      "PSIZE",
	SemanticGeneric:    "GENERIC",
	SemanticNormal:     "NORMAL",
	SemanticFace:       "FACE",
	SemanticEdgeFlag:   "EDGEFLAG",
	SemanticPrimID:     "PRIM_ID",
	SemanticInstanceID: "INSTANCEID",
	SemanticVertexID:   "VERTEXID",
	SemanticStencil:    "STENCIL",
	SemanticClipDist:   "CLIPDIST",
	SemanticClipVertex: "CLIPVERTEX",
	SemanticTexCoord:   "TEXCOORD",
	SemanticPCoord:     "PCOORD",
}

func (s Semantic) String() string {
	if int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return fmt.Sprintf("Semantic(%d)", uint8(s))
}

// Swizzle selects a source channel. Zero and One are pseudo-channels
// used by format swizzles; None marks an absent channel.
type Swizzle uint8

const (
	SwizzleX Swizzle = iota
	SwizzleY
	SwizzleZ
	SwizzleW
	SwizzleZero
	SwizzleOne
	SwizzleNone
)

func (s Swizzle) String() string {
	switch s {
	case SwizzleX:
		return "x"
	case SwizzleY:
		return "y"
	case SwizzleZ:
		return "z"
	case SwizzleW:
		return "w"
	case SwizzleZero:
		return "0"
	case SwizzleOne:
		return "1"
	default:
		return "_"
	}
}

// IdentitySwizzle is .xyzw.
var IdentitySwizzle = [4]Swizzle{SwizzleX, SwizzleY, SwizzleZ, SwizzleW}

// WriteMask bits enable destination channels.
type WriteMask uint8

const (
	WriteX WriteMask = 1 << iota
	WriteY
	WriteZ
	WriteW

	WriteXYZW = WriteX | WriteY | WriteZ | WriteW
)

// Has reports whether channel i is enabled.
func (m WriteMask) Has(i int) bool { return m&(1<<uint(i)) != 0 }

// Saturate is an instruction's result clamping mode.
type Saturate uint8

const (
	SaturateNone Saturate = iota
	SaturateZeroOne
	SaturateMinusPlusOne
)

// TextureTarget is the resource type sampled by a texture instruction.
type TextureTarget uint8

const (
	TextureUnknown TextureTarget = iota
	Texture1D
	Texture2D
	Texture3D
	TextureCube
	TextureRect
	TextureShadow1D
	TextureShadow2D
	TextureShadowRect
	TextureShadowCube
)

var textureNames = [...]string{
	TextureUnknown:    "UNKNOWN",
	Texture1D:         "1D",
	Texture2D:         "2D",
	Texture3D:         "3D",
	TextureCube:       "CUBE",
	TextureRect:       "RECT",
	TextureShadow1D:   "SHADOW1D",
	TextureShadow2D:   "SHADOW2D",
	TextureShadowRect: "SHADOWRECT",
	TextureShadowCube: "SHADOWCUBE",
}

func (t TextureTarget) String() string {
	if int(t) < len(textureNames) {
		return textureNames[t]
	}
	return fmt.Sprintf("TextureTarget(%d)", uint8(t))
}

// IsRect reports whether coordinates are in texels rather than [0,1].
func (t TextureTarget) IsRect() bool {
	return t == TextureRect || t == TextureShadowRect
}

// IsCube reports whether the target is a cube map.
func (t TextureTarget) IsCube() bool {
	return t == TextureCube || t == TextureShadowCube
}

// SrcRegister is an instruction source operand.
type SrcRegister struct {
	File    File
	Index   int
	Swizzle [4]Swizzle

	Negate   bool
	Absolute bool

	// Indirect addressing reads IndirectFile[IndirectIndex] channel
	// IndirectSwizzle and adds it to Index.
	Indirect        bool
	IndirectFile    File
	IndirectIndex   int
	IndirectSwizzle Swizzle

	// ArrayID names the declared constant array an indirect read targets.
	// Zero means the array containing Index.
	ArrayID int
}

// Src returns a direct source register with the identity swizzle.
func Src(file File, index int) SrcRegister {
	return SrcRegister{File: file, Index: index, Swizzle: IdentitySwizzle}
}

// DstRegister is an instruction destination operand.
type DstRegister struct {
	File      File
	Index     int
	WriteMask WriteMask
	Indirect  bool
}

// Dst returns a destination register with all channels enabled.
func Dst(file File, index int) DstRegister {
	return DstRegister{File: file, Index: index, WriteMask: WriteXYZW}
}

// Token is one element of a program: *Declaration, *Immediate or
// *Instruction.
type Token interface {
	token()
}

// Declaration introduces a register range.
type Declaration struct {
	File          File
	First, Last   int
	Semantic      Semantic
	SemanticIndex int
	// HasSemantic is false for declarations without a semantic.
	HasSemantic bool
	ArrayID     int
}

// ImmediateType is the element type of an immediate.
type ImmediateType uint8

const (
	ImmFloat32 ImmediateType = iota
	ImmUint32
	ImmInt32
)

func (t ImmediateType) String() string {
	switch t {
	case ImmUint32:
		return "UINT32"
	case ImmInt32:
		return "INT32"
	default:
		return "FLT32"
	}
}

// Immediate declares the next immediate register. Values are raw bits.
type Immediate struct {
	Type   ImmediateType
	Values [4]uint32
}

// Instruction is one operation.
type Instruction struct {
	Opcode   Opcode
	Saturate Saturate
	Dst      []DstRegister
	Src      []SrcRegister
	Texture  TextureTarget
	// Line is the source line for assembled programs, or 0.
	Line int
}

func (*Declaration) token() {}
func (*Immediate) token()   {}
func (*Instruction) token() {}

// Program is a shader in the mid-level IR.
type Program struct {
	Processor Processor
	Tokens    []Token
}

// Instructions returns the instruction tokens in order.
func (p *Program) Instructions() []*Instruction {
	var out []*Instruction
	for _, t := range p.Tokens {
		if inst, ok := t.(*Instruction); ok {
			out = append(out, inst)
		}
	}
	return out
}
