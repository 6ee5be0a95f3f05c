// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package qir defines the device-level intermediate representation consumed
// by the VideoCore IV register allocator and instruction emitter.
//
// A QIR program is a flat list of instructions over symbolic values. Each
// value names a storage file and an index within it. Values are written once
// by the instruction that produces them; the allocator maps temporaries onto
// physical registers later.
package qir

import "fmt"

// File is the storage class of a Value.
type File uint8

const (
	// FileUndef is the "don't care" placeholder. It is the zero value so an
	// unset Value is undefined by construction.
	FileUndef File = iota

	// FileTemp is a virtual temporary register.
	FileTemp

	// FileUnif is a slot in the uniform stream.
	FileUnif

	// FileVary is an interpolated varying slot (fragment stage only).
	FileVary

	// FileR4 is the accumulator written by texture and tile-buffer reads.
	// Its Index carries the generation of the producing instruction.
	FileR4
)

// String returns the file name.
func (f File) String() string {
	switch f {
	case FileUndef:
		return "undef"
	case FileTemp:
		return "temp"
	case FileUnif:
		return "unif"
	case FileVary:
		return "vary"
	case FileR4:
		return "r4"
	default:
		return fmt.Sprintf("file(%d)", uint8(f))
	}
}

// Value is a symbolic operand.
type Value struct {
	File  File
	Index uint32
}

// Undef is the undefined value.
var Undef = Value{}

// Temp returns the temporary with the given index.
func Temp(i uint32) Value { return Value{File: FileTemp, Index: i} }

// Unif returns the uniform slot with the given index.
func Unif(i uint32) Value { return Value{File: FileUnif, Index: i} }

// Vary returns the varying slot with the given index.
func Vary(i uint32) Value { return Value{File: FileVary, Index: i} }

// IsUndef reports whether v is the undefined value.
func (v Value) IsUndef() bool { return v.File == FileUndef }

// String formats the value the way the dump prints it.
func (v Value) String() string {
	switch v.File {
	case FileUndef:
		return "undef"
	case FileTemp:
		return fmt.Sprintf("t%d", v.Index)
	case FileUnif:
		return fmt.Sprintf("u%d", v.Index)
	case FileVary:
		return fmt.Sprintf("v%d", v.Index)
	case FileR4:
		return "r4"
	default:
		return fmt.Sprintf("?%d", v.Index)
	}
}

// Stage identifies which shader a program implements.
type Stage uint8

const (
	StageFragment Stage = iota
	StageVertex
	// StageCoordinate is the position-only vertex shader run by the binner.
	StageCoordinate
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageFragment:
		return "FS"
	case StageVertex:
		return "VS"
	case StageCoordinate:
		return "CS"
	default:
		return "??"
	}
}
