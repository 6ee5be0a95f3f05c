// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import "fmt"

// ErrorKind categorizes compilation errors.
type ErrorKind uint8

const (
	// ErrUnsupportedOpcode indicates an instruction with no lowering.
	ErrUnsupportedOpcode ErrorKind = iota

	// ErrUnsupportedFile indicates a source or destination register file
	// the target cannot access.
	ErrUnsupportedFile

	// ErrIndirectWrite indicates an indirectly addressed destination.
	ErrIndirectWrite

	// ErrInvalidDeclaration indicates a declaration the compiler cannot honor.
	ErrInvalidDeclaration

	// ErrInvalidProgram indicates a malformed input program.
	ErrInvalidProgram

	// ErrInternal indicates a compiler bug.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedOpcode:
		return "UnsupportedOpcode"
	case ErrUnsupportedFile:
		return "UnsupportedFile"
	case ErrIndirectWrite:
		return "IndirectWrite"
	case ErrInvalidDeclaration:
		return "InvalidDeclaration"
	case ErrInvalidProgram:
		return "InvalidProgram"
	case ErrInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is a fatal compilation error.
type Error struct {
	Kind    ErrorKind
	Message string

	// Instruction is the text of the offending instruction, if any.
	Instruction string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Instruction != "" {
		return fmt.Sprintf("vc4 %s: %s (in %q)", e.Kind, e.Message, e.Instruction)
	}
	return fmt.Sprintf("vc4 %s: %s", e.Kind, e.Message)
}

// NewError creates an error without instruction context.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// IsUnsupportedOpcode returns true if the error is ErrUnsupportedOpcode.
func (e *Error) IsUnsupportedOpcode() bool {
	return e.Kind == ErrUnsupportedOpcode
}

// IsInternal returns true if the error is ErrInternal.
func (e *Error) IsInternal() bool {
	return e.Kind == ErrInternal
}
