// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"strings"
)

// SourceError is an assembler error with a source location.
type SourceError struct {
	Message string
	Line    int
	Column  int
	Source  string // full assembler text, for context display
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// FormatWithContext returns the message followed by the offending line and
// a caret under the column.
func (e *SourceError) FormatWithContext() string {
	if e.Source == "" || e.Line == 0 {
		return e.Error()
	}
	lines := strings.Split(e.Source, "\n")
	if e.Line > len(lines) {
		return e.Error()
	}
	line := lines[e.Line-1]
	col := min(max(e.Column, 1), len(line)+1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", e.Line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// SourceErrors collects every error of one assembly.
type SourceErrors []*SourceError

// Error implements the error interface.
func (el SourceErrors) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// FormatAll formats every error with context.
func (el SourceErrors) FormatAll() string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext())
	}
	return sb.String()
}
