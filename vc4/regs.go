// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import "github.com/gogpu/vc4c/qir"

// ensureRegs grows *regs to hold at least n entries, at least doubling
// the capacity. New entries are the zero value, which for qir.Value is
// qir.Undef.
func ensureRegs[T any](regs *[]T, n int) {
	if n <= len(*regs) {
		return
	}
	if n <= cap(*regs) {
		*regs = (*regs)[:n]
		return
	}
	grown := make([]T, n, max(2*cap(*regs), n))
	copy(grown, *regs)
	*regs = grown
}

// checkSlot fails unless i is a declared slot of a table of length n.
func (c *compiler) checkSlot(n int, file string, i int) {
	if i < 0 || i >= n {
		c.fail(ErrInvalidProgram, "%s[%d].%s is not declared", file, i/4, "xyzw"[i&3:i&3+1])
	}
}

// readReg returns slot i of a declared register table.
func (c *compiler) readReg(regs []qir.Value, file string, i int) qir.Value {
	c.checkSlot(len(regs), file, i)
	return regs[i]
}
