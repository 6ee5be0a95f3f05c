// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

import (
	"fmt"
)

// ValidationError describes one structural problem in a program.
type ValidationError struct {
	Message string
	// Inst is the offending instruction index, or -1.
	Inst int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Inst >= 0 {
		return fmt.Sprintf("instruction %d: %s", e.Inst, e.Message)
	}
	return e.Message
}

// Validate checks that every instruction reads only defined values:
// temporaries written earlier, uniform slots inside the table, and the
// current accumulator. Returns the problems found, or nil.
func Validate(p *Program) ([]ValidationError, error) {
	if p == nil {
		return nil, fmt.Errorf("program is nil")
	}

	v := &validator{
		prog:    p,
		written: make([]bool, p.NumTemps),
	}
	v.run()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

type validator struct {
	prog     *Program
	written  []bool
	flagsSet bool
	errors   []ValidationError
}

func (v *validator) addError(inst int, format string, args ...interface{}) {
	v.errors = append(v.errors, ValidationError{Message: fmt.Sprintf(format, args...), Inst: inst})
}

func (v *validator) run() {
	for idx := range v.prog.Insts {
		inst := &v.prog.Insts[idx]
		info := inst.Op.Info()

		if !inst.Op.Valid() {
			v.addError(idx, "unknown opcode %d", uint8(inst.Op))
			continue
		}
		if len(inst.Src) != info.NumSrc {
			v.addError(idx, "%s has %d sources, want %d", inst.Op, len(inst.Src), info.NumSrc)
		}
		if info.ReadsFlags && !v.flagsSet {
			v.addError(idx, "%s reads flags before any sf", inst.Op)
		}

		for i, src := range inst.Src {
			v.checkSrc(idx, i, src)
		}

		if inst.Op == OpSF {
			v.flagsSet = true
		}
		v.checkDst(idx, inst, info)
	}
}

func (v *validator) checkSrc(idx, slot int, src Value) {
	switch src.File {
	case FileUndef:
		v.addError(idx, "source %d reads an undefined value", slot)
	case FileTemp:
		if src.Index >= uint32(len(v.written)) {
			v.addError(idx, "source %d reads t%d beyond %d temps", slot, src.Index, len(v.written))
		} else if !v.written[src.Index] {
			v.addError(idx, "source %d reads t%d before it is written", slot, src.Index)
		}
	case FileUnif:
		if int(src.Index) >= v.prog.Uniforms.Len() {
			v.addError(idx, "source %d reads u%d beyond the uniform table", slot, src.Index)
		}
	case FileVary:
		if v.prog.Stage != StageFragment {
			v.addError(idx, "source %d reads a varying outside the fragment stage", slot)
		}
	case FileR4:
		// Staleness is enforced at emit time.
	default:
		v.addError(idx, "source %d has unknown file %d", slot, uint8(src.File))
	}
}

func (v *validator) checkDst(idx int, inst *Inst, info OpInfo) {
	if !info.HasDst {
		if !inst.Dst.IsUndef() {
			v.addError(idx, "%s does not produce a value but has destination %s", inst.Op, inst.Dst)
		}
		return
	}
	switch inst.Dst.File {
	case FileTemp:
		if inst.Dst.Index >= uint32(len(v.written)) {
			v.addError(idx, "destination t%d beyond %d temps", inst.Dst.Index, len(v.written))
			return
		}
		v.written[inst.Dst.Index] = true
	case FileR4:
		if !inst.Op.WritesR4() {
			v.addError(idx, "%s cannot write the accumulator", inst.Op)
		}
	default:
		v.addError(idx, "%s writes to %s", inst.Op, inst.Dst.File)
	}
}
