// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package qir

// Live reports, per instruction, whether its effect can reach the outside
// of the program: a side-effecting instruction, or one whose result is
// read by a live instruction. A flag set is live only when a live select
// reads it before the next flag set.
func Live(p *Program) []bool {
	live := make([]bool, len(p.Insts))
	temps := make([]bool, p.NumTemps)
	flags := false

	for i := len(p.Insts) - 1; i >= 0; i-- {
		inst := &p.Insts[i]
		info := inst.Op.Info()

		var needed bool
		switch {
		case inst.Op == OpSF:
			needed = flags
			flags = false
		case info.SideEffects:
			needed = true
		case inst.Dst.File == FileTemp && inst.Dst.Index < uint32(len(temps)):
			needed = temps[inst.Dst.Index]
		}
		if !needed {
			continue
		}
		live[i] = true

		if inst.Dst.File == FileTemp && inst.Dst.Index < uint32(len(temps)) {
			temps[inst.Dst.Index] = false
		}
		if info.ReadsFlags {
			flags = true
		}
		for _, src := range inst.Src {
			if src.File == FileTemp && src.Index < uint32(len(temps)) {
				temps[src.Index] = true
			}
		}
	}
	return live
}

// LiveVaryings reports which of the first n varying slots a live
// instruction reads.
func LiveVaryings(p *Program, n int) []bool {
	vary := make([]bool, n)
	for i, ok := range Live(p) {
		if !ok {
			continue
		}
		for _, src := range p.Insts[i].Src {
			if src.File == FileVary && int(src.Index) < n {
				vary[src.Index] = true
			}
		}
	}
	return vary
}
