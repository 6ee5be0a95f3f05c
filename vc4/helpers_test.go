// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"math"
	"testing"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/qir/interp"
	"github.com/gogpu/vc4c/tgsi"
)

func mustParse(t *testing.T, source string) *tgsi.Program {
	t.Helper()
	prog, err := tgsi.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

// translate runs the translation pass without finalizing, so tests can
// inspect the register tables.
func translate(t *testing.T, source string, key StageKey) *compiler {
	t.Helper()
	prog := mustParse(t, source)
	c := newCompiler(key.stage(), key.base())
	switch k := key.(type) {
	case *FSKey:
		c.fs = k
	case *VSKey:
		c.vs = k
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("translate: %v", r)
			}
		}()
		c.run(prog)
	}()
	return c
}

func mustCompile(t *testing.T, source string, key StageKey) *Shader {
	t.Helper()
	sh, err := Compile(mustParse(t, source), key, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return sh
}

func execute(t *testing.T, p *qir.Program, env *interp.Env) *interp.Result {
	t.Helper()
	res, err := interp.Run(p, env)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, p)
	}
	return res
}

// resolver returns a uniform resolver that answers contents listed in
// values with the given function and otherwise behaves like the default.
func resolver(values map[qir.UniformContents]func(data uint32) uint32) func(qir.UniformContents, uint32) uint32 {
	return func(contents qir.UniformContents, data uint32) uint32 {
		if fn, ok := values[contents]; ok {
			return fn(data)
		}
		if contents == qir.UniformConstant {
			return data
		}
		return 0
	}
}

func constF(v float32) func(uint32) uint32 {
	return func(uint32) uint32 { return math.Float32bits(v) }
}

func vec(x, y, z, w float32) [4]uint32 {
	return [4]uint32{math.Float32bits(x), math.Float32bits(y), math.Float32bits(z), math.Float32bits(w)}
}

func floats(bits [4]uint32) [4]float32 {
	var out [4]float32
	for i, b := range bits {
		out[i] = math.Float32frombits(b)
	}
	return out
}

func near(got, want, tol float32) bool {
	return float32(math.Abs(float64(got-want))) <= tol
}

// bytesNear compares two packed RGBA8 words allowing one step per channel.
func bytesNear(got, want uint32) bool {
	for i := 0; i < 4; i++ {
		g := int(got>>(8*i)) & 0xff
		w := int(want>>(8*i)) & 0xff
		if g-w > 1 || w-g > 1 {
			return false
		}
	}
	return true
}

// opSequence lists the instructions of p that use one of ops, in order.
func opSequence(p *qir.Program, ops ...qir.Op) []qir.Op {
	var seq []qir.Op
	for _, inst := range p.Insts {
		for _, op := range ops {
			if inst.Op == op {
				seq = append(seq, op)
			}
		}
	}
	return seq
}
