// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/qir/interp"
	"github.com/gogpu/vc4c/tgsi"
)

// passthroughFS copies the interpolated color to the render target.
const passthroughFS = `FRAG
DCL IN[0], COLOR
DCL OUT[0], COLOR
MOV OUT[0], IN[0]
END
`

func runFS(t *testing.T, source string, key *FSKey, env *interp.Env) *interp.Result {
	t.Helper()
	sh := mustCompile(t, source, key)
	return execute(t, sh.Program, env)
}

func TestFragment_Passthrough(t *testing.T) {
	sh := mustCompile(t, passthroughFS, DefaultFSKey())

	if len(sh.InputSemantics) != 4 {
		t.Fatalf("got %d input semantics, want 4", len(sh.InputSemantics))
	}
	for i, sem := range sh.InputSemantics {
		want := InputSemantic{Semantic: tgsi.SemanticColor, Index: 0, Swizzle: i}
		if sem != want {
			t.Errorf("InputSemantics[%d] = %v, want %v", i, sem, want)
		}
	}
	if sh.ColorInputs != 0xf {
		t.Errorf("ColorInputs = %#x, want 0xf", sh.ColorInputs)
	}

	env := interp.NewEnv()
	env.Varyings = []float32{1, 0, 0.5, 1}
	res := execute(t, sh.Program, env)
	if !res.ColorWritten || res.Color != 0xff8000ff {
		t.Errorf("color = %#08x (written %v), want 0xff8000ff", res.Color, res.ColorWritten)
	}
	if res.Discard || res.ZWritten {
		t.Errorf("unexpected discard %v or depth write %v", res.Discard, res.ZWritten)
	}

	last := sh.Program.Insts[sh.Program.Len()-1]
	if last.Op != qir.OpTLBColorWrite {
		t.Errorf("last instruction = %s, want the color write", last)
	}
}

func TestFragment_ImmediateColor(t *testing.T) {
	tests := []struct {
		name  string
		imm   string
		color uint32
		unifs []uint32
	}{
		{"mixed", "{ 1.0000, 0.0000, 0.5000, 1.0000 }", 0xff8000ff, []uint32{0, 0x3f800000, 0x3f000000}},
		{"black", "{ 0.0000, 0.0000, 0.0000, 0.0000 }", 0, []uint32{0}},
		{"white", "{ 1.0000, 1.0000, 1.0000, 1.0000 }", 0xffffffff, []uint32{0, 0x3f800000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := mustCompile(t, "FRAG\nDCL OUT[0], COLOR\nIMM[0] FLT32 "+tt.imm+"\nMOV OUT[0], IMM[0]\nEND\n", DefaultFSKey())
			p := sh.Program

			if n := p.Uniforms.Len(); n != len(tt.unifs) {
				t.Fatalf("uniform table has %d entries, want %d", n, len(tt.unifs))
			}
			for i, want := range tt.unifs {
				contents, data := p.Uniforms.Entry(uint32(i))
				if contents != qir.UniformConstant || data != want {
					t.Errorf("u%d = %s %#08x, want constant %#08x", i, contents, data, want)
				}
			}
			if n := p.Count(qir.OpPackColors); n != 1 {
				t.Errorf("emitted %d color packs, want 1", n)
			}
			if n := p.Count(qir.OpTLBColorWrite); n != 1 {
				t.Errorf("emitted %d color writes, want 1", n)
			}
			if n := p.Count(qir.OpTLBDiscardSetup); n != 0 {
				t.Errorf("emitted %d discard setups, want 0", n)
			}

			res := execute(t, p, interp.NewEnv())
			if !res.ColorWritten || res.Color != tt.color {
				t.Errorf("color = %#08x (written %v), want %#08x", res.Color, res.ColorWritten, tt.color)
			}
			if res.Discard {
				t.Error("fragment discarded")
			}
		})
	}
}

func TestFragment_NoColorOutput(t *testing.T) {
	sh := mustCompile(t, "FRAG\nEND\n", DefaultFSKey())
	res := execute(t, sh.Program, interp.NewEnv())
	if !res.ColorWritten || res.Color != 0 {
		t.Errorf("color = %#08x (written %v), want 0", res.Color, res.ColorWritten)
	}
	if n := sh.Program.Count(qir.OpPackColors); n != 0 {
		t.Errorf("emitted %d color packs, want 0", n)
	}
}

func TestFragment_Inputs(t *testing.T) {
	const source = `FRAG
DCL IN[0], POSITION
DCL IN[1], FACE
DCL OUT[0], COLOR
END
`
	c := translate(t, source, DefaultFSKey())

	tests := []struct {
		name string
		back bool
		face float32
	}{
		{"front", false, 1},
		{"back", true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := interp.NewEnv()
			env.FragX, env.FragY, env.FragZ, env.FragW = 10, 20, 0xffffff, 2
			env.BackFacing = tt.back
			res := execute(t, c.prog, env)

			want := [4]float32{10, 20, 1, 0.5}
			for i, w := range want {
				if got := res.Float(c.inputs[i]); !near(got, w, 1e-6) {
					t.Errorf("fragcoord.%c = %v, want %v", "xyzw"[i], got, w)
				}
			}
			if got := res.Float(c.inputs[4]); got != tt.face {
				t.Errorf("face = %v, want %v", got, tt.face)
			}
		})
	}
}

func TestFragment_PointCoord(t *testing.T) {
	const source = `FRAG
DCL IN[0], GENERIC[1]
DCL OUT[0], COLOR
END
`
	for _, upperLeft := range []bool{false, true} {
		key := DefaultFSKey()
		key.Topology = gputypes.PrimitiveTopologyPointList
		key.PointSpriteMask = 1 << 1
		key.PointCoordUpperLeft = upperLeft

		c := translate(t, source, key)
		env := interp.NewEnv()
		env.Varyings = []float32{0.25, 0.75}
		res := execute(t, c.prog, env)

		wantY := float32(0.75)
		if upperLeft {
			wantY = 0.25
		}
		if x, y := res.Float(c.inputs[0]), res.Float(c.inputs[1]); x != 0.25 || y != wantY {
			t.Errorf("upperLeft=%v: point coord = (%v, %v), want (0.25, %v)", upperLeft, x, y, wantY)
		}
		if sh := c.finalize(); len(sh.InputSemantics) != 0 {
			t.Errorf("upperLeft=%v: point coord leaked into semantics: %v", upperLeft, sh.InputSemantics)
		}
	}
}

func TestFragment_LineCoordSlot(t *testing.T) {
	key := DefaultFSKey()
	key.Topology = gputypes.PrimitiveTopologyLineList
	sh := mustCompile(t, passthroughFS, key)

	if len(sh.InputSemantics) != 4 || sh.InputSemantics[0].Semantic != tgsi.SemanticColor {
		t.Errorf("InputSemantics = %v, want the four color channels", sh.InputSemantics)
	}
}

func TestFragment_TwoSidedColor(t *testing.T) {
	key := DefaultFSKey()
	key.LightTwoSide = true
	c := translate(t, passthroughFS, key)

	sh := c.finalize()
	if len(sh.InputSemantics) != 8 {
		t.Fatalf("got %d input semantics, want 8", len(sh.InputSemantics))
	}
	if sh.InputSemantics[1].Semantic != tgsi.SemanticBColor {
		t.Errorf("InputSemantics[1] = %v, want BCOLOR", sh.InputSemantics[1])
	}
	if sh.ColorInputs != 0x55 {
		t.Errorf("ColorInputs = %#x, want 0x55", sh.ColorInputs)
	}

	for _, back := range []bool{false, true} {
		env := interp.NewEnv()
		env.Varyings = []float32{1, 5, 2, 6, 3, 7, 4, 8}
		env.BackFacing = back
		res := execute(t, c.prog, env)
		for i := 0; i < 4; i++ {
			want := float32(i + 1)
			if back {
				want += 4
			}
			if got := res.Float(c.inputs[i]); got != want {
				t.Errorf("back=%v: color.%c = %v, want %v", back, "xyzw"[i], got, want)
			}
		}
	}
}

func TestFragment_DeadVaryings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []InputSemantic
	}{
		{
			name: "declared but unread",
			source: `FRAG
DCL IN[0], GENERIC[0]
DCL IN[1], GENERIC[1]
DCL OUT[0], COLOR
MOV OUT[0], IN[1]
END
`,
			want: []InputSemantic{
				{tgsi.SemanticGeneric, 1, 0}, {tgsi.SemanticGeneric, 1, 1},
				{tgsi.SemanticGeneric, 1, 2}, {tgsi.SemanticGeneric, 1, 3},
			},
		},
		{
			name: "read into a dead temporary",
			source: `FRAG
DCL IN[0], GENERIC[0]
DCL IN[1], GENERIC[1]
DCL OUT[0], COLOR
DCL TEMP[0..1]
ADD TEMP[0], IN[0], IN[0]
SLT TEMP[1], IN[0], IN[1]
MOV OUT[0], IN[1].xxxx
END
`,
			want: []InputSemantic{{tgsi.SemanticGeneric, 1, 0}},
		},
		{
			name: "only the killed channel",
			source: `FRAG
DCL IN[0], GENERIC[0]
KILL_IF IN[0].yyyy
END
`,
			want: []InputSemantic{{tgsi.SemanticGeneric, 0, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := mustCompile(t, tt.source, DefaultFSKey())
			if len(sh.InputSemantics) != len(tt.want) {
				t.Fatalf("InputSemantics = %v, want %v", sh.InputSemantics, tt.want)
			}
			for i, sem := range sh.InputSemantics {
				if sem != tt.want[i] {
					t.Errorf("InputSemantics[%d] = %v, want %v", i, sem, tt.want[i])
				}
			}
			if sh.ColorInputs != 0 {
				t.Errorf("ColorInputs = %#x, want 0", sh.ColorInputs)
			}
		})
	}
}

func TestFragment_Discard(t *testing.T) {
	const killIf = `FRAG
DCL IN[0], GENERIC[0]
KILL_IF IN[0]
END
`
	tests := []struct {
		name     string
		source   string
		ucp      uint8
		varyings []float32
		want     bool
	}{
		{"kill_if negative", killIf, 0, []float32{1, 1, -1, 1}, true},
		{"kill_if positive", killIf, 0, []float32{1, 0, 2, 1}, false},
		{"kill", "FRAG\nKILL\nEND\n", 0, nil, true},
		{"clip plane outside", passthroughFS, 1, []float32{0, 0, 0, 0, -0.5}, true},
		{"clip plane inside", passthroughFS, 1, []float32{0, 0, 0, 0, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := DefaultFSKey()
			key.UCPEnables = tt.ucp
			env := interp.NewEnv()
			env.Varyings = tt.varyings
			sh := mustCompile(t, tt.source, key)
			res := execute(t, sh.Program, env)
			if res.Discard != tt.want {
				t.Errorf("Discard = %v, want %v", res.Discard, tt.want)
			}
			if n := sh.Program.Count(qir.OpTLBDiscardSetup); n != 1 {
				t.Errorf("emitted %d discard setups, want 1", n)
			}
		})
	}
}

func TestFragment_AlphaTest(t *testing.T) {
	tests := []struct {
		fn    gputypes.CompareFunction
		alpha float32
		want  bool
	}{
		{gputypes.CompareFunctionGreater, 0.25, true},
		{gputypes.CompareFunctionGreater, 0.75, false},
		{gputypes.CompareFunctionLess, 0.25, false},
		{gputypes.CompareFunctionLess, 0.75, true},
		{gputypes.CompareFunctionEqual, 0.5, false},
		{gputypes.CompareFunctionNotEqual, 0.5, true},
		{gputypes.CompareFunctionNever, 0.75, true},
		{gputypes.CompareFunctionAlways, 0.25, false},
		{gputypes.CompareFunctionUndefined, 0.75, true},
	}
	for _, tt := range tests {
		t.Run(tt.fn.String(), func(t *testing.T) {
			key := DefaultFSKey()
			key.AlphaTest = true
			key.AlphaTestFunc = tt.fn

			env := interp.NewEnv()
			env.Varyings = []float32{1, 1, 1, tt.alpha}
			env.Uniform = resolver(map[qir.UniformContents]func(uint32) uint32{
				qir.UniformAlphaRef: constF(0.5),
			})
			res := runFS(t, passthroughFS, key, env)
			if res.Discard != tt.want {
				t.Errorf("alpha %v: Discard = %v, want %v", tt.alpha, res.Discard, tt.want)
			}
		})
	}
}

func TestFragment_AlphaTestUnknownFunc(t *testing.T) {
	key := DefaultFSKey()
	key.AlphaTest = true
	key.AlphaTestFunc = gputypes.CompareFunction(99)

	_, err := Compile(mustParse(t, passthroughFS), key, nil)
	var verr *Error
	if !errors.As(err, &verr) || verr.Kind != ErrInvalidProgram {
		t.Fatalf("err = %v, want an invalid program error", err)
	}
}

func TestFragment_Blend(t *testing.T) {
	tests := []struct {
		name string
		op   gputypes.BlendOperation
		want uint32
	}{
		{"add", gputypes.BlendOperationAdd, 0xff80ff80},
		{"subtract", gputypes.BlendOperationSubtract, 0x00800080},
		{"reverse subtract", gputypes.BlendOperationReverseSubtract, 0x80008000},
		{"min", gputypes.BlendOperationMin, 0x80008000},
		{"max", gputypes.BlendOperationMax, 0xff80ff80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := DefaultFSKey()
			comp := BlendComponent{SrcFactor: BlendOne, DstFactor: BlendOne, Func: tt.op}
			key.Blend = BlendState{Enable: true, RGB: comp, Alpha: comp, WriteMask: gputypes.ColorWriteMaskAll}

			env := interp.NewEnv()
			env.Varyings = []float32{0.5, 0.5, 0.5, 0.5}
			env.DstColor = 0xff00ff00
			res := runFS(t, passthroughFS, key, env)
			if res.Color != tt.want {
				t.Errorf("color = %#08x, want %#08x", res.Color, tt.want)
			}
		})
	}
}

func TestFragment_BlendSrcAlpha(t *testing.T) {
	key := DefaultFSKey()
	key.Blend = BlendState{
		Enable:    true,
		RGB:       BlendComponent{SrcFactor: BlendSrcAlpha, DstFactor: BlendInvSrcAlpha, Func: gputypes.BlendOperationAdd},
		Alpha:     BlendComponent{SrcFactor: BlendSrcAlpha, DstFactor: BlendInvSrcAlpha, Func: gputypes.BlendOperationAdd},
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	env := interp.NewEnv()
	env.Varyings = []float32{1, 0, 0, 0.25}
	env.DstColor = 0xffff0000

	res := runFS(t, passthroughFS, key, env)
	if res.Color != 0xcfbf0040 {
		t.Errorf("color = %#08x, want 0xcfbf0040", res.Color)
	}
}

func TestFragment_BlendConstant(t *testing.T) {
	key := DefaultFSKey()
	comp := BlendComponent{SrcFactor: BlendConstColor, DstFactor: BlendZero, Func: gputypes.BlendOperationAdd}
	key.Blend = BlendState{Enable: true, RGB: comp, Alpha: comp, WriteMask: gputypes.ColorWriteMaskAll}

	env := interp.NewEnv()
	env.Varyings = []float32{1, 1, 1, 1}
	consts := []float32{0, 0.5, 1, 1}
	env.Uniform = resolver(map[qir.UniformContents]func(uint32) uint32{
		qir.UniformBlendConstColor: func(ch uint32) uint32 { return constF(consts[ch])(ch) },
	})
	res := runFS(t, passthroughFS, key, env)
	if res.Color != 0xffff8000 {
		t.Errorf("color = %#08x, want 0xffff8000", res.Color)
	}
}

func TestFragment_UnsupportedBlendFactor(t *testing.T) {
	key := DefaultFSKey()
	comp := BlendComponent{SrcFactor: BlendSrc1Color, DstFactor: BlendZero, Func: gputypes.BlendOperationAdd}
	key.Blend = BlendState{Enable: true, RGB: comp, Alpha: comp, WriteMask: gputypes.ColorWriteMaskAll}

	sh := mustCompile(t, passthroughFS, key)
	found := false
	for _, w := range sh.Warnings {
		if strings.Contains(w, "unsupported blend factor") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %q, want an unsupported blend factor", sh.Warnings)
	}
}

func TestFragment_RenderTarget(t *testing.T) {
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		mask   gputypes.ColorWriteMask
		color  []float32
		dst    uint32
		want   uint32
	}{
		{"rgba", gputypes.TextureFormatRGBA8Unorm, gputypes.ColorWriteMaskAll, []float32{1, 0, 0.5, 1}, 0, 0xff8000ff},
		{"bgra", gputypes.TextureFormatBGRA8Unorm, gputypes.ColorWriteMaskAll, []float32{1, 0, 0.5, 1}, 0, 0xffff0080},
		{"write mask", gputypes.TextureFormatRGBA8Unorm, gputypes.ColorWriteMaskRed | gputypes.ColorWriteMaskAlpha,
			[]float32{1, 1, 1, 1}, 0x11223344, 0xff2233ff},
		{"srgb", gputypes.TextureFormatRGBA8UnormSrgb, gputypes.ColorWriteMaskAll, []float32{0.2, 0, 1, 0.2}, 0, 0x33ff007c},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := DefaultFSKey()
			key.ColorFormat = tt.format
			key.Blend.WriteMask = tt.mask

			env := interp.NewEnv()
			env.Varyings = tt.color
			env.DstColor = tt.dst
			res := runFS(t, passthroughFS, key, env)
			if !bytesNear(res.Color, tt.want) {
				t.Errorf("color = %#08x, want %#08x", res.Color, tt.want)
			}
		})
	}
}

func TestFragment_DepthAndStencil(t *testing.T) {
	const writesDepth = `FRAG
DCL IN[0], GENERIC[0]
DCL OUT[0], POSITION
DCL OUT[1], COLOR
MOV OUT[0], IN[0]
END
`
	key := DefaultFSKey()
	key.DepthEnabled = true
	key.StencilEnabled = true
	key.StencilTwoSide = true
	key.StencilFullWriteMasks = true

	env := interp.NewEnv()
	env.FragZ = 1234
	env.Uniform = resolver(map[qir.UniformContents]func(uint32) uint32{
		qir.UniformStencil: func(d uint32) uint32 { return d + 100 },
	})

	res := runFS(t, passthroughFS, key, env)
	if !res.ZWritten || res.Z != 1234 {
		t.Errorf("Z = %d (written %v), want the fragment depth 1234", res.Z, res.ZWritten)
	}
	if len(res.Stencil) != 3 || res.Stencil[0] != 100 || res.Stencil[1] != 101 || res.Stencil[2] != 102 {
		t.Errorf("Stencil = %v, want [100 101 102]", res.Stencil)
	}

	env = interp.NewEnv()
	env.Varyings = []float32{0, 0, 0.5, 1}
	res = runFS(t, writesDepth, key, env)
	if res.Z != 8388607 {
		t.Errorf("Z = %d, want 8388607", res.Z)
	}
}
