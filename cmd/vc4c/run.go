// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/qir/interp"
	"github.com/gogpu/vc4c/vc4"
)

// runInputs are the values one invocation sees.
type runInputs struct {
	varyings   []float32
	attributes []float32
	constants  []float32
	viewport   []float32
	frag       []float32
	depth      uint32
	backFacing bool
	dstColor   uint32
	texel      uint32
	alphaRef   float32
}

var (
	runIn    runInputs
	runFS    string
	runCoord bool
)

func init() {
	f := runCmd.Flags()
	f.Float32SliceVar(&runIn.varyings, "varyings", nil, "fragment varyings in slot order")
	f.Float32SliceVar(&runIn.attributes, "attributes", nil, "vertex attribute words in VPM order")
	f.Float32SliceVar(&runIn.constants, "constants", nil, "constant buffer dwords")
	f.Float32SliceVar(&runIn.viewport, "viewport", []float32{1, 1, 1, 0}, "viewport x scale, y scale, z scale, z offset")
	f.Float32SliceVar(&runIn.frag, "frag", []float32{0, 0}, "fragment x, y")
	f.Uint32Var(&runIn.depth, "depth", 0, "fragment 24-bit depth")
	f.BoolVar(&runIn.backFacing, "back-facing", false, "shade a back-facing primitive")
	f.Uint32Var(&runIn.dstColor, "dst-color", 0, "tile buffer color (RGBA8888)")
	f.Uint32Var(&runIn.texel, "texel", 0xffffffff, "texel every texture fetch returns (RGBA8888)")
	f.Float32Var(&runIn.alphaRef, "alpha-ref", 0, "alpha test reference")
	f.StringVar(&runFS, "fs", "", "fragment shader the vertex shader feeds")
	f.BoolVar(&runCoord, "coord", false, "run the coordinate shader of a vertex shader")
}

var runCmd = &cobra.Command{
	Use:   "run [flags] <shader.tgsi>",
	Short: "Compile a shader and execute it once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sh, err := compileFile(args[0], runFS, runCoord)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), args[0], sh.Warnings)

		env, err := runIn.env(sh)
		if err != nil {
			return err
		}
		res, err := interp.Run(sh.Program, env)
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), sh, res)
		return nil
	},
}

func floatBits(vals []float32) []uint32 {
	out := make([]uint32, len(vals))
	for i, v := range vals {
		out[i] = math.Float32bits(v)
	}
	return out
}

// env builds the interpreter environment. Constant-buffer uniforms read
// in.constants; the indirect-access buffer is filled from sh.UBORanges.
func (in *runInputs) env(sh *vc4.Shader) (*interp.Env, error) {
	if len(in.viewport) != 4 {
		return nil, fmt.Errorf("--viewport: want 4 values, got %d", len(in.viewport))
	}
	if len(in.frag) != 2 {
		return nil, fmt.Errorf("--frag: want 2 values, got %d", len(in.frag))
	}
	constants := floatBits(in.constants)

	ubo := make([]uint32, sh.UBOSize/4)
	for _, r := range sh.UBORanges {
		src, dst, n := r.SrcOffset/4, r.DstOffset/4, r.Size/4
		if int(src+n) > len(constants) {
			return nil, fmt.Errorf("indirect constants need %d dwords, --constants has %d", src+n, len(constants))
		}
		copy(ubo[dst:dst+n], constants[src:src+n])
	}

	env := interp.NewEnv()
	env.Varyings = in.varyings
	env.Attributes = floatBits(in.attributes)
	env.FragX, env.FragY = in.frag[0], in.frag[1]
	env.FragZ = in.depth
	env.BackFacing = in.backFacing
	env.DstColor = in.dstColor
	env.UBO = ubo
	env.Sample = func(interp.TexRequest) uint32 { return in.texel }
	env.Uniform = func(c qir.UniformContents, data uint32) uint32 {
		switch c {
		case qir.UniformConstant:
			return data
		case qir.UniformData:
			if int(data) < len(constants) {
				return constants[data]
			}
		case qir.UniformViewportXScale:
			return math.Float32bits(in.viewport[0])
		case qir.UniformViewportYScale:
			return math.Float32bits(in.viewport[1])
		case qir.UniformViewportZScale:
			return math.Float32bits(in.viewport[2])
		case qir.UniformViewportZOffset:
			return math.Float32bits(in.viewport[3])
		case qir.UniformAlphaRef:
			return math.Float32bits(in.alphaRef)
		case qir.UniformTexrectScaleX, qir.UniformTexrectScaleY:
			return math.Float32bits(1)
		}
		return 0
	}
	return env, nil
}

func printResult(w io.Writer, sh *vc4.Shader, res *interp.Result) {
	if sh.Stage != qir.StageFragment {
		for i, word := range res.VPM {
			fmt.Fprintf(w, "vpm[%d] = 0x%08x (%g)\n", i, word, math.Float32frombits(word))
		}
		return
	}
	if res.Discard {
		fmt.Fprintln(w, "discarded")
	}
	if res.ColorWritten {
		fmt.Fprintf(w, "color = 0x%08x\n", res.Color)
	}
	if res.ZWritten {
		fmt.Fprintf(w, "z = %d\n", res.Z)
	}
	for i, s := range res.Stencil {
		fmt.Fprintf(w, "stencil[%d] = 0x%08x\n", i, s)
	}
	for _, f := range res.Fetches {
		fmt.Fprintf(w, "fetch unit %d at (%g, %g)\n", f.Unit, f.S, f.T)
	}
}
