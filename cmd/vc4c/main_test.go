// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/gogpu/vc4c"
	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/qir/interp"
	"github.com/gogpu/vc4c/tgsi"
	"github.com/gogpu/vc4c/vc4"
)

const colorFS = `FRAG
DCL IN[0], COLOR
DCL OUT[0], COLOR
MOV OUT[0], IN[0]
END
`

const indirectVS = `VERT
DCL IN[0]
DCL OUT[0], POSITION
DCL CONST[0..1], ARRAY(1)
DCL ADDR[0]
DCL TEMP[0]
ARL ADDR[0].x, IN[0].xxxx
MOV TEMP[0], CONST[ADDR[0].x](1)
MOV OUT[0], TEMP[0]
END
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSetupColor(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	if err := setupColor("off"); err != nil || !color.NoColor {
		t.Errorf("off: NoColor = %v, err = %v", color.NoColor, err)
	}
	if err := setupColor("on"); err != nil || color.NoColor {
		t.Errorf("on: NoColor = %v, err = %v", color.NoColor, err)
	}
	if err := setupColor("sometimes"); err == nil {
		t.Error("unknown mode: expected an error")
	}
}

func TestPrintError(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })

	_, perr := tgsi.Parse("FRAG\nMOV TEMP[0] TEMP[1]\nEND\n")
	var buf bytes.Buffer
	printError(&buf, perr)
	if !strings.Contains(buf.String(), "MOV TEMP[0] TEMP[1]") {
		t.Errorf("parse error output lacks the source line:\n%s", buf.String())
	}

	buf.Reset()
	printError(&buf, errors.New("boom"))
	if got := buf.String(); got != "error: boom\n" {
		t.Errorf("printError = %q, want %q", got, "error: boom\n")
	}
}

func TestCompileFile(t *testing.T) {
	fs := writeFile(t, "color.frag", colorFS)
	vs := writeFile(t, "pass.vert", `VERT
DCL IN[0]
DCL IN[1]
DCL OUT[0], POSITION
DCL OUT[1], COLOR
MOV OUT[0], IN[0]
MOV OUT[1], IN[1]
END
`)

	sh, err := compileFile(fs, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if sh.Stage != qir.StageFragment {
		t.Errorf("Stage = %s, want FS", sh.Stage)
	}

	sh, err = compileFile(vs, fs, false)
	if err != nil {
		t.Fatal(err)
	}
	// Header words plus the four color channels.
	if got := sh.Program.Count(qir.OpVPMWrite); got != 7 {
		t.Errorf("vertex shader writes %d VPM words, want 7", got)
	}

	if _, err := compileFile(fs, "", true); err == nil {
		t.Error("--coord on a fragment shader: expected an error")
	}
}

func TestCompileFile_Config(t *testing.T) {
	saved := global.configPath
	t.Cleanup(func() { global.configPath = saved })
	global.configPath = writeFile(t, "state.toml", "[vertex]\nattributes = [\"Uint8x4\"]\n")

	vs := writeFile(t, "pos.vert", "VERT\nDCL IN[0]\nDCL OUT[0], POSITION\nMOV OUT[0], IN[0]\nEND\n")
	sh, err := compileFile(vs, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(sh.Warnings) != 1 || !strings.Contains(sh.Warnings[0], "unsupported vertex attribute format") {
		t.Errorf("Warnings = %q, want the attribute format from the config", sh.Warnings)
	}
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := writeOutput(&buf, "", []byte{1, 2}, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2}) {
		t.Errorf("stdout got %v", buf.Bytes())
	}

	path := filepath.Join(t.TempDir(), "out", "shader.mp")
	if err := writeOutput(&buf, path, []byte{3}, false); err != nil {
		t.Fatal(err)
	}
	if got, err := os.ReadFile(path); err != nil || !bytes.Equal(got, []byte{3}) {
		t.Errorf("file got %v, %v", got, err)
	}
}

func TestDumpShader(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })

	sh, err := vc4c.CompileFragment(colorFS, vc4.DefaultFSKey(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := dumpShader(&buf, sh); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"== program ==", "tlb_color", "== inputs ==", "v0: COLOR[0].x (color)"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}

func TestRunEnv(t *testing.T) {
	sh, err := vc4c.CompileVertex(indirectVS, vc4.DefaultVSKey(), nil)
	if err != nil {
		t.Fatal(err)
	}
	in := runInputs{
		attributes: []float32{1, 0, 0, 1},
		constants:  []float32{0, 1, 2, 3, 10, 11, 12, 1},
		viewport:   []float32{1, 1, 1, 0},
		frag:       []float32{0, 0},
	}
	env, err := in.env(sh)
	if err != nil {
		t.Fatal(err)
	}
	if len(env.UBO) != 8 || math.Float32frombits(env.UBO[5]) != 11 {
		t.Errorf("UBO = %v, want the constant array", env.UBO)
	}

	res, err := interp.Run(sh.Program, env)
	if err != nil {
		t.Fatal(err)
	}
	// The second element is selected, so zs = 12 / 1.
	if got := res.VPMFloat(1); got != 12 {
		t.Errorf("zs = %v, want 12", got)
	}

	in.constants = in.constants[:2]
	if _, err := in.env(sh); err == nil {
		t.Error("short constant buffer: expected an error")
	}
	in.viewport = []float32{1}
	if _, err := in.env(sh); err == nil {
		t.Error("short viewport: expected an error")
	}
}
