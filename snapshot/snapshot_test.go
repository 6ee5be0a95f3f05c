// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package snapshot_test provides golden snapshot tests for the TGSI to QIR
// lowering.
//
// For each TGSI input shader in testdata/in/, the test compiles every
// variant its stage has (fragment, or vertex and coordinate), checks that
// the result validates and survives the msgpack handoff, and compares the
// QIR dump to golden files stored in testdata/golden/.
//
// To create or regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
//
// Every input must have a committed golden file for each variant; a missing
// golden fails the test.
package snapshot_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gogpu/vc4c"
	"github.com/gogpu/vc4c/qir"
	"github.com/gogpu/vc4c/qir/interp"
	"github.com/gogpu/vc4c/tgsi"
	"github.com/gogpu/vc4c/vc4"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// shaderFile represents an input TGSI shader loaded from disk.
type shaderFile struct {
	name   string // base name without extension (e.g., "passthrough")
	source string // TGSI source text
}

// variant is one compiled form of an input shader.
type variant struct {
	suffix string // golden file suffix (e.g., "vs")
	shader *vc4.Shader
}

// TestSnapshots is the main golden snapshot test. It loads all TGSI inputs,
// compiles each for its stage, and compares with golden files.
func TestSnapshots(t *testing.T) {
	shaders := loadInputShaders(t, "testdata/in")
	if len(shaders) == 0 {
		t.Fatal("no input shaders found in testdata/in/")
	}

	for i := range shaders {
		shader := &shaders[i]
		t.Run(shader.name, func(t *testing.T) {
			for _, v := range compileVariants(t, shader.source) {
				t.Run(v.suffix, func(t *testing.T) {
					checkValid(t, v.shader)
					checkHandoff(t, v.shader)
					checkRuns(t, v.shader)
					compareGolden(t, filepath.Join("testdata", "golden", shader.name+"."+v.suffix+".qir"), v.shader.Program.String())
				})
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Shader Loading
// ---------------------------------------------------------------------------

func loadInputShaders(t *testing.T, dir string) []shaderFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var shaders []shaderFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tgsi") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			t.Fatalf("read shader %q: %v", entry.Name(), readErr)
		}
		name := strings.TrimSuffix(entry.Name(), ".tgsi")
		shaders = append(shaders, shaderFile{name: name, source: string(data)})
	}

	// Sort for deterministic test order
	sort.Slice(shaders, func(i, j int) bool {
		return shaders[i].name < shaders[j].name
	})

	return shaders
}

// ---------------------------------------------------------------------------
// Compilation
// ---------------------------------------------------------------------------

// snapshotFSInputs is the fragment interface vertex snapshots write:
// every channel of COLOR[0] and GENERIC[0].
func snapshotFSInputs() []vc4.InputSemantic {
	var in []vc4.InputSemantic
	for _, sem := range []tgsi.Semantic{tgsi.SemanticColor, tgsi.SemanticGeneric} {
		for swz := 0; swz < 4; swz++ {
			in = append(in, vc4.InputSemantic{Semantic: sem, Index: 0, Swizzle: swz})
		}
	}
	return in
}

func compileVariants(t *testing.T, source string) []variant {
	t.Helper()

	prog, err := vc4c.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if prog.Processor == tgsi.ProcessorFragment {
		sh, err := vc4.CompileFragment(prog, vc4.DefaultFSKey(), nil)
		if err != nil {
			t.Fatalf("compile fs: %v", err)
		}
		return []variant{{"fs", sh}}
	}

	var out []variant
	for _, coord := range []bool{false, true} {
		key := vc4.DefaultVSKey()
		key.Coord = coord
		key.FSInputs = snapshotFSInputs()
		sh, err := vc4.CompileVertex(prog, key, nil)
		if err != nil {
			t.Fatalf("compile coord=%v: %v", coord, err)
		}
		out = append(out, variant{strings.ToLower(sh.Stage.String()), sh})
	}
	return out
}

// ---------------------------------------------------------------------------
// Checks
// ---------------------------------------------------------------------------

func checkValid(t *testing.T, sh *vc4.Shader) {
	t.Helper()
	problems, err := qir.Validate(sh.Program)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, p := range problems {
		t.Errorf("validate: %v", p)
	}
}

// checkHandoff round-trips the shader through the emitter encoding.
func checkHandoff(t *testing.T, sh *vc4.Shader) {
	t.Helper()
	data, err := vc4c.Encode(sh)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := vc4c.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want, have := sh.Program.String(), got.Program.String(); want != have {
		t.Errorf("program changed across encoding:\n%s", diffStrings(want, have))
	}
}

// checkRuns executes the shader once with neutral inputs.
func checkRuns(t *testing.T, sh *vc4.Shader) {
	t.Helper()
	env := interp.NewEnv()
	env.Varyings = make([]float32, len(sh.InputSemantics))
	env.Attributes = make([]uint32, sh.NumInputs)
	env.UBO = make([]uint32, sh.UBOSize/4)
	env.Sample = func(interp.TexRequest) uint32 { return 0xff808080 }
	res, err := interp.Run(sh.Program, env)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sh.Stage == qir.StageFragment && !res.ColorWritten && !res.Discard {
		t.Error("fragment shader neither wrote color nor discarded")
	}
	if sh.Stage != qir.StageFragment && len(res.VPM) == 0 {
		t.Error("vertex shader wrote no VPM words")
	}
}

// ---------------------------------------------------------------------------
// Golden Files
// ---------------------------------------------------------------------------

func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file missing: %s (run with UPDATE_GOLDEN=1 to create)", path)
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Normalize line endings for cross-platform comparison.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		diff := diffStrings(expectedStr, actualStr)
		t.Errorf("output differs from golden %s:\n%s", path, diff)
	}
}

func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var sb strings.Builder
	maxLines := max(len(expectedLines), len(actualLines))

	const contextLines = 3
	firstDiff := -1
	for i := 0; i < maxLines; i++ {
		if lineAt(expectedLines, i) != lineAt(actualLines, i) {
			firstDiff = i
			break
		}
	}

	if firstDiff < 0 {
		return "(no difference found)"
	}

	fmt.Fprintf(&sb, "first difference at line %d:\n", firstDiff+1)
	fmt.Fprintf(&sb, "  expected lines: %d\n", len(expectedLines))
	fmt.Fprintf(&sb, "  actual lines:   %d\n\n", len(actualLines))

	start := max(firstDiff-contextLines, 0)
	end := min(firstDiff+contextLines+1, maxLines)
	for i := start; i < end; i++ {
		eLine, aLine := lineAt(expectedLines, i), lineAt(actualLines, i)
		prefix := " "
		if eLine != aLine {
			prefix = "!"
		}
		fmt.Fprintf(&sb, "%s %4d expected: %s\n", prefix, i+1, truncate(eLine, 120))
		if eLine != aLine {
			fmt.Fprintf(&sb, "%s %4d actual:   %s\n", prefix, i+1, truncate(aLine, 120))
		}
	}

	return sb.String()
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
