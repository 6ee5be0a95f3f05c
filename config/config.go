// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config reads pipeline-state files that select shader variants.
//
// A pipeline-state file is TOML. Enum values use the gputypes names
// ("BGRA8Unorm", "LessEqual", "PointList") compared without regard to case,
// hyphens or underscores:
//
//	ucp_enables = 5
//
//	[[texture]]
//	format = "BGRA8Unorm"
//	wrap_s = "clamp-to-edge"
//	compare = "LessEqual"
//	swizzle = "zyx1"
//
//	[fragment]
//	color_format = "BGRA8Unorm"
//	alpha_test = "Greater"
//
//	[fragment.blend]
//	rgb = { src = "SrcAlpha", dst = "InvSrcAlpha", op = "Add" }
//	write_mask = "rgb"
//
//	[vertex]
//	attributes = ["Float32x3", "Unorm8x4"]
//
// Keys the file does not recognize are reported as errors.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/tgsi"
	"github.com/gogpu/vc4c/vc4"
)

// Pipeline holds the keys for both stages of a pipeline. The vertex key's
// FSInputs are left empty; they come from the compiled fragment shader.
type Pipeline struct {
	Fragment *vc4.FSKey
	Vertex   *vc4.VSKey
}

type file struct {
	UCPEnables uint8           `toml:"ucp_enables"`
	Textures   []textureConfig `toml:"texture"`
	Fragment   fragmentConfig  `toml:"fragment"`
	Vertex     vertexConfig    `toml:"vertex"`
}

type textureConfig struct {
	Format  string `toml:"format"`
	WrapS   string `toml:"wrap_s"`
	WrapT   string `toml:"wrap_t"`
	Compare string `toml:"compare"`
	Swizzle string `toml:"swizzle"`
}

type fragmentConfig struct {
	ColorFormat         string        `toml:"color_format"`
	Topology            string        `toml:"topology"`
	Depth               bool          `toml:"depth"`
	AlphaTest           string        `toml:"alpha_test"`
	LightTwoSide        bool          `toml:"light_two_side"`
	PointSpriteMask     uint8         `toml:"point_sprite_mask"`
	PointCoordUpperLeft bool          `toml:"point_coord_upper_left"`
	Stencil             stencilConfig `toml:"stencil"`
	Blend               blendConfig   `toml:"blend"`
}

type stencilConfig struct {
	Enabled        bool `toml:"enabled"`
	TwoSide        bool `toml:"two_side"`
	FullWriteMasks bool `toml:"full_write_masks"`
}

type blendConfig struct {
	RGB       componentConfig `toml:"rgb"`
	Alpha     componentConfig `toml:"alpha"`
	WriteMask *string         `toml:"write_mask"`
}

type componentConfig struct {
	Src string `toml:"src"`
	Dst string `toml:"dst"`
	Op  string `toml:"op"`
}

type vertexConfig struct {
	Attributes []string `toml:"attributes"`
	PointSize  bool     `toml:"point_size"`
}

// Load reads a pipeline-state file.
func Load(path string) (*Pipeline, error) {
	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	p, err := build(&f, md)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes pipeline state from TOML text.
func Parse(data string) (*Pipeline, error) {
	var f file
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return build(&f, md)
}

func build(f *file, md toml.MetaData) (*Pipeline, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	textures := make([]vc4.TextureKey, len(f.Textures))
	for i, tc := range f.Textures {
		tk, err := tc.key()
		if err != nil {
			return nil, fmt.Errorf("texture[%d]: %w", i, err)
		}
		textures[i] = tk
	}
	shared := vc4.Key{Textures: textures, UCPEnables: f.UCPEnables}

	fs, err := f.Fragment.key(md)
	if err != nil {
		return nil, fmt.Errorf("fragment: %w", err)
	}
	fs.Key = shared

	vs, err := f.Vertex.key()
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	vs.Key = shared
	vs.Key.Textures = append([]vc4.TextureKey(nil), textures...)

	return &Pipeline{Fragment: fs, Vertex: vs}, nil
}

func (tc textureConfig) key() (vc4.TextureKey, error) {
	tk := vc4.TextureKey{Format: gputypes.TextureFormatRGBA8Unorm}
	var err error
	if tc.Format != "" {
		if tk.Format, err = lookupEnum[gputypes.TextureFormat]("texture format", tc.Format, 0x65); err != nil {
			return tk, err
		}
	}
	if tk.WrapS, err = wrapMode(tc.WrapS); err != nil {
		return tk, err
	}
	if tk.WrapT, err = wrapMode(tc.WrapT); err != nil {
		return tk, err
	}
	if tc.Compare != "" {
		tk.CompareMode = true
		if tk.CompareFunc, err = lookupEnum[gputypes.CompareFunction]("compare function", tc.Compare, 8); err != nil {
			return tk, err
		}
	}
	if tc.Swizzle != "" {
		if tk.Swizzle, err = swizzle(tc.Swizzle); err != nil {
			return tk, err
		}
	}
	return tk, nil
}

func (fc fragmentConfig) key(md toml.MetaData) (*vc4.FSKey, error) {
	k := vc4.DefaultFSKey()
	var err error
	if fc.ColorFormat != "" {
		if k.ColorFormat, err = lookupEnum[gputypes.TextureFormat]("color format", fc.ColorFormat, 0x65); err != nil {
			return nil, err
		}
	}
	if fc.Topology != "" {
		if k.Topology, err = lookupEnum[gputypes.PrimitiveTopology]("topology", fc.Topology, 4); err != nil {
			return nil, err
		}
	}
	if fc.AlphaTest != "" {
		k.AlphaTest = true
		if k.AlphaTestFunc, err = lookupEnum[gputypes.CompareFunction]("alpha test function", fc.AlphaTest, 8); err != nil {
			return nil, err
		}
	}
	k.DepthEnabled = fc.Depth
	k.StencilEnabled = fc.Stencil.Enabled
	k.StencilTwoSide = fc.Stencil.TwoSide
	k.StencilFullWriteMasks = fc.Stencil.FullWriteMasks
	k.LightTwoSide = fc.LightTwoSide
	k.PointSpriteMask = fc.PointSpriteMask
	k.PointCoordUpperLeft = fc.PointCoordUpperLeft

	if fc.Blend.WriteMask != nil {
		if k.Blend.WriteMask, err = writeMask(*fc.Blend.WriteMask); err != nil {
			return nil, err
		}
	}
	hasRGB := md.IsDefined("fragment", "blend", "rgb")
	hasAlpha := md.IsDefined("fragment", "blend", "alpha")
	if !hasRGB && !hasAlpha {
		return k, nil
	}
	k.Blend.Enable = true
	if k.Blend.RGB, err = fc.Blend.RGB.component(); err != nil {
		return nil, fmt.Errorf("blend rgb: %w", err)
	}
	if !hasAlpha {
		k.Blend.Alpha = k.Blend.RGB
		return k, nil
	}
	if k.Blend.Alpha, err = fc.Blend.Alpha.component(); err != nil {
		return nil, fmt.Errorf("blend alpha: %w", err)
	}
	return k, nil
}

// component defaults to One, Zero, Add.
func (cc componentConfig) component() (vc4.BlendComponent, error) {
	c := vc4.BlendComponent{SrcFactor: vc4.BlendOne, DstFactor: vc4.BlendZero, Func: gputypes.BlendOperationAdd}
	var err error
	if cc.Src != "" {
		if c.SrcFactor, err = blendFactor(cc.Src); err != nil {
			return c, err
		}
	}
	if cc.Dst != "" {
		if c.DstFactor, err = blendFactor(cc.Dst); err != nil {
			return c, err
		}
	}
	if cc.Op != "" {
		if c.Func, err = lookupEnum[gputypes.BlendOperation]("blend operation", cc.Op, 5); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (vc vertexConfig) key() (*vc4.VSKey, error) {
	k := vc4.DefaultVSKey()
	if len(vc.Attributes) > vc4.MaxVertexAttribs {
		return nil, fmt.Errorf("%d attributes, at most %d", len(vc.Attributes), vc4.MaxVertexAttribs)
	}
	for i, name := range vc.Attributes {
		f, err := lookupEnum[gputypes.VertexFormat]("vertex format", name, 0x1f)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		k.AttrFormats[i] = f
	}
	k.PerVertexPointSize = vc.PointSize
	return k, nil
}

// named is a gputypes enum: a dense uint32 range with String names.
type named interface {
	~uint32
	String() string
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
}

// lookupEnum finds the value in [0, last] whose String matches name.
func lookupEnum[T named](kind, name string, last T) (T, error) {
	want := normalize(name)
	for v := T(0); v <= last; v++ {
		if normalize(v.String()) == want {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, name)
}

func blendFactor(name string) (vc4.BlendFactor, error) {
	f, ok := vc4.ParseBlendFactor(name)
	if !ok {
		return 0, fmt.Errorf("unknown blend factor %q", name)
	}
	return f, nil
}

func wrapMode(name string) (vc4.WrapMode, error) {
	m, ok := vc4.ParseWrapMode(name)
	if !ok {
		return 0, fmt.Errorf("unknown wrap mode %q", name)
	}
	return m, nil
}

func swizzle(s string) ([4]tgsi.Swizzle, error) {
	var swz [4]tgsi.Swizzle
	if len(s) != 4 {
		return swz, fmt.Errorf("swizzle %q: want four channels", s)
	}
	for i := range 4 {
		switch s[i] {
		case 'x', 'r':
			swz[i] = tgsi.SwizzleX
		case 'y', 'g':
			swz[i] = tgsi.SwizzleY
		case 'z', 'b':
			swz[i] = tgsi.SwizzleZ
		case 'w', 'a':
			swz[i] = tgsi.SwizzleW
		case '0':
			swz[i] = tgsi.SwizzleZero
		case '1':
			swz[i] = tgsi.SwizzleOne
		default:
			return swz, fmt.Errorf("swizzle %q: bad channel %q", s, s[i])
		}
	}
	return swz, nil
}

func writeMask(s string) (gputypes.ColorWriteMask, error) {
	var m gputypes.ColorWriteMask
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			m |= gputypes.ColorWriteMaskRed
		case 'g':
			m |= gputypes.ColorWriteMaskGreen
		case 'b':
			m |= gputypes.ColorWriteMaskBlue
		case 'a':
			m |= gputypes.ColorWriteMaskAlpha
		default:
			return 0, fmt.Errorf("write mask %q: bad channel %q", s, c)
		}
	}
	return m, nil
}
