// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vc4

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vc4c/tgsi"
)

// MaxClipPlanes is the number of user clip planes.
const MaxClipPlanes = 8

// MaxVertexAttribs is the number of vertex attribute slots.
const MaxVertexAttribs = 8

// WrapMode is a texture coordinate wrap mode. The first values mirror
// gputypes.AddressMode; Clamp and ClampToBorder are the legacy modes the
// hardware lacks.
type WrapMode uint8

const (
	WrapUndefined WrapMode = iota
	WrapClampToEdge
	WrapRepeat
	WrapMirrorRepeat
	// WrapClamp clamps coordinates to [0,1] in the shader.
	WrapClamp
	// WrapClampToBorder samples the border color outside [0,1].
	WrapClampToBorder
)

func (m WrapMode) String() string {
	switch m {
	case WrapClampToEdge:
		return "ClampToEdge"
	case WrapRepeat:
		return "Repeat"
	case WrapMirrorRepeat:
		return "MirrorRepeat"
	case WrapClamp:
		return "Clamp"
	case WrapClampToBorder:
		return "ClampToBorder"
	default:
		return "Undefined"
	}
}

// ParseWrapMode looks a wrap mode up by its String name. An empty name is
// WrapUndefined.
func ParseWrapMode(name string) (WrapMode, bool) {
	if name == "" {
		return WrapUndefined, true
	}
	for m := WrapUndefined; m <= WrapClampToBorder; m++ {
		if sameName(m.String(), name) {
			return m, true
		}
	}
	return 0, false
}

// sameName compares enum names ignoring case, hyphens, underscores and
// spaces.
func sameName(a, b string) bool {
	strip := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.EqualFold(strip.Replace(a), strip.Replace(b))
}

// needsBorder reports whether the mode samples the border color.
func (m WrapMode) needsBorder() bool {
	return m == WrapClamp || m == WrapClampToBorder
}

// TextureKey is the per-unit sampler state baked into a shader.
type TextureKey struct {
	Format      gputypes.TextureFormat
	CompareMode bool
	CompareFunc gputypes.CompareFunction
	WrapS       WrapMode
	WrapT       WrapMode
	// Swizzle maps the shader's channels onto the texture's channels.
	// The zero value is replaced by the identity swizzle.
	Swizzle [4]tgsi.Swizzle
}

// Key is the state shared by every stage.
type Key struct {
	Textures []TextureKey
	// UCPEnables has bit i set when user clip plane i is enabled.
	UCPEnables uint8
}

// BlendFactor is a blend factor. It extends gputypes.BlendFactor with the
// constant-alpha and dual-source factors.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
	BlendSrcAlphaSaturate
	BlendConstColor
	BlendInvConstColor
	BlendConstAlpha
	BlendInvConstAlpha
	BlendSrc1Color
	BlendInvSrc1Color
	BlendSrc1Alpha
	BlendInvSrc1Alpha
)

var blendFactorNames = [...]string{
	BlendZero:             "Zero",
	BlendOne:              "One",
	BlendSrcColor:         "SrcColor",
	BlendInvSrcColor:      "InvSrcColor",
	BlendSrcAlpha:         "SrcAlpha",
	BlendInvSrcAlpha:      "InvSrcAlpha",
	BlendDstColor:         "DstColor",
	BlendInvDstColor:      "InvDstColor",
	BlendDstAlpha:         "DstAlpha",
	BlendInvDstAlpha:      "InvDstAlpha",
	BlendSrcAlphaSaturate: "SrcAlphaSaturate",
	BlendConstColor:       "ConstColor",
	BlendInvConstColor:    "InvConstColor",
	BlendConstAlpha:       "ConstAlpha",
	BlendInvConstAlpha:    "InvConstAlpha",
	BlendSrc1Color:        "Src1Color",
	BlendInvSrc1Color:     "InvSrc1Color",
	BlendSrc1Alpha:        "Src1Alpha",
	BlendInvSrc1Alpha:     "InvSrc1Alpha",
}

func (f BlendFactor) String() string {
	if int(f) < len(blendFactorNames) {
		return blendFactorNames[f]
	}
	return fmt.Sprintf("BlendFactor(%d)", uint8(f))
}

// ParseBlendFactor looks a factor up by its String name or by the name of
// the equivalent WebGPU factor ("OneMinusSrcAlpha").
func ParseBlendFactor(name string) (BlendFactor, bool) {
	for i, n := range blendFactorNames {
		if sameName(n, name) {
			return BlendFactor(i), true
		}
	}
	for f := gputypes.BlendFactorZero; f <= gputypes.BlendFactorOneMinusConstant; f++ {
		if sameName(f.String(), name) {
			return blendFactorFrom(f)
		}
	}
	return 0, false
}

func blendFactorFrom(f gputypes.BlendFactor) (BlendFactor, bool) {
	switch f {
	case gputypes.BlendFactorZero:
		return BlendZero, true
	case gputypes.BlendFactorOne:
		return BlendOne, true
	case gputypes.BlendFactorSrc:
		return BlendSrcColor, true
	case gputypes.BlendFactorOneMinusSrc:
		return BlendInvSrcColor, true
	case gputypes.BlendFactorSrcAlpha:
		return BlendSrcAlpha, true
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return BlendInvSrcAlpha, true
	case gputypes.BlendFactorDst:
		return BlendDstColor, true
	case gputypes.BlendFactorOneMinusDst:
		return BlendInvDstColor, true
	case gputypes.BlendFactorDstAlpha:
		return BlendDstAlpha, true
	case gputypes.BlendFactorOneMinusDstAlpha:
		return BlendInvDstAlpha, true
	case gputypes.BlendFactorSrcAlphaSaturated:
		return BlendSrcAlphaSaturate, true
	case gputypes.BlendFactorConstant:
		return BlendConstColor, true
	case gputypes.BlendFactorOneMinusConstant:
		return BlendInvConstColor, true
	default:
		return BlendZero, false
	}
}

// BlendComponent is the blend equation of the color or alpha channels.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Func      gputypes.BlendOperation
}

// BlendState is the render target's blend and write-mask state.
type BlendState struct {
	Enable    bool
	RGB       BlendComponent
	Alpha     BlendComponent
	WriteMask gputypes.ColorWriteMask
}

// FSKey selects a fragment shader variant.
type FSKey struct {
	Key

	ColorFormat gputypes.TextureFormat
	Blend       BlendState

	DepthEnabled          bool
	StencilEnabled        bool
	StencilTwoSide        bool
	StencilFullWriteMasks bool

	// Topology selects point or line coordinate varyings.
	Topology gputypes.PrimitiveTopology

	AlphaTest     bool
	AlphaTestFunc gputypes.CompareFunction

	// PointSpriteMask has bit i set when GENERIC[i] is replaced by the
	// point coordinate.
	PointSpriteMask     uint8
	PointCoordUpperLeft bool

	// LightTwoSide selects BCOLOR inputs on back faces.
	LightTwoSide bool
}

func (k *FSKey) isPoints() bool {
	return k.Topology == gputypes.PrimitiveTopologyPointList
}

func (k *FSKey) isLines() bool {
	return k.Topology == gputypes.PrimitiveTopologyLineList ||
		k.Topology == gputypes.PrimitiveTopologyLineStrip
}

// InputSemantic identifies one scalar channel of a varying.
type InputSemantic struct {
	Semantic tgsi.Semantic `msgpack:"semantic"`
	Index    int           `msgpack:"index"`
	Swizzle  int           `msgpack:"swizzle"`
}

func (s InputSemantic) String() string {
	if s.Semantic == pseudoSemantic {
		return "point/line coord"
	}
	return fmt.Sprintf("%s[%d].%s", s.Semantic, s.Index, tgsi.Swizzle(s.Swizzle))
}

// pseudoSemantic marks varyings the vertex shader does not write.
const pseudoSemantic tgsi.Semantic = 0xff

// VSKey selects a vertex or coordinate shader variant.
type VSKey struct {
	Key

	AttrFormats [MaxVertexAttribs]gputypes.VertexFormat

	// Coord compiles the coordinate shader used for binning.
	Coord bool

	PerVertexPointSize bool

	// FSInputs are the live inputs of the paired fragment shader, in
	// order. Vertex shaders write one VPM word per entry.
	FSInputs []InputSemantic
}

// Options configures compilation.
type Options struct {
	// Validate runs qir.Validate on the result and fails on any problem.
	Validate bool
}

// DefaultOptions returns options with validation enabled.
func DefaultOptions() *Options {
	return &Options{Validate: true}
}
