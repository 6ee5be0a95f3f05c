// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse assembles a program from the Gallium text format:
//
//	FRAG
//	DCL IN[0], GENERIC[0], PERSPECTIVE
//	DCL OUT[0], COLOR
//	DCL CONST[0..3], ARRAY(1)
//	IMM[0] FLT32 { 0.5000, 1.0000, 0.0000, 0.0000 }
//	  0: MAD_SAT OUT[0], IN[0], IMM[0].xxxx, -|CONST[ADDR[0].x+1](1)|
//	  1: END
//
// Unknown declaration attributes (interpolation modes, return types) are
// accepted and ignored. PROPERTY lines are skipped.
func Parse(source string) (*Program, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, source: source}
	return p.parse()
}

type parser struct {
	tokens  []Lexeme
	current int
	source  string
	errors  SourceErrors

	prog      *Program
	sawHeader bool
}

func (p *parser) parse() (*Program, error) {
	p.prog = &Program{}
	for !p.isAtEnd() {
		if p.match(TokNewline) {
			continue
		}
		if err := p.statement(); err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
			continue
		}
		if !p.check(TokEOF) {
			if err := p.expect(TokNewline); err != nil {
				p.errors = append(p.errors, err)
				p.synchronize()
			}
		}
	}
	if !p.sawHeader && len(p.errors) == 0 {
		p.errors = append(p.errors, p.errorAt(p.peek(), "missing FRAG or VERT header"))
	}
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return p.prog, nil
}

func (p *parser) statement() *SourceError {
	tok := p.peek()
	if tok.Kind == TokInt {
		// Instruction label "N:".
		p.advance()
		if err := p.expect(TokColon); err != nil {
			return err
		}
		return p.instruction()
	}
	if tok.Kind != TokIdent {
		return p.errorAt(tok, "expected a statement, found %s", tok.Kind)
	}

	switch tok.Text {
	case "FRAG", "VERT":
		p.advance()
		if p.sawHeader {
			return p.errorAt(tok, "duplicate processor header")
		}
		p.sawHeader = true
		if tok.Text == "VERT" {
			p.prog.Processor = ProcessorVertex
		}
		return nil
	case "GEOM", "COMP", "TESS_CTRL", "TESS_EVAL":
		return p.errorAt(tok, "unsupported processor %s", tok.Text)
	case "PROPERTY":
		for !p.check(TokNewline) && !p.isAtEnd() {
			p.advance()
		}
		return nil
	case "DCL":
		p.advance()
		return p.declaration()
	case "IMM":
		p.advance()
		return p.immediate()
	default:
		return p.instruction()
	}
}

func (p *parser) declaration() *SourceError {
	file, err := p.file()
	if err != nil {
		return err
	}
	decl := &Declaration{File: file}
	if err := p.expect(TokLeftBracket); err != nil {
		return err
	}
	if decl.First, err = p.integer(); err != nil {
		return err
	}
	decl.Last = decl.First
	if p.match(TokDotDot) {
		if decl.Last, err = p.integer(); err != nil {
			return err
		}
		if decl.Last < decl.First {
			return p.errorAt(p.previous(), "empty range %d..%d", decl.First, decl.Last)
		}
	}
	if err := p.expect(TokRightBracket); err != nil {
		return err
	}

	for p.match(TokComma) {
		attr := p.peek()
		if attr.Kind != TokIdent {
			return p.errorAt(attr, "expected a declaration attribute, found %s", attr.Kind)
		}
		p.advance()
		if attr.Text == "ARRAY" {
			if err := p.expect(TokLeftParen); err != nil {
				return err
			}
			if decl.ArrayID, err = p.integer(); err != nil {
				return err
			}
			if err := p.expect(TokRightParen); err != nil {
				return err
			}
			continue
		}
		sem, ok := lookupSemantic(attr.Text)
		if !ok {
			continue
		}
		decl.Semantic, decl.HasSemantic = sem, true
		if p.match(TokLeftBracket) {
			if decl.SemanticIndex, err = p.integer(); err != nil {
				return err
			}
			if err := p.expect(TokRightBracket); err != nil {
				return err
			}
		}
	}
	p.prog.Tokens = append(p.prog.Tokens, decl)
	return nil
}

func (p *parser) immediate() *SourceError {
	if p.match(TokLeftBracket) {
		if _, err := p.integer(); err != nil {
			return err
		}
		if err := p.expect(TokRightBracket); err != nil {
			return err
		}
	}
	typeTok := p.advance()
	imm := &Immediate{}
	switch typeTok.Text {
	case "FLT32":
		imm.Type = ImmFloat32
	case "UINT32":
		imm.Type = ImmUint32
	case "INT32":
		imm.Type = ImmInt32
	default:
		return p.errorAt(typeTok, "unknown immediate type %q", typeTok.Text)
	}
	if err := p.expect(TokLeftBrace); err != nil {
		return err
	}
	for i := 0; ; i++ {
		if i == 4 {
			return p.errorAt(p.peek(), "immediate has more than 4 values")
		}
		v, err := p.immediateValue(imm.Type)
		if err != nil {
			return err
		}
		imm.Values[i] = v
		if !p.match(TokComma) {
			break
		}
	}
	if err := p.expect(TokRightBrace); err != nil {
		return err
	}
	p.prog.Tokens = append(p.prog.Tokens, imm)
	return nil
}

func (p *parser) immediateValue(t ImmediateType) (uint32, *SourceError) {
	neg := p.match(TokMinus)
	tok := p.advance()
	if tok.Kind != TokInt && tok.Kind != TokFloat {
		return 0, p.errorAt(tok, "expected a number, found %s", tok.Kind)
	}
	text := tok.Text
	if neg {
		text = "-" + text
	}
	switch t {
	case ImmFloat32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return 0, p.errorAt(tok, "invalid float %q", text)
		}
		return math.Float32bits(float32(f)), nil
	case ImmInt32:
		v, err := strconv.ParseInt(text, 0, 32)
		if err != nil {
			return 0, p.errorAt(tok, "invalid int32 %q", text)
		}
		return uint32(int32(v)), nil
	default:
		if neg {
			return 0, p.errorAt(tok, "negative UINT32 value")
		}
		v, err := strconv.ParseUint(text, 0, 32)
		if err != nil {
			return 0, p.errorAt(tok, "invalid uint32 %q", text)
		}
		return uint32(v), nil
	}
}

func (p *parser) instruction() *SourceError {
	tok := p.advance()
	if tok.Kind != TokIdent {
		return p.errorAt(tok, "expected an opcode, found %s", tok.Kind)
	}
	inst := &Instruction{Line: tok.Line}
	name := tok.Text
	op, ok := LookupOpcode(name)
	if !ok {
		switch {
		case strings.HasSuffix(name, "_SSAT"):
			name, inst.Saturate = strings.TrimSuffix(name, "_SSAT"), SaturateMinusPlusOne
		case strings.HasSuffix(name, "_SAT"):
			name, inst.Saturate = strings.TrimSuffix(name, "_SAT"), SaturateZeroOne
		}
		if op, ok = LookupOpcode(name); !ok {
			return p.errorAt(tok, "unknown opcode %q", tok.Text)
		}
	}
	inst.Opcode = op
	info := op.Info()

	for i := 0; i < info.NumDst; i++ {
		if i > 0 {
			if err := p.expect(TokComma); err != nil {
				return err
			}
		}
		dst, err := p.dstRegister()
		if err != nil {
			return err
		}
		inst.Dst = append(inst.Dst, dst)
	}
	for i := 0; i < info.NumSrc; i++ {
		if i > 0 || info.NumDst > 0 {
			if err := p.expect(TokComma); err != nil {
				return err
			}
		}
		src, err := p.srcRegister()
		if err != nil {
			return err
		}
		inst.Src = append(inst.Src, src)
	}
	if info.IsTex {
		if err := p.expect(TokComma); err != nil {
			return err
		}
		tt := p.advance()
		target, ok := lookupTexture(tt.Text)
		if tt.Kind != TokIdent || !ok {
			return p.errorAt(tt, "expected a texture target, found %q", tt.Text)
		}
		inst.Texture = target
	}
	p.prog.Tokens = append(p.prog.Tokens, inst)
	return nil
}

func (p *parser) dstRegister() (DstRegister, *SourceError) {
	file, err := p.file()
	if err != nil {
		return DstRegister{}, err
	}
	dst := DstRegister{File: file, WriteMask: WriteXYZW}
	if err := p.expect(TokLeftBracket); err != nil {
		return dst, err
	}
	if p.check(TokIdent) {
		var ind SrcRegister
		if err := p.indirect(&ind); err != nil {
			return dst, err
		}
		dst.Index, dst.Indirect = ind.Index, true
	} else if dst.Index, err = p.integer(); err != nil {
		return dst, err
	}
	if err := p.expect(TokRightBracket); err != nil {
		return dst, err
	}
	if p.match(TokDot) {
		tok := p.advance()
		mask, ok := parseWriteMask(tok.Text)
		if tok.Kind != TokIdent || !ok {
			return dst, p.errorAt(tok, "invalid write mask %q", tok.Text)
		}
		dst.WriteMask = mask
	}
	return dst, nil
}

func (p *parser) srcRegister() (SrcRegister, *SourceError) {
	src := SrcRegister{Swizzle: IdentitySwizzle}
	src.Negate = p.match(TokMinus)
	src.Absolute = p.match(TokPipe)

	file, err := p.file()
	if err != nil {
		return src, err
	}
	src.File = file
	if err := p.expect(TokLeftBracket); err != nil {
		return src, err
	}
	if p.check(TokIdent) {
		if err := p.indirect(&src); err != nil {
			return src, err
		}
	} else if src.Index, err = p.integer(); err != nil {
		return src, err
	}
	if err := p.expect(TokRightBracket); err != nil {
		return src, err
	}
	if p.match(TokLeftParen) {
		if src.ArrayID, err = p.integer(); err != nil {
			return src, err
		}
		if err := p.expect(TokRightParen); err != nil {
			return src, err
		}
	}
	if p.match(TokDot) {
		tok := p.advance()
		swz, ok := parseSwizzle(tok.Text)
		if tok.Kind != TokIdent || !ok {
			return src, p.errorAt(tok, "invalid swizzle %q", tok.Text)
		}
		src.Swizzle = swz
	}
	if src.Absolute {
		if err := p.expect(TokPipe); err != nil {
			return src, err
		}
	}
	return src, nil
}

// indirect parses "ADDR[n].c[+k]" inside a register bracket.
func (p *parser) indirect(src *SrcRegister) *SourceError {
	file, err := p.file()
	if err != nil {
		return err
	}
	src.Indirect = true
	src.IndirectFile = file
	if err := p.expect(TokLeftBracket); err != nil {
		return err
	}
	if src.IndirectIndex, err = p.integer(); err != nil {
		return err
	}
	if err := p.expect(TokRightBracket); err != nil {
		return err
	}
	if err := p.expect(TokDot); err != nil {
		return err
	}
	tok := p.advance()
	swz, ok := parseSwizzle(tok.Text)
	if tok.Kind != TokIdent || !ok || len(tok.Text) != 1 {
		return p.errorAt(tok, "invalid indirect channel %q", tok.Text)
	}
	src.IndirectSwizzle = swz[0]

	switch {
	case p.match(TokPlus):
		src.Index, err = p.integer()
	case p.match(TokMinus):
		src.Index, err = p.integer()
		src.Index = -src.Index
	}
	return err
}

func (p *parser) file() (File, *SourceError) {
	tok := p.advance()
	if tok.Kind == TokIdent {
		for f, name := range fileNames {
			if name == tok.Text {
				return File(f), nil
			}
		}
	}
	return FileNull, p.errorAt(tok, "expected a register file, found %q", tok.Text)
}

func (p *parser) integer() (int, *SourceError) {
	tok := p.advance()
	if tok.Kind != TokInt {
		return 0, p.errorAt(tok, "expected an integer, found %s", tok.Kind)
	}
	v, err := strconv.ParseInt(tok.Text, 0, 32)
	if err != nil {
		return 0, p.errorAt(tok, "invalid integer %q", tok.Text)
	}
	return int(v), nil
}

func lookupSemantic(name string) (Semantic, bool) {
	for s, n := range semanticNames {
		if n == name {
			return Semantic(s), true
		}
	}
	return 0, false
}

func lookupTexture(name string) (TextureTarget, bool) {
	for t, n := range textureNames {
		if n == name {
			return TextureTarget(t), true
		}
	}
	return TextureUnknown, false
}

func channelOf(c byte) (Swizzle, bool) {
	switch c {
	case 'x', 'r':
		return SwizzleX, true
	case 'y', 'g':
		return SwizzleY, true
	case 'z', 'b':
		return SwizzleZ, true
	case 'w', 'a':
		return SwizzleW, true
	}
	return SwizzleNone, false
}

// parseSwizzle accepts 1 to 4 channel letters. Short swizzles repeat
// their last channel.
func parseSwizzle(s string) ([4]Swizzle, bool) {
	var out [4]Swizzle
	if len(s) == 0 || len(s) > 4 {
		return out, false
	}
	for i := 0; i < 4; i++ {
		c := s[min(i, len(s)-1)]
		ch, ok := channelOf(c)
		if !ok {
			return out, false
		}
		out[i] = ch
	}
	return out, true
}

func parseWriteMask(s string) (WriteMask, bool) {
	if len(s) == 0 || len(s) > 4 {
		return 0, false
	}
	var mask WriteMask
	for i := 0; i < len(s); i++ {
		ch, ok := channelOf(s[i])
		if !ok {
			return 0, false
		}
		mask |= 1 << ch
	}
	return mask, true
}

// Helpers

func (p *parser) advance() Lexeme {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *parser) peek() Lexeme     { return p.tokens[p.current] }
func (p *parser) previous() Lexeme { return p.tokens[max(p.current-1, 0)] }
func (p *parser) isAtEnd() bool    { return p.peek().Kind == TokEOF }

func (p *parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind TokenKind) *SourceError {
	if p.match(kind) {
		return nil
	}
	tok := p.peek()
	return p.errorAt(tok, "expected %s, found %s", kind, describe(tok))
}

func (p *parser) synchronize() {
	for !p.isAtEnd() && !p.check(TokNewline) {
		p.advance()
	}
}

func (p *parser) errorAt(tok Lexeme, format string, args ...any) *SourceError {
	return &SourceError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Source:  p.source,
	}
}

func describe(tok Lexeme) string {
	if tok.Kind == TokNewline || tok.Kind == TokEOF {
		return tok.Kind.String()
	}
	return fmt.Sprintf("%q", tok.Text)
}
