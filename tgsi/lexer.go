// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
)

// TokenKind is the lexical class of an assembler token.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokNewline
	TokIdent
	TokInt
	TokFloat

	TokLeftBracket  // [
	TokRightBracket // ]
	TokLeftParen    // (
	TokRightParen   // )
	TokLeftBrace    // {
	TokRightBrace   // }
	TokComma        // ,
	TokDot          // .
	TokDotDot       // ..
	TokColon        // :
	TokPlus         // +
	TokMinus        // -
	TokPipe         // |
)

var tokenKindNames = [...]string{
	TokEOF:          "end of input",
	TokNewline:      "end of line",
	TokIdent:        "identifier",
	TokInt:          "integer",
	TokFloat:        "number",
	TokLeftBracket:  "'['",
	TokRightBracket: "']'",
	TokLeftParen:    "'('",
	TokRightParen:   "')'",
	TokLeftBrace:    "'{'",
	TokRightBrace:   "'}'",
	TokComma:        "','",
	TokDot:          "'.'",
	TokDotDot:       "'..'",
	TokColon:        "':'",
	TokPlus:         "'+'",
	TokMinus:        "'-'",
	TokPipe:         "'|'",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// Lexeme is one scanned token.
type Lexeme struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}

// Lexer tokenizes the Gallium text format. Newlines are significant: each
// statement occupies one line.
type Lexer struct {
	source string
	pos    int
	start  int
	line   int
	column int
	startC int
	tokens []Lexeme
}

// NewLexer creates a lexer for source.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Lexeme, 0, len(source)/3+8),
	}
}

// Tokenize returns every token followed by TokEOF.
func (l *Lexer) Tokenize() ([]Lexeme, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startC = l.column
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Lexeme{Kind: TokEOF, Line: l.line, Column: l.column})
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	c := l.advance()
	switch c {
	case ' ', '\t', '\r':
	case '\n':
		l.add(TokNewline)
		l.line++
		l.column = 1
	case ';', '#':
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
	case '[':
		l.add(TokLeftBracket)
	case ']':
		l.add(TokRightBracket)
	case '(':
		l.add(TokLeftParen)
	case ')':
		l.add(TokRightParen)
	case '{':
		l.add(TokLeftBrace)
	case '}':
		l.add(TokRightBrace)
	case ',':
		l.add(TokComma)
	case ':':
		l.add(TokColon)
	case '+':
		l.add(TokPlus)
	case '-':
		l.add(TokMinus)
	case '|':
		l.add(TokPipe)
	case '.':
		if l.peek() == '.' {
			l.advance()
			l.add(TokDotDot)
		} else {
			l.add(TokDot)
		}
	default:
		switch {
		case isDigit(c):
			l.number(c)
		case isIdentStart(c):
			for isIdentPart(l.peek()) {
				l.advance()
			}
			l.add(TokIdent)
		default:
			return &SourceError{
				Message: fmt.Sprintf("unexpected character %q", c),
				Line:    l.line,
				Column:  l.startC,
				Source:  l.source,
			}
		}
	}
	return nil
}

func (l *Lexer) number(first byte) {
	if first == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.add(TokInt)
		return
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	// Texture targets such as 2D start with a digit.
	if c := l.peek(); isIdentStart(c) && c != 'e' && c != 'E' {
		for isIdentPart(l.peek()) {
			l.advance()
		}
		l.add(TokIdent)
		return
	}
	kind := TokInt
	// "0..3" is a range, not a fraction.
	if l.peek() == '.' && l.peekNext() != '.' {
		kind = TokFloat
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || next == '-' || next == '+' {
			kind = TokFloat
			l.advance()
			l.advance()
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	l.add(kind)
}

func (l *Lexer) add(kind TokenKind) {
	l.tokens = append(l.tokens, Lexeme{
		Kind:   kind,
		Text:   l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.startC,
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	l.column++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
