// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the engine's configuration language: the
// lexer and recursive-descent parser that turn configuration text into a
// flat declaration list. The loader that turns that list into a running
// router (instantiate, configure, resolve ports, initialize, activate)
// lives in package router.
package config

import (
	"fmt"
	"strings"

	"github.com/clickrt/clickrt/common"
)

// parseErr wraps a lexer/parser failure as a *common.EngineError tagged
// common.ParseErr, carrying where as the error's source landmark, per
// spec.md §7's parse-error kind.
func parseErr(where Landmark, format string, args ...interface{}) error {
	return common.WrapError(nil, common.Landmark{File: where.File, Line: where.Line}, fmt.Sprintf(format, args...), common.ParseErr)
}

// Landmark is a source location preserved through lexing and parsing so
// every error the loader reports can point back at the line that caused
// it.
type Landmark struct {
	File string
	Line int
}

func (l Landmark) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokString
	TokNumber
	TokVariable // $name
	TokPunct    // ::  ->  (  )  [  ]  ,  ;  {  }  newline-as-statement-sep
	TokKeyword  // require, elementclass, define, input, output
)

// Token is one lexed unit with its source landmark.
type Token struct {
	Kind  TokenKind
	Text  string
	Where Landmark
}

var keywords = map[string]bool{
	"require":     true,
	"elementclass": true,
	"define":      true,
	"input":       true,
	"output":      true,
}

// Lexer turns configuration text into a token stream. It is re-entrant:
// a fresh Lexer is constructed per parse, so the same file/text can be
// parsed any number of times (required for hot-swap, which re-parses
// candidate configuration while the current router keeps running).
type Lexer struct {
	file   string
	src    []rune
	pos    int
	line   int
	tokens []Token
}

// NewLexer prepares text (attributed to file, for landmarks) for lexing.
func NewLexer(file, text string) *Lexer {
	return &Lexer{file: file, src: []rune(text), line: 1}
}

// Tokens lexes the full input and returns the token stream, ending in a
// single TokEOF.
func (lx *Lexer) Tokens() ([]Token, error) {
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		lx.tokens = append(lx.tokens, tok)
		if tok.Kind == TokEOF {
			return lx.tokens, nil
		}
	}
}

func (lx *Lexer) peekRune() (rune, bool) {
	if lx.pos >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos], true
}

func (lx *Lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++
	if r == '\n' {
		lx.line++
	}
	return r
}

func (lx *Lexer) landmark() Landmark {
	return Landmark{File: lx.file, Line: lx.line}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == '@' || r == '.' || r == '/'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (lx *Lexer) next() (Token, error) {
	for {
		r, ok := lx.peekRune()
		if !ok {
			return Token{Kind: TokEOF, Where: lx.landmark()}, nil
		}
		switch {
		case r == ' ' || r == '\t' || r == '\r':
			lx.advance()
			continue
		case r == '\n':
			lx.advance()
			return Token{Kind: TokPunct, Text: "\n", Where: lx.landmark()}, nil
		case r == '/' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '/':
			for {
				r, ok := lx.peekRune()
				if !ok || r == '\n' {
					break
				}
				lx.advance()
			}
			continue
		case r == '/' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '*':
			lx.advance()
			lx.advance()
			for {
				r, ok := lx.peekRune()
				if !ok {
					return Token{}, parseErr(lx.landmark(), "unterminated block comment")
				}
				if r == '*' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '/' {
					lx.advance()
					lx.advance()
					break
				}
				lx.advance()
			}
			continue
		}
		break
	}

	where := lx.landmark()
	r, _ := lx.peekRune()

	switch {
	case r == '"':
		return lx.lexString(where)
	case r == '$':
		lx.advance()
		start := lx.pos
		for {
			rr, ok := lx.peekRune()
			if !ok || !isIdentCont(rr) {
				break
			}
			lx.advance()
		}
		return Token{Kind: TokVariable, Text: string(lx.src[start:lx.pos]), Where: where}, nil
	case isDigit(r):
		start := lx.pos
		for {
			rr, ok := lx.peekRune()
			if !ok || isDigit(rr) || rr == '.' || rr == 'e' || rr == 'E' ||
				rr == 'x' || rr == 'k' || rr == 'M' || rr == 'G' || rr == 'm' || rr == 'u' || rr == 'n' || rr == 's' {
				if !ok {
					break
				}
				lx.advance()
				continue
			}
			break
		}
		return Token{Kind: TokNumber, Text: string(lx.src[start:lx.pos]), Where: where}, nil
	case isIdentStart(r):
		start := lx.pos
		for {
			rr, ok := lx.peekRune()
			if !ok || !isIdentCont(rr) {
				break
			}
			lx.advance()
		}
		text := string(lx.src[start:lx.pos])
		if keywords[text] {
			return Token{Kind: TokKeyword, Text: text, Where: where}, nil
		}
		return Token{Kind: TokIdent, Text: text, Where: where}, nil
	case r == ':' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == ':':
		lx.advance()
		lx.advance()
		return Token{Kind: TokPunct, Text: "::", Where: where}, nil
	case r == '-' && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '>':
		lx.advance()
		lx.advance()
		return Token{Kind: TokPunct, Text: "->", Where: where}, nil
	case strings.ContainsRune("()[]{},;", r):
		lx.advance()
		return Token{Kind: TokPunct, Text: string(r), Where: where}, nil
	default:
		return Token{}, parseErr(where, "unexpected character %q", r)
	}
}

func (lx *Lexer) lexString(where Landmark) (Token, error) {
	lx.advance() // opening quote
	var sb strings.Builder
	for {
		r, ok := lx.peekRune()
		if !ok {
			return Token{}, parseErr(where, "unterminated string literal")
		}
		if r == '"' {
			lx.advance()
			break
		}
		if r == '\\' && lx.pos+1 < len(lx.src) {
			lx.advance()
			esc := lx.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(lx.advance())
	}
	return Token{Kind: TokString, Text: sb.String(), Where: where}, nil
}
