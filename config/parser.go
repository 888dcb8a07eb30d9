// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser builds a Declarations tree from a token stream via recursive
// descent. One Parser instance handles one scope (top level, or one
// elementclass body); nested elementclass blocks recurse into a fresh
// sub-parser over the same token slice.
type Parser struct {
	toks []Token
	pos  int
}

// Parse lexes and parses configuration text into a flat (pre-expansion)
// Declarations tree. Re-entrant: safe to call repeatedly on the same or
// different text, which hot-swap relies on to build a candidate router
// while the current one keeps running.
func Parse(file, text string) (*Declarations, error) {
	lx := NewLexer(file, text)
	toks, err := lx.Tokens()
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseScope(false)
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool { return p.cur().Kind == TokEOF }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) skipSeparators() {
	for !p.atEOF() {
		t := p.cur()
		if t.Kind == TokPunct && (t.Text == "\n" || t.Text == ";") {
			p.advance()
			continue
		}
		break
	}
}

func (p *Parser) expectPunct(text string) error {
	t := p.cur()
	if t.Kind != TokPunct || t.Text != text {
		return parseErr(t.Where, "expected %q, got %q", text, t.Text)
	}
	p.advance()
	return nil
}

// parseScope parses statements until EOF (top level) or a closing `}`
// (elementclass body, when inBlock is true).
func (p *Parser) parseScope(inBlock bool) (*Declarations, error) {
	decls := &Declarations{}
	for {
		p.skipSeparators()
		if p.atEOF() {
			if inBlock {
				return nil, parseErr(p.cur().Where, "unterminated elementclass block")
			}
			return decls, nil
		}
		if inBlock && p.cur().Kind == TokPunct && p.cur().Text == "}" {
			p.advance()
			return decls, nil
		}
		if err := p.parseStatement(decls); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseStatement(decls *Declarations) error {
	t := p.cur()

	if t.Kind == TokKeyword {
		switch t.Text {
		case "require":
			return p.parseRequire(decls)
		case "define":
			return p.parseDefine(decls)
		case "elementclass":
			return p.parseCompound(decls)
		}
	}

	return p.parseChain(decls)
}

func (p *Parser) parseRequire(decls *Declarations) error {
	where := p.advance().Where // 'require'
	if err := p.expectPunct("("); err != nil {
		return err
	}
	var toks []string
	for {
		t := p.cur()
		if t.Kind == TokPunct && t.Text == ")" {
			p.advance()
			break
		}
		if t.Kind == TokPunct && t.Text == "," {
			p.advance()
			continue
		}
		toks = append(toks, t.Text)
		p.advance()
	}
	decls.Requires = append(decls.Requires, RequireDecl{Tokens: toks, Where: where})
	return nil
}

func (p *Parser) parseDefine(decls *Declarations) error {
	where := p.advance().Where // 'define'
	v := p.cur()
	if v.Kind != TokVariable {
		return parseErr(v.Where, "expected $variable after define")
	}
	p.advance()
	var sb strings.Builder
	for {
		t := p.cur()
		if t.Kind == TokEOF || (t.Kind == TokPunct && (t.Text == "\n" || t.Text == ";")) {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text)
		p.advance()
	}
	decls.Defines = append(decls.Defines, DefineDecl{Name: v.Text, Value: sb.String(), Where: where})
	return nil
}

func (p *Parser) parseCompound(decls *Declarations) error {
	where := p.advance().Where // 'elementclass'
	name := p.cur()
	if name.Kind != TokIdent {
		return parseErr(name.Where, "expected elementclass name")
	}
	p.advance()

	var formals []string
	if p.cur().Kind == TokPunct && p.cur().Text == "(" {
		p.advance()
		for {
			t := p.cur()
			if t.Kind == TokPunct && t.Text == ")" {
				p.advance()
				break
			}
			if t.Kind == TokPunct && t.Text == "," {
				p.advance()
				continue
			}
			formals = append(formals, t.Text)
			p.advance()
		}
	}

	p.skipSeparators()
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	body, err := p.parseScope(true)
	if err != nil {
		return err
	}
	decls.Compounds = append(decls.Compounds, CompoundDecl{Name: name.Text, Formals: formals, Body: body, Where: where})
	return nil
}

// parseChain parses one `ref [-> ref]*` statement: a sequence of element
// references connected left to right. Each reference may be a bare name,
// a `name :: Class(args)` declaration, an anonymous `Class(args)`, and
// may carry a `[n]` port-number suffix/prefix around the arrow.
func (p *Parser) parseChain(decls *Declarations) error {
	prev, prevPort, err := p.parseEndpoint(decls, false)
	if err != nil {
		return err
	}
	for {
		t := p.cur()
		if !(t.Kind == TokPunct && t.Text == "->") {
			break
		}
		p.advance()
		next, nextPort, err := p.parseEndpoint(decls, true)
		if err != nil {
			return err
		}
		decls.Connections = append(decls.Connections, ConnectionDecl{
			From:  PortRef{Element: prev, Port: prevPort},
			To:    PortRef{Element: next, Port: nextPort},
			Where: t.Where,
		})
		prev, prevPort = next, -1
	}
	return nil
}

// parseEndpoint parses one chain endpoint: an optional leading `[n]`
// (only meaningful on the right side of an arrow), an element reference
// (name, "name :: Class(args)", or anonymous "Class(args)"), and an
// optional trailing `[n]`. Returns the element's declared/generated name
// and the port number referenced (-1 if none given).
func (p *Parser) parseEndpoint(decls *Declarations, allowLeadingPort bool) (string, int, error) {
	leadingPort := -1
	if allowLeadingPort && p.cur().Kind == TokPunct && p.cur().Text == "[" {
		n, err := p.parseBracketedPort()
		if err != nil {
			return "", 0, err
		}
		leadingPort = n
	}

	t := p.cur()
	if t.Kind == TokKeyword && (t.Text == "input" || t.Text == "output") {
		p.advance()
		port := leadingPort
		if p.cur().Kind == TokPunct && p.cur().Text == "[" {
			n, err := p.parseBracketedPort()
			if err != nil {
				return "", 0, err
			}
			port = n
		}
		return t.Text, port, nil
	}

	if t.Kind != TokIdent {
		return "", 0, parseErr(t.Where, "expected element reference, got %q", t.Text)
	}
	name := t.Where
	ident := t.Text
	p.advance()

	var elemName string
	if p.cur().Kind == TokPunct && p.cur().Text == "::" {
		p.advance()
		class := p.cur()
		if class.Kind != TokIdent {
			return "", 0, parseErr(class.Where, "expected class name after ::")
		}
		p.advance()
		args, err := p.parseArgsIfPresent()
		if err != nil {
			return "", 0, err
		}
		decls.Elements = append(decls.Elements, ElementDecl{Name: ident, Class: class.Text, Args: args, Where: name})
		elemName = ident
	} else if p.cur().Kind == TokPunct && p.cur().Text == "(" {
		// anonymous inline declaration: ident IS the class name
		args, err := p.parseArgsIfPresent()
		if err != nil {
			return "", 0, err
		}
		gen := fmt.Sprintf("_%s@%d", ident, name.Line)
		decls.Elements = append(decls.Elements, ElementDecl{Name: gen, Class: ident, Args: args, Anonymous: true, Where: name})
		elemName = gen
	} else {
		// bare reference to a previously (or later) declared element
		elemName = ident
	}

	port := leadingPort
	if p.cur().Kind == TokPunct && p.cur().Text == "[" {
		n, err := p.parseBracketedPort()
		if err != nil {
			return "", 0, err
		}
		port = n
	}
	return elemName, port, nil
}

func (p *Parser) parseBracketedPort() (int, error) {
	if err := p.expectPunct("["); err != nil {
		return 0, err
	}
	t := p.cur()
	if t.Kind != TokNumber {
		return 0, parseErr(t.Where, "expected port number inside brackets")
	}
	p.advance()
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, parseErr(t.Where, "invalid port number %q", t.Text)
	}
	if err := p.expectPunct("]"); err != nil {
		return 0, err
	}
	return n, nil
}

// parseArgsIfPresent parses a parenthesized argument list and returns its
// raw, un-split text (elements parse their own argument syntax in
// Configure); returns "" if no parenthesized list follows.
func (p *Parser) parseArgsIfPresent() (string, error) {
	if !(p.cur().Kind == TokPunct && p.cur().Text == "(") {
		return "", nil
	}
	p.advance()
	var parts []string
	depth := 1
	for {
		t := p.cur()
		if t.Kind == TokEOF {
			return "", parseErr(t.Where, "unterminated argument list")
		}
		if t.Kind == TokPunct && t.Text == "(" {
			depth++
		}
		if t.Kind == TokPunct && t.Text == ")" {
			depth--
			if depth == 0 {
				p.advance()
				break
			}
		}
		if t.Kind == TokString {
			parts = append(parts, strconv.Quote(t.Text))
		} else if t.Kind == TokVariable {
			parts = append(parts, "$"+t.Text)
		} else if !(t.Kind == TokPunct && t.Text == "\n") {
			parts = append(parts, t.Text)
		}
		p.advance()
	}
	return strings.Join(parts, " "), nil
}
