// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"sort"
	"strings"
)

// Flatten renders an expanded (post-Expand) Declarations tree back into
// canonical configuration text: one `name :: Class(args);` line per
// element in declaration order, then one `a -> b;` line per connection.
// flatconfig reads this text for the live router; parsing it again and
// flattening a second time must reproduce the same text, since flatten
// is a pure function of the expanded declarations and Expand is
// deterministic given the same input.
func Flatten(decls *Declarations) string {
	var sb strings.Builder
	for _, e := range decls.Elements {
		fmt.Fprintf(&sb, "%s :: %s(%s);\n", e.Name, e.Class, e.Args)
	}
	conns := make([]ConnectionDecl, len(decls.Connections))
	copy(conns, decls.Connections)
	sort.SliceStable(conns, func(i, j int) bool {
		if conns[i].From.Element != conns[j].From.Element {
			return conns[i].From.Element < conns[j].From.Element
		}
		return conns[i].From.Port < conns[j].From.Port
	})
	for _, c := range conns {
		fmt.Fprintf(&sb, "%s", portRefString(c.From, true))
		sb.WriteString(" -> ")
		fmt.Fprintf(&sb, "%s", portRefString(c.To, false))
		sb.WriteString(";\n")
	}
	return sb.String()
}

func portRefString(p PortRef, fromSide bool) string {
	if p.Port < 0 {
		return p.Element
	}
	if fromSide {
		return fmt.Sprintf("%s[%d]", p.Element, p.Port)
	}
	return fmt.Sprintf("[%d]%s", p.Port, p.Element)
}

// ParseAndExpand is the one call sites actually need: lex, parse, and
// expand in sequence, producing the flat declaration list the loader's
// instantiate stage consumes.
func ParseAndExpand(file, text string) (*Declarations, error) {
	decls, err := Parse(file, text)
	if err != nil {
		return nil, err
	}
	return Expand(decls)
}
