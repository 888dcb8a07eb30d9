// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
)

// expander holds the per-call state of one Expand invocation. Declared as
// a value (never package-level) so Expand is safely re-entrant: hot-swap
// parses a candidate configuration on a fresh call while the current
// router's own earlier Expand call has long since returned.
type expander struct {
	compounds map[string]*CompoundDecl
	out       *Declarations
	counter   int
	pseudoIn  map[string]map[int]PortRef
	pseudoOut map[string]map[int]PortRef
}

// Expand resolves `define` bindings and inlines every `elementclass`
// usage by alpha-renaming the compound's internal elements and splicing
// its "input"/"output" pseudo-port connections into the surrounding
// graph. The result has no Compounds and no Defines left: just Elements
// and Connections, ready for the loader's instantiate stage.
func Expand(top *Declarations) (*Declarations, error) {
	defines := map[string]string{}
	for _, d := range top.Defines {
		defines[d.Name] = d.Value
	}

	ex := &expander{
		compounds: map[string]*CompoundDecl{},
		out:       &Declarations{Requires: top.Requires},
		pseudoIn:  map[string]map[int]PortRef{},
		pseudoOut: map[string]map[int]PortRef{},
	}
	for i := range top.Compounds {
		c := &top.Compounds[i]
		ex.compounds[c.Name] = c
	}

	if err := ex.expandInto(top.Elements, top.Connections, defines, ""); err != nil {
		return nil, err
	}
	return ex.out, nil
}

// expandInto appends elems/conns (from one scope) into ex.out, recursively
// inlining any element whose Class names a compound. prefix namespaces
// already-expanded element names (nested compound usage).
func (ex *expander) expandInto(elems []ElementDecl, conns []ConnectionDecl, defines map[string]string, prefix string) error {
	qualified := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "/" + name
	}

	// index of usages that are compound instantiations, so external
	// connections into/out of them can be redirected to the body.
	instantiations := map[string]bool{}

	for _, e := range elems {
		e.Args = substituteDefines(e.Args, defines)
		if c, ok := ex.compounds[e.Class]; ok {
			ex.counter++
			innerPrefix := qualified(e.Name)
			if err := ex.expandCompound(c, e, innerPrefix, defines); err != nil {
				return err
			}
			instantiations[e.Name] = true
			continue
		}
		e.Name = qualified(e.Name)
		ex.out.Elements = append(ex.out.Elements, e)
	}

	for _, conn := range conns {
		from, fromOK := ex.redirectEndpoint(conn.From, instantiations, qualified, true)
		to, toOK := ex.redirectEndpoint(conn.To, instantiations, qualified, false)
		if !fromOK || !toOK {
			// endpoint referenced an unconnected compound pseudo-port;
			// drop the connection, matching an element class that
			// permits unconnected ports.
			continue
		}
		ex.out.Connections = append(ex.out.Connections, ConnectionDecl{From: from, To: to, Where: conn.Where})
	}
	return nil
}

// expandCompound inlines one compound usage: formal-argument
// substitution, alpha-renamed body elements, and internal connections
// (those not touching "input"/"output"). It records the pseudo-port
// forwarding maps redirectEndpoint needs for the surrounding scope's
// external connections into/out of this instance.
func (ex *expander) expandCompound(c *CompoundDecl, usage ElementDecl, innerPrefix string, defines map[string]string) error {
	actuals := splitArgs(usage.Args)
	local := map[string]string{}
	for k, v := range defines {
		local[k] = v
	}
	for i, formal := range c.Formals {
		if i < len(actuals) {
			local[strings.TrimPrefix(formal, "$")] = actuals[i]
		}
	}

	bodyElems := make([]ElementDecl, len(c.Body.Elements))
	copy(bodyElems, c.Body.Elements)
	bodyConns := make([]ConnectionDecl, 0, len(c.Body.Connections))
	ex.pseudoIn[innerPrefix] = map[int]PortRef{}
	ex.pseudoOut[innerPrefix] = map[int]PortRef{}
	for _, conn := range c.Body.Connections {
		switch {
		case conn.From.Element == "input":
			port := conn.From.Port
			if port < 0 {
				port = 0
			}
			ex.pseudoIn[innerPrefix][port] = conn.To
		case conn.To.Element == "output":
			port := conn.To.Port
			if port < 0 {
				port = 0
			}
			ex.pseudoOut[innerPrefix][port] = conn.From
		default:
			bodyConns = append(bodyConns, conn)
		}
	}

	return ex.expandInto(bodyElems, bodyConns, local, innerPrefix)
}

func (ex *expander) redirectEndpoint(ref PortRef, instantiations map[string]bool, qualified func(string) string, isFromSide bool) (PortRef, bool) {
	if instantiations[ref.Element] {
		prefix := qualified(ref.Element)
		port := ref.Port
		if port < 0 {
			port = 0
		}
		if isFromSide {
			if inner, ok := ex.pseudoOut[prefix][port]; ok {
				return PortRef{Element: prefix + "/" + inner.Element, Port: inner.Port}, true
			}
			return PortRef{}, false
		}
		if inner, ok := ex.pseudoIn[prefix][port]; ok {
			return PortRef{Element: prefix + "/" + inner.Element, Port: inner.Port}, true
		}
		return PortRef{}, false
	}
	return PortRef{Element: qualified(ref.Element), Port: ref.Port}, true
}

func substituteDefines(args string, defines map[string]string) string {
	if args == "" || len(defines) == 0 {
		return args
	}
	for name, value := range defines {
		args = strings.ReplaceAll(args, "$"+name, value)
	}
	return args
}

// splitArgs splits a raw, space-joined argument-list string on top-level
// commas (parentheses nest, so a comma inside a nested argument list
// stays with its enclosing argument).
func splitArgs(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	var out []string
	depth := 0
	var cur strings.Builder
	for _, r := range args {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteRune(r)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
