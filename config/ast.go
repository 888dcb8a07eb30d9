// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

// ElementDecl declares one element instance: `name :: Class(args)`.
// Anonymous declarations (bare `Class(args)` used inline as a connection
// endpoint) get a generated Name at parse time.
type ElementDecl struct {
	Name      string
	Class     string
	Args      string
	Anonymous bool
	Where     Landmark
}

// PortRef is one endpoint of a connection: an element name and an
// optional explicit port number (-1 means "next free port").
type PortRef struct {
	Element string
	Port    int
}

// ConnectionDecl is one `a[i] -> [j]b` edge.
type ConnectionDecl struct {
	From  PortRef
	To    PortRef
	Where Landmark
}

// RequireDecl is a `require(tokens)` capability precondition.
type RequireDecl struct {
	Tokens []string
	Where  Landmark
}

// DefineDecl is a `define $var value` textual parameter binding.
type DefineDecl struct {
	Name  string
	Value string
	Where Landmark
}

// CompoundDecl is an `elementclass Name { ... }` sub-graph definition.
// Ports of the compound are the pseudo-element names "input"/"output"
// used inside Body; Formals are the compound's own argument names,
// substituted textually into element Args during expansion.
type CompoundDecl struct {
	Name    string
	Formals []string
	Body    *Declarations
	Where   Landmark
}

// Declarations is one parsed scope: the top level of a configuration
// file, or the body of an elementclass block before expansion.
type Declarations struct {
	Elements    []ElementDecl
	Connections []ConnectionDecl
	Requires    []RequireDecl
	Defines     []DefineDecl
	Compounds   []CompoundDecl
}
