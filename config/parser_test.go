// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config_test

import (
	"strings"
	"testing"

	"github.com/clickrt/clickrt/config"
)

func TestParseSimpleChain(t *testing.T) {
	decls, err := config.ParseAndExpand("t", `src :: InfiniteSource(LENGTH 64) -> cnt :: Counter() -> snk :: Discard();`)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	if len(decls.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d: %+v", len(decls.Elements), decls.Elements)
	}
	if len(decls.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(decls.Connections))
	}
}

func TestParseAnonymousElement(t *testing.T) {
	decls, err := config.ParseAndExpand("t", `InfiniteSource(LENGTH 64) -> Discard();`)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	if len(decls.Elements) != 2 {
		t.Fatalf("expected 2 anonymous elements, got %d", len(decls.Elements))
	}
	if !decls.Elements[0].Anonymous || !decls.Elements[1].Anonymous {
		t.Fatalf("expected both elements anonymous: %+v", decls.Elements)
	}
}

func TestParseExplicitPorts(t *testing.T) {
	decls, err := config.ParseAndExpand("t", `a :: Foo(); b :: Bar(); a[1] -> [0]b;`)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	c := decls.Connections[0]
	if c.From.Port != 1 || c.To.Port != 0 {
		t.Fatalf("port numbers not parsed: %+v", c)
	}
}

func TestElementClassExpansion(t *testing.T) {
	text := `
elementclass Pipe {
  input -> Counter() -> output;
}
src :: InfiniteSource(LENGTH 1) -> p :: Pipe() -> snk :: Discard();
`
	decls, err := config.ParseAndExpand("t", text)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	var foundCounter bool
	for _, e := range decls.Elements {
		if e.Class == "Counter" {
			foundCounter = true
		}
		if e.Class == "Pipe" {
			t.Fatalf("compound instance %q should have been expanded away", e.Name)
		}
	}
	if !foundCounter {
		t.Fatalf("expected expanded Counter element, got %+v", decls.Elements)
	}
	if len(decls.Connections) != 2 {
		t.Fatalf("expected src->Counter and Counter->snk, got %d: %+v", len(decls.Connections), decls.Connections)
	}
}

func TestDefineSubstitution(t *testing.T) {
	text := `define $N 64
src :: InfiniteSource(LENGTH $N) -> Discard();`
	decls, err := config.ParseAndExpand("t", text)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	if !strings.Contains(decls.Elements[0].Args, "64") {
		t.Fatalf("expected $N substituted with 64, got args %q", decls.Elements[0].Args)
	}
}

func TestFlattenFixedPoint(t *testing.T) {
	text := `src :: InfiniteSource(LENGTH 64) -> cnt :: Counter() -> snk :: Discard();`
	decls, err := config.ParseAndExpand("t", text)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	flat1 := config.Flatten(decls)

	decls2, err := config.ParseAndExpand("t", flat1)
	if err != nil {
		t.Fatalf("re-parsing flattened text: %v", err)
	}
	flat2 := config.Flatten(decls2)

	if flat1 != flat2 {
		t.Fatalf("flatten(parse(flatten(parse(text)))) != flatten(parse(text)):\n%q\nvs\n%q", flat1, flat2)
	}
}

func TestRequireParsed(t *testing.T) {
	decls, err := config.ParseAndExpand("t", `require(foo, bar);`)
	if err != nil {
		t.Fatalf("ParseAndExpand: %v", err)
	}
	if len(decls.Requires) != 1 || len(decls.Requires[0].Tokens) != 2 {
		t.Fatalf("expected one require with 2 tokens, got %+v", decls.Requires)
	}
}
