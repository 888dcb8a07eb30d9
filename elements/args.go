// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"fmt"
	"strconv"
	"strings"
)

func errMissingArg(class, name string) error {
	return fmt.Errorf("%s: missing required argument %s", class, name)
}

// unquote strips the Go-style quoting the parser applies to any string
// literal it re-serializes into an element's raw argument text (see
// config.Parser.parseArgsIfPresent), leaving every other token untouched.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
	}
	return s
}

// parseArgs splits a comma-separated configuration argument list into
// positional values and KEYWORD-prefixed ones, mirroring Click's own
// configuration string convention: a token is a keyword argument when its
// first space-separated word is all uppercase, otherwise it is positional.
func parseArgs(raw string) (positional []string, kv map[string]string) {
	kv = map[string]string{}
	for _, part := range splitTopLevelCommas(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if word, rest, ok := strings.Cut(part, " "); ok && isKeyword(word) {
			kv[word] = unquote(strings.TrimSpace(rest))
			continue
		}
		positional = append(positional, unquote(part))
	}
	return positional, kv
}

func isKeyword(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			if r != '_' {
				return false
			}
		}
	}
	return true
}

func splitTopLevelCommas(args string) []string {
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
				out = append(out, cur.String())
				cur.Reset()
				continue
			}
		}
		cur.WriteRune(r)
	}
	out = append(out, cur.String())
	return out
}
