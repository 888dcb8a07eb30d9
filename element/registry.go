// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import "fmt"

// Factory constructs a fresh, unconfigured instance of one element class.
type Factory func() Base

var classes = map[string]Factory{}

// Register adds a class to the global element factory registry. Concrete
// element packages call this from an init function, the way Click's
// element map is populated by static constructors at process start.
func Register(class string, factory Factory) {
	if _, exists := classes[class]; exists {
		panic(fmt.Sprintf("element: class %q already registered", class))
	}
	classes[class] = factory
}

// Lookup returns the factory for class, or false if no element package
// registered it.
func Lookup(class string) (Factory, bool) {
	f, ok := classes[class]
	return f, ok
}

// Classes returns every registered class name, for class: glob handler
// lookups and --help-style listings.
func Classes() []string {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	return names
}
