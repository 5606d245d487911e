// Package namespace builds the execution namespace a console evaluates
// statements against.
package namespace

import (
	"sort"

	"go.starlark.net/starlark"
)

// New merges globals and locals into a fresh mapping. A local shadows a
// global of the same name. Neither argument is retained or modified.
func New(globals, locals starlark.StringDict) starlark.StringDict {
	ns := make(starlark.StringDict, len(globals)+len(locals))
	for name, value := range globals {
		ns[name] = value
	}
	for name, value := range locals {
		ns[name] = value
	}
	return ns
}

// Names returns the names bound in ns, sorted.
func Names(ns starlark.StringDict) []string {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
