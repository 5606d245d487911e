// Package completer provides namespace-aware tab completion for the
// console. Suggestions are computed on every key press from the live
// execution namespace, so names bound by earlier statements are offered as
// soon as they exist.
package completer

import (
	"sort"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
)

// keywords are the Starlark reserved words offered alongside names.
var keywords = []string{
	"and", "break", "continue", "def", "elif", "else", "for", "if", "in",
	"lambda", "load", "not", "or", "pass", "return", "while",
}

// Completer adapts an execution namespace to the readline.AutoCompleter
// interface.
type Completer struct {
	namespace starlark.StringDict
}

// NewCompleter returns a Completer bound to namespace. The map is read, never
// written, so later bindings made by the console are visible.
func NewCompleter(namespace starlark.StringDict) *Completer {
	return &Completer{namespace: namespace}
}

// Complete returns the sorted full candidates for text. A bare identifier is
// completed against keywords, namespace names and universe builtins; a dotted
// path is completed against the attributes of the value its head names.
func (c *Completer) Complete(text string) []string {
	if text == "" {
		return nil
	}
	if dot := strings.LastIndexByte(text, '.'); dot >= 0 {
		return c.attrMatches(text[:dot], text[dot+1:])
	}
	return c.globalMatches(text)
}

// Do completes the identifier or dotted path ending at pos. It satisfies the
// readline.AutoCompleter interface: each candidate is returned as the suffix
// still to be typed, along with the length of the typed part. An empty word
// inserts a literal tab so compound statements can be indented.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {

	if pos > len(line) {
		pos = len(line)
	}

	start := pos
	for start > 0 && isWordRune(line[start-1]) {
		start--
	}

	word := string(line[start:pos])
	if word == "" {
		return [][]rune{[]rune("\t")}, 0
	}

	candidates := c.Complete(word)
	suffixes := make([][]rune, 0, len(candidates))
	for _, candidate := range candidates {
		suffixes = append(suffixes, []rune(candidate[len(word):]))
	}

	return suffixes, pos - start

}

// globalMatches collects names with the given prefix from every source,
// without duplicates.
func (c *Completer) globalMatches(prefix string) []string {

	seen := make(map[string]struct{})
	var matches []string

	add := func(name string) {
		if _, dup := seen[name]; dup || !strings.HasPrefix(name, prefix) {
			return
		}
		seen[name] = struct{}{}
		matches = append(matches, name)
	}

	for _, keyword := range keywords {
		add(keyword)
	}
	for name := range c.namespace {
		add(name)
	}
	for name := range starlark.Universe {
		add(name)
	}

	sort.Strings(matches)
	return matches

}

// attrMatches resolves head (which may itself be dotted) and returns
// "head.attr" for each attribute with the given prefix. Private attributes
// are offered only when the prefix asks for them.
func (c *Completer) attrMatches(head, prefix string) []string {

	value, ok := c.resolve(head)
	if !ok {
		return nil
	}

	attrs, ok := value.(starlark.HasAttrs)
	if !ok {
		return nil
	}

	var matches []string
	for _, name := range attrs.AttrNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, "_") && !strings.HasPrefix(prefix, "_") {
			continue
		}
		matches = append(matches, head+"."+name)
	}

	sort.Strings(matches)
	return matches

}

// resolve looks up a dotted path without calling anything.
func (c *Completer) resolve(path string) (starlark.Value, bool) {

	parts := strings.Split(path, ".")

	value, ok := c.namespace[parts[0]]
	if !ok {
		value, ok = starlark.Universe[parts[0]]
	}
	if !ok {
		return nil, false
	}

	for _, part := range parts[1:] {
		attrs, isAttrs := value.(starlark.HasAttrs)
		if !isAttrs {
			return nil, false
		}
		next, err := attrs.Attr(part)
		if err != nil || next == nil {
			return nil, false
		}
		value = next
	}

	return value, true

}

// isWordRune reports whether r can be part of a completable word.
func isWordRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
