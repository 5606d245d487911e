// Package keybind maps the host platform to the key that triggers
// completion and the message announcing which profile is in use.
package keybind

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// Binding is the completion key profile for one platform family.
type Binding struct {
	Platform  string // family name: "linux", "darwin" or "fallback"
	Message   string // printed to stdout at startup; empty prints nothing
	Directive string // the readline init directive this profile mirrors
	Key       rune   // key that triggers completion
}

// Fallback is used for platforms without a profile of their own.
var Fallback = Binding{
	Platform:  "fallback",
	Directive: "tab: complete",
	Key:       readline.CharTab,
}

var (
	linux = Binding{
		Platform:  "linux",
		Message:   "use linux...",
		Directive: "tab: complete",
		Key:       readline.CharTab,
	}
	darwin = Binding{
		Platform:  "darwin",
		Message:   "use darwin...",
		Directive: "bind ^I rl_complete",
		Key:       readline.CharTab, // ^I
	}
)

// profiles is keyed by runtime.GOOS.
var profiles = map[string]Binding{
	"linux":   linux,
	"android": linux,
	"darwin":  darwin,
}

// Resolve returns the profile for goos. The boolean is false when goos has
// no profile and Fallback was returned.
func Resolve(goos string) (Binding, bool) {
	b, ok := profiles[goos]
	if !ok {
		return Fallback, false
	}
	return b, true
}

// WithKey returns a copy of b triggered by key instead.
func (b Binding) WithKey(key rune) Binding {
	b.Key = key
	return b
}

// Filter returns a readline FuncFilterInputRune that turns the bound key
// into the completion trigger. Tab itself is always passed through, so it
// keeps completing when another key is bound. Rune 0 is readline's end of
// input marker and is never remapped.
func (b Binding) Filter() func(rune) (rune, bool) {
	return func(r rune) (rune, bool) {
		if r != 0 && r == b.Key {
			return readline.CharTab, true
		}
		return r, true
	}
}

// reserved are the keys readline needs for itself: end of input, Enter,
// interrupt and delete/EOF.
var reserved = map[rune]string{
	0:                     "end of input",
	readline.CharInterrupt: "interrupt",
	readline.CharDelete:    "delete / end of input",
	readline.CharCtrlJ:     "enter",
	readline.CharEnter:     "enter",
}

// ParseKey parses a key name: "tab", "^X", "ctrl-x" or "C-x". Keys readline
// reserves (Ctrl-Space, Ctrl-C, Ctrl-D, Ctrl-J, Ctrl-M) are rejected.
func ParseKey(name string) (rune, error) {

	key := strings.ToLower(strings.TrimSpace(name))

	switch key {
	case "tab", "\\t":
		return readline.CharTab, nil
	case "ctrl-space", "c-space", "^@":
		return 0, fmt.Errorf("keybind: key %q is reserved for %s", name, reserved[0])
	}

	var letter string
	switch {
	case strings.HasPrefix(key, "ctrl-"):
		letter = strings.TrimPrefix(key, "ctrl-")
	case strings.HasPrefix(key, "c-"):
		letter = strings.TrimPrefix(key, "c-")
	case strings.HasPrefix(key, "^"):
		letter = strings.TrimPrefix(key, "^")
	default:
		return 0, fmt.Errorf("keybind: unknown key %q", name)
	}

	if len(letter) != 1 || letter[0] < 'a' || letter[0] > 'z' {
		return 0, fmt.Errorf("keybind: unknown key %q", name)
	}

	r := rune(letter[0]-'a') + 1
	if use, ok := reserved[r]; ok {
		return 0, fmt.Errorf("keybind: key %q is reserved for %s", name, use)
	}

	return r, nil

}
