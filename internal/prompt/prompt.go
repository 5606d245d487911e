// Package prompt builds the console's two prompts: the primary prompt shown
// before a new statement and the continuation prompt shown while a compound
// statement is still open.
package prompt

import (
	"Larkshell/internal/config"
	"Larkshell/internal/painter"
)

const (
	DefaultPrimary      = ">>> "
	DefaultContinuation = "... "
)

// Prompts holds the painted prompt strings.
type Prompts struct {
	Primary      string
	Continuation string
}

// Update constructs the prompts from cfg, painted with p. Empty prompt
// strings fall back to DefaultPrimary and DefaultContinuation.
func Update(p painter.Painter, cfg config.Prompt) Prompts {

	primary := cfg.Primary
	if primary == "" {
		primary = DefaultPrimary
	}

	continuation := cfg.Continuation
	if continuation == "" {
		continuation = DefaultContinuation
	}

	return Prompts{
		Primary:      p.Prompt(primary),
		Continuation: p.Prompt(continuation),
	}

}
