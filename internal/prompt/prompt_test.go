package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Larkshell/internal/config"
	"Larkshell/internal/painter"
)

func TestUpdate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		got := Update(painter.Plain(), config.Prompt{})
		assert.Equal(t, Prompts{Primary: DefaultPrimary, Continuation: DefaultContinuation}, got)
	})

	t.Run("configured", func(t *testing.T) {
		got := Update(painter.Plain(), config.Prompt{Primary: "lark> ", Continuation: "....> "})
		assert.Equal(t, "lark> ", got.Primary)
		assert.Equal(t, "....> ", got.Continuation)
	})
}
