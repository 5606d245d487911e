// Package painter provides functionality to render coloured and styled
// text for the console's prompts and diagnostics. It supports prompt and
// error colouring with optional bold formatting and can apply pre-defined
// themes. Colours are resolved against the terminal's termenv profile, so
// NO_COLOR and dumb terminals get plain text.
package painter

import (
	"strings"

	"github.com/muesli/termenv"

	"Larkshell/internal/config"
)

// Painter holds styling information for prompts and diagnostics.
type Painter struct {
	PromptColour string // termenv colour: ANSI index or #rrggbb
	PromptBold   bool   // Whether prompts should be bold
	ErrorColour  string // termenv colour: ANSI index or #rrggbb
	ErrorBold    bool   // Whether diagnostics should be bold

	profile termenv.Profile
}

// NewPainter creates a new Painter for the terminal's colour profile based
// on the provided config.Prompt. A named theme overrides the colours below.
func NewPainter(cfg config.Prompt) Painter {
	return NewPainterWithProfile(cfg, termenv.EnvColorProfile())
}

// NewPainterWithProfile is NewPainter for an explicit colour profile.
func NewPainterWithProfile(cfg config.Prompt, profile termenv.Profile) Painter {
	resolveTheme(&cfg)
	return Painter{
		PromptColour: resolveColor(cfg.PromptColour),
		PromptBold:   cfg.PromptColourBold,
		ErrorColour:  resolveColor(cfg.ErrorColour),
		ErrorBold:    cfg.ErrorColourBold,
		profile:      profile,
	}
}

// Plain returns a Painter that never styles text.
func Plain() Painter {
	return Painter{profile: termenv.Ascii}
}

// resolveTheme applies a predefined theme to the provided Prompt config.
// Unknown names and "custom" keep the configured colours.
func resolveTheme(cfg *config.Prompt) {

	theme := strings.TrimSpace(cfg.Theme)
	if theme == "" {
		return
	}

	switch strings.ToLower(theme) {
	case "none":
		setNone(cfg)
	case "larkshell":
		setLarkshell(cfg)
	case "monokai":
		setMonokai(cfg)
	case "solarized":
		setSolarized(cfg)
	}

}

// setNone disables colours and bold styling.
func setNone(cfg *config.Prompt) {

	cfg.PromptColour = ""
	cfg.PromptColourBold = false
	cfg.ErrorColour = ""
	cfg.ErrorColourBold = false

}

// setLarkshell applies the default larkshell theme.
func setLarkshell(cfg *config.Prompt) {

	cfg.PromptColour = "green"
	cfg.PromptColourBold = false
	cfg.ErrorColour = "red"
	cfg.ErrorColourBold = false

}

// setMonokai applies the Monokai theme.
func setMonokai(cfg *config.Prompt) {

	cfg.PromptColour = "#a6e22e"
	cfg.PromptColourBold = true
	cfg.ErrorColour = "#f92672"
	cfg.ErrorColourBold = false

}

// setSolarized applies the Solarized theme.
func setSolarized(cfg *config.Prompt) {

	cfg.PromptColour = "#268bd2"
	cfg.PromptColourBold = false
	cfg.ErrorColour = "#dc322f"
	cfg.ErrorColourBold = true

}

// resolveColor converts a colour name into an ANSI index understood by
// termenv. Hex values and indexes are returned unchanged.
func resolveColor(colour string) string {

	colour = strings.TrimSpace(colour)
	if colour == "" {
		return ""
	}

	switch strings.ToLower(colour) {
	case "default":
		return ""
	case "black":
		return "0"
	case "red":
		return "1"
	case "green":
		return "2"
	case "yellow":
		return "3"
	case "blue":
		return "4"
	case "magenta":
		return "5"
	case "cyan":
		return "6"
	case "white":
		return "7"
	case "bright yellow":
		return "11"
	case "bright blue":
		return "12"
	default:
		return colour
	}

}

// Paint applies the provided bold and colour settings to the given text
// and returns the formatted string with ANSI escape sequences.
func (p Painter) Paint(bold bool, colour string, text string) string {
	if p.profile == termenv.Ascii || (!bold && colour == "") {
		return text
	}
	style := termenv.String(text)
	if colour != "" {
		style = style.Foreground(p.profile.Color(colour))
	}
	if bold {
		style = style.Bold()
	}
	return style.String()
}

// Prompt paints a prompt string.
func (p Painter) Prompt(text string) string {
	return p.Paint(p.PromptBold, p.PromptColour, text)
}

// Error paints a diagnostic.
func (p Painter) Error(text string) string {
	return p.Paint(p.ErrorBold, p.ErrorColour, text)
}
