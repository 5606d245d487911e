// Package config provides functionality for loading console configuration
// parameters from an optional config file and the environment using the
// Viper library. It defines terminal behavior, prompt appearance, completion
// and logging settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// LARKSHELL_PROMPT_THEME overrides prompt.theme.
const EnvPrefix = "LARKSHELL"

// Config holds all configurable settings for the console.
type Config struct {
	Terminal   Terminal   `mapstructure:"terminal"`   // Terminal-related settings
	Prompt     Prompt     `mapstructure:"prompt"`     // Prompt appearance settings
	Completion Completion `mapstructure:"completion"` // Completion key settings
	Log        Log        `mapstructure:"log"`        // Logger settings
}

// Terminal defines settings related to terminal behavior: in-memory history
// size, the text echoed on Ctrl-C, and the messages printed when the session
// starts and ends.
type Terminal struct {
	HistoryLimit    int    `mapstructure:"history_limit"`    // Maximum number of history entries
	InterruptPrompt string `mapstructure:"interrupt_prompt"` // Text shown on Ctrl-C
	ExitMessage     string `mapstructure:"exit_message"`     // Text shown on EOF/exit
	Banner          string `mapstructure:"banner"`           // Text shown before the first prompt
}

// Prompt defines the prompt strings and the colours used for prompts and
// diagnostics.
type Prompt struct {
	Primary          string `mapstructure:"primary"`            // Prompt for a new statement
	Continuation     string `mapstructure:"continuation"`       // Prompt inside a compound statement
	Theme            string `mapstructure:"theme"`              // Theme name
	PromptColour     string `mapstructure:"prompt_colour"`      // Colour for prompts
	PromptColourBold bool   `mapstructure:"prompt_colour_bold"` // Bold style for prompts
	ErrorColour      string `mapstructure:"error_colour"`       // Colour for diagnostics
	ErrorColourBold  bool   `mapstructure:"error_colour_bold"`  // Bold style for diagnostics
}

// Completion selects the key that triggers completion. An empty Key keeps
// the platform profile's key.
type Completion struct {
	Key string `mapstructure:"key"`
}

// Log configures the stderr logger.
type Log struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a file named "larkshell" in the current
// directory or in $HOME/.config/larkshell, with LARKSHELL_* environment
// overrides. A missing file is not an error: the defaults are returned.
func Load() (*Config, error) {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "larkshell"))
	}
	return LoadFrom(paths...)
}

// LoadFrom is Load with an explicit list of search directories. On failure
// it returns the defaults together with the error.
func LoadFrom(paths ...string) (*Config, error) {

	v := viper.New()
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetConfigName("larkshell")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Default(), fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return Default(), fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible default settings. It is used
// as a fallback when loading a configuration file fails.
func Default() *Config {

	cfg := new(Config)

	cfg.Terminal.HistoryLimit = 1000
	cfg.Terminal.InterruptPrompt = "^C"
	cfg.Terminal.ExitMessage = "now exiting larkshell..."
	cfg.Terminal.Banner = `larkshell (Starlark). Type "exit()" or press Ctrl-D to leave.`

	cfg.Prompt.Primary = ">>> "
	cfg.Prompt.Continuation = "... "
	cfg.Prompt.Theme = "larkshell"
	cfg.Prompt.PromptColour = "green"
	cfg.Prompt.PromptColourBold = false
	cfg.Prompt.ErrorColour = "red"
	cfg.Prompt.ErrorColourBold = false

	cfg.Log.Level = "warn"

	return cfg
}

// setDefaults registers every field of cfg with v, which both fills keys a
// partial file leaves out and makes AutomaticEnv aware of each key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("terminal.history_limit", cfg.Terminal.HistoryLimit)
	v.SetDefault("terminal.interrupt_prompt", cfg.Terminal.InterruptPrompt)
	v.SetDefault("terminal.exit_message", cfg.Terminal.ExitMessage)
	v.SetDefault("terminal.banner", cfg.Terminal.Banner)
	v.SetDefault("prompt.primary", cfg.Prompt.Primary)
	v.SetDefault("prompt.continuation", cfg.Prompt.Continuation)
	v.SetDefault("prompt.theme", cfg.Prompt.Theme)
	v.SetDefault("prompt.prompt_colour", cfg.Prompt.PromptColour)
	v.SetDefault("prompt.prompt_colour_bold", cfg.Prompt.PromptColourBold)
	v.SetDefault("prompt.error_colour", cfg.Prompt.ErrorColour)
	v.SetDefault("prompt.error_colour_bold", cfg.Prompt.ErrorColourBold)
	v.SetDefault("completion.key", cfg.Completion.Key)
	v.SetDefault("log.level", cfg.Log.Level)
}
