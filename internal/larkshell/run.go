package larkshell

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"go.starlark.net/starlark"

	"Larkshell/internal/config"
	"Larkshell/internal/keybind"
	"Larkshell/internal/logging"
	"Larkshell/internal/painter"
	"Larkshell/internal/prompt"
)

// Session is a Console attached to a readline terminal and to the
// process's interrupt signal.
type Session struct {
	console  *Console
	terminal *readline.Instance
	sigCh    chan os.Signal // receives os.Interrupt while a statement runs
	stopCh   chan struct{}  // closed to stop the interrupt handler
}

// Run starts an interactive session seeded with globals and locals and
// blocks until it ends. It returns the process exit code: 0 at end of
// input, the code passed to exit or quit, or 2 when the terminal cannot be
// set up.
func Run(globals, locals starlark.StringDict) int {

	session, err := boot(globals, locals)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	defer session.exit()

	return session.console.Interact(session.terminal)

}

// boot loads configuration (falling back to defaults on error), builds the
// logger, painter and console, creates the readline terminal with the
// console's completer and key binding, and starts the interrupt handler.
func boot(globals, locals starlark.StringDict) (*Session, error) {

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	var key *rune
	if cfg.Completion.Key != "" {
		parsed, err := keybind.ParseKey(cfg.Completion.Key)
		if err != nil {
			logger.Warn("ignoring completion key", "key", cfg.Completion.Key, "error", err)
		} else {
			key = &parsed
		}
	}

	paint := painter.NewPainter(cfg.Prompt)
	prompts := prompt.Update(paint, cfg.Prompt)

	console := New(Options{
		Globals:     globals,
		Locals:      locals,
		Key:         key,
		Painter:     paint,
		Prompts:     prompts,
		Banner:      cfg.Terminal.Banner,
		ExitMessage: cfg.Terminal.ExitMessage,
		Logger:      logger,
	})

	readlineCfg := &readline.Config{
		Prompt:              prompts.Primary,
		HistoryLimit:        cfg.Terminal.HistoryLimit,
		InterruptPrompt:     cfg.Terminal.InterruptPrompt,
		AutoComplete:        console.Completer(),
		FuncFilterInputRune: console.Binding().Filter(),
	}

	terminal, err := readline.NewEx(readlineCfg)
	if err != nil {
		return nil, fmt.Errorf("larkshell: boot: failed to create new terminal instance: %w", err)
	}

	logger.Debug("console ready",
		"platform", console.Binding().Platform,
		"directive", console.Binding().Directive,
		"names", len(console.Namespace()))

	session := &Session{
		console:  console,
		terminal: terminal,
		sigCh:    make(chan os.Signal, 1),
		stopCh:   make(chan struct{}),
	}

	signal.Notify(session.sigCh, os.Interrupt)
	go session.interruptHandler()

	return session, nil

}

// interruptHandler listens for interrupt signals and cancels the statement
// the console is evaluating. At the prompt readline reports Ctrl-C itself,
// so a signal with nothing running is dropped. The goroutine exits when the
// stop channel is closed.
func (session *Session) interruptHandler() {
	for {
		select {
		case <-session.stopCh:
			return
		case <-session.sigCh:
			session.console.interrupt()
		}
	}
}

// exit stops signal delivery, signals the interrupt handler to stop, and
// closes the readline terminal.
func (session *Session) exit() {
	signal.Stop(session.sigCh)
	close(session.stopCh)
	_ = session.terminal.Close()
}
