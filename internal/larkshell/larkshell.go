// Package larkshell contains the interactive console loop and the boot
// logic for the larkshell project. It wires together configuration, the
// readline-based terminal, the namespace-aware completer, the platform key
// binding, Starlark evaluation and interrupt handling.
package larkshell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/chzyer/readline"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"Larkshell/internal/builtin"
	"Larkshell/internal/completer"
	"Larkshell/internal/keybind"
	"Larkshell/internal/logging"
	"Larkshell/internal/namespace"
	"Larkshell/internal/painter"
	"Larkshell/internal/prompt"
)

// LineReader reads one line of user input at a time. *readline.Instance
// satisfies it. Readline returns io.EOF at end of input and
// readline.ErrInterrupt when the user presses Ctrl-C.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Options configures a Console. Nil writers default to os.Stdout and
// os.Stderr.
type Options struct {
	Globals     starlark.StringDict // launcher's global bindings
	Locals      starlark.StringDict // launcher's local bindings, shadowing Globals
	Platform    string              // runtime.GOOS when empty
	Key         *rune               // overrides the platform profile's key
	Stdout      io.Writer           // messages and results
	Stderr      io.Writer           // diagnostics
	Painter     painter.Painter     // styles diagnostics
	Prompts     prompt.Prompts      // default prompts when zero
	Banner      string              // printed after the platform message
	ExitMessage string              // printed when the session ends
	Logger      *slog.Logger        // no-op when nil
}

type loadFunc func(thread *starlark.Thread, module string) (starlark.StringDict, error)

// Console holds the runtime state of one interactive session: the execution
// namespace, the completer bound to it, the completion key binding, and the
// Starlark thread running the current statement.
type Console struct {
	mu          sync.Mutex           // protects current
	current     *starlark.Thread     // thread evaluating the current chunk, nil at the prompt
	namespace   starlark.StringDict  // execution namespace, mutated by every chunk
	completer   *completer.Completer // bound to namespace
	binding     keybind.Binding      // completion key profile
	known       bool                 // false when binding is the fallback profile
	platform    string               // platform the binding was resolved for
	fileOptions *syntax.FileOptions  // dialect for parsing and evaluation
	load        loadFunc             // load() handler shared by every chunk
	prompts     prompt.Prompts       // primary and continuation prompts
	painter     painter.Painter      // styles diagnostics
	stdout      io.Writer            // messages and results
	stderr      io.Writer            // diagnostics
	banner      string               // printed after the platform message
	exitMessage string               // printed when the session ends
	logger      *slog.Logger         // boot and platform warnings
}

// New builds a Console from opts. It merges the initial bindings into a
// fresh namespace, binds a completer to it and resolves the key binding
// profile for the platform.
func New(opts Options) *Console {

	platform := opts.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	binding, known := keybind.Resolve(platform)
	if opts.Key != nil {
		binding = binding.WithKey(*opts.Key)
	}

	ns := namespace.New(opts.Globals, opts.Locals)

	c := &Console{
		namespace: ns,
		completer: completer.NewCompleter(ns),
		binding:   binding,
		known:     known,
		platform:  platform,
		fileOptions: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		load:        repl.MakeLoad(),
		prompts:     opts.Prompts,
		painter:     opts.Painter,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		banner:      opts.Banner,
		exitMessage: opts.ExitMessage,
		logger:      opts.Logger,
	}

	if c.prompts == (prompt.Prompts{}) {
		c.prompts = prompt.Prompts{Primary: prompt.DefaultPrimary, Continuation: prompt.DefaultContinuation}
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	return c

}

// Namespace returns the live execution namespace.
func (c *Console) Namespace() starlark.StringDict {
	return c.namespace
}

// Completer returns the completer bound to the namespace.
func (c *Console) Completer() *completer.Completer {
	return c.completer
}

// Binding returns the completion key binding in use.
func (c *Console) Binding() keybind.Binding {
	return c.binding
}

// Interact prints the startup messages, then repeatedly reads a chunk from
// reader, evaluates it and prints its result or error. It returns only when
// the input ends (code 0), the user calls exit or quit (their code) or the
// reader fails (code 1).
func (c *Console) Interact(reader LineReader) int {

	c.announce()

	for {

		reader.SetPrompt(c.prompts.Primary)

		chunk, err := c.readChunk(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.farewell()
				return 0
			} else if errors.Is(err, readline.ErrInterrupt) {
				fmt.Fprintln(c.stderr, c.painter.Error("KeyboardInterrupt"))
				continue
			}
			var failed *readError
			if errors.As(err, &failed) {
				c.logger.Error("reading input failed", "error", failed.err)
				return 1
			}
			c.reportErrors(err)
			continue
		}

		if code, exited := c.runChunk(chunk); exited {
			c.farewell()
			return code
		}

	}

}

// announce writes the platform message and the banner. An unknown platform
// prints neither platform message; it is logged instead.
func (c *Console) announce() {

	if !c.known {
		c.logger.Warn("no completion key profile for platform, binding tab",
			"platform", c.platform, "directive", c.binding.Directive)
	}

	if c.binding.Message != "" {
		fmt.Fprintln(c.stdout, c.binding.Message)
	}
	if c.banner != "" {
		fmt.Fprintln(c.stdout, c.banner)
	}

}

// farewell writes the exit message, if any.
func (c *Console) farewell() {
	if c.exitMessage != "" {
		fmt.Fprintln(c.stdout, c.exitMessage)
	}
}

// readError is a failure of the line reader itself, which ends the session.
type readError struct {
	err error
}

func (e *readError) Error() string { return "larkshell: read: " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// readChunk reads lines until they form a complete statement. The
// continuation prompt is shown after the first line. End of input and
// Ctrl-C are reported as io.EOF and readline.ErrInterrupt even when the
// parser saw them mid-statement.
func (c *Console) readChunk(reader LineReader) (*syntax.File, error) {

	var eof, interrupted bool
	var failure error

	next := func() ([]byte, error) {
		line, err := reader.Readline()
		reader.SetPrompt(c.prompts.Continuation)
		if err != nil {
			if errors.Is(err, io.EOF) {
				eof = true
			} else if errors.Is(err, readline.ErrInterrupt) {
				interrupted = true
			} else {
				failure = err
			}
			return nil, err
		}
		return []byte(line + "\n"), nil
	}

	f, err := c.fileOptions.ParseCompoundStmt("<stdin>", next)

	switch {
	case eof:
		return nil, io.EOF
	case interrupted:
		return nil, readline.ErrInterrupt
	case failure != nil:
		return nil, &readError{err: failure}
	case err != nil:
		return nil, err
	}

	return f, nil

}

// runChunk evaluates f against the namespace on a fresh thread. A sole
// expression statement has its value printed and bound to "_" unless it is
// None. It reports whether the chunk asked to end the session.
func (c *Console) runChunk(f *syntax.File) (int, bool) {

	thread := c.newThread()

	c.mu.Lock()
	c.current = thread
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.current = nil
		c.mu.Unlock()
	}()

	var err error
	if expr := soleExpr(f); expr != nil {
		var v starlark.Value
		v, err = starlark.EvalExprOptions(c.fileOptions, thread, expr, c.namespace)
		if err == nil && v != starlark.None {
			fmt.Fprintln(c.stdout, v)
			c.namespace["_"] = v
		}
	} else {
		err = starlark.ExecREPLChunk(f, thread, c.namespace)
	}

	if req, ok := builtin.ExitRequested(thread); ok {
		if req.Message != "" {
			fmt.Fprintln(c.stderr, req.Message)
		}
		return req.Code, true
	}

	c.reportErrors(err)
	return 0, false

}

// newThread returns a Starlark thread whose print writes to stdout and
// whose load resolves modules through the console's shared loader.
func (c *Console) newThread() *starlark.Thread {
	return &starlark.Thread{
		Name: "larkshell",
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(c.stdout, msg)
		},
		Load: c.load,
	}
}

// interrupt cancels the statement being evaluated, if any. It reports
// whether a statement was running.
func (c *Console) interrupt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return false
	}
	c.current.Cancel("KeyboardInterrupt")
	return true
}

// reportErrors prints the provided error to stderr if it is non-nil.
// Evaluation errors are printed with their Starlark backtrace.
func (c *Console) reportErrors(err error) {
	if err == nil {
		return
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		fmt.Fprintln(c.stderr, c.painter.Error(evalErr.Backtrace()))
		return
	}
	fmt.Fprintln(c.stderr, c.painter.Error(err.Error()))
}

// soleExpr returns the expression of a chunk made of a single expression
// statement, or nil.
func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) == 1 {
		if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
			return stmt.X
		}
	}
	return nil
}
