package larkshell

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"go.starlark.net/starlark"

	"Larkshell/internal/builtin"
	"Larkshell/internal/logging"
)

// scriptedReader replays lines, then reports end of input. An entry equal
// to interruptLine is reported as Ctrl-C.
type scriptedReader struct {
	lines   []string
	prompts []string
	fail    error
}

const interruptLine = "\x03"

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		if r.fail != nil {
			return "", r.fail
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == interruptLine {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

type transcript struct {
	console *Console
	reader  *scriptedReader
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	code    int
}

func newConsole(t *testing.T, platform string) (*Console, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := New(Options{
		Globals:  builtin.Globals(),
		Locals:   builtin.Locals(),
		Platform: platform,
		Stdout:   &stdout,
		Stderr:   &stderr,
	})
	return c, &stdout, &stderr
}

func interact(t *testing.T, lines ...string) *transcript {
	t.Helper()
	c, stdout, stderr := newConsole(t, "linux")
	s := &transcript{console: c, reader: &scriptedReader{lines: lines}}
	s.code = c.Interact(s.reader)
	s.stdout = *stdout
	s.stderr = *stderr
	return s
}

// results returns stdout without the platform message.
func (s *transcript) results() []string {
	out := strings.TrimPrefix(s.stdout.String(), "use linux...\n")
	out = strings.TrimSuffix(out, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestInteract_ExpressionResultAndUnderscore(t *testing.T) {
	s := interact(t, "2 + 2", "_")

	assert.Equal(t, 0, s.code)
	assert.Equal(t, []string{"4", "4"}, s.results())
	assert.Empty(t, s.stderr.String())
}

func TestInteract_NamespacePersists(t *testing.T) {
	s := interact(t, "x = 5", "x")

	assert.Equal(t, []string{"5"}, s.results())
	assert.Equal(t, starlark.MakeInt(5), s.console.Namespace()["x"])
}

func TestInteract_ErrorDoesNotEndSession(t *testing.T) {
	s := interact(t, "x = 1", "y", "x + 1")

	assert.Equal(t, 0, s.code)
	assert.Contains(t, s.stderr.String(), "undefined: y")
	assert.Equal(t, []string{"2"}, s.results())

	_, bound := s.console.Namespace()["y"]
	assert.False(t, bound)
}

func TestInteract_RuntimeErrorPrintsBacktrace(t *testing.T) {
	s := interact(t, "1 // 0", "3")

	assert.Contains(t, s.stderr.String(), "Traceback")
	assert.Contains(t, s.stderr.String(), "division by zero")
	assert.Equal(t, []string{"3"}, s.results())
}

func TestInteract_SyntaxErrorDoesNotEndSession(t *testing.T) {
	s := interact(t, "1 +", "7")

	assert.NotEmpty(t, s.stderr.String())
	assert.Equal(t, []string{"7"}, s.results())
}

func TestInteract_NoneIsNotEchoed(t *testing.T) {
	s := interact(t, "None", `print("hi")`)

	assert.Equal(t, []string{"hi"}, s.results())
	_, bound := s.console.Namespace()["_"]
	assert.False(t, bound)
}

func TestInteract_StringEchoIsRepr(t *testing.T) {
	s := interact(t, `"a" + "b"`)
	assert.Equal(t, []string{`"ab"`}, s.results())
}

func TestInteract_CompoundStatement(t *testing.T) {
	s := interact(t,
		"def double(n):",
		"    return n * 2",
		"",
		"double(21)",
	)

	assert.Empty(t, s.stderr.String())
	assert.Equal(t, []string{"42"}, s.results())
	assert.Contains(t, s.reader.prompts, "... ")
}

func TestInteract_TopLevelLoop(t *testing.T) {
	s := interact(t,
		"total = 0",
		"for i in range(4):",
		"    total += i",
		"",
		"total",
	)

	assert.Empty(t, s.stderr.String())
	assert.Equal(t, []string{"6"}, s.results())
}

func TestInteract_ExpressionInsideBlockIsNotEchoed(t *testing.T) {
	s := interact(t,
		"for i in range(2):",
		"    i",
		"",
		"3",
	)

	assert.Empty(t, s.stderr.String())
	assert.Equal(t, []string{"3"}, s.results())
	assert.Equal(t, starlark.MakeInt(3), s.console.Namespace()["_"])
}

func TestInteract_EndOfInputPrintsNoFurtherPrompt(t *testing.T) {
	s := interact(t, "1")

	assert.Equal(t, 0, s.code)
	// one primary prompt per read attempt, one continuation after each line
	assert.Equal(t, []string{">>> ", "... ", ">>> ", "... "}, s.reader.prompts)
}

func TestInteract_Exit(t *testing.T) {
	s := interact(t, "x = 1", "exit(3)", "x = 2")

	assert.Equal(t, 3, s.code)
	assert.Equal(t, starlark.MakeInt(1), s.console.Namespace()["x"])
	assert.Equal(t, []string{"x = 2"}, s.reader.lines)
}

func TestInteract_QuitWithMessage(t *testing.T) {
	s := interact(t, `quit("bye")`)

	assert.Equal(t, 1, s.code)
	assert.Equal(t, "bye\n", s.stderr.String())
}

func TestInteract_ExitAsExpression(t *testing.T) {
	s := interact(t, "exit()")
	assert.Equal(t, 0, s.code)
	assert.Empty(t, s.stderr.String())
}

func TestInteract_InterruptDiscardsInput(t *testing.T) {
	s := interact(t, "def f():", interruptLine, "5")

	assert.Equal(t, 0, s.code)
	assert.Contains(t, s.stderr.String(), "KeyboardInterrupt")
	assert.Equal(t, []string{"5"}, s.results())
	_, bound := s.console.Namespace()["f"]
	assert.False(t, bound)
}

func TestInteract_ReaderFailureEndsSession(t *testing.T) {
	c, _, _ := newConsole(t, "linux")
	code := c.Interact(&scriptedReader{fail: errors.New("tty gone")})
	assert.Equal(t, 1, code)
}

func TestInteract_BannerAndExitMessage(t *testing.T) {
	var stdout bytes.Buffer
	c := New(Options{Platform: "linux", Stdout: &stdout, Stderr: io.Discard, Banner: "hello", ExitMessage: "bye"})

	c.Interact(&scriptedReader{})

	assert.Equal(t, "use linux...\nhello\nbye\n", stdout.String())
}

func TestInteract_PlatformMessages(t *testing.T) {
	tests := []struct {
		platform string
		want     string
	}{
		{platform: "linux", want: "use linux..."},
		{platform: "darwin", want: "use darwin..."},
		{platform: "windows"},
		{platform: "freebsd"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			c, stdout, _ := newConsole(t, tt.platform)

			code := c.Interact(&scriptedReader{lines: []string{"1 + 1"}})
			out := stdout.String()

			assert.Equal(t, 0, code)
			assert.Contains(t, out, "2\n")
			if tt.want == "" {
				assert.NotContains(t, out, "use linux...")
				assert.NotContains(t, out, "use darwin...")
				return
			}
			assert.Equal(t, 1, strings.Count(out, tt.want))
		})
	}
}

func TestInteract_UnknownPlatformLogsFallback(t *testing.T) {
	var logs bytes.Buffer
	c := New(Options{
		Platform: "plan9",
		Stdout:   io.Discard,
		Stderr:   io.Discard,
		Logger:   logging.NewWriter(&logs, slog.LevelWarn),
	})

	c.Interact(&scriptedReader{})

	assert.Equal(t, "fallback", c.Binding().Platform)
	assert.Contains(t, logs.String(), "platform=plan9")
}

func TestNew_KeyOverride(t *testing.T) {
	key := rune(24)
	c := New(Options{Platform: "linux", Key: &key})

	assert.Equal(t, "linux", c.Binding().Platform)
	assert.Equal(t, rune(24), c.Binding().Key)
}

func TestNew_InjectedBindings(t *testing.T) {
	c := New(Options{
		Globals: starlark.StringDict{"answer": starlark.MakeInt(41), "shared": starlark.String("global")},
		Locals:  starlark.StringDict{"shared": starlark.String("local")},
	})

	assert.Equal(t, starlark.String("local"), c.Namespace()["shared"])
	assert.Equal(t, []string{"answer"}, c.Completer().Complete("answ"))
}

func TestCompleter_SeesSessionBindings(t *testing.T) {
	s := interact(t, "zebra_count = 3")
	assert.Equal(t, []string{"zebra_count"}, s.console.Completer().Complete("zeb"))
}

func TestInterrupt_NothingRunning(t *testing.T) {
	c, _, _ := newConsole(t, "linux")
	assert.False(t, c.interrupt())
}

func TestInterrupt_CancelsRunningLoop(t *testing.T) {
	c, stdout, stderr := newConsole(t, "linux")
	c.Namespace()["x"] = starlark.MakeInt(0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for !c.interrupt() {
			time.Sleep(time.Millisecond)
		}
	}()

	code := c.Interact(&scriptedReader{lines: []string{
		"while True:",
		"    x += 1",
		"",
		"1 + 1",
	}})
	<-done

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "cancelled: KeyboardInterrupt")
	assert.Equal(t, "use linux...\n2\n", stdout.String())
}
