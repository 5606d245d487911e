// Package builtin implements the ambient bindings a console session starts
// with: exit and quit, and an "os" module exposing the launcher's process
// environment (cd, pwd, getenv, ps).
package builtin

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	ps "github.com/mitchellh/go-ps"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// exitKey is the thread-local key under which exit records its request.
const exitKey = "larkshell.exit"

// ErrExit is returned by exit and quit to unwind the running statement.
var ErrExit = errors.New("exit requested")

// Globals returns the bindings of the launcher's global scope.
func Globals() starlark.StringDict {
	return starlark.StringDict{
		"exit": starlark.NewBuiltin("exit", exit),
		"quit": starlark.NewBuiltin("quit", exit),
		"os":   osModule(),
	}
}

// Locals returns the bindings of the launcher's own frame.
func Locals() starlark.StringDict {
	return starlark.StringDict{
		"__name__": starlark.String("__main__"),
	}
}

// Exit is a session end requested by exit or quit.
type Exit struct {
	Code    int    // process exit code
	Message string // printed to stderr before leaving, if not empty
}

// ExitRequested reports the Exit recorded on thread, if any.
func ExitRequested(thread *starlark.Thread) (Exit, bool) {
	req, ok := thread.Local(exitKey).(Exit)
	return req, ok
}

// exit implements exit(code=0). An int is the exit code, None means 0, a
// bool means 1 or 0, and any other value becomes the exit message with
// code 1.
func exit(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	var arg starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "code?", &arg); err != nil {
		return nil, err
	}

	var req Exit
	switch v := arg.(type) {
	case starlark.NoneType:
	case starlark.Bool:
		if v {
			req.Code = 1
		}
	case starlark.Int:
		n, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("%s: code %v out of range", b.Name(), v)
		}
		req.Code = int(n)
	case starlark.String:
		req.Code, req.Message = 1, string(v)
	default:
		req.Code, req.Message = 1, v.String()
	}

	thread.SetLocal(exitKey, req)
	return nil, ErrExit

}

// osModule builds the "os" module.
func osModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "os",
		Members: starlark.StringDict{
			"platform": starlark.String(runtime.GOOS),
			"arch":     starlark.String(runtime.GOARCH),
			"pid":      starlark.MakeInt(os.Getpid()),
			"cd":       starlark.NewBuiltin("cd", changeDirectory),
			"pwd":      starlark.NewBuiltin("pwd", printWorkingDirectory),
			"getenv":   starlark.NewBuiltin("getenv", getenv),
			"ps":       starlark.NewBuiltin("ps", processStatus),
		},
	}
}

// changeDirectory implements cd(path="~"). "~" and a missing path go to the
// home directory.
func changeDirectory(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	dir := "~"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path?", &dir); err != nil {
		return nil, err
	}

	if dir == "~" || dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cd: %w", err)
		}
		dir = home
	}

	if err := os.Chdir(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cd: %s: Not a directory", dir)
		}
		return nil, fmt.Errorf("cd: %w", err)
	}

	return starlark.None, nil

}

// printWorkingDirectory implements pwd(), returning the current directory.
func printWorkingDirectory(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("pwd: failed to get absolute path name: %w", err)
	}
	return starlark.String(dir), nil
}

// getenv implements getenv(name, default=None).
func getenv(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	var name string
	var fallback starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "default?", &fallback); err != nil {
		return nil, err
	}

	if value, ok := os.LookupEnv(name); ok {
		return starlark.String(value), nil
	}
	return fallback, nil

}

// processStatus implements ps(), returning one struct per process with
// pid, ppid and executable fields, ordered as the OS reports them.
func processStatus(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}

	processes, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("ps: failed to get process list: %w", err)
	}

	entries := make([]starlark.Value, 0, len(processes))
	for _, process := range processes {
		entries = append(entries, starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
			"pid":        starlark.MakeInt(process.Pid()),
			"ppid":       starlark.MakeInt(process.PPid()),
			"executable": starlark.String(process.Executable()),
		}))
	}

	return starlark.NewList(entries), nil

}
