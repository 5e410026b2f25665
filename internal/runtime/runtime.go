package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mlhub-labs/mlhub/internal/logging"
)

// Interpreters for package scripts.
var (
	BashCmd    = "/bin/bash"
	RscriptCmd = "/usr/bin/Rscript"
	PythonCmd  = "python3"
)

var (
	// ErrUnsupportedScriptExtension is returned for scripts that are not
	// .sh, .R or .py.
	ErrUnsupportedScriptExtension = errors.New("unsupported script extension")

	// ErrCommandNotFound is returned when a model does not provide the
	// requested command.
	ErrCommandNotFound = errors.New("command not found")

	// ErrDataResourceNotFound is returned when a script reports missing data.
	ErrDataResourceNotFound = errors.New("data resource not found")
)

// Output captures the result of a script execution.
type Output struct {
	ExitCode int
	Stderr   string
}

// ScriptError is a script failure that matched no known pattern.
type ScriptError struct {
	ExitCode int
	Stderr   string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.ExitCode)
}

// Runner executes package scripts, streaming their output.
type Runner struct {
	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// logger prefers the explicit Logger and otherwise uses the one the
// command attached to ctx.
func (r *Runner) logger(ctx context.Context) *log.Logger {
	if r.Logger == nil {
		return logging.FromContext(ctx)
	}
	return r.Logger
}

// Interpreter returns the command line prefix running script, and any
// environment it needs. python overrides the default Python interpreter.
func Interpreter(script, pkgDir, python string) ([]string, []string, error) {
	switch ext := filepath.Ext(script); ext {
	case ".sh":
		return []string{BashCmd}, nil, nil
	case ".R":
		return []string{RscriptCmd}, []string{"R_LIBS=" + filepath.Join(pkgDir, "R")}, nil
	case ".py":
		if python == "" {
			python = PythonCmd
		}
		return []string{python}, nil, nil
	default:
		return nil, nil, fmt.Errorf("'%s': %w", ext, ErrUnsupportedScriptExtension)
	}
}

// exec runs argv in dir with env, streaming stdout and stderr while
// capturing stderr. A non-zero exit is reported through Output.
func (r *Runner) exec(ctx context.Context, argv []string, dir string, env []string) (*Output, error) {
	r.logger(ctx).Debug("run script", "cmd", strings.Join(argv, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env

	stdin, stdout, stderr := r.Stdin, r.Stdout, r.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var stderrBuf bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)

	err := cmd.Run()
	out := &Output{Stderr: stderrBuf.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			r.logger(ctx).Debug("script failed", "exit", out.ExitCode)
			return out, nil
		}
		return out, fmt.Errorf("executing %s: %w", argv[0], err)
	}
	return out, nil
}

// setEnv sets or replaces an environment variable in the env slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

// mergeEnv applies KEY=VALUE pairs to env.
func mergeEnv(env []string, pairs []string) []string {
	for _, p := range pairs {
		if k, v, ok := strings.Cut(p, "="); ok {
			env = setEnv(env, k, v)
		}
	}
	return env
}
