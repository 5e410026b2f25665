package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/mlhub-labs/mlhub/internal/deps"
	"github.com/mlhub-labs/mlhub/internal/registry"
	"github.com/mlhub-labs/mlhub/internal/runtime"
)

// errDisplayUnavailable is returned when a command needing a graphic
// display is not continued.
var errDisplayUnavailable = errors.New("graphic display is not available")

const displayHint = `
To enable DISPLAY be sure to connect to the server using 'ssh -X'
or else connect to the server's desktop using a local X server like X2Go.`

// Error is a failure as reported to the user: the cause prefixed with the
// application name, followed by a remedy when one is known.
type Error struct {
	Err  error
	Hint string
	// Code is the process exit status.
	Code int
}

func (e *Error) Error() string {
	msg := branding.AppName() + ": " + e.message()
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) message() string {
	var se *runtime.ScriptError
	if errors.As(e.Err, &se) {
		return "An error was encountered:\n\n" + strings.TrimRight(se.Stderr, "\n")
	}
	return e.Err.Error()
}

// ExitCode returns the exit status for err.
func ExitCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return 1
}

// explain turns a command failure into an Error with a remedy. model is
// the model the command worked on, if any.
func explain(err error, model string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	e = &Error{Err: err, Code: 1}

	var se *runtime.ScriptError
	switch {
	case errors.As(err, &se):
		e.Code = se.ExitCode
	case errors.Is(err, registry.ErrModelNotInstalled):
		e.Hint = suggestion("install", model)
	case errors.Is(err, registry.ErrModelNotFoundOnRepo):
		e.Hint = suggestion("available", "")
	case errors.Is(err, deps.ErrLackDependency):
		e.Hint = suggestion("configure", model)
	case errors.Is(err, errDisplayUnavailable):
		e.Hint = displayHint
	}
	return e
}

// wrapErrors decorates every RunE in the tree so that failures reach fang
// already explained.
func wrapErrors(c *cobra.Command) {
	if c.RunE != nil {
		runE := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			if err := runE(cmd, args); err != nil {
				sess.logger.Error("command failed", "cmd", cmd.Name(), "err", err)
				return explain(err, modelArg(cmd, args))
			}
			return nil
		}
	}
	for _, sub := range c.Commands() {
		wrapErrors(sub)
	}
}

// modelArg returns the model a command was given.
func modelArg(cmd *cobra.Command, args []string) string {
	switch {
	case cmd == modelCmd && len(args) > 1:
		return args[1]
	case cmd != modelCmd && len(args) > 0 && cmd.Annotations[annotationModel] != "":
		return args[0]
	}
	return ""
}

// printError is the fang error handler.
func printError(w io.Writer, _ fang.Styles, err error) {
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintln(w, errorStyle.Render(branding.AppName()+":"), err)
		return
	}
	msg := errorStyle.Render(branding.AppName()+":") + " " + e.message()
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	fmt.Fprintln(w, msg)
}
