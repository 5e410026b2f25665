package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// command is an external program run by an installer.
type command struct {
	name string
	args []string
	dir  string
	env  []string
	// stdin is nil for non-interactive commands.
	stdin io.Reader
}

func (c command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// run executes c, streaming output to the installer's writers while
// capturing stderr. A program missing from PATH is ErrLackPrerequisite.
func (in *Installer) run(ctx context.Context, c command) (string, error) {
	bin, err := lookPath(c.name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrLackPrerequisite, c.name)
	}
	in.logger(ctx).Debug("running installer", "cmd", c.String(), "dir", c.dir)

	cmd := exec.CommandContext(ctx, bin, c.args...)
	cmd.Dir = c.dir
	cmd.Env = c.env
	cmd.Stdin = c.stdin

	var stderrBuf bytes.Buffer
	cmd.Stdout = in.out()
	cmd.Stderr = io.MultiWriter(in.errOut(), &stderrBuf)

	err = cmd.Run()
	stderr := stderrBuf.String()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			in.logger(ctx).Debug("installer failed", "cmd", c.String(), "exit", exitErr.ExitCode())
			return stderr, failure(stderr)
		}
		return stderr, fmt.Errorf("running %s: %w", c.name, err)
	}
	return stderr, nil
}

// output runs c and returns its stdout. Failures yield an empty string.
func (in *Installer) output(ctx context.Context, c command) string {
	bin, err := lookPath(c.name)
	if err != nil {
		return ""
	}
	cmd := exec.CommandContext(ctx, bin, c.args...)
	cmd.Dir = c.dir
	cmd.Env = c.env
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(out)
}

// failure maps installer stderr to ErrLackPrerequisite or ErrConfigureFailed.
func failure(stderr string) error {
	if name, ok := MissingFromStderr(stderr); ok {
		return fmt.Errorf("%w: %s", ErrLackPrerequisite, name)
	}
	return fmt.Errorf("%w: %s", ErrConfigureFailed, strings.TrimSpace(stderr))
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

var lookPath = exec.LookPath
