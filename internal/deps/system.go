package deps

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

//go:embed scripts/system.sh
var systemScript string

// InstallSystem installs apt packages that are not yet installed.
func (in *Installer) InstallSystem(ctx context.Context, pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}
	return in.runScript(ctx, "system.sh", systemScript, pkgs)
}

// runScript interprets an embedded bash helper with mvdan.cc/sh.
func (in *Installer) runScript(ctx context.Context, name, script string, args []string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	var stderrBuf bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(in.baseEnv()...)),
		interp.StdIO(in.stdin(), in.out(), io.MultiWriter(in.errOut(), &stderrBuf)),
		interp.ExecHandlers(in.logExec),
	}
	if dir := in.pkgDir(); dirExists(dir) {
		opts = append(opts, interp.Dir(dir))
	}
	if len(args) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, args...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("creating interpreter: %w", err)
	}

	in.logger(ctx).Debug("running helper", "script", name, "args", args)
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return failure(stderrBuf.String())
		}
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}

// logExec records each external command the helper runs.
func (in *Installer) logExec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		in.logger(ctx).Debug("helper exec", "args", args)
		if _, err := lookPath(args[0]); err != nil {
			hc := interp.HandlerCtx(ctx)
			fmt.Fprintf(hc.Stderr, "1: %s: not found\n", args[0])
			return interp.ExitStatus(127)
		}
		return next(ctx, args)
	}
}
