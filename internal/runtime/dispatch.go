package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/mlhub-labs/mlhub/internal/deps"
)

var (
	pyModuleNotFound = regexp.MustCompile(`ModuleNotFoundError: No module named '(.*)'`)
	rPackageNotFound = regexp.MustCompile(`there is no package called ‘(.*)’`)
	dataNotFound     = regexp.MustCompile(`DataResourceNotFound`)
)

// Command is one model command invocation.
type Command struct {
	Model  string
	PkgDir string
	// Script is the script file name inside PkgDir, e.g. demo.py.
	Script string
	Args   []string
	// WorkingDir, when set, is where the script runs instead of PkgDir.
	WorkingDir string
	// CondaEnv runs the script inside an activated conda environment.
	CondaEnv string
	// Python overrides the Python interpreter.
	Python string
}

// Plan is the resolved process for a Command.
type Plan struct {
	Argv []string
	Dir  string
	Env  []string
}

// Prepare resolves the interpreter, directory and environment of c. cwd is
// the directory ml was invoked from.
func Prepare(c Command, cwd string) (*Plan, error) {
	interp, extraEnv, err := Interpreter(c.Script, c.PkgDir, c.Python)
	if err != nil {
		return nil, err
	}

	script, dir := c.Script, c.PkgDir
	if c.WorkingDir != "" {
		script, dir = filepath.Join(c.PkgDir, c.Script), c.WorkingDir
	}

	env := setEnv(os.Environ(), branding.ScriptEnv("cmd_cwd"), cwd)
	env = setEnv(env, branding.ScriptEnv("model_name"), c.Model)
	env = mergeEnv(env, extraEnv)

	isPython := filepath.Ext(c.Script) == ".py"
	if c.CondaEnv == "" {
		env = setEnv(env, branding.ScriptEnv("python_exe"), pythonExe(c.Python))
		if isPython {
			env = deps.PythonEnv(env, c.PkgDir)
		}
		return &Plan{Argv: append(append(interp, script), c.Args...), Dir: dir, Env: env}, nil
	}

	if isPython {
		interp = []string{"python"}
	}
	words := append(append(interp, script), c.Args...)
	line := "conda activate " + quote(c.CondaEnv) + "; " + quoteAll(words)
	return &Plan{Argv: []string{BashCmd, "-ic", line}, Dir: dir, Env: env}, nil
}

func pythonExe(python string) string {
	if python != "" {
		return python
	}
	return PythonCmd
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}

func quoteAll(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = quote(w)
	}
	return strings.Join(quoted, " ")
}

// Dispatch runs a model command and classifies a failure.
func (r *Runner) Dispatch(ctx context.Context, c Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	plan, err := Prepare(c, cwd)
	if err != nil {
		return err
	}
	r.logger(ctx).Info("dispatch model command", "model", c.Model, "script", c.Script, "dir", plan.Dir)

	out, err := r.exec(ctx, plan.Argv, plan.Dir, plan.Env)
	if err != nil {
		return err
	}
	if out.ExitCode == 0 {
		return nil
	}
	if err := Analyze(out.Stderr); err != nil {
		r.logger(ctx).Error("model command failed", "model", c.Model, "err", err)
		return err
	}
	return &ScriptError{ExitCode: out.ExitCode, Stderr: out.Stderr}
}

// Analyze recognizes missing Python modules, missing R packages and missing
// data in script stderr. Unknown output yields nil.
func Analyze(stderr string) error {
	if m := pyModuleNotFound.FindStringSubmatch(stderr); m != nil {
		return fmt.Errorf("%w: python module '%s'", deps.ErrLackDependency, m[1])
	}
	if m := rPackageNotFound.FindStringSubmatch(stderr); m != nil {
		return fmt.Errorf("%w: R package '%s'", deps.ErrLackDependency, m[1])
	}
	if dataNotFound.MatchString(stderr) {
		return ErrDataResourceNotFound
	}
	return nil
}
