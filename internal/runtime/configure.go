package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/mlhub-labs/mlhub/internal/deps"
)

// ConfigureScripts are run in this order when a package ships them.
var ConfigureScripts = []string{"configure.sh", "configure.R", "configure.py"}

// Configure runs the configure scripts present in pkgDir. Progress lines go
// to progress unless it is nil. It reports whether any script ran.
func (r *Runner) Configure(ctx context.Context, model, pkgDir string, progress io.Writer) (bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return false, fmt.Errorf("resolving working directory: %w", err)
	}

	ran := false
	for _, name := range ConfigureScripts {
		path := filepath.Join(pkgDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		interp, extraEnv, err := Interpreter(name, pkgDir, "")
		if err != nil {
			return ran, err
		}
		if progress != nil {
			fmt.Fprintf(progress, "\nConfiguring using '%s'...\n\n", path)
		}

		env := setEnv(os.Environ(), branding.ScriptEnv("cmd_cwd"), cwd)
		env = setEnv(env, branding.ScriptEnv("model_name"), model)
		env = mergeEnv(env, extraEnv)

		out, err := r.exec(ctx, append(interp, name), pkgDir, env)
		if err != nil {
			return ran, err
		}
		if out.ExitCode != 0 {
			return ran, fmt.Errorf("%s: %w: %s", name, deps.ErrConfigureFailed, strings.TrimSpace(out.Stderr))
		}
		ran = true
	}
	return ran, nil
}
