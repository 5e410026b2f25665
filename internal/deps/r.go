package deps

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed scripts/r.R
var rScript []byte

// RscriptCmd is the R script runner.
var RscriptCmd = "Rscript"

// InstallR installs R packages from source: cran, cran-YYYY-MM-DD or github.
func (in *Installer) InstallR(ctx context.Context, source string, specs []string) error {
	if len(specs) == 0 {
		return nil
	}

	tmp, err := os.CreateTemp("", "mlhub-r-*.R")
	if err != nil {
		return fmt.Errorf("writing R helper: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(rScript); err != nil {
		tmp.Close()
		return fmt.Errorf("writing R helper: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing R helper: %w", err)
	}

	env := setEnv(in.baseEnv(), "R_LIBS", filepath.Join(in.pkgDir(), "R"))
	_, err = in.run(ctx, command{
		name:  RscriptCmd,
		args:  append([]string{tmp.Name(), source}, specs...),
		dir:   in.pkgDir(),
		env:   env,
		stdin: in.stdin(),
	})
	return err
}
