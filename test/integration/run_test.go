//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mlhub-labs/mlhub/internal/deps"
	"github.com/mlhub-labs/mlhub/internal/registry"
	"github.com/mlhub-labs/mlhub/internal/runtime"
)

func TestRunInstalledCommands(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	if _, err := env.registry("").Install(ctx, env.Hub.URL+"/storm_0.3.tar.gz", registry.InstallOptions{}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	pkgDir := env.Layout.PackageDir("storm")

	var stdout bytes.Buffer
	if err := env.runner(&stdout).Dispatch(ctx, runtime.Command{Model: "storm", PkgDir: pkgDir, Script: "track.sh"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if stdout.String() != "tracking\n" {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunInWorkingDir(t *testing.T) {
	env := setupTestEnv(t)
	pkgDir := env.Layout.PackageDir("rain")
	writeFile(t, filepath.Join(pkgDir, "score.sh"), "cat \"$1\"\n")
	wd := t.TempDir()
	writeFile(t, filepath.Join(wd, "data.csv"), "a,b\n")

	var stdout bytes.Buffer
	err := env.runner(&stdout).Dispatch(context.Background(), runtime.Command{
		Model:      "rain",
		PkgDir:     pkgDir,
		Script:     "score.sh",
		Args:       []string{"data.csv"},
		WorkingDir: wd,
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if stdout.String() != "a,b\n" {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunReportsMissingModule(t *testing.T) {
	env := setupTestEnv(t)
	pkgDir := env.Layout.PackageDir("rain")
	writeFile(t, filepath.Join(pkgDir, "demo.sh"), "echo \"ModuleNotFoundError: No module named 'sklearn'\" >&2\nexit 1\n")

	var stdout bytes.Buffer
	err := env.runner(&stdout).Dispatch(context.Background(), runtime.Command{Model: "rain", PkgDir: pkgDir, Script: "demo.sh"})
	if !errors.Is(err, deps.ErrLackDependency) {
		t.Fatalf("err = %v, want ErrLackDependency", err)
	}
}
