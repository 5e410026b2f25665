package deps

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// PythonDir is the per-package pip install target.
const PythonDir = ".python"

// PythonEnv returns the environment that makes packages installed under
// pkgDir/.python visible to python and pip.
func PythonEnv(env []string, pkgDir string) []string {
	target := filepath.Join(pkgDir, PythonDir)
	env = setEnv(env, "PATH", filepath.Join(target, "bin")+string(os.PathListSeparator)+os.Getenv("PATH"))
	return setEnv(env, "PYTHONPATH", target)
}

// InstallSystemPython installs python3-<pkg> through apt and records that
// the model relies on the system Python.
func (in *Installer) InstallSystemPython(ctx context.Context, specs []string) error {
	if err := in.Layout.UpdateModelConfig(in.Model, userdata.ModelConfig{userdata.KeySysPythonPkgUsage: true}); err != nil {
		return err
	}
	pkgs := make([]string, 0, len(specs))
	for _, s := range specs {
		pkgs = append(pkgs, "python3-"+ParseRequirement(s).Name)
	}
	return in.InstallSystem(ctx, pkgs)
}

func (in *Installer) pipCmd() string {
	if p := in.Layout.ModelSetting(in.Model, userdata.KeyPipPath); p != "" {
		return p
	}
	return "pip3"
}

// InstalledPipVersion asks pip for the installed version of name, "" when
// it is not installed.
func (in *Installer) InstalledPipVersion(ctx context.Context, name string) string {
	out := in.output(ctx, command{
		name: in.pipCmd(),
		args: []string{"show", name},
		env:  PythonEnv(os.Environ(), in.pkgDir()),
	})
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "Version:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// InstallPip installs Python packages into the package's .python target,
// skipping requirements that are already met.
func (in *Installer) InstallPip(ctx context.Context, specs []string) error {
	var todo []string
	for _, s := range specs {
		req := ParseRequirement(s)
		if have := in.InstalledPipVersion(ctx, req.Name); req.SatisfiedBy(have) {
			fmt.Fprintf(in.out(), "*** %s %s is already installed.\n", req.Name, have)
			continue
		}
		todo = append(todo, req.PipSpec())
	}
	if len(todo) == 0 {
		return nil
	}
	if !in.Yes && !in.Prompter.YesOrNo(prompt.Yes, "\nInstall the Python packages: %s", strings.Join(todo, " ")) {
		return nil
	}

	fmt.Fprintf(in.out(), "\n*** Installing %s ...\n", strings.Join(todo, " "))
	args := append([]string{"install", "--upgrade", "--target", filepath.Join(in.pkgDir(), PythonDir)}, todo...)
	_, err := in.run(ctx, command{
		name: in.pipCmd(),
		args: args,
		dir:  in.pkgDir(),
		env:  PythonEnv(in.baseEnv(), in.pkgDir()),
	})
	return err
}

// InstallConda handles the three conda forms: a package list, an
// environment file (file: env.yaml) or a named environment (name: env).
func (in *Installer) InstallConda(ctx context.Context, spec manifest.DepSpec) error {
	if name, ok := spec.Options["name"]; ok {
		return in.saveCondaEnv(name)
	}

	if file, ok := spec.Options["file"]; ok {
		path := filepath.Join(in.pkgDir(), file)
		name, err := condaEnvName(path)
		if err != nil {
			return err
		}
		if err := in.saveCondaEnv(name); err != nil {
			return err
		}

		action := "create"
		if in.condaEnvExists(ctx, name) {
			action = "update"
		}
		fmt.Fprintf(in.out(), "\n*** Conda environment '%s': %s from %s ...\n", name, action, file)
		_, err = in.run(ctx, command{
			name: "conda",
			args: []string{"env", action, "-f", path},
			dir:  in.pkgDir(),
			env:  in.baseEnv(),
		})
		return err
	}

	if len(spec.Items) == 0 {
		return nil
	}
	if !in.Yes && !in.Prompter.YesOrNo(prompt.Yes, "\nInstall the conda packages: %s", strings.Join(spec.Items, " ")) {
		return nil
	}
	args := []string{"install", "-y"}
	if env := in.Layout.ModelSetting(in.Model, userdata.KeyCondaEnvName); env != "" {
		args = append(args, "-n", env)
	}
	_, err := in.run(ctx, command{
		name: "conda",
		args: append(args, spec.Items...),
		dir:  in.pkgDir(),
		env:  in.baseEnv(),
	})
	return err
}

func (in *Installer) saveCondaEnv(name string) error {
	return in.Layout.UpdateModelConfig(in.Model, userdata.ModelConfig{userdata.KeyCondaEnvName: name})
}

func (in *Installer) condaEnvExists(ctx context.Context, name string) bool {
	out := in.output(ctx, command{name: "conda", args: []string{"env", "list"}})
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true
		}
	}
	return false
}

// condaEnvName reads the name: field of a conda environment file.
func condaEnvName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading conda environment file: %w", err)
	}
	var env struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if env.Name == "" {
		return "", fmt.Errorf("%s: %w: no environment name", path, manifest.ErrMalformedYAML)
	}
	return env.Name, nil
}
