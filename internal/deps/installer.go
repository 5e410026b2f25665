package deps

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/logging"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// Installer installs the dependencies of one model package.
type Installer struct {
	Layout     userdata.Layout
	Model      string
	Descriptor *manifest.Descriptor
	Prompter   *prompt.Prompter
	Fetch      *fetch.Client
	Hosting    *hosting.Service
	Logger     *log.Logger

	// Out and ErrOut default to os.Stdout and os.Stderr.
	Out    io.Writer
	ErrOut io.Writer
	// Stdin feeds helpers that prompt themselves; defaults to os.Stdin.
	Stdin io.Reader

	// Yes answers every question with its default.
	Yes bool
	// Key is the SSH identity used to clone private repositories.
	Key string
}

func (in *Installer) out() io.Writer {
	if in.Out == nil {
		return os.Stdout
	}
	return in.Out
}

func (in *Installer) errOut() io.Writer {
	if in.ErrOut == nil {
		return os.Stderr
	}
	return in.ErrOut
}

func (in *Installer) stdin() io.Reader {
	if in.Stdin == nil {
		return os.Stdin
	}
	return in.Stdin
}

// logger prefers the explicit Logger and otherwise uses the one the
// command attached to ctx.
func (in *Installer) logger(ctx context.Context) *log.Logger {
	if in.Logger == nil {
		return logging.FromContext(ctx)
	}
	return in.Logger
}

func (in *Installer) pkgDir() string { return in.Layout.PackageDir(in.Model) }

// baseEnv is the environment handed to every installer helper.
func (in *Installer) baseEnv() []string {
	env := os.Environ()
	if in.Yes {
		env = setEnv(env, branding.ScriptEnv("option_yes"), "y")
	}
	return env
}

// InstallAll installs every flattened dependency spec in order.
func (in *Installer) InstallAll(ctx context.Context, specs []manifest.DepSpec) error {
	for _, spec := range specs {
		if err := in.Install(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

// Install dispatches one spec to its installer by category.
func (in *Installer) Install(ctx context.Context, spec manifest.DepSpec) error {
	kind := spec.Kind()
	in.logger(ctx).Info("installing dependencies", "model", in.Model, "category", kind, "items", spec.Items)

	if kind == "" {
		lang := ""
		if in.Descriptor != nil {
			lang = strings.ToLower(in.Descriptor.Meta.Languages)
		}
		switch {
		case lang == "r":
			kind = "cran"
		case lang != "" && (strings.HasPrefix("python", lang) || strings.HasPrefix(lang, "python")):
			kind = "pip"
		default:
			return fmt.Errorf("cannot tell how to install %v for language %q", spec.Items, lang)
		}
	}

	switch {
	case kind == "system" || strings.HasPrefix("shell", kind):
		return in.InstallSystem(ctx, spec.Items)
	case kind == "r":
		return in.InstallR(ctx, "cran", spec.Items)
	case kind == "cran" || kind == "github" || strings.HasPrefix(kind, "cran-"):
		return in.InstallR(ctx, kind, spec.Items)
	case strings.HasPrefix(kind, "python"):
		return in.InstallSystemPython(ctx, spec.Items)
	case strings.HasPrefix(kind, "pip"):
		return in.InstallPip(ctx, spec.Items)
	case kind == "conda":
		return in.InstallConda(ctx, spec)
	case kind == manifest.FilesCategory:
		return in.InstallFiles(ctx, spec.Files)
	}
	in.logger(ctx).Warn("unknown dependency category", "category", kind)
	fmt.Fprintf(in.errOut(), "mlhub: unknown dependency category '%s' ignored.\n", strings.Join(spec.Category, "/"))
	return nil
}
