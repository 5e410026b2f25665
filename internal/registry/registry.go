package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mlhub-labs/mlhub/internal/archive"
	"github.com/mlhub-labs/mlhub/internal/catalog"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/fuzzy"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/logging"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// Registry operates on the packages under one package root.
type Registry struct {
	Layout   userdata.Layout
	Catalog  *catalog.Source
	Fetch    *fetch.Client
	Hosting  *hosting.Service
	Prompter *prompt.Prompter
	Logger   *log.Logger

	// Out receives progress messages; ErrOut warnings.
	Out    io.Writer
	ErrOut io.Writer
	// Quiet suppresses progress messages.
	Quiet bool
}

func (r *Registry) logger() *log.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func (r *Registry) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Registry) errOut() io.Writer {
	if r.ErrOut == nil {
		return os.Stderr
	}
	return r.ErrOut
}

// progress prints unless quiet.
func (r *Registry) progress(format string, args ...any) {
	if !r.Quiet {
		fmt.Fprintf(r.out(), format, args...)
	}
}

// CorrectModel offers the closest cached model name when name looks like a
// misspelling of it. The answer is returned; name when nothing matches or
// the offer is declined.
func (r *Registry) CorrectModel(name string) string {
	words, err := r.Layout.ReadCompletion(userdata.CompletionModels)
	if err != nil || len(words) == 0 {
		return name
	}
	match, ok := fuzzy.Suggest(name, words)
	if !ok {
		return name
	}
	if r.Prompter.YesOrNo(prompt.Yes, "The model '%s' was not found.  Did you mean '%s'", name, match) {
		r.logger().Debug("model name corrected", "from", name, "to", match)
		return match
	}
	return name
}

// Installed loads the descriptor of an installed model.
func (r *Registry) Installed(model string) (*manifest.Descriptor, error) {
	if !r.Layout.IsInstalled(model) {
		return nil, fmt.Errorf("%s: %w", model, ErrModelNotInstalled)
	}
	return manifest.Load(r.Layout.PackageDir(model))
}

// LoadCatalog loads the hub catalog and records its names for completion.
// A catalog served from the local cache is announced on ErrOut.
func (r *Registry) LoadCatalog(ctx context.Context) (*catalog.Result, error) {
	res, err := r.Catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	if res.Cached {
		msg := fmt.Sprintf("mlhub: '%s' is not reachable, using the catalog cached %s ago", r.Catalog.Hub(), res.Age().Round(time.Minute))
		if res.Stale() {
			msg += " (stale)"
		}
		fmt.Fprintln(r.errOut(), msg+".")
	}
	if err := r.Layout.AddCompletion(userdata.CompletionModels, res.Names()...); err != nil {
		r.logger().Warn("updating model completion failed", "err", err)
	}
	return res, nil
}

// CatalogEntry is where a catalog name points.
type CatalogEntry struct {
	Name     string
	Location string
	// Version is only set when Location is an archive.
	Version string
}

// Lookup finds name in the hub catalog. The descriptor location (meta.yaml)
// wins over the package location (meta.url).
func (r *Registry) Lookup(ctx context.Context, name string) (*CatalogEntry, error) {
	res, err := r.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	d, ok := res.Lookup(name)
	if !ok {
		r.logger().Error("model not found on repo", "model", name, "hub", r.Catalog.Hub())
		return nil, fmt.Errorf("'%s' on '%s': %w", name, r.Catalog.Hub(), ErrModelNotFoundOnRepo)
	}

	entry := &CatalogEntry{Name: name, Location: d.Meta.Location()}
	if entry.Location == "" {
		return nil, fmt.Errorf("entry '%s' has neither url nor yaml: %w", name, manifest.ErrMalformedCatalog)
	}
	if archive.IsArchive(entry.Location) {
		entry.Version = d.Meta.Version
	}
	return entry, nil
}
