package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/manifest"
)

// Curate builds a catalog from a "name: location" listing. Each location is
// a repository reference, a repository URL, a descriptor URL or the base
// URL of a package. Entries are written sorted by name; names whose
// descriptor cannot be read are returned.
func (r *Registry) Curate(ctx context.Context, listing, out string) ([]string, error) {
	data, err := os.ReadFile(listing)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", listing, err)
	}
	var models map[string]string
	if err := yaml.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", listing, err, manifest.ErrMalformedYAML)
	}

	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		entries []*manifest.Descriptor
		failed  []string
	)
	for _, name := range names {
		d, err := r.curateOne(ctx, name, models[name])
		if err != nil {
			r.logger().Warn("curate failed", "model", name, "err", err)
			failed = append(failed, name)
			continue
		}
		entries = append(entries, d)
	}

	f, err := os.Create(out)
	if err != nil {
		return failed, fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()
	if err := manifest.WriteCatalog(f, entries); err != nil {
		return failed, err
	}

	if len(failed) > 0 {
		fmt.Fprintf(r.out(), "Failed to curate list for models:\n    %s\n", strings.Join(failed, ", "))
	}
	return failed, nil
}

func (r *Registry) curateOne(ctx context.Context, name, location string) (*manifest.Descriptor, error) {
	descURL, err := r.descriptorLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.out(), "Reading %s's MLHUB.yaml file from %s ...\n", name, descURL)

	data, err := r.Hosting.ReadRaw(ctx, descURL)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(data, descURL)
}

func (r *Registry) descriptorLocation(ctx context.Context, location string) (string, error) {
	if !hosting.IsURL(location) || hosting.IsRepoURL(location) {
		ref, err := hosting.Parse(location)
		if err != nil {
			return "", err
		}
		return r.Hosting.DescriptorURL(ctx, ref)
	}
	lower := strings.ToLower(location)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return location, nil
	}
	return r.Hosting.DescriptorLocation(ctx, location)
}
