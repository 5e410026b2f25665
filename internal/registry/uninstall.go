package registry

import (
	"fmt"
	"os"

	"github.com/mlhub-labs/mlhub/internal/prompt"
)

// UninstallAll removes the whole package root after a "yes" answer. It
// always asks: yes only produces a notice. It reports whether the root was
// removed.
func (r *Registry) UninstallAll(yes bool) (bool, error) {
	root := r.Layout.Root
	if !r.Layout.Exists() {
		fmt.Fprintf(r.out(), "The local model folder '%s' does not exist. Nothing to do.\n", root)
		return false, nil
	}
	if yes {
		fmt.Fprintln(r.out(), "MLHub does not allow automatic uninstall without questioning it!")
		fmt.Fprintln(r.out())
	}
	if !r.Prompter.YesOrNo(prompt.Certain, "*Completely* remove all installed models in '%s'", root) {
		return false, nil
	}

	r.logger().Info("removing package root", "dir", root)
	if err := os.RemoveAll(root); err != nil {
		return false, fmt.Errorf("removing %s: %w", root, err)
	}
	return true, nil
}

// Uninstall removes an installed model and its settings. With yes it does
// so without asking and keeps the download cache; otherwise it asks first
// and offers to drop the cache too.
func (r *Registry) Uninstall(model string, yes bool) error {
	if !r.Layout.IsInstalled(model) {
		return fmt.Errorf("%s: %w", model, ErrModelNotInstalled)
	}
	dir := r.Layout.PackageDir(model)

	if !yes && !r.Prompter.YesOrNo(prompt.Certain, "Remove '%s/'", dir) {
		return nil
	}

	r.logger().Info("uninstalling model", "model", model, "dir", dir)
	for _, p := range []string{dir, r.Layout.ConfigDir(model)} {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	if yes {
		return nil
	}

	cache := r.Layout.CacheDir(model)
	if _, err := os.Stat(cache); err != nil {
		return nil
	}
	if !r.Prompter.YesOrNo(prompt.No, "Remove cache '%s/' as well", cache) {
		return nil
	}
	for _, p := range []string{cache, r.Layout.ArchiveDir(model)} {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
