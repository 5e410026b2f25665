package registry

import (
	"fmt"
	"os"

	"github.com/mlhub-labs/mlhub/internal/manifest"
)

// Rename moves an installed model to a new name and rewrites meta.name in
// its descriptor. An existing target is replaced only with force. The new
// package dir is returned.
func (r *Registry) Rename(oldName, newName string, force bool) (string, error) {
	if !r.Layout.IsInstalled(oldName) {
		return "", fmt.Errorf("%s: %w", oldName, ErrModelNotInstalled)
	}
	oldDir := r.Layout.PackageDir(oldName)
	newDir := r.Layout.PackageDir(newName)

	if fi, err := os.Stat(newDir); err == nil {
		// Same dir, possibly through a case-insensitive file system.
		if oldFi, err := os.Stat(oldDir); err == nil && os.SameFile(oldFi, fi) {
			return "", fmt.Errorf("%s: %w", newName, ErrModelInstalled)
		}
		if !force {
			return "", fmt.Errorf("%s: %w", newName, ErrModelInstalled)
		}
		if err := os.RemoveAll(newDir); err != nil {
			return "", fmt.Errorf("removing %s: %w", newDir, err)
		}
	}

	if err := os.Rename(oldDir, newDir); err != nil {
		return "", fmt.Errorf("renaming %s: %w", oldName, err)
	}
	path, err := manifest.Find(newDir)
	if err != nil {
		return newDir, err
	}
	if err := manifest.SetName(path, newName); err != nil {
		return newDir, err
	}
	r.logger().Info("model renamed", "from", oldName, "to", newName)
	return newDir, nil
}
