package registry

import (
	"fmt"
	"os"

	"github.com/mlhub-labs/mlhub/internal/prompt"
)

// Clean offers to delete each downloaded package archive in the root.
func (r *Registry) Clean() error {
	archives, err := r.Layout.Archives()
	if err != nil {
		return err
	}
	for _, a := range archives {
		if !r.Prompter.YesOrNo(prompt.Yes, "Remove model package archive '%s'", a) {
			continue
		}
		if err := os.Remove(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
		r.logger().Info("archive removed", "file", a)
	}
	return nil
}
