package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a model package descriptor.",
	Long: `Validate MLHUB.yaml (or DESCRIPTION.yaml) against the descriptor schema.
The path may be the descriptor file or the package directory. Validation is
informational: install never enforces it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := args[0]
		fmt.Fprintf(out, "Descriptor validation: %s\n", path)

		res, err := manifest.ValidateFile(path)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			return fmt.Errorf("descriptor validation failed: %w", err)
		}

		if res.Valid {
			desc, err := loadDescriptorAt(path)
			if err != nil {
				fmt.Fprintln(out, "  [ OK ] Valid descriptor")
				return nil
			}
			fmt.Fprintf(out, "  [ OK ] Valid descriptor: %s (v%s)\n", desc.Meta.Name, desc.Meta.Version)
			return nil
		}

		fmt.Fprintf(out, "  [FAIL] %d validation %s:\n", len(res.Issues), plural(len(res.Issues), "issue", "issues"))
		for _, issue := range res.Issues {
			fmt.Fprintf(out, "    - %s\n", issue)
		}
		return fmt.Errorf("descriptor %s has %d validation %s", path, len(res.Issues), plural(len(res.Issues), "issue", "issues"))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func loadDescriptorAt(path string) (*manifest.Descriptor, error) {
	if desc, err := manifest.Load(path); err == nil {
		return desc, nil
	}
	return manifest.LoadFile(path)
}
