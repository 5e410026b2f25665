package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var curateCmd = &cobra.Command{
	Use:   "curate [MLMODELS.yaml] [Packages.yaml]",
	Short: "Build a hub catalog from a list of model locations.",
	Long: `Read a "name: location" mapping, fetch the descriptor of each location
(a repository reference, a repository URL or a descriptor URL) and write the
catalog as a multi-document YAML file sorted by name.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listing, out := "MLMODELS.yaml", "Packages.yaml"
		if len(args) > 0 {
			listing = args[0]
		}
		if len(args) > 1 {
			out = args[1]
		}
		sess.logger.Info("curate catalog", "listing", listing, "out", out)

		failed, err := sess.registry(cmd).Curate(cmd.Context(), listing, out)
		if err != nil {
			return err
		}
		if len(failed) == 0 && !sess.quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote '%s'.\n", out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(curateCmd)
}
