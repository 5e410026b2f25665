package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renameForce bool

var renameCmd = &cobra.Command{
	Use:         "rename <model> <new>",
	Short:       "Rename an installed model.",
	Args:        cobra.ExactArgs(2),
	Annotations: modelAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		oldName, newName := args[0], args[1]
		sess.logger.Info("rename model", "from", oldName, "to", newName)

		dir, err := sess.registry(cmd).Rename(oldName, newName, renameForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed '%s' as '%s' (now '%s').\n", oldName, newName, dir)
		return nil
	},
}

func init() {
	renameCmd.Flags().BoolVar(&renameForce, "force", false, "Replace an installed model of the new name")
	rootCmd.AddCommand(renameCmd)
}
