package cli

import "github.com/spf13/cobra"

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove downloaded model package archives.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.logger.Info("clean up archives", "init", sess.layout.Root)
		return sess.registry(cmd).Clean()
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
