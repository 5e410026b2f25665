package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readmeCmd = &cobra.Command{
	Use:         "readme <model>",
	Short:       "Display the model's README information.",
	Args:        cobra.ExactArgs(1),
	Annotations: modelAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := sess.registry(cmd)
		model := reg.CorrectModel(args[0])
		sess.logger.Info("display readme", "model", model)

		text, err := reg.Readme(model)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		printNextSteps(cmd.OutOrStdout(), "readme", "", model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readmeCmd)
}
