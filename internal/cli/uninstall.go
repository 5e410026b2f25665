package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/branding"
)

var uninstallYes bool

var uninstallCmd = &cobra.Command{
	Use:         "uninstall [model]",
	Short:       "Uninstall a model or all models.",
	Args:        cobra.MaximumNArgs(1),
	Annotations: modelAnnotation,
	RunE:        runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes_cache_no", "y", false, "Remove the model without asking, keeping its cache")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	reg := sess.registry(cmd)

	if len(args) == 0 {
		sess.logger.Info("uninstall all models", "init", sess.layout.Root)
		if !sess.initExisted {
			fmt.Fprintf(out, "The local model folder '%s' does not exist. Nothing to do.\n", sess.layout.Root)
			return nil
		}
		removed, err := reg.UninstallAll(uninstallYes)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(out, "%s has not been removed.\n", branding.DisplayName())
			printNextSteps(out, "uninstall", "", "")
		}
		return nil
	}

	model := reg.CorrectModel(args[0])
	sess.logger.Info("uninstall model", "model", model)
	if err := reg.Uninstall(model, uninstallYes); err != nil {
		return err
	}
	printNextSteps(out, "uninstall", "", "")
	return nil
}
