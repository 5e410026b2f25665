package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var availableNameOnly bool

var availableCmd = &cobra.Command{
	Use:     "available",
	Aliases: []string{"avail"},
	Short:   "List the models from the MLHub repository.",
	Args:    cobra.NoArgs,
	RunE:    runAvailable,
}

func init() {
	availableCmd.Flags().BoolVar(&availableNameOnly, "name-only", false, "Print model names only")
	rootCmd.AddCommand(availableCmd)
}

func runAvailable(cmd *cobra.Command, args []string) error {
	sess.logger.Info("list models available", "hub", sess.hub)
	out := cmd.OutOrStdout()

	res, err := sess.registry(cmd).LoadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	if availableNameOnly {
		for _, name := range res.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	if !sess.quiet {
		fmt.Fprintf(out, "The repository '%s' provides the following models:\n\n", sess.hub)
	}
	for _, d := range res.Entries {
		fmt.Fprintln(out, metaLine(d.Meta))
	}

	model := ""
	if !sess.initExisted {
		model = "rain"
	}
	printNextSteps(out, "available", "", model)
	return nil
}
