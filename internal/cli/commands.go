package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

var commandsNameOnly bool

var commandsCmd = &cobra.Command{
	Use:         "commands <model>",
	Short:       "List all of the commands supported by the model.",
	Args:        cobra.ExactArgs(1),
	Annotations: modelAnnotation,
	RunE:        runCommands,
}

func init() {
	commandsCmd.Flags().BoolVar(&commandsNameOnly, "name-only", false, "Print command names only")
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	reg := sess.registry(cmd)
	model := reg.CorrectModel(args[0])
	sess.logger.Info("list model commands", "model", model)

	desc, err := reg.Installed(model)
	if err != nil {
		return err
	}
	names := desc.Commands.Names()
	if err := sess.layout.AddCompletion(userdata.CompletionCommands, names...); err != nil {
		sess.logger.Warn("updating command completion failed", "err", err)
	}

	if commandsNameOnly {
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	summary := strings.TrimSuffix(strings.ToLower(desc.Meta.Summary()), ".")
	fmt.Fprintln(out, wrap(fmt.Sprintf("The '%s' model (%s) supports the following commands:", model, summary)))
	for _, c := range desc.Commands {
		fmt.Fprintf(out, "\n  $ %s\n", usageLine(model, c))
		if c.Description != "" {
			fmt.Fprintf(out, "    %s\n", c.Description)
		}
	}
	fmt.Fprintln(out)

	printNextCommand(out, model, desc.Commands, "")
	return nil
}

// usageLine renders how a model command is invoked.
func usageLine(model string, c manifest.Command) string {
	parts := []string{config.CmdName(), c.Name, model}
	for _, r := range c.Required {
		parts = append(parts, "<"+r+">")
	}
	for _, o := range c.Optional {
		parts = append(parts, "[<"+o+">]")
	}
	return strings.Join(parts, " ")
}
