package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

var installedNameOnly bool

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "List the installed models.",
	Args:  cobra.NoArgs,
	RunE:  runInstalled,
}

func init() {
	installedCmd.Flags().BoolVar(&installedNameOnly, "name-only", false, "Print model names only")
	rootCmd.AddCommand(installedCmd)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func runInstalled(cmd *cobra.Command, args []string) error {
	sess.logger.Info("list installed models", "init", sess.layout.Root)
	out := cmd.OutOrStdout()

	models, err := sess.layout.InstalledModels()
	if err != nil {
		return err
	}

	var found []*manifest.Descriptor
	var broken []string
	for _, m := range models {
		d, err := manifest.Load(sess.layout.PackageDir(m))
		if err != nil {
			sess.logger.Warn("broken package", "model", m, "err", err)
			broken = append(broken, m)
			continue
		}
		found = append(found, d)
		if err := sess.layout.AddCompletion(userdata.CompletionCommands, d.Commands.Names()...); err != nil {
			sess.logger.Warn("updating command completion failed", "err", err)
		}
	}

	if installedNameOnly {
		for _, d := range found {
			fmt.Fprintln(out, d.Meta.Name)
		}
		return nil
	}

	if !sess.quiet {
		n := len(models)
		msg := fmt.Sprintf("Found %d %s installed", n, plural(n, "model", "models"))
		if sess.initExisted {
			msg += fmt.Sprintf(" in '%s'.", sess.layout.Root)
		} else {
			msg += fmt.Sprintf(". '%s' does not exist.", sess.layout.Root)
		}
		fmt.Fprintln(out, msg)
		if len(found) > 0 {
			fmt.Fprintln(out)
		}
	}
	for _, d := range found {
		fmt.Fprintln(out, metaLine(d.Meta))
	}

	if k := len(broken); k > 0 {
		fmt.Fprintf(out, "\nOf which %d model %s %s broken:\n\n", k, plural(k, "package", "packages"), plural(k, "is", "are"))
		for _, m := range broken {
			fmt.Fprintln(out, "  "+brokenStyle.Render(m))
		}
		fmt.Fprint(out, suggestion("uninstall", broken[0]))
	}

	scenario := scenarioNone
	model := ""
	if len(found) > 0 {
		scenario = scenarioExist
		model = found[len(found)-1].Meta.Name
	}
	printNextSteps(out, "installed", scenario, model)
	return nil
}
