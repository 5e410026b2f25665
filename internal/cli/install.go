package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/registry"
)

var (
	installYes bool
	installKey string
)

var installCmd = &cobra.Command{
	Use:   "install <model>",
	Short: "Install a model.",
	Long: `Install a model package given as a name from the hub catalog, a local or
remote archive (.mlm, .zip, .tar.gz, ...), or a repository reference such as
github:owner/repo@ref:path or a GitHub, GitLab or Bitbucket URL.`,
	Args:        cobra.ExactArgs(1),
	Annotations: modelAnnotation,
	RunE:        runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Replace an installed version without asking")
	installCmd.Flags().StringVarP(&installKey, "key", "i", "", "SSH identity `FILE` for private repositories")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	res, err := sess.registry(cmd).Install(cmd.Context(), args[0], registry.InstallOptions{Yes: installYes, Key: installKey})
	if err != nil {
		return err
	}
	if res.Declined {
		printNextSteps(out, "install", "", res.Model)
		return nil
	}

	if wd, ok := config.WorkingDir(); ok {
		if err := sess.layout.SaveWorkingDir(res.Model, wd); err != nil {
			return err
		}
	}

	if !sess.quiet {
		fmt.Fprintf(out, "Found '%s' version %s.\n\nInstalled '%s' into '%s/' (%s bytes).\n", res.Model, res.Version, res.Model, res.Dir, fetch.Bytes(res.Size))
	}
	printNextSteps(out, "install", "", res.Model)
	return nil
}
