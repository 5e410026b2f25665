package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/credentials"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/platform"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// systemPrerequisites are installed by "ml configure" on Debian and Ubuntu.
var systemPrerequisites = []string{"python3-pip", "r-base", "git", "bash-completion"}

// isDebianLike is swapped in tests.
var isDebianLike = platform.IsDebianLike

var (
	configureYes bool
	configureKey string
)

var configureCmd = &cobra.Command{
	Use:   "configure [model]",
	Short: "Configure the dependencies required for the model.",
	Long: `Without a model, install the system prerequisites of ml (on Debian and
Ubuntu) and its bash completion script. With a model, collect the private
information it needs, install its dependencies and run its configure scripts.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: modelAnnotation,
	RunE:        runConfigure,
}

func init() {
	configureCmd.Flags().BoolVarP(&configureYes, "yes", "y", false, "Answer every question with its default")
	configureCmd.Flags().StringVarP(&configureKey, "key", "i", "", "SSH identity `FILE` for private repositories")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return configureSelf(cmd)
	}

	out := cmd.OutOrStdout()
	reg := sess.registry(cmd)
	model := reg.CorrectModel(args[0])
	sess.logger.Info("configure model", "model", model)

	desc, err := reg.Installed(model)
	if err != nil {
		return err
	}
	pkgDir := sess.layout.PackageDir(model)

	collector := &credentials.Collector{Prompter: sess.prompt, Out: out, Yes: configureYes}
	if err := collector.Configure(desc.Meta.PrivateGroups(), sess.layout.PrivatePath(model), filepath.Join(pkgDir, userdata.PrivateFile)); err != nil {
		return err
	}

	specs := manifest.FlattenDependencies(desc.DependencyNode())
	if err := sess.installer(cmd, model, desc, configureYes, configureKey).InstallAll(cmd.Context(), specs); err != nil {
		return err
	}

	ran := false
	if isDebianLike() {
		var progress io.Writer
		if !sess.quiet {
			progress = out
		}
		if ran, err = sess.runner(cmd).Configure(cmd.Context(), model, pkgDir, progress); err != nil {
			return err
		}
	}
	if len(specs) == 0 && !ran && !sess.quiet {
		fmt.Fprintln(out, "No configuration provided (maybe none is required).")
	}

	if wd, ok := config.WorkingDir(); ok {
		if err := sess.layout.SaveWorkingDir(model, wd); err != nil {
			return err
		}
	}
	printNextSteps(out, "configure", "", model)
	return nil
}

// configureSelf sets up ml itself.
func configureSelf(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	sess.logger.Info("configure mlhub")

	if isDebianLike() {
		in := sess.installer(cmd, "", nil, configureYes, "")
		if err := in.InstallSystem(cmd.Context(), systemPrerequisites); err != nil {
			return err
		}
	} else if !sess.quiet {
		fmt.Fprintf(out, "System prerequisites are only installed automatically on Debian and Ubuntu.\nPlease make sure these are available: %v\n\n", userdata.Prerequisites)
	}

	path, err := installCompletion(cmd.Root(), sess.layout)
	if err != nil {
		return err
	}
	if !sess.quiet {
		fmt.Fprintf(out, "Bash completion installed into '%s'. To enable it now:\n\n  $ source %s\n\n", path, path)
	}
	return nil
}
