package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/fuzzy"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/runtime"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// modelCmd runs a command provided by an installed model. Arguments that
// name no built-in command are routed here.
var modelCmd = &cobra.Command{
	Use:    "model-command <cmd> <model> [params...]",
	Short:  "Run a command provided by a model.",
	Hidden: true,
	Args:   cobra.MinimumNArgs(2),
	RunE:   runModelCommand,
}

func init() {
	rootCmd.AddCommand(modelCmd)
}

func runModelCommand(cmd *cobra.Command, args []string) error {
	name, model, params := args[0], args[1], args[2:]
	layout := sess.layout
	sess.logger.Info("dispatch model command", "cmd", name, "model", model, "params", params)

	desc, err := sess.registry(cmd).Installed(model)
	if err != nil {
		return fmt.Errorf("'%s' %w: %w", name, runtime.ErrCommandNotFound, err)
	}
	if len(desc.Commands) == 0 {
		return fmt.Errorf("'%s' %w: '%s' declares no commands", name, runtime.ErrCommandNotFound, model)
	}

	wd, given := config.WorkingDir()
	if given {
		if err := layout.SaveWorkingDir(model, wd); err != nil {
			return err
		}
	} else {
		wd = layout.SavedWorkingDir(model)
	}

	name = correctCommand(sess.prompt, name, desc.Commands)

	if desc.NeedsDisplay(name) && os.Getenv("DISPLAY") == "" {
		if !sess.prompt.YesOrNo(prompt.No, "Graphic display is required but not available for command '%s'. Continue", name) {
			return errDisplayUnavailable
		}
	}

	script, err := commandScript(layout, model, desc, name)
	if err != nil {
		return err
	}

	err = sess.runner(cmd).Dispatch(cmd.Context(), runtime.Command{
		Model:      model,
		PkgDir:     layout.PackageDir(model),
		Script:     script,
		Args:       params,
		WorkingDir: wd,
		CondaEnv:   layout.ModelSetting(model, userdata.KeyCondaEnvName),
		Python:     layout.ModelSetting(model, userdata.KeyPythonPath),
	})
	if err != nil {
		return err
	}

	printNextCommand(cmd.OutOrStdout(), model, desc.Commands, name)
	return nil
}

// correctCommand offers the closest declared command when name looks like
// a misspelling of one.
func correctCommand(p *prompt.Prompter, name string, cmds manifest.Commands) string {
	if _, ok := cmds.Find(name); ok {
		return name
	}
	match, ok := fuzzy.Suggest(name, cmds.Names())
	if ok && p.YesOrNo(prompt.Yes, "The command '%s' is not supported.  Did you mean '%s'", name, match) {
		return match
	}
	return name
}

// commandScript returns the script file implementing a declared command.
func commandScript(layout userdata.Layout, model string, desc *manifest.Descriptor, name string) (string, error) {
	if _, ok := desc.Commands.Find(name); !ok {
		return "", fmt.Errorf("'%s' of '%s': %w", name, model, runtime.ErrCommandNotFound)
	}
	script := name + "." + desc.ScriptExt()
	if _, err := os.Stat(filepath.Join(layout.PackageDir(model), script)); err != nil {
		return "", fmt.Errorf("'%s' of '%s' (no %s): %w", name, model, script, runtime.ErrCommandNotFound)
	}
	return script, nil
}
