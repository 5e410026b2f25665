package cli

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

//go:embed scripts/completion.bash.tmpl
var completionTemplate string

// systemCompletionDir is tried first when installing the completion script.
var systemCompletionDir = "/etc/bash_completion.d"

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Print the bash completion script or its word lists.",
}

var completionBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Print the bash completion script.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := completionScript(cmd.Root())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), script)
		return nil
	},
}

var completionWordsCmd = &cobra.Command{
	Use:       "words models|commands",
	Short:     "Print the cached model or command names.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(userdata.CompletionModels), string(userdata.CompletionCommands)},
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := sess.layout.ReadCompletion(userdata.CompletionKind(args[0]))
		if err != nil {
			return err
		}
		for _, w := range words {
			fmt.Fprintln(cmd.OutOrStdout(), w)
		}
		return nil
	},
}

func init() {
	completionCmd.AddCommand(completionBashCmd, completionWordsCmd)
	rootCmd.AddCommand(completionCmd)
}

// completionScript renders the bash completion script for the command tree.
func completionScript(root *cobra.Command) (string, error) {
	var globals, withModel, others []string
	for _, c := range root.Commands() {
		if c.Hidden {
			continue
		}
		globals = append(globals, c.Name())
		switch {
		case c.Name() == "install":
		case c.Annotations[annotationModel] != "":
			withModel = append(withModel, c.Name())
		default:
			others = append(others, c.Name())
		}
	}

	tmpl, err := template.New("completion").Parse(completionTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing completion template: %w", err)
	}
	name := branding.CLIName()
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"Name":          name,
		"Func":          strings.ReplaceAll(name, "-", "_"),
		"Commands":      strings.Join(globals, " "),
		"ModelCommands": strings.Join(withModel, "|"),
		"OtherCommands": strings.Join(others, "|"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering completion script: %w", err)
	}
	return buf.String(), nil
}

// installCompletion writes the completion script into the system directory
// when it is writable, otherwise under the package root. It returns the
// path written.
func installCompletion(root *cobra.Command, layout userdata.Layout) (string, error) {
	script, err := completionScript(root)
	if err != nil {
		return "", err
	}
	file := branding.CLIName() + ".bash"

	path := filepath.Join(systemCompletionDir, file)
	err = os.WriteFile(path, []byte(script), userdata.FilePermNormal)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, fs.ErrPermission) && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	sess.logger.Debug("system completion dir not writable", "dir", systemCompletionDir, "err", err)

	dir := filepath.Join(layout.Root, userdata.CompletionDir)
	if err := os.MkdirAll(dir, userdata.DirPermNormal); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path = filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(script), userdata.FilePermNormal); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
