package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mlhub-labs/mlhub/internal/branding"
	"github.com/mlhub-labs/mlhub/internal/config"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: "Access machine learning models from the " + branding.DisplayName() + " repository.",
	Long: branding.DisplayName() + ` installs, configures and runs machine learning model packages
published in a hub catalog. Model packages provide their own commands:

  ml <cmd> <model> [params...]

Parameters starting with '-' must follow '--'.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		printUsage(cmd.Root(), cmd.OutOrStdout())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Bool("debug", false, "Mirror the debug log onto stderr")
	pf.BoolP("quiet", "q", false, "Suppress context lines and next-step suggestions")
	pf.String("init-dir", "", "Use `DIR` as the local package root instead of ~/"+branding.HomeDir())
	pf.String("mlhub", "", "Use `URL` as the hub instead of "+branding.DefaultHub())
	pf.String("cmd", "", "Command `NAME` shown in suggestions")
	pf.String("working-dir", "", "Working `DIR` for model commands, saved per model")

	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "wd" {
			name = "working-dir"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Execute runs ml with the process arguments and streams.
func Execute(version, commit, date string) error {
	buildVersion, buildCommit, buildDate = version, commit, date
	return run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

var wrapOnce sync.Once

// run executes the command tree against args. Model commands are routed to
// the hidden dispatcher before Cobra sees them.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	wrapOnce.Do(func() { wrapErrors(rootCmd) })

	rootCmd.SetArgs(append([]string{}, routeArgs(rootCmd, args)...))
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	defer sess.close()

	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(buildVersion),
		fang.WithCommit(buildCommit),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(printError),
	)
}

// builtins are command names Cobra or fang register while executing.
var builtins = map[string]bool{
	"help":             true,
	"man":              true,
	"__complete":       true,
	"__completeNoDesc": true,
}

// routeArgs inserts the model command dispatcher in front of the first
// positional argument when it names no built-in command.
func routeArgs(root *cobra.Command, args []string) []string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return args
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && flagTakesValue(root.PersistentFlags(), a) {
				i++
			}
			continue
		}
		if builtins[a] {
			return args
		}
		if c, _, err := root.Find([]string{a}); err == nil && c != root {
			return args
		}
		routed := make([]string, 0, len(args)+1)
		routed = append(routed, args[:i]...)
		routed = append(routed, modelCmd.Name())
		return append(routed, args[i:]...)
	}
	return args
}

func flagTakesValue(flags *pflag.FlagSet, arg string) bool {
	var f *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f = flags.Lookup(name)
	} else if len(arg) == 2 {
		f = flags.ShorthandLookup(arg[1:])
	}
	return f != nil && f.Value.Type() != "bool"
}

func printUsage(root *cobra.Command, w io.Writer) {
	cli := config.CmdName()
	fmt.Fprintf(w, "usage: %s [--help] [--version] [--debug] [--quiet] [--init-dir DIR] [--mlhub URL]\n", cli)
	fmt.Fprintf(w, "          [--cmd NAME] [--working-dir DIR] <command> [<args>]\n\n")
	fmt.Fprintf(w, "%s\n\nGlobal commands:\n\n", root.Short)
	for _, c := range root.Commands() {
		if c.Hidden || !c.IsAvailableCommand() {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", c.Name(), c.Short)
	}
	fmt.Fprintf(w, "\nModel commands:\n\n  %-12s %s\n\n", "<cmd>", "Run a command provided by an installed model: "+cli+" <cmd> <model>")
	fmt.Fprintf(w, "The %s repository is '%s'.\n", branding.DisplayName(), config.Hub())
	fmt.Fprintf(w, "Models are installed in '%s'.\n", config.InitDir())
	fmt.Fprintf(w, "This is version %s of %s.\n", buildVersion, cli)
}
