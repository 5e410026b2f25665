package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mlhub-labs/mlhub/internal/config"
	"github.com/mlhub-labs/mlhub/internal/manifest"
)

// annotationModel marks commands whose first argument is a model.
const annotationModel = "model"

var modelAnnotation = map[string]string{annotationModel: "true"}

// Scenarios of the installed command.
const (
	scenarioExist = "exist"
	scenarioNone  = "none"
)

// nextSteps lists the commands suggested after each command, per scenario.
var nextSteps = map[string]map[string][]string{
	"available": {"": {"install"}},
	"installed": {
		scenarioExist: {"configure", "readme", "commands"},
		scenarioNone:  {"available", "install"},
	},
	"install":   {"": {"configure"}},
	"configure": {"": {"readme"}},
	"readme":    {"": {"commands"}},
	"uninstall": {"": {"installed", "install"}},
}

// toDescription turns a one-line description into the tail of "To ...:".
func toDescription(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// suggestion formats one next step for a built-in command.
func suggestion(name, model string) string {
	c, _, err := rootCmd.Find([]string{name})
	if err != nil || c == rootCmd {
		return ""
	}
	line := config.CmdName() + " " + name
	if c.Annotations[annotationModel] != "" {
		if model == "" {
			model = "<model>"
		}
		line += " " + model
	}
	return fmt.Sprintf("\nTo %s:\n\n  $ %s\n", toDescription(c.Short), line)
}

// printNextSteps prints the suggestions following cmd unless quiet.
func printNextSteps(w io.Writer, cmd, scenario, model string) {
	if sess.quiet {
		return
	}
	steps := nextSteps[cmd][scenario]
	if len(steps) == 0 {
		return
	}
	for _, step := range steps {
		fmt.Fprint(w, suggestion(step, model))
	}
	fmt.Fprintln(w)
}

// printNextCommand suggests the model command declared after done, or
// thanks the user once the last one has run. An empty done suggests the
// first command.
func printNextCommand(w io.Writer, model string, cmds manifest.Commands, done string) {
	if sess.quiet || len(cmds) == 0 {
		return
	}
	i := 0
	if done != "" {
		i = cmds.Index(done) + 1
	}
	if i >= len(cmds) {
		fmt.Fprintf(w, "\nThank you for exploring the '%s' package.\n\n", model)
		return
	}
	next := cmds[i]
	desc := toDescription(next.Description)
	if desc == "" {
		desc = "run the '" + next.Name + "' command"
	}
	fmt.Fprintf(w, "\nTo %s:\n\n  $ %s %s %s\n\n", desc, config.CmdName(), next.Name, model)
}
