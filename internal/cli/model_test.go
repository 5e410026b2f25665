package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlhub-labs/mlhub/internal/deps"
	"github.com/mlhub-labs/mlhub/internal/registry"
	"github.com/mlhub-labs/mlhub/internal/runtime"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

func TestModelCommand(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "", "demo", "rain")
	if err != nil {
		t.Fatalf("ml demo rain: %v", err)
	}
	if want := "rain demo \n\nTo apply the model to a dataset:\n\n  $ ml score rain\n\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	out, _, err = execute(t, "", "score", "rain", "data.csv")
	if err != nil {
		t.Fatalf("ml score rain: %v", err)
	}
	if want := "scored data.csv\n\nThank you for exploring the 'rain' package.\n\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestModelCommand_Misspelled(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "y\n", "scor", "rain", "x")
	if err != nil {
		t.Fatalf("ml scor rain: %v", err)
	}
	if !strings.Contains(out, "The command 'scor' is not supported.  Did you mean 'score' [Y/n]?") {
		t.Errorf("no correction prompt:\n%s", out)
	}
	if !strings.Contains(out, "scored x\n") {
		t.Errorf("corrected command did not run:\n%s", out)
	}
}

func TestModelCommand_WorkingDir(t *testing.T) {
	root := testEnv(t)
	dir := installRain(t, root)
	writeFile(t, filepath.Join(dir, "demo.sh"), "pwd\n", 0o755)
	wd := t.TempDir()

	out, _, err := execute(t, "", "--wd", wd, "demo", "rain")
	if err != nil {
		t.Fatalf("ml --wd demo rain: %v", err)
	}
	if !strings.HasPrefix(out, wd+"\n") {
		t.Errorf("script did not run in %s:\n%s", wd, out)
	}
	if got := userdata.NewLayout(root).SavedWorkingDir("rain"); got != wd {
		t.Errorf("saved working dir = %q, want %q", got, wd)
	}

	// The saved working dir applies to later runs.
	out, _, err = execute(t, "", "demo", "rain")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, wd+"\n") {
		t.Errorf("saved working dir not used:\n%s", out)
	}
}

func TestModelCommand_Failures(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		args     []string
		wantErr  error
		wantCode int
		wantOut  string
	}{
		{
			name:     "not installed",
			args:     []string{"demo", "nope"},
			wantErr:  registry.ErrModelNotInstalled,
			wantCode: 1,
			wantOut:  "$ ml install nope",
		},
		{
			name:     "unknown command",
			args:     []string{"train", "rain"},
			wantErr:  runtime.ErrCommandNotFound,
			wantCode: 1,
		},
		{
			name:     "script failure",
			script:   "echo broken >&2\nexit 3\n",
			args:     []string{"demo", "rain"},
			wantCode: 3,
			wantOut:  "An error was encountered:\n\nbroken",
		},
		{
			name:     "missing dependency",
			script:   "echo \"ModuleNotFoundError: No module named 'sklearn'\" >&2\nexit 1\n",
			args:     []string{"demo", "rain"},
			wantErr:  deps.ErrLackDependency,
			wantCode: 1,
			wantOut:  "$ ml configure rain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testEnv(t)
			dir := installRain(t, root)
			if tt.script != "" {
				writeFile(t, filepath.Join(dir, "demo.sh"), tt.script, 0o755)
			}

			_, _, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if got := ExitCode(err); got != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", got, tt.wantCode)
			}
			if tt.wantOut != "" && !strings.Contains(err.Error(), tt.wantOut) {
				t.Errorf("error message lacks %q:\n%s", tt.wantOut, err.Error())
			}
		})
	}
}

func TestModelCommand_DisplayDeclined(t *testing.T) {
	root := testEnv(t)
	dir := installRain(t, root)
	desc := strings.Replace(rainYAML, "  languages: sh\n", "  languages: sh\n  display: demo\n", 1)
	writeFile(t, filepath.Join(dir, "MLHUB.yaml"), desc, 0o644)

	out, _, err := execute(t, "\n", "demo", "rain")
	if !errors.Is(err, errDisplayUnavailable) {
		t.Fatalf("error = %v, want errDisplayUnavailable", err)
	}
	if !strings.Contains(out, "Graphic display is required but not available for command 'demo'. Continue [y/N]?") {
		t.Errorf("no display prompt:\n%s", out)
	}
	if !strings.Contains(err.Error(), "ssh -X") {
		t.Errorf("missing display hint: %v", err)
	}
}

func TestModelCommand_NoScript(t *testing.T) {
	root := testEnv(t)
	dir := installRain(t, root)
	if err := os.Remove(filepath.Join(dir, "score.sh")); err != nil {
		t.Fatal(err)
	}

	_, _, err := execute(t, "", "score", "rain", "x")
	if !errors.Is(err, runtime.ErrCommandNotFound) {
		t.Fatalf("error = %v, want ErrCommandNotFound", err)
	}
}
