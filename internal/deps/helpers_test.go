package deps

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// fakeTool writes an executable shell script named name into dir.
func fakeTool(t *testing.T, dir, name, body string) {
	t.Helper()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0755); err != nil {
		t.Fatalf("writing fake %s: %v", name, err)
	}
}

// fakePath creates a bin dir, puts it first on PATH and returns it. With
// only set, PATH holds nothing else.
func fakePath(t *testing.T, only bool) string {
	t.Helper()
	dir := t.TempDir()
	if only {
		t.Setenv("PATH", dir)
	} else {
		t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	return dir
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// newTestInstaller returns an installer for model "rain" in a fresh layout
// whose package dir exists.
func newTestInstaller(t *testing.T, input string) (*Installer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	layout := userdata.NewLayout(t.TempDir())
	if err := os.MkdirAll(layout.PackageDir("rain"), 0755); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	p := prompt.New(strings.NewReader(input), &out)
	in := &Installer{
		Layout:   layout,
		Model:    "rain",
		Prompter: p,
		Out:      &out,
		ErrOut:   &errOut,
		Stdin:    p.Reader(),
	}
	return in, &out, &errOut
}
