package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestLoadFile_Rain(t *testing.T) {
	d, err := LoadFile(testPath("valid-rain.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if d.Meta.Name != "rain" || d.Meta.Version != "1.2.0" {
		t.Errorf("meta = %+v", d.Meta)
	}
	if got := d.Commands.Names(); !reflect.DeepEqual(got, []string{"demo", "display", "score"}) {
		t.Errorf("command order = %v", got)
	}
	score, ok := d.Commands.Find("score")
	if !ok {
		t.Fatal("score command missing")
	}
	if !reflect.DeepEqual(score.Required, []string{"path"}) || !reflect.DeepEqual(score.Optional, []string{"threshold"}) {
		t.Errorf("score params = %v / %v", score.Required, score.Optional)
	}
	if !d.NeedsDisplay("display") || d.NeedsDisplay("demo") {
		t.Error("NeedsDisplay mismatch")
	}
	if d.ScriptExt() != "R" {
		t.Errorf("ScriptExt() = %q, want R", d.ScriptExt())
	}
}

func TestLoad_Precedence(t *testing.T) {
	d, err := Load(testPath("legacy-pkg"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Meta.Name != "legacy" {
		t.Errorf("loaded %q, want DESCRIPTION.yaml over DESCRIPTION.yml", d.Meta.Name)
	}
	if d.Meta.Version != "1.10" {
		t.Errorf("version = %q, want 1.10", d.Meta.Version)
	}
	if d.Meta.Summary() != "A package with the older descriptor name." {
		t.Errorf("Summary() = %q", d.Meta.Summary())
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrDescriptorNotFound) {
		t.Errorf("expected ErrDescriptorNotFound, got %v", err)
	}
}

func TestParse_MalformedCommand(t *testing.T) {
	_, err := LoadFile(testPath("invalid-bad-command.yaml"))
	if !errors.Is(err, ErrMalformedYAML) {
		t.Errorf("expected ErrMalformedYAML, got %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := LoadFile(testPath("invalid-not-yaml.yaml"))
	if !errors.Is(err, ErrMalformedYAML) {
		t.Errorf("expected ErrMalformedYAML, got %v", err)
	}
}

func TestLoadFile_Unreadable(t *testing.T) {
	_, err := LoadFile(testPath("nonexistent.yaml"))
	if !errors.Is(err, ErrYAMLAccess) {
		t.Errorf("expected ErrYAMLAccess, got %v", err)
	}
}

func TestScriptExt(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"python", "py"},
		{"py", "py"},
		{"R", "R"},
		{"sh", "sh"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			d := &Descriptor{Meta: Meta{Languages: tt.lang}}
			if got := d.ScriptExt(); got != tt.want {
				t.Errorf("ScriptExt(%q) = %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}

func TestPrivateGroups(t *testing.T) {
	d, err := Parse([]byte(`meta:
  name: vision
  private:
    azure: key*, endpoint
    google: [token*]
`), "inline")
	if err != nil {
		t.Fatal(err)
	}
	want := []PrivateGroup{
		{Service: "azure", Items: []string{"key*", "endpoint"}},
		{Service: "google", Items: []string{"token*"}},
	}
	if got := d.Meta.PrivateGroups(); !reflect.DeepEqual(got, want) {
		t.Errorf("PrivateGroups() = %+v, want %+v", got, want)
	}

	plain, _ := LoadFile(testPath("valid-rain.yaml"))
	if got := plain.Meta.PrivateGroups(); len(got) != 1 || got[0].Service != "" || len(got[0].Items) != 2 {
		t.Errorf("plain PrivateGroups() = %+v", got)
	}
}

func TestSetName_PreservesOrder(t *testing.T) {
	src, err := os.ReadFile(testPath("valid-rain.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "MLHUB.yaml")
	if err := os.WriteFile(p, src, 0644); err != nil {
		t.Fatal(err)
	}

	if err := SetName(p, "drizzle"); err != nil {
		t.Fatalf("SetName: %v", err)
	}

	d, err := LoadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if d.Meta.Name != "drizzle" {
		t.Errorf("name = %q, want drizzle", d.Meta.Name)
	}
	if got := d.Commands.Names(); !reflect.DeepEqual(got, []string{"demo", "display", "score"}) {
		t.Errorf("command order changed: %v", got)
	}

	data, _ := os.ReadFile(p)
	if strings.Index(string(data), "meta:") > strings.Index(string(data), "dependencies:") {
		t.Error("top-level key order changed")
	}
}

func TestMarshal_RoundTripCommands(t *testing.T) {
	d, err := LoadFile(testPath("valid-rain.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Parse(data, "marshaled")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(again.Commands, d.Commands) {
		t.Errorf("commands differ after marshal:\n%+v\n%+v", again.Commands, d.Commands)
	}
}
