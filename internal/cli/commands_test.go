package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlhub-labs/mlhub/internal/userdata"
)

func TestAvailable(t *testing.T) {
	root := testEnv(t)
	srv := serveHub(t)

	out, _, err := execute(t, "", "available")
	if err != nil {
		t.Fatalf("ml available: %v", err)
	}
	for _, want := range []string{
		"The repository '" + srv.URL + "/' provides the following models:\n\n",
		"rain         1.2.0  Predict rain tomorrow.",
		"iris          0.1   A very long description of a classifier that exceeds the...",
		"\nTo install a model:\n\n  $ ml install rain\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	words, err := userdata.NewLayout(root).ReadCompletion(userdata.CompletionModels)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(words, ",") != "iris,rain" && strings.Join(words, ",") != "rain,iris" {
		t.Errorf("model completion = %v", words)
	}

	out, _, err = execute(t, "", "available", "--name-only")
	if err != nil {
		t.Fatalf("ml available --name-only: %v", err)
	}
	if out != "rain\niris\n" {
		t.Errorf("--name-only output = %q", out)
	}
}

func TestInstallByName(t *testing.T) {
	root := testEnv(t)
	serveHub(t)

	out, _, err := execute(t, "", "install", "rain")
	if err != nil {
		t.Fatalf("ml install rain: %v", err)
	}
	dir := filepath.Join(root, "rain")
	for _, want := range []string{
		"Found 'rain' version 1.2.0.\n\nInstalled 'rain' into '" + dir + "/' (",
		"\nTo configure the dependencies required for the model:\n\n  $ ml configure rain\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "MLHUB.yaml")); err != nil {
		t.Errorf("descriptor not installed: %v", err)
	}

	// A second install asks before replacing.
	out, _, err = execute(t, "n\n", "install", "rain")
	if err != nil {
		t.Fatalf("second install: %v", err)
	}
	if !strings.Contains(out, "Replace 'rain' version '1.2.0' with version '1.2.0' [Y/n]?") {
		t.Errorf("no replace prompt:\n%s", out)
	}
}

func TestInstalled(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)
	if err := os.MkdirAll(filepath.Join(root, "storm"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "installed")
	if err != nil {
		t.Fatalf("ml installed: %v", err)
	}
	for _, want := range []string{
		"Found 2 models installed in '" + root + "'.",
		"rain         1.2.0  Predict rain tomorrow.",
		"Of which 1 model package is broken:",
		"storm",
		"$ ml uninstall storm",
		"\nTo configure the dependencies required for the model:\n\n  $ ml configure rain\n",
		"$ ml readme rain",
		"$ ml commands rain",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "", "installed", "--name-only")
	if err != nil {
		t.Fatal(err)
	}
	if out != "rain\n" {
		t.Errorf("--name-only output = %q", out)
	}
}

func TestInstalled_None(t *testing.T) {
	root := testEnv(t)

	out, _, err := execute(t, "", "installed")
	if err != nil {
		t.Fatalf("ml installed: %v", err)
	}
	if !strings.Contains(out, "Found 0 models installed. '"+root+"' does not exist.") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "$ ml available") || !strings.Contains(out, "$ ml install <model>") {
		t.Errorf("missing next steps:\n%s", out)
	}
}

func TestCommands(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "", "commands", "rain")
	if err != nil {
		t.Fatalf("ml commands: %v", err)
	}
	want := "The 'rain' model (predict rain tomorrow) supports the following commands:\n" +
		"\n  $ ml demo rain\n    Run the model on sample data.\n" +
		"\n  $ ml score rain <path> [<threshold>]\n    Apply the model to a dataset.\n" +
		"\n\nTo run the model on sample data:\n\n  $ ml demo rain\n\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	out, _, err = execute(t, "", "commands", "--name-only", "rain")
	if err != nil {
		t.Fatal(err)
	}
	if out != "demo\nscore\n" {
		t.Errorf("--name-only output = %q", out)
	}
}

func TestReadmeAndVersion(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "", "readme", "rain")
	if err != nil {
		t.Fatalf("ml readme: %v", err)
	}
	if !strings.HasPrefix(out, "Rain\n====\n\nPredicts rain.\n") {
		t.Errorf("readme output = %q", out)
	}
	if !strings.Contains(out, "To list all of the commands supported by the model:\n\n  $ ml commands rain") {
		t.Errorf("missing next step:\n%s", out)
	}

	out, _, err = execute(t, "", "version", "rain")
	if err != nil {
		t.Fatalf("ml version rain: %v", err)
	}
	if out != "rain version 1.2.0\n" {
		t.Errorf("version output = %q", out)
	}

	out, _, err = execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "mlhub version dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestRenameAndUninstall(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "", "rename", "rain", "drizzle")
	if err != nil {
		t.Fatalf("ml rename: %v", err)
	}
	if want := "Renamed 'rain' as 'drizzle' (now '" + filepath.Join(root, "drizzle") + "').\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	if _, _, err := execute(t, "", "uninstall", "--yes_cache_no", "drizzle"); err != nil {
		t.Fatalf("ml uninstall: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "drizzle")); !os.IsNotExist(err) {
		t.Errorf("package still present: %v", err)
	}

	out, _, err = execute(t, "no\n", "uninstall")
	if err != nil {
		t.Fatalf("ml uninstall: %v", err)
	}
	if !strings.Contains(out, "*Completely* remove all installed models in '"+root+"' [yes/N]") {
		t.Errorf("no confirmation prompt:\n%s", out)
	}
	if !strings.Contains(out, "MLHub has not been removed.") {
		t.Errorf("output:\n%s", out)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("package root removed: %v", err)
	}
}

func TestUninstall_NoRoot(t *testing.T) {
	root := testEnv(t)
	out, _, err := execute(t, "", "uninstall")
	if err != nil {
		t.Fatal(err)
	}
	if want := "The local model folder '" + root + "' does not exist. Nothing to do.\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestConfigure(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "", "configure", "rain")
	if err != nil {
		t.Fatalf("ml configure rain: %v", err)
	}
	for _, want := range []string{
		"No configuration provided (maybe none is required).",
		"To display the model's README information:\n\n  $ ml readme rain",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestConfigureSelf(t *testing.T) {
	root := testEnv(t)
	old := systemCompletionDir
	systemCompletionDir = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { systemCompletionDir = old })

	out, _, err := execute(t, "", "configure")
	if err != nil {
		t.Fatalf("ml configure: %v", err)
	}
	path := filepath.Join(root, userdata.CompletionDir, "ml.bash")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("completion script not written: %v", err)
	}
	if !strings.Contains(string(data), "complete -o default -F _ml_complete ml") {
		t.Errorf("unexpected script:\n%s", data)
	}
	if !strings.Contains(out, "$ source "+path) {
		t.Errorf("output:\n%s", out)
	}
}

func TestCompletion(t *testing.T) {
	root := testEnv(t)
	if err := userdata.NewLayout(root).AddCompletion(userdata.CompletionModels, "rain", "iris"); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("ml completion bash: %v", err)
	}
	for _, want := range []string{
		"commands|configure|readme|rename|uninstall|version)",
		"ml completion words models",
		"ml installed --name-only",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("script lacks %q", want)
		}
	}

	out, _, err = execute(t, "", "completion", "words", "models")
	if err != nil {
		t.Fatalf("ml completion words: %v", err)
	}
	if !strings.Contains(out, "rain\n") || !strings.Contains(out, "iris\n") {
		t.Errorf("words = %q", out)
	}

	if _, _, err := execute(t, "", "completion", "words", "colours"); err == nil {
		t.Error("expected an error for an unknown word list")
	}
}

func TestValidate(t *testing.T) {
	root := testEnv(t)
	dir := installRain(t, root)

	out, _, err := execute(t, "", "validate", dir)
	if err != nil {
		t.Fatalf("ml validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[ OK ] Valid descriptor: rain (v1.2.0)") {
		t.Errorf("output:\n%s", out)
	}

	bad := filepath.Join(t.TempDir(), "MLHUB.yaml")
	writeFile(t, bad, "meta:\n  version: 1\n", 0o644)
	out, _, err = execute(t, "", "validate", bad)
	if err == nil {
		t.Fatalf("expected validation failure:\n%s", out)
	}
	if !strings.Contains(out, "[FAIL]") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDoctor(t *testing.T) {
	root := testEnv(t)
	installRain(t, root)

	out, _, err := execute(t, "", "doctor", "--check-layout", "--check-packages", "--fix")
	if err != nil {
		t.Fatalf("ml doctor: %v", err)
	}
	for _, want := range []string{"Package root check:", "Package check:", "[ OK ] rain"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(root, userdata.ArchiveDir)); err != nil {
		t.Errorf("--fix did not create the archive dir: %v", err)
	}
}
