package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mlhub-labs/mlhub/internal/runtime"
)

const rainYAML = `meta:
  name: rain
  version: 1.2.0
  title: Predict rain tomorrow.
  languages: sh
commands:
  demo: Run the model on sample data.
  score:
    description: Apply the model to a dataset.
    required: path
    optional: [threshold]
`

// testEnv points ml at a fresh package root and a hub that does not
// answer. It returns the package root, which does not exist yet.
func testEnv(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "mlhub")
	t.Setenv("MLINIT", root)
	t.Setenv("MLHUB", "http://127.0.0.1:1/")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DISPLAY", "")

	oldDebian := isDebianLike
	isDebianLike = func() bool { return false }
	oldBash := runtime.BashCmd
	runtime.BashCmd = "/bin/sh"
	t.Cleanup(func() {
		isDebianLike = oldDebian
		runtime.BashCmd = oldBash
	})
	return root
}

// execute runs ml with args and input as stdin.
func execute(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(input), &out, &errOut)
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, path, body string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), perm); err != nil {
		t.Fatal(err)
	}
}

// installRain places the rain package directly under root.
func installRain(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "rain")
	writeFile(t, filepath.Join(dir, "MLHUB.yaml"), rainYAML, 0o644)
	writeFile(t, filepath.Join(dir, "demo.sh"), "echo \"$_MLHUB_MODEL_NAME demo $*\"\n", 0o755)
	writeFile(t, filepath.Join(dir, "score.sh"), "echo scored \"$1\"\n", 0o755)
	writeFile(t, filepath.Join(dir, "README.txt"), "Rain\n====\n\nPredicts rain.\n", 0o644)
	return dir
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// serveHub starts a hub whose catalog lists rain with its archive on the
// same server, and points MLHUB at it.
func serveHub(t *testing.T) *httptest.Server {
	t.Helper()
	pkg := zipBytes(t, map[string]string{
		"rain/MLHUB.yaml": rainYAML,
		"rain/demo.sh":    "echo demo\n",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Packages.yaml":
			fmt.Fprintf(w, `meta:
  name: rain
  version: 1.2.0
  title: Predict rain tomorrow.
  url: http://%s/rain_1.2.0.mlm
---
meta:
  name: iris
  version: 0.1
  description: A very long description of a classifier that exceeds the width of the listing column.
  url: http://%s/iris_0.1.mlm
`, r.Host, r.Host)
		case "/rain_1.2.0.mlm":
			w.Write(pkg)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("MLHUB", srv.URL+"/")
	return srv
}
