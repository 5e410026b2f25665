//go:build integration

package integration_test

import (
	"archive/tar"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/mlhub-labs/mlhub/internal/catalog"
	"github.com/mlhub-labs/mlhub/internal/deps"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/registry"
	"github.com/mlhub-labs/mlhub/internal/runtime"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// rainDescriptor is the rain package descriptor; HUB is replaced by the
// hub base URL.
const rainDescriptor = `meta:
  name: rain
  version: 1.2.0
  title: Predict rain tomorrow.
  languages: sh
  url: HUB/rain_1.2.0.mlm
dependencies:
  files:
    - HUB/weights.csv
commands:
  demo: Run the model on sample data.
  score:
    description: Apply the model to a dataset.
    required: path
`

const stormDescriptor = `meta:
  name: storm
  version: 0.3
  description: Track storms.
  languages: sh
commands:
  track: Track the storms in a region.
`

// hubServer is an in-process model hub. Files can be added while it runs.
type hubServer struct {
	*httptest.Server
	mu    sync.Mutex
	files map[string][]byte
}

func (h *hubServer) put(path string, body []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = body
}

// hub returns the base URL of the hub with a trailing slash.
func (h *hubServer) hub() string { return h.URL + "/" }

// newHub serves the rain and storm packages and their descriptors.
func newHub(t *testing.T) *hubServer {
	t.Helper()
	h := &hubServer{files: map[string][]byte{}}
	h.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		body, ok := h.files[r.URL.Path]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(h.Close)

	rain := strings.ReplaceAll(rainDescriptor, "HUB", h.URL)
	h.put("/rain/MLHUB.yaml", []byte(rain))
	h.put("/rain_1.2.0.mlm", zipBytes(t, map[string]string{
		"rain/MLHUB.yaml": rain,
		"rain/demo.sh":    "echo \"$_MLHUB_MODEL_NAME demo\"\ncat weights.csv\n",
		"rain/score.sh":   "echo \"scored $1\"\n",
		"rain/README.md":  "# Rain\n\nPredicts rain from yesterday's weather.\n",
	}))
	h.put("/weights.csv", []byte("w,0.5\n"))
	h.put("/storm_0.3.tar.gz", tarGzBytes(t, map[string]string{
		"storm/MLHUB.yaml": stormDescriptor,
		"storm/track.sh":   "echo tracking\n",
	}))
	return h
}

// testEnv holds one isolated package root.
type testEnv struct {
	Layout userdata.Layout
	Hub    *hubServer
	Out    *bytes.Buffer
}

// setupTestEnv creates a package root under a temp dir and a hub. Model
// scripts run with /bin/sh.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	oldBash := runtime.BashCmd
	runtime.BashCmd = "/bin/sh"
	t.Cleanup(func() { runtime.BashCmd = oldBash })

	return &testEnv{
		Layout: userdata.NewLayout(filepath.Join(t.TempDir(), ".mlhub")),
		Hub:    newHub(t),
		Out:    &bytes.Buffer{},
	}
}

func (e *testEnv) client() *fetch.Client {
	return fetch.New(fetch.WithHTTPClient(e.Hub.Client()))
}

// registry wires a registry to the hub with answers as prompt input.
func (e *testEnv) registry(answers string) *registry.Registry {
	client := e.client()
	return &registry.Registry{
		Layout:   e.Layout,
		Catalog:  catalog.New(e.Hub.hub(), client, catalog.WithCacheDir(e.Layout.CatalogCachePath())),
		Fetch:    client,
		Hosting:  hosting.NewService(client, hosting.Endpoints{}),
		Prompter: prompt.New(strings.NewReader(answers), e.Out),
		Out:      e.Out,
		ErrOut:   e.Out,
	}
}

func (e *testEnv) installer(model string, desc *manifest.Descriptor) *deps.Installer {
	client := e.client()
	return &deps.Installer{
		Layout:     e.Layout,
		Model:      model,
		Descriptor: desc,
		Prompter:   prompt.New(strings.NewReader(""), e.Out),
		Fetch:      client,
		Hosting:    hosting.NewService(client, hosting.Endpoints{}),
		Out:        e.Out,
		ErrOut:     e.Out,
		Stdin:      strings.NewReader(""),
		Yes:        true,
	}
}

func (e *testEnv) runner(stdout *bytes.Buffer) *runtime.Runner {
	return &runtime.Runner{Stdin: strings.NewReader(""), Stdout: stdout, Stderr: e.Out}
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

func tarGzBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
