package registry

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/mlhub-labs/mlhub/internal/catalog"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

const rainYAML = `meta:
  name: rain
  version: 1.2.0
  title: Predict rain tomorrow
  languages: R
commands:
  demo: Run the model on sample data.
  score:
    description: Apply the model to a dataset.
`

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

func rainPackage(t *testing.T) []byte {
	t.Helper()
	return zipBytes(t, map[string]string{
		"rain/MLHUB.yaml": rainYAML,
		"rain/demo.R":     "print('demo')\n",
		"rain/README.md":  "# Rain\n\nPredicts rain.\n",
	})
}

// hub serves the given paths; everything else is 404.
func hub(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestRegistry wires a registry to srv with answers as prompt input.
func newTestRegistry(t *testing.T, srv *httptest.Server, answers string) (*Registry, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	client := fetch.New()
	hubURL := "http://127.0.0.1:1/"
	if srv != nil {
		client = fetch.New(fetch.WithHTTPClient(srv.Client()))
		hubURL = srv.URL
	}
	layout := userdata.NewLayout(filepath.Join(t.TempDir(), ".mlhub"))
	endpoints := hosting.Endpoints{}
	if srv != nil {
		endpoints = hosting.Endpoints{
			GitHubAPI:    srv.URL + "/ghapi",
			GitHubRaw:    srv.URL + "/ghraw",
			GitHubZip:    srv.URL + "/ghzip",
			GitLab:       srv.URL + "/gitlab",
			Bitbucket:    srv.URL + "/bb",
			BitbucketAPI: srv.URL + "/bbapi",
		}
	}
	return &Registry{
		Layout:   layout,
		Catalog:  catalog.New(hubURL, client, catalog.WithCacheDir(layout.CatalogCachePath())),
		Fetch:    client,
		Hosting:  hosting.NewService(client, endpoints),
		Prompter: prompt.New(strings.NewReader(answers), &out),
		Out:      &out,
		ErrOut:   &out,
	}, &out
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

// installRain puts a minimal rain package in place without going through
// Install.
func installRain(t *testing.T, r *Registry) string {
	t.Helper()
	dir := r.Layout.PackageDir("rain")
	writeFile(t, filepath.Join(dir, "MLHUB.yaml"), rainYAML)
	return dir
}
