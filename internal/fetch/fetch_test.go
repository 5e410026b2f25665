package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Packages.yaml", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "meta:\n  name: rain\n")
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="rain_1.0.mlm"`)
		w.Header().Set("Content-Length", "5")
		w.Write([]byte("hello"))
	})
	mux.HandleFunc("/missing.zip", http.NotFound)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGet(t *testing.T) {
	srv := newServer(t)
	c := New(WithHTTPClient(srv.Client()))

	body, err := c.Get(context.Background(), srv.URL+"/Packages.yaml")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !strings.Contains(string(body), "rain") {
		t.Errorf("unexpected body %q", body)
	}

	_, err = c.Get(context.Background(), srv.URL+"/missing.zip")
	if !errors.Is(err, ErrURLAccess) {
		t.Errorf("expected ErrURLAccess, got %v", err)
	}
}

func TestExists(t *testing.T) {
	srv := newServer(t)
	c := New(WithHTTPClient(srv.Client()))

	if !c.Exists(context.Background(), srv.URL+"/Packages.yaml") {
		t.Error("expected Packages.yaml to exist")
	}
	if c.Exists(context.Background(), srv.URL+"/missing.zip") {
		t.Error("expected missing.zip not to exist")
	}
}

func TestFilename(t *testing.T) {
	srv := newServer(t)
	c := New(WithHTTPClient(srv.Client()))
	ctx := context.Background()

	name, err := c.Filename(ctx, srv.URL+"/download?token=1")
	if err != nil {
		t.Fatalf("Filename failed: %v", err)
	}
	if name != "rain_1.0.mlm" {
		t.Errorf("Filename = %q, want rain_1.0.mlm", name)
	}

	name, err = c.Filename(ctx, srv.URL+"/missing.zip")
	if err != nil || name != "" {
		t.Errorf("expected empty name for 404, got %q, %v", name, err)
	}
}

func TestURLBase(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://mlhub.au/pool/rain_1.0.mlm", "rain_1.0.mlm"},
		{"https://host/data.csv?raw=true", "data.csv"},
		{"https://host/x/model.zip#frag", "model.zip"},
		{"https://host/", "host"},
	}
	for _, tt := range tests {
		if got := URLBase(tt.url); got != tt.want {
			t.Errorf("URLBase(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDownload(t *testing.T) {
	srv := newServer(t)
	var progress bytes.Buffer
	c := New(WithHTTPClient(srv.Client()), WithProgress(&progress))

	dest := filepath.Join(t.TempDir(), "sub", "rain_1.0.mlm")
	var announced int64
	n, err := c.Download(context.Background(), srv.URL+"/download", dest, func(total int64) {
		announced = total
	})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if n != 5 || announced != 5 {
		t.Errorf("got n=%d announced=%d, want 5", n, announced)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
	if !strings.Contains(progress.String(), "100%") {
		t.Errorf("expected progress output, got %q", progress.String())
	}

	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Errorf("expected only the final file, found %d entries", len(entries))
	}
}

func TestDownload_NotFound(t *testing.T) {
	srv := newServer(t)
	c := New(WithHTTPClient(srv.Client()))

	dest := filepath.Join(t.TempDir(), "x.zip")
	_, err := c.Download(context.Background(), srv.URL+"/missing.zip", dest, nil)
	if !errors.Is(err, ErrURLAccess) {
		t.Fatalf("expected ErrURLAccess, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("no file should be left behind")
	}
}

func TestBytes(t *testing.T) {
	if got := Bytes(1234567); got != "1,234,567" {
		t.Errorf("Bytes = %q", got)
	}
	if got := Bytes(12); got != "12" {
		t.Errorf("Bytes = %q", got)
	}
}
