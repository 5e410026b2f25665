package hosting

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/manifest"
)

func newTestService(t *testing.T, mux *http.ServeMux) (*Service, string) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	ep := Endpoints{
		GitHubAPI:    srv.URL + "/ghapi",
		GitHubRaw:    srv.URL + "/ghraw",
		GitHubZip:    srv.URL + "/ghzip",
		GitLab:       srv.URL + "/gitlab",
		Bitbucket:    srv.URL + "/bb",
		BitbucketAPI: srv.URL + "/bbapi",
	}
	return NewService(fetch.New(fetch.WithHTTPClient(srv.Client())), ep), srv.URL
}

func TestDefaultBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ghapi/repos/o/r", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"default_branch": "main"}`)
	})
	mux.HandleFunc("/gitlab/api/v4/projects/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"default_branch": "trunk"}`)
	})
	mux.HandleFunc("/bbapi/repositories/o/r", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"mainbranch": {"name": "master"}}`)
	})
	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	tests := []struct {
		host Host
		want string
	}{
		{GitHub, "main"},
		{GitLab, "trunk"},
		{Bitbucket, "master"},
	}
	for _, tt := range tests {
		r := &Ref{Host: tt.host, Owner: "o", Repo: "r"}
		if err := svc.Resolve(ctx, r); err != nil {
			t.Fatalf("%s: Resolve: %v", tt.host, err)
		}
		if r.Ref != tt.want {
			t.Errorf("%s: Ref = %q, want %q", tt.host, r.Ref, tt.want)
		}
	}

	missing := &Ref{Host: GitHub, Owner: "o", Repo: "missing"}
	if err := svc.Resolve(ctx, missing); err == nil {
		t.Error("expected error for unknown repository")
	}
}

func TestComposeURLs(t *testing.T) {
	svc := NewService(fetch.New(), Endpoints{})
	tests := []struct {
		ref     Ref
		zip     string
		content string
	}{
		{
			Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "main", Path: "MLHUB.yaml"},
			"https://codeload.github.com/o/r/zip/main",
			"https://raw.githubusercontent.com/o/r/main/MLHUB.yaml",
		},
		{
			Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "pull/3/head", Path: "MLHUB.yaml"},
			"https://codeload.github.com/o/r/zip/pull/3/head",
			"https://api.github.com/repos/o/r/contents/MLHUB.yaml?ref=pull/3/head",
		},
		{
			Ref{Host: GitLab, Owner: "o", Repo: "r", Ref: "dev", Path: "a.csv"},
			"https://gitlab.com/o/r/-/archive/dev/r-dev.zip",
			"https://gitlab.com/o/r/raw/dev/a.csv",
		},
		{
			Ref{Host: Bitbucket, Owner: "o", Repo: "r", Ref: "v1", Path: "a.csv"},
			"https://bitbucket.org/o/r/get/v1.zip",
			"https://bitbucket.org/o/r/raw/v1/a.csv",
		},
	}
	for _, tt := range tests {
		if got := svc.ZipURL(&tt.ref); got != tt.zip {
			t.Errorf("ZipURL = %q, want %q", got, tt.zip)
		}
		if got := svc.ContentURL(&tt.ref, ""); got != tt.content {
			t.Errorf("ContentURL = %q, want %q", got, tt.content)
		}
	}
}

func TestResourceType_GitHub(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ghapi/repos/o/r/contents/data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "a.csv"}]`)
	})
	mux.HandleFunc("/ghapi/repos/o/r/contents/model.rds", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "model.rds"}`)
	})
	svc, base := newTestService(t, mux)
	ctx := context.Background()

	typ, u, err := svc.ResourceType(ctx, &Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "main"})
	if err != nil || typ != ResourceRepo || u != base+"/ghzip/o/r/zip/main" {
		t.Errorf("repo: got %s %s %v", typ, u, err)
	}

	typ, u, err = svc.ResourceType(ctx, &Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "main", Path: "data"})
	if err != nil || typ != ResourceDir || u != base+"/ghzip/o/r/zip/main" {
		t.Errorf("dir: got %s %s %v", typ, u, err)
	}

	typ, u, err = svc.ResourceType(ctx, &Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "main", Path: "model.rds"})
	if err != nil || typ != ResourceFile || u != base+"/ghraw/o/r/main/model.rds" {
		t.Errorf("file: got %s %s %v", typ, u, err)
	}

	_, _, err = svc.ResourceType(ctx, &Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "main", Path: "nope"})
	if !errors.Is(err, ErrDependencyFileNotFound) {
		t.Errorf("expected ErrDependencyFileNotFound, got %v", err)
	}
}

func TestResourceType_Bitbucket(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bbapi/repositories/o/r/src/main/data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type": "commit_directory"}`)
	})
	mux.HandleFunc("/bbapi/repositories/o/r/src/main/odd", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type": "submodule"}`)
	})
	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	typ, _, err := svc.ResourceType(ctx, &Ref{Host: Bitbucket, Owner: "o", Repo: "r", Ref: "main", Path: "data"})
	if err != nil || typ != ResourceDir {
		t.Errorf("got %s, %v", typ, err)
	}
	_, _, err = svc.ResourceType(ctx, &Ref{Host: Bitbucket, Owner: "o", Repo: "r", Ref: "main", Path: "odd"})
	if !errors.Is(err, ErrDependencyFileTypeUnknown) {
		t.Errorf("expected ErrDependencyFileTypeUnknown, got %v", err)
	}
}

func TestDescriptorURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ghraw/o/r/main/DESCRIPTION.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "meta:\n  name: r\n")
	})
	svc, base := newTestService(t, mux)
	ctx := context.Background()

	u, err := svc.DescriptorURL(ctx, &Ref{Host: GitHub, Owner: "o", Repo: "r", Ref: "main"})
	if err != nil {
		t.Fatalf("DescriptorURL: %v", err)
	}
	if u != base+"/ghraw/o/r/main/DESCRIPTION.yaml" {
		t.Errorf("DescriptorURL = %q", u)
	}

	_, err = svc.DescriptorURL(ctx, &Ref{Host: GitHub, Owner: "o", Repo: "private", Ref: "main"})
	if !errors.Is(err, manifest.ErrDescriptorNotFound) {
		t.Errorf("expected ErrDescriptorNotFound, got %v", err)
	}
}

func TestReadRaw_GitHubContents(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("meta:\n  name: r\n"))
	mux := http.NewServeMux()
	mux.HandleFunc("/ghapi/repos/o/r/contents/MLHUB.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"content": %q}`, encoded)
	})
	svc, base := newTestService(t, mux)

	data, err := svc.ReadRaw(context.Background(), base+"/ghapi/repos/o/r/contents/MLHUB.yaml?ref=pull/1/head")
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if string(data) != "meta:\n  name: r\n" {
		t.Errorf("ReadRaw = %q", data)
	}
}
