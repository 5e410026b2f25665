package hosting

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/manifest"
)

var (
	// ErrDependencyFileNotFound is returned when a path inside a repository
	// cannot be found through the host API.
	ErrDependencyFileNotFound = errors.New("dependency file not found")

	// ErrDependencyFileTypeUnknown is returned when the host API does not
	// say whether a path is a file or a directory.
	ErrDependencyFileTypeUnknown = errors.New("dependency file type unknown")
)

// ResourceType classifies what a Ref points at.
type ResourceType string

const (
	ResourceRepo ResourceType = "repo"
	ResourceFile ResourceType = "file"
	ResourceDir  ResourceType = "dir"
)

// Endpoints are the base URLs of the hosting services.
type Endpoints struct {
	GitHubAPI    string
	GitHubRaw    string
	GitHubZip    string
	GitLab       string
	Bitbucket    string
	BitbucketAPI string
}

// DefaultEndpoints are the public service URLs.
var DefaultEndpoints = Endpoints{
	GitHubAPI:    "https://api.github.com",
	GitHubRaw:    "https://raw.githubusercontent.com",
	GitHubZip:    "https://codeload.github.com",
	GitLab:       "https://gitlab.com",
	Bitbucket:    "https://bitbucket.org",
	BitbucketAPI: "https://api.bitbucket.org/2.0",
}

// Service talks to the hosting services over HTTP.
type Service struct {
	client    *fetch.Client
	endpoints Endpoints
}

// NewService returns a Service using client and the given endpoints. A zero
// Endpoints value selects DefaultEndpoints.
func NewService(client *fetch.Client, ep Endpoints) *Service {
	if ep == (Endpoints{}) {
		ep = DefaultEndpoints
	}
	return &Service{client: client, endpoints: ep}
}

// DefaultBranch asks the host API for the repository's default branch.
func (s *Service) DefaultBranch(ctx context.Context, r *Ref) (string, error) {
	var api string
	switch r.Host {
	case GitHub:
		api = fmt.Sprintf("%s/repos/%s/%s", s.endpoints.GitHubAPI, r.Owner, r.Repo)
	case GitLab:
		api = fmt.Sprintf("%s/api/v4/projects/%s%%2F%s", s.endpoints.GitLab, r.Owner, r.Repo)
	case Bitbucket:
		api = fmt.Sprintf("%s/repositories/%s/%s", s.endpoints.BitbucketAPI, r.Owner, r.Repo)
	}

	body, err := s.client.Get(ctx, api)
	if err != nil {
		return "", fmt.Errorf("repository '%s/%s' was not found on %s: %w", r.Owner, r.Repo, r.Host, err)
	}

	var info struct {
		DefaultBranch string `json:"default_branch"`
		MainBranch    struct {
			Name string `json:"name"`
		} `json:"mainbranch"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("parsing %s response: %w", r.Host, err)
	}
	branch := info.DefaultBranch
	if r.Host == Bitbucket {
		branch = info.MainBranch.Name
	}
	if branch == "" {
		return "", fmt.Errorf("no default branch reported for %s/%s", r.Owner, r.Repo)
	}
	return branch, nil
}

// Resolve fills in the default branch when r has no explicit ref.
func (s *Service) Resolve(ctx context.Context, r *Ref) error {
	if r.Ref != "" {
		return nil
	}
	branch, err := s.DefaultBranch(ctx, r)
	if err != nil {
		return err
	}
	r.Ref = branch
	return nil
}

// ZipURL is the URL of the repository snapshot at r.Ref.
func (s *Service) ZipURL(r *Ref) string {
	switch r.Host {
	case GitLab:
		return fmt.Sprintf("%s/%s/%s/-/archive/%s/%s-%s.zip", s.endpoints.GitLab, r.Owner, r.Repo, r.Ref, r.Repo, r.Ref)
	case Bitbucket:
		return fmt.Sprintf("%s/%s/%s/get/%s.zip", s.endpoints.Bitbucket, r.Owner, r.Repo, r.Ref)
	}
	return fmt.Sprintf("%s/%s/%s/zip/%s", s.endpoints.GitHubZip, r.Owner, r.Repo, r.Ref)
}

// ContentURL is the raw URL of file within the repository. An empty file
// means r.Path.
func (s *Service) ContentURL(r *Ref, file string) string {
	if file == "" {
		file = r.Path
	}
	switch r.Host {
	case GitLab:
		return fmt.Sprintf("%s/%s/%s/raw/%s/%s", s.endpoints.GitLab, r.Owner, r.Repo, r.Ref, file)
	case Bitbucket:
		return fmt.Sprintf("%s/%s/%s/raw/%s/%s", s.endpoints.Bitbucket, r.Owner, r.Repo, r.Ref, file)
	}
	if r.IsPR() {
		return s.githubContentsURL(r, file)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", s.endpoints.GitHubRaw, r.Owner, r.Repo, r.Ref, file)
}

func (s *Service) githubContentsURL(r *Ref, file string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", s.endpoints.GitHubAPI, r.Owner, r.Repo, file, r.Ref)
}

// ResourceType asks the host whether r is the whole repository, a file or
// a directory, and returns the URL to download it from.
func (s *Service) ResourceType(ctx context.Context, r *Ref) (ResourceType, string, error) {
	if err := s.Resolve(ctx, r); err != nil {
		return "", "", err
	}
	if r.Path == "" {
		return ResourceRepo, s.ZipURL(r), nil
	}

	switch r.Host {
	case GitHub:
		body, err := s.client.Get(ctx, s.githubContentsURL(r, r.Path))
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileNotFound)
		}
		if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
			return ResourceDir, s.ZipURL(r), nil
		}
		return ResourceFile, s.ContentURL(r, ""), nil

	case GitLab:
		project := url.PathEscape(r.Owner + "/" + r.Repo)
		fileAPI := fmt.Sprintf("%s/api/v4/projects/%s/repository/files/%s/raw?ref=%s",
			s.endpoints.GitLab, project, url.PathEscape(r.Path), r.Ref)
		if s.client.Exists(ctx, fileAPI) {
			return ResourceFile, s.ContentURL(r, ""), nil
		}
		treeAPI := fmt.Sprintf("%s/api/v4/projects/%s/repository/tree?path=%s&ref=%s",
			s.endpoints.GitLab, project, r.Path, r.Ref)
		body, err := s.client.Get(ctx, treeAPI)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileNotFound)
		}
		if !strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
			return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileTypeUnknown)
		}
		return ResourceDir, s.ZipURL(r), nil

	case Bitbucket:
		api := fmt.Sprintf("%s/repositories/%s/%s/src/%s/%s?format=meta",
			s.endpoints.BitbucketAPI, r.Owner, r.Repo, r.Ref, r.Path)
		body, err := s.client.Get(ctx, api)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileNotFound)
		}
		var meta struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(body, &meta); err != nil {
			return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileTypeUnknown)
		}
		switch meta.Type {
		case "commit_file":
			return ResourceFile, s.ContentURL(r, ""), nil
		case "commit_directory":
			return ResourceDir, s.ZipURL(r), nil
		}
		return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileTypeUnknown)
	}
	return "", "", fmt.Errorf("%s: %w", r.Source, ErrDependencyFileTypeUnknown)
}

// DescriptorURL returns the URL of the package descriptor. With a path the
// path is the descriptor; otherwise the first descriptor name that answers
// 200 at the repository root wins.
func (s *Service) DescriptorURL(ctx context.Context, r *Ref) (string, error) {
	if err := s.Resolve(ctx, r); err != nil {
		return "", err
	}
	if r.Path != "" {
		return s.ContentURL(r, ""), nil
	}
	for _, name := range manifest.DescriptorNames {
		u := s.ContentURL(r, name)
		if s.client.Exists(ctx, u) {
			return u, nil
		}
	}
	return "", fmt.Errorf("%s: %w", r.Source, manifest.ErrDescriptorNotFound)
}

// ReadRaw returns the content behind a URL composed by ContentURL. GitHub
// contents API answers are base64 decoded.
func (s *Service) ReadRaw(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(rawURL, s.endpoints.GitHubAPI+"/") {
		return body, nil
	}

	var content struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("parsing contents response: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding contents response: %w", err)
	}
	return data, nil
}

// DescriptorLocation returns the descriptor URL of a plain package URL
// (not on a known host) by probing the descriptor names below it.
func (s *Service) DescriptorLocation(ctx context.Context, base string) (string, error) {
	base = strings.TrimSuffix(base, "/")
	for _, name := range manifest.DescriptorNames {
		u := base + "/" + name
		if s.client.Exists(ctx, u) {
			return u, nil
		}
	}
	return "", fmt.Errorf("%s: %w", base, manifest.ErrDescriptorNotFound)
}
