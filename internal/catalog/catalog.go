package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/logging"
	"github.com/mlhub-labs/mlhub/internal/manifest"
)

const (
	// DefaultMaxAge is the staleness threshold of a cached catalog (7 days).
	DefaultMaxAge = 7 * 24 * time.Hour

	dataFile  = "Packages.yaml"
	stateFile = "catalog.json"
)

// ErrRepoAccess is returned when the hub serves no catalog and no cached
// copy for that hub exists.
var ErrRepoAccess = errors.New("cannot access the model repository")

// State records where and when the cached catalog came from.
type State struct {
	Hub       string    `json:"hub"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Result is a loaded catalog.
type Result struct {
	*manifest.Catalog
	// URL is the catalog location on the hub.
	URL string
	// Cached is set when the hub was unreachable and the disk copy was used.
	Cached bool
	// FetchedAt is when the catalog was last fetched from the hub.
	FetchedAt time.Time
}

// Age is the time since the catalog was fetched.
func (r *Result) Age() time.Duration {
	return time.Since(r.FetchedAt)
}

// Stale reports whether a cached catalog is older than DefaultMaxAge.
func (r *Result) Stale() bool {
	return r.Cached && IsStale(&State{FetchedAt: r.FetchedAt}, DefaultMaxAge)
}

// Source loads the catalog of one hub.
type Source struct {
	hub      string
	client   *fetch.Client
	cacheDir string
	logger   *log.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithCacheDir enables the on-disk copy under dir. Without it every load
// goes to the hub.
func WithCacheDir(dir string) Option {
	return func(s *Source) {
		s.cacheDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Source) {
		s.logger = l
	}
}

// New returns a Source for hub. A trailing "/" is added when missing.
func New(hub string, client *fetch.Client, opts ...Option) *Source {
	if !strings.HasSuffix(hub, "/") {
		hub += "/"
	}
	s := &Source{hub: hub, client: client, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the hub URL.
func (s *Source) Hub() string { return s.hub }

// Load fetches Packages.yaml (then Packages.yml) from the hub. When neither
// can be fetched it falls back to the cached copy of the same hub.
func (s *Source) Load(ctx context.Context) (*Result, error) {
	var fetchErr error
	for _, name := range manifest.CatalogNames {
		url := s.hub + name
		data, err := s.client.Get(ctx, url)
		if err != nil {
			fetchErr = err
			s.logger.Debug("catalog fetch failed", "url", url, "err", err)
			continue
		}

		cat, err := manifest.ParseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", url, err)
		}
		now := time.Now()
		if err := s.save(data, now); err != nil {
			s.logger.Warn("caching catalog failed", "err", err)
		}
		s.logger.Info("catalog loaded", "url", url, "entries", len(cat.Entries))
		return &Result{Catalog: cat, URL: url, FetchedAt: now}, nil
	}

	res, err := s.cached()
	if err != nil {
		s.logger.Debug("no usable cached catalog", "err", err)
		return nil, fmt.Errorf("%s: %w: %v", s.hub, ErrRepoAccess, fetchErr)
	}
	s.logger.Warn("hub unreachable, using cached catalog", "hub", s.hub, "age", res.Age().Round(time.Minute))
	return res, nil
}

func (s *Source) cached() (*Result, error) {
	if s.cacheDir == "" {
		return nil, errors.New("catalog cache disabled")
	}
	state, err := LoadState(s.cacheDir)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Hub != s.hub {
		return nil, errors.New("no cached catalog for this hub")
	}
	data, err := os.ReadFile(filepath.Join(s.cacheDir, dataFile))
	if err != nil {
		return nil, fmt.Errorf("reading cached catalog: %w", err)
	}
	cat, err := manifest.ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Catalog:   cat,
		URL:       s.hub + dataFile,
		Cached:    true,
		FetchedAt: state.FetchedAt,
	}, nil
}

func (s *Source) save(data []byte, at time.Time) error {
	if s.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return fmt.Errorf("creating catalog cache: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.cacheDir, dataFile), data, 0644); err != nil {
		return fmt.Errorf("writing catalog cache: %w", err)
	}
	return SaveState(s.cacheDir, &State{Hub: s.hub, FetchedAt: at})
}

// LoadState reads catalog.json from dir. A missing file yields nil, nil.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing catalog state: %w", err)
	}
	return &st, nil
}

// SaveState writes catalog.json into dir.
func SaveState(dir string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFile), data, 0644); err != nil {
		return fmt.Errorf("writing catalog state: %w", err)
	}
	return nil
}

// IsStale reports whether st is missing or older than maxAge.
func IsStale(st *State, maxAge time.Duration) bool {
	if st == nil {
		return true
	}
	return time.Since(st.FetchedAt) > maxAge
}
