package userdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directory and file name constants for the package root layout.
const (
	CacheDir      = ".cache"
	ArchiveDir    = ".archive"
	ConfigDir     = ".config"
	CompletionDir = ".completion"
	LogDir        = ".log"

	ModelConfigFile = "config.yaml"
	PrivateFile     = "private.json"

	// CatalogCacheDir lives under CacheDir. Model names never start with a
	// dot, so it cannot collide with a per-model cache.
	CatalogCacheDir = ".catalog"

	// ArchiveExt is the extension of downloaded package archives.
	ArchiveExt = ".mlm"

	// rLibDir is the R library folder some packages drop at the root.
	rLibDir = "R"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
	DirPermNormal  os.FileMode = 0755
	FilePermNormal os.FileMode = 0644
)

// Layout resolves every path under a package root.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// Exists reports whether the package root directory exists.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// PackageDir returns <root>/<model>.
func (l Layout) PackageDir(model string) string {
	return filepath.Join(l.Root, model)
}

// CacheDir returns <root>/.cache/<model>.
func (l Layout) CacheDir(model string) string {
	return filepath.Join(l.Root, CacheDir, model)
}

// ArchiveDir returns <root>/.archive/<model>.
func (l Layout) ArchiveDir(model string) string {
	return filepath.Join(l.Root, ArchiveDir, model)
}

// ConfigDir returns <root>/.config/<model>.
func (l Layout) ConfigDir(model string) string {
	return filepath.Join(l.Root, ConfigDir, model)
}

// ModelConfigPath returns <root>/.config/<model>/config.yaml.
func (l Layout) ModelConfigPath(model string) string {
	return filepath.Join(l.ConfigDir(model), ModelConfigFile)
}

// PrivatePath returns the cached private information file of a model.
func (l Layout) PrivatePath(model string) string {
	return filepath.Join(l.CacheDir(model), PrivateFile)
}

// CompletionPath returns the completion word list for kind.
func (l Layout) CompletionPath(kind CompletionKind) string {
	return filepath.Join(l.Root, CompletionDir, string(kind))
}

// CatalogCachePath returns the directory holding the cached hub catalog.
func (l Layout) CatalogCachePath() string {
	return filepath.Join(l.Root, CacheDir, CatalogCacheDir)
}

// IsInstalled reports whether <root>/<model> is a directory.
func (l Layout) IsInstalled(model string) bool {
	if model == "" {
		return false
	}
	info, err := os.Stat(l.PackageDir(model))
	return err == nil && info.IsDir()
}

// InstalledModels returns the sorted names of installed packages. Hidden
// directories, names starting with "_" and the R library are skipped.
// A missing root yields an empty list.
func (l Layout) InstalledModels() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading package root %s: %w", l.Root, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == rLibDir || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Archives returns the sorted paths of downloaded *.mlm files in the root.
func (l Layout) Archives() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.Root, "*"+ArchiveExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
