package userdata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mlhub-labs/mlhub/internal/platform"
)

// Init creates the package root and its hidden directories. It prints
// progress messages to w; existing items are skipped with a message.
func (l Layout) Init(w io.Writer) error {
	if err := ensureDir(w, l.Root, DirPermNormal); err != nil {
		return err
	}
	for _, sub := range layoutDirs() {
		if err := ensureDir(w, filepath.Join(l.Root, sub.name), sub.perm); err != nil {
			return err
		}
	}
	return nil
}

type layoutDir struct {
	name string
	perm os.FileMode
}

// layoutDirs lists the hidden directories; the cache may hold private
// credentials so it is kept private.
func layoutDirs() []layoutDir {
	return []layoutDir{
		{CacheDir, DirPermSecure},
		{ArchiveDir, DirPermNormal},
		{ConfigDir, DirPermNormal},
		{CompletionDir, DirPermNormal},
		{LogDir, DirPermNormal},
	}
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(w io.Writer, path string, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	// MkdirAll may not apply exact perms if parent dirs needed creation.
	if err := platform.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}
