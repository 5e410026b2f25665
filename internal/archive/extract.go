package archive

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// ErrUnsafePath is returned for entries that would land outside dest.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Result describes an extraction.
type Result struct {
	// Promoted is set when a single top directory was stripped.
	Promoted bool
	// TopDir is the stripped directory name.
	TopDir string
	// Files lists extracted regular files relative to dest, slash separated.
	Files []string
}

// Options tune Extract.
type Options struct {
	// Name decides the format when the file on disk has a temporary name.
	Name string
	// Keep leaves existing content of dest in place instead of clearing it.
	Keep bool
}

type entry struct {
	name string
	mode os.FileMode
	dir  bool
	link string
	open func() (io.ReadCloser, error)
}

// Extract unpacks file into dest. When every entry lives under one top
// directory (or the only entry sits inside a directory), that directory is
// removed from the extracted paths.
func Extract(file, dest string, opts Options) (*Result, error) {
	name := opts.Name
	if name == "" {
		name = file
	}

	if !opts.Keep {
		if err := os.RemoveAll(dest); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", dest, err)
		}
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}

	if IsZip(name) {
		return extractZip(file, dest)
	}
	if IsTar(name) {
		return extractTar(file, name, dest)
	}
	return nil, fmt.Errorf("unsupported archive type: %s", name)
}

func extractZip(file, dest string) (*Result, error) {
	r, err := zip.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("opening zip archive %s: %w", file, err)
	}
	defer r.Close()

	entries := make([]entry, 0, len(r.File))
	for _, f := range r.File {
		f := f
		entries = append(entries, entry{
			name: f.Name,
			mode: f.Mode(),
			dir:  f.FileInfo().IsDir(),
			open: f.Open,
		})
	}
	return writeEntries(entries, dest)
}

func extractTar(file, name, dest string) (*Result, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", file, err)
	}
	defer f.Close()

	var r io.Reader = f
	lower := strings.ToLower(baseName(name))
	switch {
	case strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(lower, ".bz2"):
		r = bzip2.NewReader(f)
	}

	// A tar stream is read once, so entries are buffered in a temp dir
	// before the promotion decision is known.
	staging, err := os.MkdirTemp("", "mlhub-untar-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	tr := tar.NewReader(r)
	var entries []entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}

		e := entry{name: hdr.Name, mode: os.FileMode(hdr.Mode).Perm()}
		switch hdr.Typeflag {
		case tar.TypeDir:
			e.dir = true
		case tar.TypeSymlink:
			e.link = hdr.Linkname
		case tar.TypeReg:
			tmp, err := os.CreateTemp(staging, "entry-")
			if err != nil {
				return nil, err
			}
			if _, err := io.Copy(tmp, tr); err != nil {
				tmp.Close()
				return nil, fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			tmp.Close()
			p := tmp.Name()
			e.open = func() (io.ReadCloser, error) { return os.Open(p) }
		default:
			continue
		}
		entries = append(entries, e)
	}
	return writeEntries(entries, dest)
}

// topDir decides whether entries share one top directory.
func topDir(entries []entry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	first := firstSegment(entries[0].name)
	if len(entries) == 1 {
		clean := strings.Trim(path.Clean(entries[0].name), "/")
		return first, strings.Contains(clean, "/")
	}
	for _, e := range entries[1:] {
		if firstSegment(e.name) != first {
			return "", false
		}
	}
	return first, true
}

func firstSegment(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	seg, _, _ := strings.Cut(name, "/")
	return seg
}

func writeEntries(entries []entry, dest string) (*Result, error) {
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	top, promote := topDir(entries)
	if promote {
		res.Promoted, res.TopDir = true, top
	}

	for _, e := range entries {
		rel := strings.TrimPrefix(path.Clean("/"+e.name), "/")
		if promote {
			rel = strings.TrimPrefix(strings.TrimPrefix(rel, top), "/")
		}
		if rel == "" || rel == "." {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !withinDir(dest, target) {
			return nil, fmt.Errorf("%s: %w", e.name, ErrUnsafePath)
		}
		// Earlier symlink entries may redirect a parent outside dest.
		parent, err := resolveExisting(filepath.Dir(target))
		if err != nil {
			return nil, err
		}
		if !withinDir(root, parent) {
			return nil, fmt.Errorf("%s: %w", e.name, ErrUnsafePath)
		}
		if e.link != "" && (filepath.IsAbs(e.link) || !withinDir(root, filepath.Join(parent, filepath.FromSlash(e.link)))) {
			return nil, fmt.Errorf("%s -> %s: %w", e.name, e.link, ErrUnsafePath)
		}

		switch {
		case e.dir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, err
			}
		case e.link != "":
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return nil, err
			}
			_ = os.Remove(target)
			if err := os.Symlink(e.link, target); err != nil {
				return nil, fmt.Errorf("linking %s: %w", rel, err)
			}
		default:
			if fi, err := os.Lstat(target); err == nil && fi.Mode()&os.ModeSymlink != 0 {
				if err := os.Remove(target); err != nil {
					return nil, err
				}
			}
			if err := writeFile(e, target); err != nil {
				return nil, fmt.Errorf("extracting %s: %w", rel, err)
			}
			res.Files = append(res.Files, rel)
		}
	}
	return res, nil
}

func writeFile(e entry, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := e.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := e.mode.Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// resolveExisting evaluates symlinks in the longest existing prefix of p and
// appends the part that does not exist yet.
func resolveExisting(p string) (string, error) {
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}

func withinDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
