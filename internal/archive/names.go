package archive

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrMalformedPackageName is returned when a package archive is not named
// <model>_<version>.mlm.
var ErrMalformedPackageName = errors.New("malformed package file name")

// PackageExts are the extensions of model package archives.
var PackageExts = []string{".mlm", ".aipk"}

var (
	zipExts = append([]string{".zip"}, PackageExts...)
	tarExts = []string{".tar.gz", ".tgz", ".tar.bz2", ".tar", ".gz", ".bz2"}
)

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(baseName(name))
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// baseName strips directories and any URL query from name.
func baseName(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}

// IsPackage reports whether name is a model package archive (.mlm/.aipk).
func IsPackage(name string) bool { return hasExt(name, PackageExts) }

// IsZip reports whether name is extracted as a zip.
func IsZip(name string) bool { return hasExt(name, zipExts) }

// IsTar reports whether name is extracted as a (possibly compressed) tar.
func IsTar(name string) bool { return hasExt(name, tarExts) }

// IsArchive reports whether name is any supported archive.
func IsArchive(name string) bool { return IsZip(name) || IsTar(name) }

// TrimExt drops the archive extension from the base name of name.
func TrimExt(name string) string {
	base := baseName(name)
	lower := strings.ToLower(base)
	for _, ext := range append(append([]string{}, tarExts...), zipExts...) {
		if strings.HasSuffix(lower, ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

// ParsePackageName splits <model>_<version>.mlm into model and version.
func ParsePackageName(name string) (model, version string, err error) {
	if !IsPackage(name) {
		return "", "", fmt.Errorf("%s: %w", name, ErrMalformedPackageName)
	}
	parts := strings.Split(baseName(name), "_")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("%s: %w", name, ErrMalformedPackageName)
	}
	version = parts[1]
	if i := strings.LastIndex(version, "."); i >= 0 {
		version = version[:i]
	}
	return parts[0], version, nil
}

// BaseName returns the file name part of a path or URL.
func BaseName(name string) string { return baseName(name) }
