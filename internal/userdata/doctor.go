package userdata

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mlhub-labs/mlhub/internal/platform"
)

// Prerequisites are the external programs package scripts rely on.
var Prerequisites = []string{"bash", "git", "python3", "pip3", "Rscript", "conda"}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CheckLayout validates the package root and its hidden directories.
// When fix is true, missing directories are created.
func (l Layout) CheckLayout(w io.Writer, fix bool) error {
	fmt.Fprintln(w, "Package root check:")

	if _, err := os.Stat(l.Root); os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", l.Root)
		if fix {
			fmt.Fprintln(w, "  [FIX ] Creating package root...")
			if initErr := l.Init(w); initErr != nil {
				return fmt.Errorf("auto-fix init: %w", initErr)
			}
		}
		return nil
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", l.Root)

	for _, sub := range layoutDirs() {
		checkDirWithPerm(w, filepath.Join(l.Root, sub.name), sub.perm, fix)
	}
	checkPrivateFiles(w, filepath.Join(l.Root, CacheDir), fix)
	return nil
}

// CheckPrerequisites reports which external programs are on PATH. It
// returns the names that are missing.
func CheckPrerequisites(w io.Writer) []string {
	fmt.Fprintln(w, "Prerequisite check:")
	var missing []string
	for _, name := range Prerequisites {
		p, err := lookPath(name)
		if err != nil {
			fmt.Fprintf(w, "  [MISS] %s not found on PATH\n", name)
			missing = append(missing, name)
			continue
		}
		fmt.Fprintf(w, "  [ OK ] %s (%s)\n", name, p)
	}
	return missing
}

// CheckLinks reports links inside installed packages whose target is gone,
// such as data files dropped from the cache. With fix they are removed.
// The dangling link paths are returned.
func (l Layout) CheckLinks(w io.Writer, fix bool) []string {
	fmt.Fprintln(w, "Link check:")
	models, err := l.InstalledModels()
	if err != nil {
		fmt.Fprintf(w, "  [WARN] Cannot list installed models: %v\n", err)
		return nil
	}

	var dangling []string
	for _, m := range models {
		filepath.WalkDir(l.PackageDir(m), func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			target, err := platform.ReadSymlinkTarget(path)
			if err != nil {
				return nil
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
			if _, err := os.Stat(target); err == nil {
				return nil
			}
			dangling = append(dangling, path)
			fmt.Fprintf(w, "  [MISS] %s points to missing %s\n", path, target)
			if fix {
				if rmErr := platform.RemoveSymlink(path); rmErr != nil {
					fmt.Fprintf(w, "  [FAIL] Could not remove %s: %v\n", path, rmErr)
					return nil
				}
				fmt.Fprintf(w, "  [FIX ] Removed %s\n", path)
			}
			return nil
		})
	}
	if len(dangling) == 0 {
		fmt.Fprintln(w, "  [ OK ] No dangling links")
	}
	return dangling
}

func checkDirWithPerm(w io.Writer, path string, expectedPerm os.FileMode, fix bool) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		if fix {
			if mkErr := os.MkdirAll(path, expectedPerm); mkErr != nil {
				fmt.Fprintf(w, "  [FAIL] Could not create %s: %v\n", path, mkErr)
				return
			}
			platform.Chmod(path, expectedPerm)
			fmt.Fprintf(w, "  [FIX ] Created %s with %o\n", path, expectedPerm)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		return
	}
	if !info.IsDir() {
		fmt.Fprintf(w, "  [WARN] %s exists but is not a directory\n", path)
		return
	}

	actualPerm := info.Mode().Perm()
	if actualPerm != expectedPerm {
		fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, actualPerm, expectedPerm)
		if fix {
			if chErr := platform.Chmod(path, expectedPerm); chErr != nil {
				fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
				return
			}
			fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, expectedPerm)
		}
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s (permissions %o)\n", path, actualPerm)
}

// checkPrivateFiles warns about private.json files readable by others.
func checkPrivateFiles(w io.Writer, cacheRoot string, fix bool) {
	matches, _ := filepath.Glob(filepath.Join(cacheRoot, "*", PrivateFile))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		perm := info.Mode().Perm()
		if perm == FilePermSecure {
			continue
		}
		fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, perm, FilePermSecure)
		if fix {
			if chErr := platform.Chmod(path, FilePermSecure); chErr != nil {
				fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
				continue
			}
			fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, FilePermSecure)
		}
	}
}
