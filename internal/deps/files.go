package deps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mlhub-labs/mlhub/internal/archive"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/platform"
)

// downloadLimit caps concurrent file dependency downloads.
const downloadLimit = 4

// IsRemote reports whether a files: location is fetched at configure time
// (a URL or repository reference) rather than shipped in the package.
func IsRemote(location string) bool {
	return hosting.IsURL(location) || hosting.IsRepoRef(location)
}

// fileJob is one remote file dependency on its way into the package.
type fileJob struct {
	dep      manifest.FileDep
	ref      *hosting.Ref
	kind     hosting.ResourceType
	url      string
	filename string
	// target is relative to the package dir; a trailing "/" marks a dir.
	target  string
	cache   string
	archive string
	unpack  bool
	reuse   bool
	private bool
	err     error
}

// InstallFiles downloads URL and repository file dependencies into the
// package cache and links them into the package dir. Downloads run
// concurrently; unpacking and linking do not. A failed download is
// reported and skipped.
func (in *Installer) InstallFiles(ctx context.Context, deps []manifest.FileDep) error {
	var jobs []*fileJob
	for _, d := range deps {
		if IsRemote(d.Location) {
			jobs = append(jobs, &fileJob{dep: d})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	cacheDir := in.Layout.CacheDir(in.Model)
	archiveDir := in.Layout.ArchiveDir(in.Model)
	for _, dir := range []string{cacheDir, archiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	fmt.Fprintln(in.out(), "\n*** Downloading required files ...")
	for _, j := range jobs {
		if err := in.plan(ctx, j, cacheDir, archiveDir); err != nil {
			return err
		}
	}

	// Parallel transfers would interleave their percentage lines.
	client := in.Fetch.Silent()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadLimit)
	for _, j := range jobs {
		if j.private || j.reuse {
			continue
		}
		g.Go(func() error {
			_, j.err = client.Download(gctx, j.url, j.archive, nil)
			return nil
		})
	}
	_ = g.Wait()

	for _, j := range jobs {
		if j.private {
			if err := in.installPrivate(ctx, j); err != nil {
				return err
			}
			continue
		}
		if j.err != nil {
			in.logger(ctx).Warn("file dependency download failed", "location", j.dep.Location, "err", j.err)
			fmt.Fprintf(in.errOut(), "\nmlhub: Failed to get file dependency: %s\n       Please notify package author.\n", j.dep.Location)
			continue
		}
		if err := in.link(j); err != nil {
			return err
		}
	}
	return nil
}

// plan resolves the download URL, name and cache locations of j.
func (in *Installer) plan(ctx context.Context, j *fileJob, cacheDir, archiveDir string) error {
	j.kind, j.url = hosting.ResourceFile, j.dep.Location

	if !hosting.IsURL(j.dep.Location) {
		ref, err := hosting.Parse(j.dep.Location)
		if err != nil {
			return err
		}
		j.ref = ref
		kind, u, err := in.Hosting.ResourceType(ctx, ref)
		if err != nil {
			in.logger(ctx).Info("repository not reachable over http, trying ssh", "ref", ref.String(), "err", err)
			j.private = true
			return nil
		}
		j.kind, j.url = kind, u
	}

	name, err := in.Fetch.Filename(ctx, j.url)
	if err != nil {
		in.logger(ctx).Debug("filename lookup failed", "url", j.url, "err", err)
	}
	if name == "" {
		name = "mlhubtmp-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if j.kind != hosting.ResourceFile && !archive.IsArchive(name) {
		name += ".zip"
	}
	j.filename = name

	isArchive := j.kind != hosting.ResourceFile || archive.IsArchive(name)
	folder := ""
	switch j.kind {
	case hosting.ResourceRepo:
		folder = j.ref.Repo
	case hosting.ResourceDir:
		folder = path.Base(j.ref.Path)
	}
	j.target = remoteTarget(j.dep.Target, name, folder, j.kind == hosting.ResourceFile, isArchive)
	j.unpack = strings.HasSuffix(j.target, "/") && isArchive

	j.cache = filepath.Join(cacheDir, filepath.FromSlash(j.target))
	j.archive = j.cache
	if j.unpack {
		j.archive = filepath.Join(archiveDir, filepath.FromSlash(j.target), name)
	}

	fmt.Fprintf(in.out(), "\n    * %s\n", j.dep.Location)
	dest := filepath.Join(in.pkgDir(), filepath.FromSlash(j.target))
	if _, err := os.Stat(j.archive); err == nil {
		j.reuse = true
		fmt.Fprintf(in.out(), "      using cached copy found in %s ...\n", dest)
	} else {
		fmt.Fprintf(in.out(), "      downloading into %s ...\n", dest)
	}
	return nil
}

// remoteTarget decides where a download lands relative to the package dir.
// A trailing "/" means the item is unpacked or placed inside a directory.
func remoteTarget(target, filename, folder string, isFile, isArchive bool) string {
	switch {
	case target == "" && isFile:
		target = filename
	case target == "":
		target = folder + "/"
	case isFile:
		if strings.HasSuffix(target, "/") && !isArchive {
			target += filename
		}
	case strings.HasSuffix(target, "/"):
		target += folder + "/"
	default:
		target += "/"
	}

	dir := strings.HasSuffix(target, "/")
	target = path.Clean(target)
	if dir {
		target += "/"
	}
	return target
}

// link unpacks j if needed and symlinks its cached files into the package.
func (in *Installer) link(j *fileJob) error {
	dst := filepath.Join(in.pkgDir(), filepath.FromSlash(j.target))
	if !j.unpack {
		return platform.ReplaceSymlink(j.cache, dst)
	}

	fmt.Fprintf(in.out(), "      Uncompressing the cached file %s ...\n", j.archive)
	var files []string
	if j.kind != hosting.ResourceDir {
		res, err := archive.Extract(j.archive, j.cache, archive.Options{Name: j.filename, Keep: true})
		if err != nil {
			return fmt.Errorf("unpacking %s: %w", j.archive, err)
		}
		files = res.Files
	} else {
		tmp, err := os.MkdirTemp("", "mlhub-dir-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		if _, err := archive.Extract(j.archive, tmp, archive.Options{Name: j.filename, Keep: true}); err != nil {
			return fmt.Errorf("unpacking %s: %w", j.archive, err)
		}
		sub := filepath.Join(tmp, filepath.FromSlash(j.ref.Path))
		if files, err = listFiles(sub); err != nil {
			return fmt.Errorf("%s: %w", j.ref.Path, err)
		}
		if err := platform.MergeDir(sub, j.cache); err != nil {
			return err
		}
	}

	for _, f := range files {
		rel := filepath.FromSlash(f)
		if err := platform.ReplaceSymlink(filepath.Join(j.cache, rel), filepath.Join(dst, rel)); err != nil {
			return fmt.Errorf("linking %s: %w", f, err)
		}
	}
	return nil
}

// installPrivate clones a repository over SSH and moves the referenced
// path into the package.
func (in *Installer) installPrivate(ctx context.Context, j *fileJob) error {
	tmp, err := os.MkdirTemp("", "mlhub-clone-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	fmt.Fprintf(in.out(), "\n    * %s\n      cloning %s ...\n", j.dep.Location, j.ref.SSHCloneURL())
	clone := filepath.Join(tmp, j.ref.Repo)
	if err := hosting.Clone(ctx, j.ref, clone, hosting.CloneOptions{Key: in.Key}); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigureFailed, err)
	}

	origin := clone
	if j.ref.Path != "" {
		origin = filepath.Join(clone, filepath.FromSlash(j.ref.Path))
	}
	return placeLocal(origin, in.pkgDir(), j.dep.Target)
}

// InstallLocalFiles arranges files shipped inside an unpacked package
// (srcDir) into pkgDir according to the files: specs. URL and repository
// items are left for configure.
func InstallLocalFiles(srcDir, pkgDir string, deps []manifest.FileDep) error {
	for _, d := range deps {
		if IsRemote(d.Location) {
			continue
		}
		var err error
		if loc, ok := strings.CutSuffix(d.Location, "*"); ok {
			origin := filepath.Join(srcDir, filepath.FromSlash(strings.TrimSuffix(loc, "/")))
			err = platform.MergeDir(origin, filepath.Join(pkgDir, filepath.FromSlash(d.Target)))
		} else {
			err = placeLocal(filepath.Join(srcDir, filepath.FromSlash(d.Location)), pkgDir, d.Target)
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%s: %w", d.Location, ErrInstallationFileNotFound)
			}
			return err
		}
	}
	return nil
}

// placeLocal moves origin to target under pkgDir. A target ending in "/"
// (or empty) receives origin by name; a directory with a plain target is
// merged into it.
func placeLocal(origin, pkgDir, target string) error {
	info, err := os.Stat(origin)
	if err != nil {
		return err
	}
	goal := filepath.Join(pkgDir, filepath.FromSlash(target))
	intoDir := target == "" || strings.HasSuffix(target, "/")

	if info.IsDir() && !intoDir {
		return platform.MergeDir(origin, goal)
	}
	if intoDir {
		goal = filepath.Join(goal, filepath.Base(origin))
	}
	return platform.Move(origin, goal)
}

// listFiles returns the regular files and symlinks under root, relative
// and slash separated.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
