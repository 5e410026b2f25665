package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlhub-labs/mlhub/internal/archive"
	"github.com/mlhub-labs/mlhub/internal/deps"
	"github.com/mlhub-labs/mlhub/internal/fetch"
	"github.com/mlhub-labs/mlhub/internal/hosting"
	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/platform"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

// InstallOptions tune Install.
type InstallOptions struct {
	// Yes replaces an installed version without asking.
	Yes bool
	// Key is the SSH identity for private repositories.
	Key string
}

// InstallResult describes an installed package.
type InstallResult struct {
	Model   string
	Version string
	Dir     string
	Size    int64
	// Declined is set when the user kept the installed version.
	Declined bool
	// Descriptor is the installed package's descriptor.
	Descriptor *manifest.Descriptor
}

// pkgSource is what an install argument resolved to.
type pkgSource struct {
	model    string
	location string // archive path or URL
	version  string
	file     string // package file name
	descURL  string
	ref      *hosting.Ref
	private  bool
}

// Install installs a package given as an archive path or URL, a catalog
// name, or a repository reference or URL.
func (r *Registry) Install(ctx context.Context, arg string, opts InstallOptions) (*InstallResult, error) {
	r.logger().Info("install a model", "arg", arg)

	src, err := r.resolve(ctx, arg)
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", "mlhub-install-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	unpackDir := filepath.Join(tmp, archive.TrimExt(src.file))
	if src.private {
		unpackDir = filepath.Join(tmp, src.file)
	}
	local := src.location
	if hosting.IsURL(src.location) {
		local = filepath.Join(tmp, src.file)
	}

	var (
		desc     *manifest.Descriptor
		descPath string
		unpacked bool
	)
	version := src.version
	if version == "" {
		switch {
		case archive.IsPackage(src.file):
			if src.model, version, err = archive.ParsePackageName(src.file); err != nil {
				return nil, err
			}
		case src.private:
			fmt.Fprintf(r.out(), "Cloning %s ...\n\n", src.ref.SSHCloneURL())
			if err := hosting.Clone(ctx, src.ref, unpackDir, hosting.CloneOptions{Key: opts.Key}); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInstallFailed, err)
			}
			unpacked = true
			if src.ref.Path != "" {
				descPath = filepath.Join(unpackDir, filepath.FromSlash(src.ref.Path))
			} else if descPath, err = manifest.Find(unpackDir); err != nil {
				return nil, err
			}
		case src.ref == nil:
			if err := r.unpack(ctx, src, local, unpackDir); err != nil {
				return nil, err
			}
			unpacked = true
			if descPath, err = manifest.Find(unpackDir); err != nil {
				return nil, err
			}
		}

		if desc, err = r.readDescriptor(ctx, descPath, src.descURL); err != nil {
			return nil, err
		}
		if desc != nil {
			src.model, version = desc.Meta.Name, desc.Meta.Version
		}
	}
	if err := r.Layout.AddCompletion(userdata.CompletionModels, src.model); err != nil {
		r.logger().Warn("updating model completion failed", "err", err)
	}

	dir := r.Layout.PackageDir(src.model)
	if r.Layout.IsInstalled(src.model) {
		if !opts.Yes && !r.confirmReplace(src.model, version) {
			return &InstallResult{Model: src.model, Version: version, Dir: dir, Declined: true}, nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("removing installed %s: %w", src.model, err)
		}
	}

	if !unpacked {
		if err := r.unpack(ctx, src, local, unpackDir); err != nil {
			return nil, err
		}
	}
	if desc == nil {
		if descPath, err = manifest.Find(unpackDir); err != nil {
			return nil, err
		}
		if desc, err = manifest.LoadFile(descPath); err != nil {
			return nil, err
		}
	}

	if err := r.place(ctx, desc, descPath, src.descURL, unpackDir, dir); err != nil {
		return nil, err
	}

	if err := r.Layout.AddCompletion(userdata.CompletionCommands, desc.Commands.Names()...); err != nil {
		r.logger().Warn("updating command completion failed", "err", err)
	}
	r.logger().Info("model installed", "model", src.model, "version", version, "dir", dir)
	return &InstallResult{
		Model:      src.model,
		Version:    version,
		Dir:        dir,
		Size:       platform.DirSize(dir),
		Descriptor: desc,
	}, nil
}

// resolve classifies arg and works out the package location and file name.
func (r *Registry) resolve(ctx context.Context, arg string) (*pkgSource, error) {
	src := &pkgSource{model: arg, location: arg}

	if !archive.IsArchive(arg) && !hosting.IsURL(arg) && !strings.Contains(arg, "/") {
		src.model = r.CorrectModel(arg)
		entry, err := r.Lookup(ctx, src.model)
		if err != nil {
			return nil, err
		}
		src.location, src.version = entry.Location, entry.Version
	}

	isRepo := !hosting.IsURL(src.location) || hosting.IsRepoURL(src.location)
	if !archive.IsArchive(src.location) && isRepo {
		ref, err := hosting.Parse(src.location)
		if err != nil {
			return nil, err
		}
		src.ref = ref
		descURL, err := r.Hosting.DescriptorURL(ctx, ref)
		if err != nil {
			r.logger().Info("descriptor not reachable, treating repository as private", "ref", ref.String(), "err", err)
			src.private = true
		} else {
			src.descURL = descURL
			src.location = r.Hosting.ZipURL(ref)
		}
	}

	switch {
	case src.private:
		src.file = src.ref.Repo
		return src, nil
	case archive.IsArchive(src.location):
		src.file = archive.BaseName(src.location)
	case hosting.IsURL(src.location):
		name, err := r.Fetch.Filename(ctx, src.location)
		if err != nil {
			return nil, err
		}
		src.file = name
	}
	if src.ref != nil && !archive.IsArchive(src.file) {
		src.file = src.ref.Repo + ".zip"
	}

	for !archive.IsArchive(src.file) {
		name, err := r.Prompter.Line("The file type cannot be determined.\nPlease give it a file name with explicit valid archive extension: ")
		if err != nil {
			return nil, fmt.Errorf("no package file name given: %w", err)
		}
		src.file = strings.TrimSpace(name)
	}
	r.logger().Debug("install source", "location", src.location, "file", src.file, "descriptor", src.descURL)
	return src, nil
}

// readDescriptor reads the descriptor from a local path or a remote URL.
// Neither given yields nil.
func (r *Registry) readDescriptor(ctx context.Context, path, url string) (*manifest.Descriptor, error) {
	switch {
	case path != "":
		return manifest.LoadFile(path)
	case url != "":
		data, err := r.Hosting.ReadRaw(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", url, err)
		}
		return manifest.Parse(data, url)
	}
	return nil, nil
}

func (r *Registry) confirmReplace(model, version string) bool {
	old := ""
	if d, err := r.Installed(model); err == nil {
		old = d.Meta.Version
	}

	var ok bool
	switch cmp := deps.CompareVersions(old, version); {
	case cmp > 0:
		ok = r.Prompter.YesOrNo(prompt.Yes, "Downgrade '%s' from version '%s' to version '%s'", model, old, version)
	case cmp == 0:
		ok = r.Prompter.YesOrNo(prompt.Yes, "Replace '%s' version '%s' with version '%s'", model, old, version)
	default:
		ok = r.Prompter.YesOrNo(prompt.Yes, "Upgrade '%s' from version '%s' to version '%s'", model, old, version)
	}
	if ok {
		fmt.Fprintln(r.out())
	}
	return ok
}

// unpack downloads the package when remote and extracts it into dir.
func (r *Registry) unpack(ctx context.Context, src *pkgSource, local, dir string) error {
	if hosting.IsURL(src.location) {
		if err := r.download(ctx, src.location, local, src.file); err != nil {
			return err
		}
	}
	r.progress("Extracting '%s' ...\n\n", src.file)
	if _, err := archive.Extract(local, dir, archive.Options{Name: src.file}); err != nil {
		return fmt.Errorf("extracting %s: %w", src.file, err)
	}
	return nil
}

func (r *Registry) download(ctx context.Context, url, dest, file string) error {
	r.progress("Package %s\n\n", url)
	_, err := r.Fetch.Download(ctx, url, dest, func(total int64) {
		msg := fmt.Sprintf("Downloading '%s'", file)
		if total >= 0 {
			msg += fmt.Sprintf(" (%s bytes)", fetch.Bytes(total))
		}
		r.progress("%s ...\n\n", msg)
	})
	return err
}

// place moves the unpacked package into dir. A package declaring files
// gets only its descriptor and the listed files.
func (r *Registry) place(ctx context.Context, desc *manifest.Descriptor, descPath, descURL, unpackDir, dir string) error {
	files, ok := desc.InstallFiles()
	if !ok {
		return platform.Move(unpackDir, dir)
	}

	if err := os.MkdirAll(dir, userdata.DirPermNormal); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if descPath != "" {
		if err := platform.Move(descPath, filepath.Join(dir, filepath.Base(descPath))); err != nil {
			return err
		}
	} else {
		data, err := r.Hosting.ReadRaw(ctx, descURL)
		if err != nil {
			return fmt.Errorf("reading %s: %w", descURL, err)
		}
		if err := os.WriteFile(filepath.Join(dir, manifest.PreferredName), data, userdata.FilePermNormal); err != nil {
			return fmt.Errorf("writing descriptor: %w", err)
		}
	}

	if err := deps.InstallLocalFiles(unpackDir, dir, files); err != nil {
		if errors.Is(err, deps.ErrInstallationFileNotFound) {
			_ = os.RemoveAll(dir)
		}
		return err
	}
	return nil
}
