package hosting

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const tmpSuffix = ".tmp"

// CloneOptions tune Clone.
type CloneOptions struct {
	// Key is an SSH identity file passed through GIT_SSH_COMMAND.
	Key string
}

// Clone clones r over SSH into dest and checks out r.Ref when set.
//
// The clone is atomic: it writes to a .tmp directory first, then renames
// on success. On failure the .tmp directory is cleaned up.
func Clone(ctx context.Context, r *Ref, dest string, opts CloneOptions) error {
	if err := ensureGit(); err != nil {
		return err
	}

	tmpDir := dest + tmpSuffix
	_ = os.RemoveAll(tmpDir)
	if err := os.MkdirAll(filepath.Dir(tmpDir), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	env := os.Environ()
	if opts.Key != "" {
		env = append(env, "GIT_SSH_COMMAND=ssh -i "+opts.Key)
	}

	if err := runGit(ctx, "", env, "clone", r.SSHCloneURL(), tmpDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("cloning %s: %w", r.SSHCloneURL(), err)
	}
	if r.Ref != "" {
		if err := runGit(ctx, tmpDir, env, "checkout", r.Ref); err != nil {
			_ = os.RemoveAll(tmpDir)
			return fmt.Errorf("checking out %s: %w", r.Ref, err)
		}
	}

	if err := os.RemoveAll(dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("removing existing clone: %w", err)
	}
	if err := os.Rename(tmpDir, dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("finalizing clone: %w", err)
	}
	return nil
}

func runGit(ctx context.Context, dir string, env []string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = env
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ensureGit checks that git is available on PATH.
func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}
