package registry

import "errors"

var (
	// ErrModelNotFoundOnRepo is returned when the hub catalog has no entry
	// with the requested name.
	ErrModelNotFoundOnRepo = errors.New("model not found on the repository")

	// ErrModelNotInstalled is returned when a command needs an installed
	// package that is absent.
	ErrModelNotInstalled = errors.New("model is not installed")

	// ErrModelInstalled is returned when a rename target already exists.
	ErrModelInstalled = errors.New("model is already installed")

	// ErrInstallFailed wraps failures cloning a private repository.
	ErrInstallFailed = errors.New("installation failed")

	// ErrReadmeNotFound is returned when a package has no README.
	ErrReadmeNotFound = errors.New("no README found")
)
