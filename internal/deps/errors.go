package deps

import (
	"errors"
	"regexp"
)

var (
	// ErrLackDependency is returned when a model command fails because a
	// package it imports is missing.
	ErrLackDependency = errors.New("missing dependency")

	// ErrLackPrerequisite is returned when a tool or package needed to
	// install dependencies is missing.
	ErrLackPrerequisite = errors.New("missing prerequisite")

	// ErrConfigureFailed is returned when an installer exits with an error.
	ErrConfigureFailed = errors.New("configuration failed")

	// ErrInstallationFileNotFound is returned when a file listed under
	// files: is absent from the package archive.
	ErrInstallationFileNotFound = errors.New("package file not found")
)

var (
	commandNotFound  = regexp.MustCompile(`\d: (.*):.*not found`)
	rPackageNotFound = regexp.MustCompile(`there is no package called ‘(.*)’`)
)

// MissingFromStderr returns the missing command or R package named in the
// stderr of a failed installer, if any.
func MissingFromStderr(stderr string) (string, bool) {
	if m := commandNotFound.FindStringSubmatch(stderr); m != nil {
		return m[1], true
	}
	if m := rPackageNotFound.FindStringSubmatch(stderr); m != nil {
		return m[1], true
	}
	return "", false
}
