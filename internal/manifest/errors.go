package manifest

import "errors"

var (
	// ErrDescriptorNotFound is returned when a package has none of the
	// recognized description file names.
	ErrDescriptorNotFound = errors.New("no MLHUB.yaml or DESCRIPTION.yaml found")

	// ErrMalformedYAML is returned when a description does not parse or a
	// command entry has an unsupported shape.
	ErrMalformedYAML = errors.New("malformed YAML")

	// ErrYAMLAccess is returned when a description file cannot be read.
	ErrYAMLAccess = errors.New("cannot access YAML file")

	// ErrMalformedCatalog is returned when a catalog entry lacks a name or
	// a location.
	ErrMalformedCatalog = errors.New("malformed Packages.yaml")
)
