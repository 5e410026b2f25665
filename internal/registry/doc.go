// Package registry manages installed model packages: it resolves what an
// install argument points at (archive, catalog name or repository), unpacks
// and places packages under the package root, and implements uninstall,
// rename, clean, readme and catalog curation.
package registry
