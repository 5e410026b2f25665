// Package archive recognizes package and dependency archives by name and
// extracts them, promoting the contents of a single top-level directory
// to the destination root.
package archive
