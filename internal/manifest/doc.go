// Package manifest handles the package description file (MLHUB.yaml or its
// DESCRIPTION.yaml predecessors) and the hub catalog, which is a
// multi-document stream of the same descriptors. It resolves the command
// list in declaration order, flattens the dependency tree into installable
// specs, and validates descriptors against an embedded JSON schema.
package manifest
