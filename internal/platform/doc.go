// Package platform provides cross-platform filesystem operations: symlinks,
// permissions, moving and merging directory trees, and detecting the host
// distribution. On Windows symlinks fall back to file copying with a .target
// sidecar when developer mode is unavailable.
package platform
