// Package catalog fetches the hub's Packages.yaml and keeps the last good
// copy on disk so that listing and install-by-name keep working offline.
package catalog
