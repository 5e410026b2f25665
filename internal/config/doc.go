// Package config manages the global settings of the ml command: the hub
// URL, the package root, and the output switches. Values resolve from
// command-line flags, then environment variables, then
// <init>/.config/config.yaml, then built-in defaults.
package config
