// Package cli defines the Cobra command tree for ml. Each file registers one
// top-level command with the root command; the handlers delegate to the
// registry, deps and runtime packages and only deal with flags, output
// formatting and next-step suggestions. A first argument that is not a
// built-in command is routed to the model command dispatcher.
package cli
