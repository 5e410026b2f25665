// Package runtime runs model package scripts: the command scripts behind
// "ml <cmd> <model>" and the configure scripts a package may ship. It picks
// the interpreter from the script extension, prepares the environment and
// turns known failure output into typed errors.
package runtime
