package platform

import (
	"bufio"
	"os"
	"strings"
)

// osReleasePath is a variable so tests can point it at a fixture.
var osReleasePath = "/etc/os-release"

// DistroID returns the lower-cased ID field of /etc/os-release, or "" when
// the file is unreadable.
func DistroID() string {
	f, err := os.Open(osReleasePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if v, ok := strings.CutPrefix(line, "ID="); ok {
			return strings.ToLower(strings.Trim(v, `"'`))
		}
	}
	return ""
}

// IsDebianLike reports whether the host is Debian or Ubuntu, where apt and
// the configure scripts are supported.
func IsDebianLike() bool {
	switch DistroID() {
	case "debian", "ubuntu":
		return true
	}
	return false
}
