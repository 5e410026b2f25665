package deps

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Requirement is a package name with an optional version constraint.
type Requirement struct {
	Name    string
	Op      string
	Version string
}

var requirementPattern = regexp.MustCompile(`^([^=<>!~\s]+)\s*(==|=|>=|>)?\s*(.*)$`)

// ParseRequirement reads pkg, pkg=v, pkg==v, pkg>v or pkg>=v.
func ParseRequirement(spec string) Requirement {
	m := requirementPattern.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return Requirement{Name: strings.TrimSpace(spec)}
	}
	r := Requirement{Name: m[1], Op: m[2], Version: strings.TrimSpace(m[3])}
	if r.Op == "" {
		r.Version = ""
	}
	return r
}

// PipSpec renders the requirement for pip, where "=" becomes "==" and ">"
// becomes ">=".
func (r Requirement) PipSpec() string {
	switch r.Op {
	case "=", "==":
		return r.Name + "==" + r.Version
	case ">", ">=":
		return r.Name + ">=" + r.Version
	}
	return r.Name
}

// SatisfiedBy reports whether an installed version meets the requirement.
// An empty installed version never does.
func (r Requirement) SatisfiedBy(installed string) bool {
	if installed == "" {
		return false
	}
	if r.Op == "" {
		return true
	}
	cmp := CompareVersions(installed, r.Version)
	if r.Op == "=" || r.Op == "==" {
		return cmp == 0
	}
	return cmp >= 0
}

// CompareVersions returns -1, 0 or 1. Versions are compared as semver when
// both parse, otherwise segment by segment as dotted numbers.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(strings.TrimPrefix(a, "v"))
	vb, errB := semver.NewVersion(strings.TrimPrefix(b, "v"))
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareDotted(a, b)
}

func compareDotted(a, b string) int {
	pa := strings.FieldsFunc(a, isVersionSep)
	pb := strings.FieldsFunc(b, isVersionSep)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var sa, sb string
		if i < len(pa) {
			sa = pa[i]
		}
		if i < len(pb) {
			sb = pb[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if sa == "" {
			na, errA = 0, nil
		}
		if sb == "" {
			nb, errB = 0, nil
		}
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return sign(na - nb)
			}
		default:
			if c := strings.Compare(sa, sb); c != 0 {
				return c
			}
		}
	}
	return 0
}

func isVersionSep(r rune) bool { return r == '.' || r == '-' || r == '_' }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
