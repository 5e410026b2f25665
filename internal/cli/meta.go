package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"

	"github.com/mlhub-labs/mlhub/internal/manifest"
)

const (
	titleWidth   = 56
	versionWidth = 6
	wrapWidth    = 75
)

// metaLine formats one row of the available and installed listings.
func metaLine(m manifest.Meta) string {
	title := m.Summary()
	more := ""
	if utf8.RuneCountInString(title) > titleWidth {
		more = "..."
	}
	return fmt.Sprintf("%-12.12s %s %-56.56s%s", m.Name, center(m.Version, versionWidth), title, more)
}

func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

func wrap(s string) string {
	return wordwrap.String(s, wrapWidth)
}
