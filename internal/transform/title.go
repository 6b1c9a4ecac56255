package transform

import (
	"strings"
	"unicode"
)

// HasTitleHeading reports whether any non-blank line of markdown starts
// with "# " after leading whitespace.
func HasTitleHeading(markdown string) bool {
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "# ") {
			return true
		}
	}
	return false
}

// EnsureTitle prepends "# title" to markdown unless it already has a title
// heading.
func EnsureTitle(markdown, title string) string {
	if HasTitleHeading(markdown) {
		return markdown
	}
	return "# " + title + "\n" + markdown
}
