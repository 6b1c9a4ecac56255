package transform

import (
	"strings"
	"unicode"

	"github.com/starford/zettelmark/internal/parser"
)

const fence = "```"

// Footer is a reference section split off the end of a note.
type Footer struct {
	// Body is the markdown above the divider that opens the footer.
	Body string
	// Lines are the footer lines, top down, as written.
	Lines []string
	// Refs renders Lines as a markdown list, without blank entries.
	Refs string
}

// CountDividers counts divider lines outside fenced code blocks.
func CountDividers(lines []string) int {
	return len(dividerIndexes(lines))
}

func dividerIndexes(lines []string) []int {
	var idx []int
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, fence):
			inFence = !inFence
		case !inFence && trimmed == parser.Divider:
			idx = append(idx, i)
		}
	}
	return idx
}

// ExtractFooter splits the reference footer off a note document (header
// included). ok is false when there is none.
//
// When the last line is a divider, the footer is what lies between it and
// the divider before it. Otherwise a footer exists only if there are more
// dividers than the header uses, and it runs from the last divider to the
// end. Dividers inside fenced code blocks never count. The returned body
// keeps every line above the opening divider.
func ExtractFooter(markdown string) (f Footer, ok bool) {
	lines := strings.Split(strings.TrimRightFunc(markdown, unicode.IsSpace), "\n")
	idx := dividerIndexes(lines)
	last := len(lines) - 1

	var bound, end int
	switch {
	case len(idx) > 0 && idx[len(idx)-1] == last:
		end, bound = last, -1
		if len(idx) > 1 {
			bound = idx[len(idx)-2]
		}
	case len(idx) > parser.HeaderDividers:
		end, bound = len(lines), idx[len(idx)-1]
	default:
		return Footer{}, false
	}

	f.Lines = append([]string(nil), lines[bound+1:end]...)
	refs := make([]string, 0, len(f.Lines))
	for _, line := range f.Lines {
		item := " - " + line
		if s := strings.TrimSpace(item); s == "" || s == "-" {
			continue
		}
		refs = append(refs, item)
	}
	f.Refs = strings.Join(refs, "\n")
	if bound > 0 {
		f.Body = strings.Join(lines[:bound], "\n")
	}
	return f, true
}
