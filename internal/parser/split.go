package parser

import (
	"strings"
)

// Divider is the line that opens and closes a note header.
const Divider = "---"

// HeaderDividers is the number of dividers that delimit the header.
const HeaderDividers = 2

const bom = "\ufeff"

// IsDivider reports whether line is a divider once surrounding whitespace is removed.
func IsDivider(line string) bool {
	return strings.TrimSpace(line) == Divider
}

// Split separates data into its header and body text.
//
// Reading starts at the first divider; anything before it is ignored.
// The header is everything between the first and second divider, the body
// everything after the second one, later dividers included. Fewer than two
// dividers is an unclosed header.
func Split(data []byte) (header, body string, err error) {
	text := strings.TrimPrefix(string(data), bom)

	var hb, bb strings.Builder
	dividers := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if dividers < HeaderDividers && IsDivider(line) {
			dividers++
			continue
		}
		switch dividers {
		case 0:
		case 1:
			hb.WriteString(line)
		default:
			bb.WriteString(line)
		}
	}
	if dividers < HeaderDividers {
		return "", "", formatError("", ReasonUnclosedHeader, nil)
	}
	return hb.String(), bb.String(), nil
}
