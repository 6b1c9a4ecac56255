package parser

import (
	"fmt"

	"github.com/starford/zettelmark/internal/apperr"
)

// Reasons a document fails to parse into a note.
const (
	ReasonUnclosedHeader   = "unclosed header"
	ReasonInvalidStructure = "invalid header structure"
	ReasonInvalidSyntax    = "invalid header syntax"
	ReasonMissingID        = "missing id"
	ReasonInvalidID        = "invalid id"
	ReasonUnreadable       = "unreadable file"
)

// FormatError reports a document that is not a valid note.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is makes every FormatError match apperr.ErrInvalidFormat.
func (e *FormatError) Is(target error) bool {
	return target == apperr.ErrInvalidFormat
}

func formatError(path, reason string, err error) *FormatError {
	return &FormatError{Path: path, Reason: reason, Err: err}
}
