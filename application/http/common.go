package http

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEndOfStream is returned by decoders when the peer closed the stream
// before sending any byte of a start line. It marks an orderly end, not a fault.
var ErrEndOfStream = errors.New("stream ended before start line")

// ParseError reports a message that violates the wire grammar.
type ParseError struct {
	// Part is the piece of the message that failed. e.g. "request line".
	Part   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s: %s", e.Part, e.Reason)
}

func newParseError(part, format string, args ...any) *ParseError {
	return &ParseError{Part: part, Reason: fmt.Sprintf(format, args...)}
}

// IsParseError reports whether err (or anything it wraps) is a [*ParseError].
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
