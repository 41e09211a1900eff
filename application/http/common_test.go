package http

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	err := newParseError("header", "bad value %q", "x")
	assert.Equal(t, `malformed header: bad value "x"`, err.Error())

	wrapped := errors.Wrap(err, "decoding request")
	assert.True(t, IsParseError(wrapped))

	var pe *ParseError
	assert.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, "header", pe.Part)
}

func TestIsParseErrorOtherErrors(t *testing.T) {
	assert.False(t, IsParseError(nil))
	assert.False(t, IsParseError(io.ErrUnexpectedEOF))
	assert.False(t, IsParseError(errors.Wrap(ErrEndOfStream, "reading")))
}
