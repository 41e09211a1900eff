package bytesutil

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var ErrLineTooLong = errors.New("line length exceeds limit")

// ReadUntil reads from r until delim. The output will include delim.
//
// A positive limit bounds the number of bytes (delim included) that may be
// consumed before delim is found. io.EOF is only returned when nothing was read,
// a stream ending in the middle of a line yields io.ErrUnexpectedEOF.
func ReadUntil(r *bufio.Reader, delim []byte, limit int) ([]byte, error) {
	last := delim[len(delim)-1]
	buf := bytes.NewBuffer(nil)
	for {
		b, err := r.ReadSlice(last)
		buf.Write(b)

		if limit > 0 && buf.Len() > limit {
			return nil, ErrLineTooLong
		}

		switch {
		case err == nil:
			if bytes.HasSuffix(buf.Bytes(), delim) {
				return buf.Bytes(), nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
			// Line is longer than the reader's buffer. Keep going.
		case errors.Is(err, io.EOF):
			if buf.Len() == 0 {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}
