package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"http-engine/application/http/status"
	"http-engine/application/util/rule"
	bytesutil "http-engine/util/bytes"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxStartLineLength sets the limit of request/status line length.
	// Recommended: >= 8000
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxStartLineLength int

	// MaxFieldLineLength sets the limit of a single field line.
	MaxFieldLineLength int

	// MaxHeaderCount sets the limit of field lines per message.
	MaxHeaderCount int

	// MaxBodyLength sets the limit of the content a message may carry.
	MaxBodyLength int
}

// Zero limits mean unlimited.
var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:        false,
	MaxStartLineLength: 8192,
	MaxFieldLineLength: 8192,
	MaxHeaderCount:     100,
	MaxBodyLength:      10 << 20,
}

type MessageDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

// readLine reads a line and cuts its terminator.
func (md *MessageDecoder) readLine(part string, limit int) ([]byte, error) {
	b, err := bytesutil.ReadUntil(md.br, []byte{rule.LF}, limit)
	if err != nil {
		if errors.Is(err, bytesutil.ErrLineTooLong) {
			return nil, newParseError(part, "exceeds %d bytes", limit)
		}
		return nil, err
	}

	b = b[:len(b)-1] // Remove LF.

	if len(b) > 0 && b[len(b)-1] == rule.CR {
		return b[:len(b)-1], nil
	}

	if !md.opts.AllowSoleLF {
		return nil, newParseError(part, "missing CR before LF")
	}

	return b, nil
}

// readStartLine skips empty lines and returns the first non-empty one.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
func (md *MessageDecoder) readStartLine(part string) ([]byte, error) {
	for {
		line, err := md.readLine(part, md.opts.MaxStartLineLength)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEndOfStream
			}
			return nil, err
		}

		if len(line) > 0 {
			return line, nil
		}
	}
}

func (md *MessageDecoder) decodeHeaders() (Headers, error) {
	var headers Headers
	for {
		line, err := md.readLine("field line", md.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Headers{}, errors.Wrap(err, "reading field line")
		}

		if len(line) == 0 {
			// An empty line. This means that there are no more headers.
			return headers, nil
		}

		field, ok := parseField(line)
		if !ok {
			// Lines without a colon carry nothing we can use.
			continue
		}

		if limit := md.opts.MaxHeaderCount; limit > 0 && headers.Len() >= limit {
			return Headers{}, newParseError("headers", "more than %d fields", limit)
		}

		headers.Add(field.Name, field.Value)
	}
}

// parseField splits a field line on its first colon. Both sides are trimmed.
func parseField(line []byte) (Field, bool) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, false
	}

	f := Field{
		Name:  rule.TrimOWS(string(name)),
		Value: rule.TrimOWS(string(value)),
	}
	if f.Name == "" {
		return Field{}, false
	}

	return f, true
}

// contentLength extracts declared content length.
// ok is false when the message has no Content-Length.
func (md *MessageDecoder) contentLength(h *Headers) (n int, ok bool, err error) {
	values := h.Values("Content-Length")
	if len(values) == 0 {
		return 0, false, nil
	}

	for _, v := range values[1:] {
		if v != values[0] {
			// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.5
			return 0, false, newParseError("Content-Length", "conflicting values %q", values)
		}
	}

	raw := values[0]
	if !rule.IsDigits(raw) {
		return 0, false, newParseError("Content-Length", "not a number: %q", raw)
	}

	n, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, newParseError("Content-Length", "out of range: %q", raw)
	}

	if limit := md.opts.MaxBodyLength; limit > 0 && n > limit {
		return 0, false, newParseError("Content-Length", "%d exceeds limit %d", n, limit)
	}

	return n, true, nil
}

// readBody reads exactly n bytes. Anything after them stays buffered.
func (md *MessageDecoder) readBody(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(md.br, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(err, "reading body")
	}

	return body, nil
}

// readBodyUntilClose reads until the peer closes the stream.
func (md *MessageDecoder) readBodyUntilClose() ([]byte, error) {
	var r io.Reader = md.br
	limit := md.opts.MaxBodyLength
	if limit > 0 {
		r = io.LimitReader(md.br, int64(limit)+1)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading body until close")
	}

	if limit > 0 && len(body) > limit {
		return nil, newParseError("body", "exceeds limit %d", limit)
	}

	return body, nil
}

type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// Decode reads one request. r MUST be a non-nil pointer.
//
// It returns [ErrEndOfStream] if the stream ended before a request line,
// a [*ParseError] if the message is malformed, and the wrapped transport error otherwise.
func (rd *RequestDecoder) Decode(r *Request) error {
	line, err := rd.readStartLine("request line")
	if err != nil {
		return err
	}

	reqLine, err := parseRequestLine(line)
	if err != nil {
		return err
	}

	headers, err := rd.decodeHeaders()
	if err != nil {
		return errors.Wrap(err, "decoding headers")
	}

	n, ok, err := rd.contentLength(&headers)
	if err != nil {
		return err
	}

	// Without Content-Length a request has no body.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.7
	body := []byte{}
	if ok {
		if body, err = rd.readBody(n); err != nil {
			return err
		}
	}

	*r = Request{RequestLine: reqLine, Headers: headers, Body: body}

	return nil
}

func parseRequestLine(line []byte) (RequestLine, error) {
	parts := bytes.Split(line, []byte{rule.SP})
	if len(parts) != 3 {
		return RequestLine{}, newParseError("request line", "want 3 tokens, got %d", len(parts))
	}

	method := string(parts[0])
	if !rule.IsValidToken(method) {
		return RequestLine{}, newParseError("request line", "method is not a valid token: %q", method)
	}

	target := string(parts[1])
	if len(target) == 0 {
		return RequestLine{}, newParseError("request line", "empty target")
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return RequestLine{}, newParseError("request line", "%s", err.Error())
	}

	return RequestLine{Method: method, Target: target, Version: ver}, nil
}

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// Decode reads one response. r MUST be a non-nil pointer.
//
// Without Content-Length the body runs until the peer closes the stream,
// so such a response ends the connection.
func (rd *ResponseDecoder) Decode(r *Response) error {
	line, err := rd.readStartLine("status line")
	if err != nil {
		return err
	}

	statLine, err := parseStatusLine(line)
	if err != nil {
		return err
	}

	headers, err := rd.decodeHeaders()
	if err != nil {
		return errors.Wrap(err, "decoding headers")
	}

	n, ok, err := rd.contentLength(&headers)
	if err != nil {
		return err
	}

	body := []byte{}
	switch {
	case !status.HasBody(statLine.StatusCode):
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
		headers.Del("Content-Length")
	case ok:
		body, err = rd.readBody(n)
	default:
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.8
		body, err = rd.readBodyUntilClose()
	}
	if err != nil {
		return err
	}

	*r = Response{StatusLine: statLine, Headers: headers, Body: body}

	return nil
}

func parseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 3 {
		return StatusLine{}, newParseError("status line", "want 3 tokens, got %d", len(parts))
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, newParseError("status line", "%s", err.Error())
	}

	statusCodeStr := string(parts[1])
	if len(statusCodeStr) != 3 || !rule.IsDigits(statusCodeStr) {
		return StatusLine{}, newParseError("status line", "status code is malformed: %q", statusCodeStr)
	}
	statusCode, _ := strconv.Atoi(statusCodeStr)

	// reason-phrase may be empty.
	reasonPhrase := string(parts[2])

	return StatusLine{Version: ver, StatusCode: statusCode, ReasonPhrase: reasonPhrase}, nil
}
