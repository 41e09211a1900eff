package http

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"
	"time"

	"http-engine/application/http/status"

	"github.com/pkg/errors"
)

const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// TimeFormat is the IMF-fixdate layout used by Date, Last-Modified and
// If-Modified-Since. Times must be in UTC.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.7
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

func FormatTime(t time.Time) string { return t.UTC().Format(TimeFormat) }

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing http date %q", s)
	}
	return t, nil
}

// [Major, Minor]
type Version [2]uint

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	// Get major and minor version.
	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(strconv.FormatUint(uint64(ver[0]), 10)))
	buf.Write([]byte{'.'})
	buf.Write([]byte(strconv.FormatUint(uint64(ver[1]), 10)))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

// AtLeast reports whether ver is major.minor or newer.
func (ver Version) AtLeast(major, minor uint) bool {
	if ver[0] != major {
		return ver[0] > major
	}
	return ver[1] >= minor
}

type RequestLine struct {
	Method  string
	Target  string
	Version Version
}

type Request struct {
	RequestLine
	Headers Headers

	Body []byte
}

// NewRequest creates an HTTP/1.1 request.
// If body is non-empty, Content-Length is set to its length.
func NewRequest(method, target string, body []byte) *Request {
	r := &Request{
		RequestLine: RequestLine{Method: method, Target: target, Version: Version11},
	}
	if len(body) > 0 {
		r.SetBody(body)
	}
	return r
}

// Path returns the target without its query component.
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.Target, "?")
	return path
}

// Query returns the query parameters of the target.
// Malformed pairs are dropped.
func (r *Request) Query() url.Values {
	_, query, found := strings.Cut(r.Target, "?")
	if !found {
		return url.Values{}
	}

	values, _ := url.ParseQuery(query)
	return values
}

// SetBody replaces body and keeps Content-Length in sync with it.
func (r *Request) SetBody(body []byte) {
	r.Body = bytes.Clone(body)
	r.Headers.Set("Content-Length", strconv.Itoa(len(body)))
}

func (r *Request) Clone() *Request {
	clone := *r
	clone.Headers = r.Headers.Clone()
	clone.Body = bytes.Clone(r.Body)
	return &clone
}

type StatusLine struct {
	Version      Version
	StatusCode   int
	ReasonPhrase string
}

type Response struct {
	StatusLine
	Headers Headers

	Body []byte
}

// NewResponse creates an HTTP/1.1 response without content.
func NewResponse(st status.Status) *Response {
	return &Response{
		StatusLine: StatusLine{
			Version:      Version11,
			StatusCode:   st.Code,
			ReasonPhrase: st.ReasonPhrase,
		},
	}
}

// SetBody replaces body, sets Content-Type (if not empty) and Content-Length.
func (r *Response) SetBody(contentType string, body []byte) {
	r.Body = bytes.Clone(body)
	if contentType != "" {
		r.Headers.Set("Content-Type", contentType)
	}
	r.Headers.Set("Content-Length", strconv.Itoa(len(body)))
}

// EnsureContentLength sets Content-Length to the actual body length.
// Statuses that never carry content lose their body and Content-Length.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-8
func (r *Response) EnsureContentLength() {
	if !status.HasBody(r.StatusCode) {
		r.Body = nil
		r.Headers.Del("Content-Length")
		return
	}
	r.Headers.Set("Content-Length", strconv.Itoa(len(r.Body)))
}

func (r *Response) Clone() *Response {
	clone := *r
	clone.Headers = r.Headers.Clone()
	clone.Body = bytes.Clone(r.Body)
	return &clone
}
