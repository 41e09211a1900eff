package http

import (
	"testing"
	"time"

	"http-engine/application/http/status"

	"github.com/stretchr/testify/assert"
)

func TestParseVersion(t *testing.T) {
	testcases := []struct {
		desc     string
		input    []byte
		expected Version
		wantErr  bool
	}{
		{
			desc:     "http 1.1",
			input:    []byte("HTTP/1.1"),
			expected: Version{1, 1},
		},
		{
			desc:    "missing prefix",
			input:   []byte("1.1"),
			wantErr: true,
		},
		{
			desc:     "http 1.0",
			input:    []byte("HTTP/1.0"),
			expected: Version{1, 0},
		},
		{
			desc:    "missing prefix (partial)",
			input:   []byte("HTTP1.1"),
			wantErr: true,
		},
		{
			desc:    "missing seperator",
			input:   []byte("HTTP/1"),
			wantErr: true,
		},
		{
			desc:    "two seperators",
			input:   []byte("HTTP/1.1.1"),
			wantErr: true,
		},
		{
			desc:    "version not convertable to int",
			input:   []byte("HTTP/ayo.2"),
			wantErr: true,
		},
		{
			desc:    "negative version",
			input:   []byte("HTTP/1.-1"),
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			ver, err := ParseVersion(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			assert.Equal(t, tc.expected, ver)
		})
	}
}

func TestVersionToText(t *testing.T) {
	testcases := []struct {
		input    Version
		expected []byte
	}{
		{
			input:    Version{1, 1},
			expected: []byte("HTTP/1.1"),
		},
		{
			input:    Version{1, 0},
			expected: []byte("HTTP/1.0"),
		},
		{
			input:    Version{0, 1},
			expected: []byte("HTTP/0.1"),
		},
		{
			input:    Version{20, 1},
			expected: []byte("HTTP/20.1"),
		},
		{
			input:    Version{100, 100},
			expected: []byte("HTTP/100.100"),
		},
	}
	for _, tc := range testcases {
		t.Run(string(tc.expected), func(t *testing.T) {
			ver := tc.input
			assert.Equal(t, ver.Text(), tc.expected)
		})
	}
}

func TestVersionAtLeast(t *testing.T) {
	assert.True(t, Version11.AtLeast(1, 1))
	assert.True(t, Version11.AtLeast(1, 0))
	assert.False(t, Version10.AtLeast(1, 1))
	assert.True(t, Version{2, 0}.AtLeast(1, 1))
	assert.False(t, Version{0, 9}.AtLeast(1, 0))
}

func TestRequestTarget(t *testing.T) {
	testcases := []struct {
		desc      string
		target    string
		wantPath  string
		wantQuery map[string][]string
	}{
		{
			desc:      "no query",
			target:    "/index.html",
			wantPath:  "/index.html",
			wantQuery: map[string][]string{},
		},
		{
			desc:      "with query",
			target:    "/search?q=go&page=2",
			wantPath:  "/search",
			wantQuery: map[string][]string{"q": {"go"}, "page": {"2"}},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			req := NewRequest(MethodGet, tc.target, nil)
			assert.Equal(t, tc.wantPath, req.Path())
			assert.Equal(t, tc.wantQuery, map[string][]string(req.Query()))
		})
	}
}

func TestRequestSetBody(t *testing.T) {
	req := NewRequest(MethodPost, "/new-form", []byte("a=1"))

	cl, ok := req.Headers.Get("Content-Length")
	assert.True(t, ok)
	assert.Equal(t, "3", cl)

	req.SetBody(nil)
	cl, _ = req.Headers.Get("Content-Length")
	assert.Equal(t, "0", cl)
	assert.Empty(t, req.Body)
	assert.Equal(t, 1, req.Headers.Len())
}

func TestRequestClone(t *testing.T) {
	req := NewRequest(MethodPost, "/", []byte("abc"))
	clone := req.Clone()

	clone.Headers.Set("If-None-Match", `"x"`)
	clone.Body[0] = 'z'

	assert.False(t, req.Headers.Has("If-None-Match"))
	assert.Equal(t, "abc", string(req.Body))
}

func TestResponseSetBody(t *testing.T) {
	resp := NewResponse(status.OK)
	resp.SetBody("text/plain", []byte("hello"))

	assert.Equal(t, []Field{
		{"Content-Type", "text/plain"},
		{"Content-Length", "5"},
	}, resp.Headers.Fields())

	resp.Body = nil
	resp.EnsureContentLength()
	cl, _ := resp.Headers.Get("Content-Length")
	assert.Equal(t, "0", cl)
}

func TestEnsureContentLengthBodiless(t *testing.T) {
	for _, st := range []status.Status{status.NotModified, status.NoContent} {
		t.Run(st.ReasonPhrase, func(t *testing.T) {
			resp := NewResponse(st)
			resp.Headers.Set("Content-Length", "0")
			resp.Body = []byte("x")

			resp.EnsureContentLength()

			assert.False(t, resp.Headers.Has("Content-Length"))
			assert.Empty(t, resp.Body)
		})
	}
}

func TestFieldToText(t *testing.T) {
	field := Field{"Host", "example.com"}
	expected := "Host: example.com"

	assert.Equal(t, expected, string(field.Text()))
}

func TestTimeFormat(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.FixedZone("KST", 9*60*60))

	text := FormatTime(ts)
	assert.Equal(t, "Mon, 04 Mar 2024 22:08:09 GMT", text)

	parsed, err := ParseTime(text)
	assert.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
