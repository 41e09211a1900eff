package http

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MessageEncoderTestSuite struct {
	suite.Suite
}

func TestMessageEncoderTestSuite(t *testing.T) {
	suite.Run(t, new(MessageEncoderTestSuite))
}

func (s *MessageEncoderTestSuite) TestWriteLine() {
	testcases := []struct {
		desc     string
		input    []byte
		opts     EncodeOptions
		expected string
	}{
		{
			desc:     "simple line with CRLF",
			input:    []byte("Hello"),
			expected: "Hello\r\n",
		},
		{
			desc:     "simple line with LF",
			input:    []byte("Hello"),
			opts:     EncodeOptions{UseSoleLF: true},
			expected: "Hello\n",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			var buf bytes.Buffer
			me := MessageEncoder{
				bw:   bufio.NewWriter(&buf),
				opts: tc.opts,
			}

			s.NoError(me.writeLine(tc.input))
			s.NoError(me.bw.Flush())

			s.Equal(tc.expected, buf.String())
		})
	}
}

func (s *MessageEncoderTestSuite) TestEncodeHeaders() {
	testcases := []struct {
		desc     string
		headers  Headers
		expected string
	}{
		{
			desc:    "simple headers with CRLF",
			headers: NewHeaders(Field{"Host", "example.com"}),
			expected: "" +
				"Host: example.com\r\n" +
				"\r\n",
		},
		{
			desc:    "insertion order and casing are kept",
			headers: NewHeaders(Field{"x-b", "2"}, Field{"X-A", "1"}),
			expected: "" +
				"x-b: 2\r\n" +
				"X-A: 1\r\n" +
				"\r\n",
		},
		{
			desc:     "empty headers",
			headers:  Headers{},
			expected: "\r\n",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			var buf bytes.Buffer
			me := MessageEncoder{bw: bufio.NewWriter(&buf)}

			s.NoError(me.encodeHeaders(tc.headers))
			s.NoError(me.bw.Flush())

			s.Equal(tc.expected, buf.String())
		})
	}
}

type RequestEncoderTestSuite struct {
	suite.Suite
}

func TestRequestEncoderTestSuite(t *testing.T) {
	suite.Run(t, new(RequestEncoderTestSuite))
}

func (s *RequestEncoderTestSuite) TestEncode() {
	body := "field1=value1"

	input := Request{
		RequestLine: RequestLine{
			Method:  "POST",
			Target:  "/example",
			Version: Version{1, 1},
		},
		Headers: NewHeaders(Field{"Host", "example.com"}),
		Body:    []byte(body),
	}

	expected := "" +
		"POST /example HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"\r\n" +
		body

	buf := bytes.NewBuffer(nil)
	re := NewRequestEncoder(buf, DefaultEncodeOptions)

	s.NoError(re.Encode(input))

	s.Equal(expected, buf.String())
}

func (s *RequestEncoderTestSuite) TestEncodeRequestLine() {
	input := RequestLine{
		Method:  "GET",
		Target:  "/example",
		Version: Version{1, 1},
	}

	expected := "GET /example HTTP/1.1\r\n"

	buf := bytes.NewBuffer(nil)
	re := NewRequestEncoder(buf, DefaultEncodeOptions)

	s.NoError(re.encodeRequestLine(input))
	s.NoError(re.bw.Flush())

	s.Equal(expected, buf.String())
}

func (s *RequestEncoderTestSuite) TestRoundTrip() {
	req := NewRequest(MethodPost, "/api/login", []byte("username=admin&password=admin123"))
	req.Headers.Set("Host", "localhost:8022")

	rd := NewRequestDecoder(bytes.NewReader(SerializeRequest(*req)), DefaultDecodeOptions)

	var decoded Request
	s.Require().NoError(rd.Decode(&decoded))
	s.Equal(req.RequestLine, decoded.RequestLine)
	s.Equal(req.Headers.Fields(), decoded.Headers.Fields())
	s.Equal(req.Body, decoded.Body)
}

type ResponseEncoderTestSuite struct {
	suite.Suite
}

func TestResponseEncoderTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseEncoderTestSuite))
}

func (s *ResponseEncoderTestSuite) TestEncode() {
	body := "field1=value1"

	input := Response{
		StatusLine: StatusLine{
			Version:      Version{1, 1},
			StatusCode:   200,
			ReasonPhrase: "OK",
		},
		Headers: NewHeaders(Field{"Content-Type", "text/plain"}),
		Body:    []byte(body),
	}

	expected := "" +
		"HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		body

	buf := bytes.NewBuffer(nil)
	re := NewResponseEncoder(buf, DefaultEncodeOptions)

	s.NoError(re.Encode(input))

	s.Equal(expected, buf.String())
}

func (s *ResponseEncoderTestSuite) TestEncodeStatusLine() {
	testcases := []struct {
		desc     string
		input    StatusLine
		expected string
	}{
		{
			desc:     "given reason phrase",
			input:    StatusLine{Version: Version11, StatusCode: 200, ReasonPhrase: "OK"},
			expected: "HTTP/1.1 200 OK\r\n",
		},
		{
			desc:     "empty reason phrase is filled",
			input:    StatusLine{Version: Version11, StatusCode: 404},
			expected: "HTTP/1.1 404 Not Found\r\n",
		},
		{
			desc:     "unknown code",
			input:    StatusLine{Version: Version10, StatusCode: 599},
			expected: "HTTP/1.0 599 Unknown\r\n",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			buf := bytes.NewBuffer(nil)
			re := NewResponseEncoder(buf, DefaultEncodeOptions)

			s.NoError(re.encodeStatusLine(tc.input))
			s.NoError(re.bw.Flush())

			s.Equal(tc.expected, buf.String())
		})
	}
}

func (s *ResponseEncoderTestSuite) TestSerializeResponse() {
	resp := Response{
		StatusLine: StatusLine{Version: Version11, StatusCode: 302},
		Headers:    NewHeaders(Field{"Location", "/index.html"}, Field{"Content-Length", "0"}),
	}

	expected := "" +
		"HTTP/1.1 302 Found\r\n" +
		"Location: /index.html\r\n" +
		"Content-Length: 0\r\n" +
		"\r\n"

	s.Equal(expected, string(SerializeResponse(resp)))
}
