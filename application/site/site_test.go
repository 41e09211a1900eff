package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"http-engine/application/http"
	"http-engine/application/http/actor/server"
	"http-engine/store/credential"
	"http-engine/store/file"
	"http-engine/transport/pipe"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

var indexModTime = time.Date(2024, time.March, 4, 22, 8, 9, 0, time.UTC)

func writeWebroot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	index := filepath.Join(root, "index.html")
	if err := os.WriteFile(index, []byte("<h1>hello</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(index, indexModTime, indexModTime); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "data.json"), []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

type RouterTestSuite struct {
	suite.Suite

	users  *credential.Memory
	router *Router
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	s.users = credential.NewMemory(bcrypt.MinCost)
	s.Require().NoError(credential.Seed(context.Background(), s.users, credential.DefaultUsers))

	s.router = New(file.New(writeWebroot(s.T())), s.users)
}

func (s *RouterTestSuite) handle(request *http.Request) *http.Response {
	c := server.NewHandleContext(context.Background(), pipe.Addr{Name: "test"}, request.Version, zerolog.Nop())
	return s.router.Handle(c, request)
}

func (s *RouterTestSuite) decode(res *http.Response) message {
	var m message
	s.Require().NoError(json.Unmarshal(res.Body, &m))
	return m
}

func form(target, body string) *http.Request {
	req := http.NewRequest(http.MethodPost, target, []byte(body))
	req.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (s *RouterTestSuite) TestRedirects() {
	testcases := []struct {
		method       string
		target       string
		wantStatus   int
		wantLocation string
	}{
		{http.MethodGet, "/", 302, "/index.html"},
		{http.MethodGet, "/?x=1", 302, "/index.html"},
		{http.MethodGet, "/old-page", 301, "/index.html"},
		{http.MethodGet, "/temp", 302, "/index.html"},
		{http.MethodPost, "/old-form", 301, "/new-form"},
		{http.MethodPost, "/temp-post", 302, "/index.html"},
	}
	for _, tc := range testcases {
		s.Run(tc.method+" "+tc.target, func() {
			res := s.handle(http.NewRequest(tc.method, tc.target, nil))
			s.Equal(tc.wantStatus, res.StatusCode)

			location, _ := res.Headers.Get("Location")
			s.Equal(tc.wantLocation, location)
		})
	}
}

func (s *RouterTestSuite) TestStaticFile() {
	res := s.handle(http.NewRequest(http.MethodGet, "/index.html", nil))
	s.Equal(200, res.StatusCode)
	s.Equal("<h1>hello</h1>", string(res.Body))

	ct, _ := res.Headers.Get("Content-Type")
	s.Equal("text/html", ct)
	lm, _ := res.Headers.Get("Last-Modified")
	s.Equal("Mon, 04 Mar 2024 22:08:09 GMT", lm)
	etag, _ := res.Headers.Get("ETag")
	s.Equal(file.ETag([]byte("<h1>hello</h1>")), etag)
	cl, _ := res.Headers.Get("Content-Length")
	s.Equal("14", cl)

	res = s.handle(http.NewRequest(http.MethodGet, "/data.json?v=2", nil))
	s.Equal(200, res.StatusCode)
	ct, _ = res.Headers.Get("Content-Type")
	s.Equal("application/json", ct)
}

func (s *RouterTestSuite) TestConditional() {
	etag := file.ETag([]byte("<h1>hello</h1>"))

	testcases := []struct {
		desc       string
		headers    map[string]string
		wantStatus int
	}{
		{desc: "matching etag", headers: map[string]string{"If-None-Match": etag}, wantStatus: 304},
		{desc: "etag in list", headers: map[string]string{"If-None-Match": `"zzz", ` + etag}, wantStatus: 304},
		{desc: "wildcard", headers: map[string]string{"If-None-Match": "*"}, wantStatus: 304},
		{desc: "other etag", headers: map[string]string{"If-None-Match": `"zzz"`}, wantStatus: 200},
		{
			desc: "etag wins over date",
			headers: map[string]string{
				"If-None-Match":     `"zzz"`,
				"If-Modified-Since": "Mon, 04 Mar 2024 22:08:09 GMT",
			},
			wantStatus: 200,
		},
		{desc: "same date", headers: map[string]string{"If-Modified-Since": "Mon, 04 Mar 2024 22:08:09 GMT"}, wantStatus: 304},
		{desc: "later date", headers: map[string]string{"If-Modified-Since": "Tue, 05 Mar 2024 00:00:00 GMT"}, wantStatus: 304},
		{desc: "earlier date", headers: map[string]string{"If-Modified-Since": "Mon, 04 Mar 2024 22:08:08 GMT"}, wantStatus: 200},
		{desc: "bad date", headers: map[string]string{"If-Modified-Since": "yesterday"}, wantStatus: 200},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			req := http.NewRequest(http.MethodGet, "/index.html", nil)
			for k, v := range tc.headers {
				req.Headers.Set(k, v)
			}

			res := s.handle(req)
			s.Equal(tc.wantStatus, res.StatusCode)
			if tc.wantStatus == 304 {
				s.Empty(res.Body)
				got, _ := res.Headers.Get("ETag")
				s.Equal(etag, got)
			}
		})
	}
}

func (s *RouterTestSuite) TestNotFound() {
	testcases := []string{"/missing.html", "/nested/none.css"}
	for _, target := range testcases {
		s.Run(target, func() {
			res := s.handle(http.NewRequest(http.MethodGet, target, nil))
			s.Equal(404, res.StatusCode)
			s.Contains(string(res.Body), "<h1>404 Not Found</h1>")
		})
	}
}

func (s *RouterTestSuite) TestTraversalIsRedirectedToRoot() {
	res := s.handle(http.NewRequest(http.MethodGet, "/secret/../../x", nil))
	s.Equal(302, res.StatusCode)
}

func (s *RouterTestSuite) TestEchoForm() {
	res := s.handle(form("/new-form", "a=1&b=two+words"))
	s.Equal(200, res.StatusCode)

	ct, _ := res.Headers.Get("Content-Type")
	s.Equal("application/json", ct)
	s.Equal(map[string]string{"a": "1", "b": "two words"}, s.decode(res).Fields)
}

func (s *RouterTestSuite) TestRegister() {
	testcases := []struct {
		desc       string
		body       string
		wantStatus int
		wantError  string
	}{
		{desc: "new user", body: "username=carol&password=pw", wantStatus: 200},
		{desc: "taken", body: "username=admin&password=x", wantStatus: 400, wantError: "Username already exists"},
		{desc: "missing password", body: "username=dave", wantStatus: 400, wantError: "Username and password are required"},
		{desc: "blank username", body: "username=+&password=pw", wantStatus: 400, wantError: "Username and password are required"},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			res := s.handle(form("/api/register", tc.body))
			s.Equal(tc.wantStatus, res.StatusCode)
			s.Equal(tc.wantError, s.decode(res).Error)
		})
	}

	ok, err := s.users.Authenticate(context.Background(), "carol", "pw")
	s.NoError(err)
	s.True(ok)
}

func (s *RouterTestSuite) TestRegisterTrims() {
	res := s.handle(form("/api/register", "username=+erin+&password=+pw+"))
	s.Equal(200, res.StatusCode)

	ok, err := s.users.Authenticate(context.Background(), "erin", "pw")
	s.NoError(err)
	s.True(ok)
}

func (s *RouterTestSuite) TestLogin() {
	testcases := []struct {
		desc       string
		body       string
		wantStatus int
	}{
		{desc: "seeded admin", body: "username=admin&password=admin123", wantStatus: 200},
		{desc: "seeded test user", body: "username=test&password=test123", wantStatus: 200},
		{desc: "wrong password", body: "username=admin&password=nope", wantStatus: 401},
		{desc: "unknown user", body: "username=zed&password=x", wantStatus: 401},
		{desc: "missing fields", body: "username=admin", wantStatus: 400},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			res := s.handle(form("/api/login", tc.body))
			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}

func (s *RouterTestSuite) TestGetOnAPIFallsBackToFiles() {
	res := s.handle(http.NewRequest(http.MethodGet, "/api/login", nil))
	s.Equal(404, res.StatusCode)
}

func TestNormalizePath(t *testing.T) {
	testcases := []struct {
		input    string
		expected string
	}{
		{input: "/index.html", expected: "/index.html"},
		{input: "/index.html?x=1", expected: "/index.html"},
		{input: "index.html", expected: "/index.html"},
		{input: "", expected: "/"},
		{input: "/../etc/passwd", expected: "/"},
		{input: `/..\windows`, expected: "/"},
	}
	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizePath(tc.input))
		})
	}
}
