// Package site routes requests for the demo site: a few redirects, the
// form and account endpoints, and static files from a FileStore.
package site

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"http-engine/application/http"
	"http-engine/application/http/actor/server"
	"http-engine/application/http/status"
	"http-engine/store/file"

	"github.com/pkg/errors"
)

type FileStore interface {
	Resolve(path string) (file.File, error)
}

type CredentialStore interface {
	Register(ctx context.Context, username, password string) (bool, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

type redirect struct {
	status   status.Status
	location string
}

var redirects = map[string]redirect{
	"/":          {status.Found, "/index.html"},
	"/old-page":  {status.MovedPermanently, "/index.html"},
	"/temp":      {status.Found, "/index.html"},
	"/old-form":  {status.MovedPermanently, "/new-form"},
	"/temp-post": {status.Found, "/index.html"},
}

type Router struct {
	files FileStore
	users CredentialStore
}

func New(files FileStore, users CredentialStore) *Router {
	return &Router{files: files, users: users}
}

// Handle conforms to [server.HandleFunc].
func (r *Router) Handle(c *server.HandleContext, request *http.Request) *http.Response {
	path := NormalizePath(request.Target)

	if rd, ok := redirects[path]; ok {
		res := http.NewResponse(rd.status)
		res.Headers.Set("Location", rd.location)
		return res
	}

	if request.Method == http.MethodPost {
		switch path {
		case "/new-form":
			return r.echoForm(request)
		case "/api/register":
			return r.register(c, request)
		case "/api/login":
			return r.login(c, request)
		}
	}

	return r.serveFile(c, request, path)
}

// NormalizePath strips the query and makes the path absolute.
// Paths trying to climb out of the root become "/".
func NormalizePath(target string) string {
	path, _, _ := strings.Cut(target, "?")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if strings.Contains(path, "../") || strings.Contains(path, `..\`) {
		return "/"
	}
	return path
}

type message struct {
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func jsonResponse(st status.Status, body message) *http.Response {
	b, err := json.Marshal(body)
	if err != nil {
		return server.ErrorResponse(status.InternalServerError)
	}

	res := http.NewResponse(st)
	res.SetBody("application/json", b)
	return res
}

// formFields decodes an urlencoded body, keeping the first value of each field.
func formFields(request *http.Request) (map[string]string, error) {
	values, err := url.ParseQuery(string(request.Body))
	if err != nil {
		return nil, errors.Wrap(err, "parsing form")
	}

	fields := make(map[string]string, len(values))
	for k, v := range values {
		fields[k] = v[0]
	}
	return fields, nil
}

func (r *Router) echoForm(request *http.Request) *http.Response {
	fields, err := formFields(request)
	if err != nil {
		return jsonResponse(status.BadRequest, message{Error: "Malformed form body"})
	}
	return jsonResponse(status.OK, message{Message: "Form received", Fields: fields})
}

func (r *Router) register(c *server.HandleContext, request *http.Request) *http.Response {
	fields, err := formFields(request)
	if err != nil {
		return jsonResponse(status.BadRequest, message{Error: "Malformed form body"})
	}

	username := strings.TrimSpace(fields["username"])
	password := strings.TrimSpace(fields["password"])
	if username == "" || password == "" {
		return jsonResponse(status.BadRequest, message{Error: "Username and password are required"})
	}

	created, err := r.users.Register(c.Context(), username, password)
	if err != nil {
		c.Logger().Error().Err(err).Str("user", username).Msg("registration failed")
		return server.ErrorResponse(status.InternalServerError)
	}
	if !created {
		return jsonResponse(status.BadRequest, message{Error: "Username already exists"})
	}

	c.Logger().Info().Str("user", username).Msg("user registered")
	return jsonResponse(status.OK, message{Message: "User registered successfully"})
}

func (r *Router) login(c *server.HandleContext, request *http.Request) *http.Response {
	fields, err := formFields(request)
	if err != nil {
		return jsonResponse(status.BadRequest, message{Error: "Malformed form body"})
	}

	username, uok := fields["username"]
	password, pok := fields["password"]
	if !uok || !pok {
		return jsonResponse(status.BadRequest, message{Error: "Username and password are required"})
	}

	ok, err := r.users.Authenticate(c.Context(), username, password)
	if err != nil {
		c.Logger().Error().Err(err).Str("user", username).Msg("authentication failed")
		return server.ErrorResponse(status.InternalServerError)
	}
	if !ok {
		c.Logger().Info().Str("user", username).Msg("login rejected")
		return jsonResponse(status.Unauthorized, message{Error: "Invalid username or password"})
	}

	c.Logger().Info().Str("user", username).Msg("user logged in")
	return jsonResponse(status.OK, message{Message: "Login successful"})
}

func (r *Router) serveFile(c *server.HandleContext, request *http.Request, path string) *http.Response {
	f, err := r.files.Resolve(path)
	switch {
	case errors.Is(err, file.ErrNotFound):
		return server.ErrorResponse(status.NotFound)
	case err != nil:
		c.Logger().Error().Err(err).Str("path", path).Msg("resolving file")
		return server.ErrorResponse(status.InternalServerError)
	}

	lastModified := http.FormatTime(f.ModTime)

	if notModified(request, f) {
		res := http.NewResponse(status.NotModified)
		res.Headers.Set("ETag", f.ETag)
		res.Headers.Set("Last-Modified", lastModified)
		return res
	}

	res := http.NewResponse(status.OK)
	res.Headers.Set("Last-Modified", lastModified)
	res.Headers.Set("ETag", f.ETag)
	res.SetBody(f.ContentType, f.Content)
	return res
}

// notModified evaluates the request validators against f.
// If-None-Match takes precedence over If-Modified-Since.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-13.2.2
func notModified(request *http.Request, f file.File) bool {
	if inm, ok := request.Headers.Get("If-None-Match"); ok {
		for _, tag := range strings.Split(inm, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "*" || strings.TrimPrefix(tag, "W/") == f.ETag {
				return true
			}
		}
		return false
	}

	if ims, ok := request.Headers.Get("If-Modified-Since"); ok {
		t, err := http.ParseTime(ims)
		if err != nil {
			return false
		}
		return !f.ModTime.After(t)
	}

	return false
}
