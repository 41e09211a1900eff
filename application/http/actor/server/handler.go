package server

import (
	"context"

	"http-engine/application/http"
	"http-engine/transport"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// HandleFunc produces the response for a request.
// It is only called for GET and POST requests.
type HandleFunc func(c *HandleContext, request *http.Request) *http.Response

type HandleContext struct {
	ctx context.Context

	remoteAddr transport.Addr
	version    http.Version
	logger     zerolog.Logger

	closeConn bool
}

// doHandle runs handle, turning a panic or a nil response into an error.
func (c *HandleContext) doHandle(handle HandleFunc, request *http.Request) (res *http.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			res, err = nil, errors.Errorf("handler panicked: %v", e)
		}
	}()

	res = handle(c, request)
	if res == nil {
		return nil, errors.New("nil response is forbidden")
	}

	return res, nil
}

func (c *HandleContext) Context() context.Context   { return c.ctx }
func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }
func (c *HandleContext) HTTPVersion() http.Version  { return c.version }
func (c *HandleContext) Logger() *zerolog.Logger    { return &c.logger }

// CloseConn closes the connection once the response is written.
func (c *HandleContext) CloseConn() { c.closeConn = true }

// NewHandleContext creates a context for calling a HandleFunc outside a server.
func NewHandleContext(ctx context.Context, remoteAddr transport.Addr, version http.Version, logger zerolog.Logger) *HandleContext {
	return &HandleContext{
		ctx:        ctx,
		remoteAddr: remoteAddr,
		version:    version,
		logger:     logger,
	}
}
