package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"http-engine/application/http"
	"http-engine/application/http/status"
	"http-engine/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type State int

const (
	StateAccepted State = iota
	StateReading
	StateDispatching
	StateWriting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateWriting:
		return "writing"
	case StateClosed:
		return "closed"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Outcome is the reason a connection was closed.
type Outcome int

const (
	CloseIdleTimeout Outcome = iota
	ClosePeerClosed
	CloseParseFailure
	CloseRequested
	CloseMaxRequests
	CloseUnsupportedMethod
	CloseHandlerFailure
	CloseTransportError
	CloseShutdown
)

func (o Outcome) String() string {
	switch o {
	case CloseIdleTimeout:
		return "idle_timeout"
	case ClosePeerClosed:
		return "peer_closed"
	case CloseParseFailure:
		return "parse_failure"
	case CloseRequested:
		return "requested"
	case CloseMaxRequests:
		return "max_requests"
	case CloseUnsupportedMethod:
		return "unsupported_method"
	case CloseHandlerFailure:
		return "handler_failure"
	case CloseTransportError:
		return "transport_error"
	case CloseShutdown:
		return "shutdown"
	}
	return "Outcome(" + strconv.Itoa(int(o)) + ")"
}

// conn is owned by the worker serving it. Only close may be called from elsewhere.
type conn struct {
	con transport.Conn

	handle HandleFunc
	clock  clock.Clock
	logger zerolog.Logger
	opts   Options

	state  State
	served int // requests parsed so far.
}

func newConn(con transport.Conn, handle HandleFunc, clk clock.Clock, logger zerolog.Logger, opts Options) *conn {
	return &conn{
		con:    con,
		handle: handle,
		clock:  clk,
		logger: logger.With().Stringer("remote", con.RemoteAddr()).Logger(),
		opts:   opts,
		state:  StateAccepted,
	}
}

func (c *conn) close() error { return c.con.Close() }

func (c *conn) setState(s State) {
	c.logger.Trace().Stringer("from", c.state).Stringer("to", s).Msg("state transition")
	c.state = s
}

// start serves the connection until it closes and reports why it closed.
func (c *conn) start(ctx context.Context) Outcome {
	outcome, err := c.serve(ctx)
	if ctx.Err() != nil && outcome == CloseTransportError {
		// Shutdown closes live connections under our feet.
		outcome, err = CloseShutdown, nil
	}

	c.setState(StateClosed)
	if cerr := c.con.Close(); cerr != nil && !errors.Is(cerr, transport.ErrConnClosed) {
		c.logger.Warn().Err(cerr).Msg("error when closing connection")
	}

	ev := c.logger.Debug()
	switch outcome {
	case CloseIdleTimeout:
		ev = c.logger.Info()
	case CloseTransportError, CloseHandlerFailure:
		ev = c.logger.Error().Err(err)
	case CloseParseFailure:
		ev = c.logger.Warn().Err(err)
	}
	ev.Stringer("outcome", outcome).Int("served", c.served).Msg("connection closed")

	return outcome
}

func (c *conn) serve(ctx context.Context) (Outcome, error) {
	dec := http.NewRequestDecoder(c.con, c.opts.Serve.Decode)
	enc := http.NewResponseEncoder(c.con, c.opts.Serve.Encode)

	for {
		if ctx.Err() != nil {
			return CloseShutdown, nil
		}

		c.setState(StateReading)

		request, outcome, err := c.readRequest(dec)
		if err != nil {
			return outcome, err
		}
		c.served++

		c.setState(StateDispatching)

		response, persist, outcome, herr := c.dispatch(ctx, request)

		c.setState(StateWriting)

		if err := c.writeResponse(enc, request, response, persist); err != nil {
			return CloseTransportError, errors.Wrap(err, "writing response")
		}

		if !persist {
			return outcome, herr
		}
	}
}

// readRequest waits for and reads the next request.
// The idle timeout covers both the wait and the read.
func (c *conn) readRequest(dec *http.RequestDecoder) (*http.Request, Outcome, error) {
	c.con.SetReadDeadLine(c.clock.Now().Add(c.opts.Serve.Timeout.IdleTimeout))
	defer c.con.SetReadDeadLine(time.Time{})

	var request http.Request
	err := dec.Decode(&request)
	switch {
	case err == nil:
		return &request, 0, nil
	case errors.Is(err, http.ErrEndOfStream):
		return nil, ClosePeerClosed, err
	case http.IsParseError(err):
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-9
		return nil, CloseParseFailure, err
	case errors.Is(err, transport.ErrDeadLineExceeded):
		return nil, CloseIdleTimeout, err
	}

	return nil, CloseTransportError, errors.Wrap(err, "reading request")
}

// dispatch produces the response and decides whether the connection persists.
// When it does not, outcome tells why.
func (c *conn) dispatch(ctx context.Context, request *http.Request) (res *http.Response, persist bool, outcome Outcome, err error) {
	switch request.Method {
	case http.MethodGet, http.MethodPost:
	default:
		res = ErrorResponse(status.MethodNotAllowed)
		res.Headers.Set("Allow", "GET, POST")
		return res, false, CloseUnsupportedMethod, nil
	}

	hctx := &HandleContext{
		ctx:        ctx,
		remoteAddr: c.con.RemoteAddr(),
		version:    request.Version,
		logger:     c.logger,
	}

	res, err = hctx.doHandle(c.handle, request)
	if err != nil {
		return ErrorResponse(status.InternalServerError), false, CloseHandlerFailure, err
	}

	switch {
	case !keepAlive(request) || hctx.closeConn:
		return res, false, CloseRequested, nil
	case c.served > c.opts.MaxRequests:
		return res, false, CloseMaxRequests, nil
	}

	return res, true, 0, nil
}

// keepAlive reports whether the client asked the connection to persist.
// HTTP/1.1 persists by default, HTTP/1.0 only on request.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.3
func keepAlive(request *http.Request) bool {
	if request.Version.AtLeast(1, 1) {
		return !request.Headers.HasToken("Connection", "close")
	}
	return request.Headers.HasToken("Connection", "keep-alive")
}

func (c *conn) writeResponse(enc *http.ResponseEncoder, request *http.Request, response *http.Response, persist bool) error {
	if timeout := c.opts.Serve.Timeout.WriteTimeout; timeout > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(timeout))
		defer c.con.SetWriteDeadLine(time.Time{})
	}

	response.Version = http.Version11
	response.EnsureContentLength()

	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.6.1-6
	if !response.Headers.Has("Date") {
		response.Headers.Set("Date", http.FormatTime(c.clock.Now()))
	}
	if !response.Headers.Has("Server") {
		response.Headers.Set("Server", c.opts.ServerName)
	}

	if persist {
		remaining := max(c.opts.MaxRequests-c.served, 0)
		timeout := keepAliveTimeout(c.opts.Serve.Timeout.IdleTimeout)

		response.Headers.Set("Connection", "keep-alive")
		response.Headers.Set("Keep-Alive", fmt.Sprintf("timeout=%d, max=%d", timeout, remaining))
	} else {
		response.Headers.Set("Connection", "close")
		response.Headers.Del("Keep-Alive")
	}

	if err := enc.Encode(*response); err != nil {
		return err
	}

	requestsServed.WithLabelValues(request.Method, strconv.Itoa(response.StatusCode)).Inc()
	c.logger.Debug().
		Str("method", request.Method).
		Str("target", request.Target).
		Int("status", response.StatusCode).
		Bool("persist", persist).
		Msg("request served")

	return nil
}

// keepAliveTimeout is the idle timeout in whole seconds, rounded up.
// A sub-second timeout still advertises one second.
func keepAliveTimeout(idle time.Duration) int {
	return max(int((idle+time.Second-1)/time.Second), 1)
}

// ErrorResponse renders st as a small HTML page.
func ErrorResponse(st status.Status) *http.Response {
	text := strconv.Itoa(st.Code) + " " + st.ReasonPhrase
	page := "<!DOCTYPE html><html><head><title>" + text +
		"</title></head><body><h1>" + text + "</h1></body></html>"

	res := http.NewResponse(st)
	res.SetBody("text/html", []byte(page))
	return res
}
