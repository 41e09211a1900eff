package client

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"http-engine/application/http"
	"http-engine/application/http/cache"
	"http-engine/application/http/status"
	"http-engine/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Headers carried over from the original request to redirect hops.
var redirectHeaders = []string{"Host", "User-Agent", "Accept", "Accept-Encoding"}

// Client sends requests to a single origin.
// Cached responses are shared between Send and every Session.
type Client struct {
	target string
	dialer transport.ConnDialer
	cache  *cache.ResponseCache

	logger zerolog.Logger
	clock  clock.Clock
	opts   Options
}

// New creates a client for target ("host:port").
// A nil cache gets a fresh one with the default TTL.
func New(
	target string,
	d transport.ConnDialer,
	c *cache.ResponseCache,
	logger zerolog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	if c == nil {
		c = cache.New(cache.DefaultTTL, clock)
	}

	return &Client{
		target: target,
		dialer: d,
		cache:  c,
		logger: logger.With().Str("target", target).Logger(),
		clock:  clock,
		opts:   opts,
	}
}

func (c *Client) Cache() *cache.ResponseCache { return c.cache }

// Send performs request over a fresh connection per hop and follows
// redirects when enabled. The returned error is always a *Failure.
func (c *Client) Send(ctx context.Context, request *http.Request) (*http.Response, error) {
	return c.sendChain(ctx, oneShot{c}, request)
}

// Connect opens a session that keeps one connection alive across sends.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	s := &Session{client: c}
	if err := s.dial(ctx); err != nil {
		return nil, fail(FailureIO, err)
	}
	return s, nil
}

// roundTripper performs one exchange.
type roundTripper interface {
	roundTrip(ctx context.Context, request *http.Request) (*http.Response, error)
}

func (c *Client) sendChain(ctx context.Context, rt roundTripper, request *http.Request) (*http.Response, error) {
	request = request.Clone()
	c.fillDefaults(request)

	return c.send(ctx, rt, request, 0, originOf(request))
}

func (c *Client) fillDefaults(request *http.Request) {
	if request.Version == (http.Version{}) {
		request.Version = http.Version11
	}

	defaults := []http.Field{
		{Name: "Host", Value: c.target},
		{Name: "User-Agent", Value: c.opts.UserAgent},
		{Name: "Accept", Value: "*/*"},
		// Content codings are not supported.
		{Name: "Accept-Encoding", Value: "identity"},
	}
	for _, f := range defaults {
		if f.Value != "" && !request.Headers.Has(f.Name) {
			request.Headers.Set(f.Name, f.Value)
		}
	}

	if len(request.Body) > 0 {
		request.Headers.Set("Content-Length", strconv.Itoa(len(request.Body)))
	}
}

func (c *Client) send(ctx context.Context, rt roundTripper, request *http.Request, depth int, o origin) (*http.Response, error) {
	if depth > MaxRedirects {
		return nil, fail(FailureTooManyRedirects, errors.Wrapf(ErrTooManyRedirects, "at %s", request.Target))
	}

	key := request.Target
	if request.Method == http.MethodGet {
		c.addValidators(request, key)
	}

	response, err := rt.roundTrip(ctx, request)
	if err != nil {
		return nil, fail(FailureIO, errors.Wrapf(err, "%s %s", request.Method, request.Target))
	}
	roundTrips.WithLabelValues(strconv.Itoa(response.StatusCode)).Inc()

	c.logger.Debug().
		Str("method", request.Method).
		Str("path", request.Target).
		Int("status", response.StatusCode).
		Int("depth", depth).
		Msg("exchange done")

	switch {
	case response.StatusCode == status.NotModified.Code:
		if e, ok := c.cache.Touch(key); ok {
			return e.Response, nil
		}
		return response, nil

	case response.StatusCode == status.OK.Code && request.Method == http.MethodGet:
		lastModified, _ := response.Headers.Get("Last-Modified")
		etag, _ := response.Headers.Get("ETag")
		c.cache.Put(key, response, lastModified, etag)
	}

	if !c.opts.FollowRedirects || !status.IsRedirect(response.StatusCode) {
		return response, nil
	}

	location, ok := response.Headers.Get("Location")
	if !ok || location == "" {
		return response, nil
	}

	next, ok := c.resolveLocation(request.Target, location)
	if !ok {
		c.logger.Debug().Str("location", location).Msg("not following redirect to another origin")
		return response, nil
	}

	redirectsFollowed.WithLabelValues(strconv.Itoa(response.StatusCode)).Inc()
	return c.send(ctx, rt, o.follow(response.StatusCode, next), depth+1, o)
}

// addValidators turns request into a conditional one when a fresh entry exists.
func (c *Client) addValidators(request *http.Request, key string) {
	e, ok := c.cache.Get(key)
	if !ok {
		return
	}

	if e.LastModified != "" {
		request.Headers.Set("If-Modified-Since", e.LastModified)
	}
	if e.ETag != "" {
		request.Headers.Set("If-None-Match", e.ETag)
	}
	conditionalRequests.Inc()
}

// resolveLocation returns the target of the next hop.
// It reports false when location points at another origin.
func (c *Client) resolveLocation(current, location string) (string, bool) {
	loc, err := url.Parse(location)
	if err != nil {
		return "", false
	}

	if loc.IsAbs() || loc.Host != "" {
		host, port := splitHostPort(loc.Host, loc.Scheme)
		thost, tport := splitHostPort(c.target, "http")
		if !strings.EqualFold(host, thost) || port != tport {
			return "", false
		}
		return loc.RequestURI(), true
	}

	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(loc).RequestURI(), true
}

func splitHostPort(hostport, scheme string) (host, port string) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}
	if port == "" {
		port = "80"
		if scheme == "https" {
			port = "443"
		}
	}
	return host, port
}

// origin is what a redirect hop inherits from the request that started the chain.
type origin struct {
	method      string
	body        []byte
	contentType string
	headers     http.Headers
}

func originOf(request *http.Request) origin {
	o := origin{method: request.Method, body: request.Body}
	o.contentType, _ = request.Headers.Get("Content-Type")

	for _, name := range redirectHeaders {
		if v, ok := request.Headers.Get(name); ok {
			o.headers.Set(name, v)
		}
	}
	return o
}

// follow builds the request for the next hop.
// 301 keeps the method (and body for POST), 302 always becomes a bodiless GET.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4.2
func (o origin) follow(code int, target string) *http.Request {
	method := http.MethodGet
	if code == status.MovedPermanently.Code {
		method = o.method
	}

	next := http.NewRequest(method, target, nil)
	for _, f := range o.headers.Fields() {
		next.Headers.Set(f.Name, f.Value)
	}

	if method == http.MethodPost {
		if o.contentType != "" {
			next.Headers.Set("Content-Type", o.contentType)
		}
		next.SetBody(o.body)
	}

	return next
}

// exchange writes request and reads the response on con.
// Cancelling ctx closes con.
func (c *Client) exchange(ctx context.Context, con transport.Conn, request *http.Request) (*http.Response, error) {
	stop := context.AfterFunc(ctx, func() { _ = con.Close() })
	defer stop()

	if timeout := c.opts.Timeout.ReadTimeout; timeout > 0 {
		deadline := c.clock.Now().Add(timeout)
		con.SetWriteDeadLine(deadline)
		con.SetReadDeadLine(deadline)
		defer con.SetWriteDeadLine(time.Time{})
		defer con.SetReadDeadLine(time.Time{})
	}

	if err := http.NewRequestEncoder(con, c.opts.Encode).Encode(*request); err != nil {
		return nil, c.ctxErr(ctx, errors.Wrap(err, "writing request"))
	}

	var response http.Response
	if err := http.NewResponseDecoder(con, c.opts.Decode).Decode(&response); err != nil {
		return nil, c.ctxErr(ctx, errors.Wrap(err, "reading response"))
	}

	return &response, nil
}

func (c *Client) ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return errors.Wrap(cerr, err.Error())
	}
	return err
}

func (c *Client) dial(ctx context.Context) (transport.Conn, error) {
	if timeout := c.opts.Timeout.DialTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	con, err := c.dialer.Dial(ctx, c.target)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", c.target)
	}
	dials.Inc()

	return con, nil
}

// oneShot uses one connection per exchange.
type oneShot struct{ c *Client }

func (o oneShot) roundTrip(ctx context.Context, request *http.Request) (*http.Response, error) {
	con, err := o.c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer con.Close()

	request.Headers.Set("Connection", "close")
	return o.c.exchange(ctx, con, request)
}
