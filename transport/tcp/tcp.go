// Package tcp adapts operating system TCP sockets to [transport.Conn].
package tcp

import (
	"context"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"http-engine/transport"

	"github.com/pkg/errors"
)

type conn struct {
	nc net.Conn
}

var _ transport.Conn = (*conn)(nil)

// Wrap adapts nc. Errors are translated to the transport sentinels.
func Wrap(nc net.Conn) transport.Conn { return &conn{nc: nc} }

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.nc.Read(p)
	return n, translate(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.nc.Write(p)
	return n, translate(err)
}

func (c *conn) Close() error {
	if err := c.nc.Close(); err != nil {
		return translate(err)
	}
	return nil
}

func (c *conn) LocalAddr() transport.Addr  { return c.nc.LocalAddr() }
func (c *conn) RemoteAddr() transport.Addr { return c.nc.RemoteAddr() }

func (c *conn) SetReadDeadLine(t time.Time)  { _ = c.nc.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { _ = c.nc.SetWriteDeadline(t) }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errors.Wrap(transport.ErrDeadLineExceeded, err.Error())
	case errors.Is(err, net.ErrClosed):
		return errors.Wrap(transport.ErrConnClosed, err.Error())
	}

	// Resets and broken pipes end up here.
	return errors.Wrap(err, "tcp")
}

type Listener struct {
	nl *net.TCPListener
}

var _ transport.ConnListener = (*Listener)(nil)

// Listen announces on the local address, e.g. ":8022".
func Listen(addr string) (*Listener, error) {
	nl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}

	return &Listener{nl: nl.(*net.TCPListener)}, nil
}

func (l *Listener) Addr() transport.Addr { return l.nl.Addr() }

// Accept waits for the next conn. It gives up when ctx is done.
func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	if err := l.nl.SetDeadline(time.Time{}); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "resetting accept deadline")
	}

	stop := context.AfterFunc(ctx, func() {
		// Wakes up the pending Accept.
		_ = l.nl.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	nc, err := l.nl.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "accepting conn")
	}

	return Wrap(nc), nil
}

func (l *Listener) Close() error {
	if err := l.nl.Close(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrConnListenerClosed
		}
		return errors.Wrap(err, "closing listener")
	}
	return nil
}

type Dialer struct {
	// Timeout bounds connection establishment. Zero means no limit
	// other than the one from the context.
	Timeout time.Duration
}

var _ transport.ConnDialer = Dialer{}

func (d Dialer) Dial(ctx context.Context, addr string) (transport.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}

	nc, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, syscall.ECONNREFUSED):
			return nil, errors.Wrapf(transport.ErrConnRefused, "dialing %s: %s", addr, err)
		}
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return Wrap(nc), nil
}
