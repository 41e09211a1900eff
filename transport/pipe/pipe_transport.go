package pipe

import (
	"context"
	"sync"

	"http-engine/transport"

	"github.com/benbjohnson/clock"
)

// PipeTransport connects dialers and listeners by name, entirely in memory.
type PipeTransport struct {
	listeners map[string]*Listener
	clock     clock.Clock

	mu sync.Mutex
}

func NewPipeTransport(clock clock.Clock) *PipeTransport {
	return &PipeTransport{
		listeners: make(map[string]*Listener),
		clock:     clock,
	}
}

var _ transport.ConnDialer = (*PipeTransport)(nil)

// Dial connects to the listener named addr.
// It blocks until the listener accepts the conn.
func (pt *PipeTransport) Dial(ctx context.Context, addr string) (transport.Conn, error) {
	pt.mu.Lock()
	listener, ok := pt.listeners[addr]
	pt.mu.Unlock()

	if !ok {
		return nil, transport.ErrConnRefused
	}

	p1, p2 := newPair("dialer", addr, pt.clock)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-listener.closed:
		return nil, transport.ErrConnRefused
	case listener.conns <- p2:
	}

	return p1, nil
}

func (pt *PipeTransport) Listen(addr string) (*Listener, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if _, ok := pt.listeners[addr]; ok {
		return nil, transport.ErrAddrAlreadyInUse
	}

	l := &Listener{
		addr:      Addr{Name: addr},
		transport: pt,
		conns:     make(chan *pipe),
		closed:    make(chan struct{}),
	}
	pt.listeners[addr] = l

	return l, nil
}

type Listener struct {
	addr      Addr
	transport *PipeTransport

	conns  chan *pipe
	closed chan struct{}
	once   sync.Once
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Addr() transport.Addr { return l.addr }

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case conn := <-l.conns:
		return conn, nil
	}
}

func (l *Listener) Close() error {
	err := transport.ErrConnListenerClosed
	l.once.Do(func() {
		close(l.closed)

		l.transport.mu.Lock()
		delete(l.transport.listeners, l.addr.Name)
		l.transport.mu.Unlock()

		err = nil
	})
	return err
}
