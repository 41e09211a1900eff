package server

import (
	"context"
	"sync"
	"time"

	"http-engine/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Server serves HTTP/1.1 connections from a listener with a fixed pool of workers.
type Server struct {
	l transport.ConnListener

	cancel func()
	wg     sync.WaitGroup

	mu   sync.Mutex
	live map[*conn]struct{}

	logger zerolog.Logger
	opts   Options

	handle HandleFunc
	clock  clock.Clock

	// onClose is called after a connection is closed.
	onClose func(Outcome)
}

func New(
	l transport.ConnListener,
	logger zerolog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	return &Server{
		l:      l,
		live:   make(map[*conn]struct{}),
		logger: logger,
		opts:   opts.withDefaults(),
		handle: handle,
		clock:  clock,
	}
}

// Start accepts connections in the background until [Server.Close].
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	conns := make(chan transport.Conn)

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.work(ctx, conns)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx, conns)
	}()

	s.logger.Info().
		Stringer("addr", s.l.Addr()).
		Int("workers", s.opts.Workers).
		Msg("server started")
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

func (s *Server) acceptLoop(ctx context.Context, conns chan<- transport.Conn) {
	var delay time.Duration

	for {
		con, err := s.l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, transport.ErrConnListenerClosed) {
				return
			}

			// Errors like EMFILE pass once resources free up.
			delay = min(max(2*delay, minAcceptDelay), maxAcceptDelay)
			acceptErrors.Inc()
			s.logger.Error().Err(err).Dur("retry_in", delay).Msg("unexpected error when accepting connection")

			select {
			case <-s.clock.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}
		delay = 0
		connectionsAccepted.Inc()

		// Blocks while every worker is busy.
		select {
		case conns <- con:
		case <-ctx.Done():
			_ = con.Close()
			return
		}
	}
}

func (s *Server) work(ctx context.Context, conns <-chan transport.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case con := <-conns:
			s.serveConn(ctx, con)
		}
	}
}

func (s *Server) serveConn(ctx context.Context, con transport.Conn) {
	c := newConn(con, s.handle, s.clock, s.logger, s.opts)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		_ = con.Close()
		return
	}
	s.live[c] = struct{}{}
	s.mu.Unlock()

	connectionsActive.Inc()
	outcome := c.start(ctx)
	connectionsActive.Dec()
	connectionsClosed.WithLabelValues(outcome.String()).Inc()

	s.mu.Lock()
	delete(s.live, c)
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(outcome)
	}
}

// Close stops accepting, closes live connections and waits for workers to exit.
func (s *Server) Close() error {
	if s.cancel == nil {
		return errors.New("server is not started")
	}

	s.mu.Lock()
	s.cancel()
	for c := range s.live {
		_ = c.close()
	}
	s.mu.Unlock()

	err := s.l.Close()
	if errors.Is(err, transport.ErrConnListenerClosed) {
		err = nil
	}

	s.wg.Wait()
	s.logger.Info().Msg("server stopped")

	return err
}
