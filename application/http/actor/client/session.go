package client

import (
	"context"

	"http-engine/application/http"
	"http-engine/transport"

	"github.com/pkg/errors"
)

// Session keeps a connection open across sends.
// A new connection is dialed only after the server closed the previous one
// or an exchange on it failed. Failed sends are not retried.
//
// A Session must not be used concurrently.
type Session struct {
	client *Client
	con    transport.Conn
}

// Send is like [Client.Send] but reuses the session connection,
// including for redirect hops.
func (s *Session) Send(ctx context.Context, request *http.Request) (*http.Response, error) {
	return s.client.sendChain(ctx, s, request)
}

func (s *Session) Close() error {
	if s.con == nil {
		return nil
	}

	err := s.con.Close()
	s.con = nil
	if errors.Is(err, transport.ErrConnClosed) {
		return nil
	}
	return err
}

func (s *Session) dial(ctx context.Context) error {
	con, err := s.client.dial(ctx)
	if err != nil {
		return err
	}
	s.con = con
	return nil
}

func (s *Session) roundTrip(ctx context.Context, request *http.Request) (*http.Response, error) {
	if s.con == nil {
		if err := s.dial(ctx); err != nil {
			return nil, err
		}
	}

	request.Headers.Set("Connection", "keep-alive")

	response, err := s.client.exchange(ctx, s.con, request)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	if !persists(response) {
		_ = s.Close()
	}

	return response, nil
}

func persists(response *http.Response) bool {
	if response.Version.AtLeast(1, 1) {
		return !response.Headers.HasToken("Connection", "close")
	}
	return response.Headers.HasToken("Connection", "keep-alive")
}
