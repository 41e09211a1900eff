package server

import (
	"time"

	"http-engine/application/http"
)

type Options struct {
	Serve ServeOptions

	// Workers is the number of connections served at once.
	// Further connections wait until a worker is free.
	Workers int

	// MaxRequests is the number of requests a connection may persist through.
	// The request after that is still answered, but with Connection: close.
	MaxRequests int

	// ServerName is sent in the Server header.
	ServerName string
}

type ServeOptions struct {
	Encode http.EncodeOptions
	Decode http.DecodeOptions

	Timeout TimeoutOptions
}

type TimeoutOptions struct {
	// IdleTimeout bounds the wait for, and the read of, the next request.
	IdleTimeout time.Duration
	// WriteTimeout bounds writing a response. Zero means no limit.
	WriteTimeout time.Duration
}

const (
	DefaultWorkers     = 10
	DefaultMaxRequests = 100
	DefaultIdleTimeout = 5 * time.Second
	DefaultServerName  = "http-engine"
)

func DefaultOptions() Options {
	return Options{
		Serve: ServeOptions{
			Encode:  http.DefaultEncodeOptions,
			Decode:  http.DefaultDecodeOptions,
			Timeout: TimeoutOptions{IdleTimeout: DefaultIdleTimeout},
		},
		Workers:     DefaultWorkers,
		MaxRequests: DefaultMaxRequests,
		ServerName:  DefaultServerName,
	}
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxRequests <= 0 {
		o.MaxRequests = DefaultMaxRequests
	}
	if o.Serve.Timeout.IdleTimeout <= 0 {
		o.Serve.Timeout.IdleTimeout = DefaultIdleTimeout
	}
	if o.ServerName == "" {
		o.ServerName = DefaultServerName
	}
	return o
}
