package client

import (
	"time"

	"http-engine/application/http"
)

type Options struct {
	// FollowRedirects makes Send follow 301 and 302 responses on the same host.
	FollowRedirects bool

	UserAgent string

	Timeout TimeoutOptions

	Encode http.EncodeOptions
	Decode http.DecodeOptions
}

// Timeouts are transport knobs. Expiry surfaces as a FailureIO.
type TimeoutOptions struct {
	DialTimeout time.Duration
	// ReadTimeout bounds each exchange, from writing the request to
	// reading the last byte of the response. Zero means no limit.
	ReadTimeout time.Duration
}

const DefaultUserAgent = "http-engine-client/1.0"

func DefaultOptions() Options {
	return Options{
		FollowRedirects: true,
		UserAgent:       DefaultUserAgent,
		Timeout: TimeoutOptions{
			DialTimeout: 5 * time.Second,
			ReadTimeout: 30 * time.Second,
		},
		Encode: http.DefaultEncodeOptions,
		Decode: http.DefaultDecodeOptions,
	}
}
