package client

import (
	"github.com/pkg/errors"
)

// MaxRedirects is the number of redirects followed for one Send.
const MaxRedirects = 5

var ErrTooManyRedirects = errors.New("too many redirects")

type FailureKind int

const (
	// FailureIO means the exchange broke: dial, write, read or parse.
	FailureIO FailureKind = iota + 1
	FailureTooManyRedirects
)

func (k FailureKind) String() string {
	switch k {
	case FailureIO:
		return "io"
	case FailureTooManyRedirects:
		return "too_many_redirects"
	}
	return "unknown"
}

// Failure is the error returned by Send.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string { return f.Kind.String() + ": " + f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the kind of failure err carries, or 0 if none.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

func fail(kind FailureKind, err error) error {
	clientFailures.WithLabelValues(kind.String()).Inc()
	return &Failure{Kind: kind, Err: err}
}
