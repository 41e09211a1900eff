// Package transport defines the byte stream abstraction HTTP runs on.
package transport

// Addr mirrors net.Addr so that socket addresses can be used directly.
type Addr interface {
	Network() string // e.g. "tcp", "pipe"
	String() string
}
