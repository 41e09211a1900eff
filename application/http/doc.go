// Package http implements the HTTP/1.1 message syntax: start lines, header
// fields and Content-Length delimited bodies.
//
// Chunked transfer coding and pipelining are not supported.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
