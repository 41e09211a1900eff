package rule

import "strings"

// IsOWS reports whether c is optional whitespace (SP or HTAB).
func IsOWS(c rune) bool { return c == rune(SP) || c == rune(HTAB) }

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }

// TrimOWS trims leading and trailing optional whitespace.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-3
func TrimOWS(s string) string { return strings.TrimFunc(s, IsOWS) }

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if !IsDigit(c) {
			return false
		}
	}
	return true
}
