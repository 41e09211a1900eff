package rule

// Octets used by the HTTP/1.1 message grammar.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.1
const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	VT   byte = 0x0B
	FF   byte = 0x0C
)

var (
	OWS  = []byte{SP, HTAB}
	CRLF = []byte{CR, LF}
)
