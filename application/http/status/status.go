// Package status holds the status codes the engine emits or reacts to.
package status

type Status struct {
	Code         int
	ReasonPhrase string
}

// Successful 2xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.3
var (
	OK        = add(Status{200, "OK"})
	Created   = add(Status{201, "Created"})
	NoContent = add(Status{204, "No Content"})
)

// Redirection 3xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
var (
	MovedPermanently  = add(Status{301, "Moved Permanently"})
	Found             = add(Status{302, "Found"})
	SeeOther          = add(Status{303, "See Other"})
	NotModified       = add(Status{304, "Not Modified"})
	TemporaryRedirect = add(Status{307, "Temporary Redirect"})
	PermanentRedirect = add(Status{308, "Permanent Redirect"})
)

// Client Error 4xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.5
var (
	BadRequest        = add(Status{400, "Bad Request"})
	Unauthorized      = add(Status{401, "Unauthorized"})
	Forbidden         = add(Status{403, "Forbidden"})
	NotFound          = add(Status{404, "Not Found"})
	MethodNotAllowed  = add(Status{405, "Method Not Allowed"})
	RequestTimeout    = add(Status{408, "Request Timeout"})
	ContentTooLarge   = add(Status{413, "Content Too Large"})
	RequestURITooLong = add(Status{414, "URI Too Long"})
)

// Server Error 5xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.6
var (
	InternalServerError     = add(Status{500, "Internal Server Error"})
	NotImplemented          = add(Status{501, "Not Implemented"})
	ServiceUnavailable      = add(Status{503, "Service Unavailable"})
	HTTPVersionNotSupported = add(Status{505, "HTTP Version Not Supported"})
)

var sm = make(map[int]Status)

func add(status Status) Status {
	sm[status.Code] = status
	return status
}

func FromCode(code int) (status Status, ok bool) {
	s, ok := sm[code]
	if !ok {
		return Status{Code: code}, false
	}

	return s, true
}

// Text returns the reason phrase for code, or "Unknown" when there is none.
func Text(code int) string {
	if s, ok := sm[code]; ok {
		return s.ReasonPhrase
	}
	return "Unknown"
}

// IsRedirect reports whether the engine follows code as a redirect.
func IsRedirect(code int) bool {
	return code == MovedPermanently.Code || code == Found.Code
}

// HasBody reports whether a response with code may carry content.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
func HasBody(code int) bool {
	if code >= 100 && code < 200 {
		return false
	}
	return code != NoContent.Code && code != NotModified.Code
}
