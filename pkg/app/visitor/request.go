package visitor

// Request is the part of an inbound request the evaluator reads. Host
// adapters implement it over their own request type.
type Request interface {
	// Header looks a header up case-insensitively. Missing headers are "".
	Header(name string) string
	// RemoteAddr is the connection address, with or without a port.
	RemoteAddr() string
	Scheme() string
	Host() string
	// OriginalURL is the path and query as received, before any rewrite.
	OriginalURL() string
}

// Response is how a block outcome is delivered in inline mode.
type Response interface {
	SendStatus(code int) error
	SendHTML(code int, body string) error
	Redirect(code int, location string) error
}
