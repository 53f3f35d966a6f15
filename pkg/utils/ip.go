package utils

import (
	"net"
	"strings"
)

// FirstForwardedFor returns the left-most entry of an X-Forwarded-For value.
func FirstForwardedFor(header string) string {
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}

// StripPort removes a trailing port from host:port or [v6]:port. Anything
// else is returned trimmed but otherwise untouched.
func StripPort(addr string) string {
	addr = strings.TrimSpace(addr)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
