package visitor

import (
	"net/netip"

	"github.com/NeuralTrust/VisitorGate/pkg/utils"
)

const forwardedForHeader = "X-Forwarded-For"

// IsValidIP reports whether ip is an IPv4 or IPv6 literal. No resolution
// and no normalization are done.
func IsValidIP(ip string) bool {
	if ip == "" {
		return false
	}
	_, err := netip.ParseAddr(ip)
	return err == nil
}

// clientIP takes the first X-Forwarded-For entry, else the connection
// address without its port.
func clientIP(req Request) string {
	if forwarded := utils.FirstForwardedFor(req.Header(forwardedForHeader)); forwarded != "" {
		return forwarded
	}
	return utils.StripPort(req.RemoteAddr())
}
