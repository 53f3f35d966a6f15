package visitor

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strings"

	domain "github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
)

const (
	BypassHeader = "X-VTF-Bypass"
	TokenHeader  = "X-VTF-Token"

	bypassFlag = "1"
	tokenBytes = 32
)

func newBypassToken(r io.Reader) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to generate bypass token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func defaultRandom() io.Reader {
	return rand.Reader
}

// isBypassed reports whether req carries this instance's bypass headers.
func (e *Evaluator) isBypassed(req Request) bool {
	if req.Header(BypassHeader) != bypassFlag {
		return false
	}
	token := req.Header(TokenHeader)
	if len(token) != len(e.token) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(e.token)) == 1
}

// inlineURL rebuilds the absolute URL the visitor asked for.
func inlineURL(req Request) string {
	scheme := strings.ToLower(req.Scheme())
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + req.Host() + requestPath(req.OriginalURL())
}

// requestPath returns raw in origin form. Absolute-form request targets
// (GET http://host/path) keep only their path and query.
func requestPath(raw string) string {
	if raw == "" {
		return "/"
	}
	if strings.HasPrefix(raw, "/") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.RequestURI()
	}
	return "/" + raw
}

// manualURL turns a manual event into a URL. Path events are resolved
// against https://<domain>; anything else is used as given.
func manualURL(event, domainName string) string {
	if strings.HasPrefix(event, "/") && !strings.HasPrefix(event, "//") && domainName != "" {
		return "https://" + domainName + event
	}
	return event
}

// matchesTarget reports whether current is the configured target itself.
// Scheme is ignored. It never fails: unparsable input falls back to a
// substring check.
func matchesTarget(current string, target domain.Target) bool {
	switch target.Kind() {
	case domain.TargetAbsoluteURL:
		cur, err := url.Parse(current)
		if err != nil || cur.Host == "" {
			return strings.Contains(current, target.Raw())
		}
		want := target.URL()
		return strings.EqualFold(cur.Host, want.Host) &&
			normalizedPath(cur) == normalizedPath(want) &&
			cur.RawQuery == want.RawQuery
	case domain.TargetRelativePath:
		cur, err := url.Parse(current)
		if err != nil {
			return strings.Contains(current, target.Raw())
		}
		if _, err := url.Parse(target.Raw()); err != nil {
			return strings.Contains(current, target.Raw())
		}
		path := normalizedPath(cur)
		pathAndQuery := path
		if cur.RawQuery != "" {
			pathAndQuery += "?" + cur.RawQuery
		}
		return target.Raw() == pathAndQuery || target.Raw() == path
	default:
		return false
	}
}

func normalizedPath(u *url.URL) string {
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}
