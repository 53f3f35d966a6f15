package visitor

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetStatus
	TargetAbsoluteURL
	TargetRelativePath
)

func (k TargetKind) String() string {
	switch k {
	case TargetStatus:
		return "status"
	case TargetAbsoluteURL:
		return "absolute_url"
	case TargetRelativePath:
		return "relative_path"
	default:
		return "none"
	}
}

const (
	minStatusCode = 100
	maxStatusCode = 599
)

// Target is where unwanted visitors are sent. It is decided once from the
// configured string: a number is always a status directive, anything with a
// scheme and host is an absolute URL, the rest is kept as a relative path.
type Target struct {
	kind TargetKind
	raw  string
	code int
	url  *url.URL
}

func ParseTarget(raw string) Target {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{kind: TargetNone}
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		code := n
		if code < minStatusCode || code > maxStatusCode {
			code = http.StatusInternalServerError
		}
		return Target{kind: TargetStatus, raw: trimmed, code: code}
	}

	if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" && u.Host != "" {
		return Target{kind: TargetAbsoluteURL, raw: trimmed, url: u}
	}

	return Target{kind: TargetRelativePath, raw: trimmed}
}

func StatusTarget(code int) Target {
	return ParseTarget(strconv.Itoa(code))
}

func (t Target) Kind() TargetKind {
	return t.kind
}

func (t Target) Raw() string {
	return t.raw
}

// StatusCode is only meaningful for TargetStatus. Out of range codes were
// already replaced by 500.
func (t Target) StatusCode() int {
	return t.code
}

// URL returns a copy of the parsed absolute URL, nil for other kinds.
func (t Target) URL() *url.URL {
	if t.url == nil {
		return nil
	}
	u := *t.url
	return &u
}

func (t Target) IsSet() bool {
	return t.kind != TargetNone
}

// IsLocation reports whether the target names a page rather than a status.
func (t Target) IsLocation() bool {
	return t.kind == TargetAbsoluteURL || t.kind == TargetRelativePath
}

func (t Target) String() string {
	return t.raw
}

func (t *Target) UnmarshalText(text []byte) error {
	*t = ParseTarget(string(text))
	return nil
}

func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.raw), nil
}
