package visitor

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Action int

const (
	ActionRedirect     Action = 1
	ActionIframe       Action = 2
	ActionProxyContent Action = 3
)

// Normalize maps the zero value and unknown values to ActionRedirect.
func (a Action) Normalize() Action {
	switch a {
	case ActionIframe, ActionProxyContent:
		return a
	default:
		return ActionRedirect
	}
}

func (a Action) String() string {
	switch a.Normalize() {
	case ActionIframe:
		return "iframe"
	case ActionProxyContent:
		return "proxy_content"
	default:
		return "redirect"
	}
}

// ParseAction accepts the numeric form (1, 2, 3) or the names returned by
// String. Empty input yields ActionRedirect.
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "1", "redirect":
		return ActionRedirect, nil
	case "2", "iframe":
		return ActionIframe, nil
	case "3", "proxy_content", "proxycontent", "proxy":
		return ActionProxyContent, nil
	default:
		return 0, fmt.Errorf("invalid unwanted visitor action: %q", raw)
	}
}

type Config struct {
	IsProtected           bool
	APIPublicKey          string
	APISecretKey          string
	UnwantedVisitorTo     Target
	UnwantedVisitorAction Action
}

type Signals struct {
	IP        string
	UserAgent string
	Event     string
	Domain    string
}

type Verdict struct {
	NeedToBlock    bool
	DetectActivity any
}

type ContentKind int

const (
	ContentStatus ContentKind = iota + 1
	ContentHTML
)

type BlockContent struct {
	Kind        ContentKind
	StatusCode  int
	HTML        string
	RedirectURL string
}

func (c *BlockContent) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	if c.Kind == ContentStatus {
		return json.Marshal(c.StatusCode)
	}
	return json.Marshal(c.HTML)
}

type Outcome struct {
	NeedToBlock    bool          `json:"need_to_block"`
	DetectActivity any           `json:"detect_activity"`
	Content        *BlockContent `json:"content"`
}

func AllowedOutcome() *Outcome {
	return &Outcome{}
}
