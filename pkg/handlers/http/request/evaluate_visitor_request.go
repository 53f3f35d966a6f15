package request

import (
	"fmt"
	"strings"
)

type EvaluateVisitorRequest struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Event     string `json:"event"`
	Domain    string `json:"domain"`
}

func (r *EvaluateVisitorRequest) Validate() error {
	r.IP = strings.TrimSpace(r.IP)
	if r.IP == "" {
		return fmt.Errorf("ip is required")
	}
	if strings.TrimSpace(r.Event) == "" {
		return fmt.Errorf("event is required")
	}
	r.Domain = strings.TrimSpace(r.Domain)
	if r.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	if strings.ContainsAny(r.Domain, "&?#/ \t\r\n") {
		return fmt.Errorf("domain must be a bare host name")
	}
	return nil
}
