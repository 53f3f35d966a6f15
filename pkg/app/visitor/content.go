package visitor

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"

	domain "github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/httpx"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	maxProxyBodySize = 16 * 1024 * 1024
	acceptEncoding   = "gzip, deflate, br, zstd"
)

const (
	accessDeniedPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Access Denied</title>
<style>body{font-family:sans-serif;margin:0;padding:48px;text-align:center;color:#333}h1{font-size:32px}</style>
</head>
<body>
<h1>Access Denied</h1>
<p>You do not have permission to access this page.</p>
</body>
</html>`

	contentNotAvailable = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Content not available</title></head>
<body><p>Content not available</p></body>
</html>`
)

var (
	iframeTemplate = template.Must(template.New("iframe").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>html,body{margin:0;padding:0;width:100%;height:100%;overflow:hidden}iframe{display:block;border:0;width:100%;height:100%}</style>
</head>
<body>
<iframe src="{{.}}" frameborder="0" width="100%" height="100%" allowfullscreen></iframe>
</body>
</html>`))

	redirectTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting</title>
</head>
<body>
<p>Redirecting to <a href="{{.}}">{{.}}</a></p>
<script>setTimeout(function(){window.location.href={{.}};},1000);</script>
</body>
</html>`))
)

func render(tmpl *template.Template, target string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, target); err != nil {
		return "", fmt.Errorf("failed to render %s page: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// blockContent builds what a blocked visitor receives. currentURL is the
// absolute URL being evaluated and is the base for relative targets.
func (e *Evaluator) blockContent(ctx context.Context, currentURL string, log *logrus.Entry) (*domain.BlockContent, error) {
	target := e.config.UnwantedVisitorTo

	switch target.Kind() {
	case domain.TargetStatus:
		return &domain.BlockContent{Kind: domain.ContentStatus, StatusCode: target.StatusCode()}, nil
	case domain.TargetNone:
		return &domain.BlockContent{Kind: domain.ContentHTML, StatusCode: http.StatusForbidden, HTML: accessDeniedPage}, nil
	}

	switch e.config.UnwantedVisitorAction {
	case domain.ActionIframe:
		page, err := render(iframeTemplate, target.Raw())
		if err != nil {
			return nil, err
		}
		return &domain.BlockContent{Kind: domain.ContentHTML, StatusCode: http.StatusOK, HTML: page}, nil

	case domain.ActionProxyContent:
		body, err := e.fetchProxyContent(ctx, currentURL, target)
		if err != nil {
			prometheus.ProxyFetchFailures.Inc()
			log.WithError(err).Warn("serving placeholder content")
			body = contentNotAvailable
		}
		return &domain.BlockContent{Kind: domain.ContentHTML, StatusCode: http.StatusOK, HTML: body}, nil

	default:
		page, err := render(redirectTemplate, target.Raw())
		if err != nil {
			return nil, err
		}
		return &domain.BlockContent{
			Kind:        domain.ContentHTML,
			StatusCode:  http.StatusOK,
			HTML:        page,
			RedirectURL: target.Raw(),
		}, nil
	}
}

// fetchProxyContent loads the target with this instance's bypass headers so
// a gate protecting the target lets the request through.
func (e *Evaluator) fetchProxyContent(ctx context.Context, currentURL string, target domain.Target) (string, error) {
	location, err := resolveTarget(currentURL, target)
	if err != nil {
		return "", domain.NewTransportError(domain.CallProxyContent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", domain.NewTransportError(domain.CallProxyContent, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set(BypassHeader, bypassFlag)
	req.Header.Set(TokenHeader, e.token)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := e.contentClient.Do(req)
	if err != nil {
		return "", domain.NewTransportError(domain.CallProxyContent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewTransportError(domain.CallProxyContent, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, location))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBodySize))
	if err != nil {
		return "", domain.NewTransportError(domain.CallProxyContent, fmt.Errorf("failed to read response: %w", err))
	}

	// clients that already decoded the body drop Content-Encoding
	decoded, _, err := httpx.DecodeChain(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		return "", domain.NewTransportError(domain.CallProxyContent, fmt.Errorf("failed to decode response: %w", err))
	}
	return string(decoded), nil
}

func resolveTarget(currentURL string, target domain.Target) (string, error) {
	if target.Kind() == domain.TargetAbsoluteURL {
		return target.URL().String(), nil
	}
	base, err := url.Parse(currentURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("cannot resolve %q without an absolute origin", target.Raw())
	}
	ref, err := url.Parse(target.Raw())
	if err != nil {
		return "", fmt.Errorf("invalid target %q: %w", target.Raw(), err)
	}
	return base.ResolveReference(ref).String(), nil
}
