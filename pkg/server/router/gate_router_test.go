package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	appvisitor "github.com/NeuralTrust/VisitorGate/pkg/app/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/config"
	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	handlers "github.com/NeuralTrust/VisitorGate/pkg/handlers/http"
	"github.com/NeuralTrust/VisitorGate/pkg/middleware"
	"github.com/NeuralTrust/VisitorGate/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockPath answers blocked visitors with 403 and lets everything else pass.
type blockPath struct {
	path string
}

func (b *blockPath) EvaluateVisitor(_ context.Context, req appvisitor.Request, resp appvisitor.Response) (*visitor.Outcome, error) {
	if req.OriginalURL() != b.path {
		return &visitor.Outcome{}, nil
	}
	content := &visitor.BlockContent{Kind: visitor.ContentStatus, StatusCode: http.StatusForbidden}
	if err := resp.SendStatus(content.StatusCode); err != nil {
		return nil, err
	}
	return &visitor.Outcome{NeedToBlock: true, Content: content}, nil
}

func (b *blockPath) EvaluateVisitorManually(context.Context, string, string, string, string) (*visitor.Outcome, error) {
	return visitor.AllowedOutcome(), nil
}

func newGateApp(t *testing.T, upstreamURL string) *fiber.App {
	t.Helper()
	logger := logrus.New()
	evaluator := &blockPath{path: "/blocked"}
	cfg := &config.Config{Server: config.ServerConfig{UpstreamURL: upstreamURL}}

	app := fiber.New()
	r := router.NewGateRouter(
		&middleware.Transport{
			PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
			VisitorMiddleware:      middleware.NewVisitorMiddleware(logger, evaluator, middleware.VisitorOptions{}),
		},
		&handlers.HandlerTransport{
			EvaluateVisitorHandler: handlers.NewEvaluateVisitorHandler(logger, evaluator),
			GetVersionHandler:      handlers.NewGetVersionHandler(logger),
		},
		cfg,
	)
	require.NoError(t, r.BuildRoutes(app))
	return app
}

func TestGateRouter_MissingHandlers(t *testing.T) {
	r := router.NewGateRouter(&middleware.Transport{}, &handlers.HandlerTransport{}, &config.Config{})
	assert.ErrorIs(t, r.BuildRoutes(fiber.New()), router.ErrMissingHandler)
}

func TestGateRouter_Health(t *testing.T) {
	app := newGateApp(t, "")
	for _, path := range []string{router.HealthPath, router.PingPath, router.VersionPath} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestGateRouter_NoUpstream(t *testing.T) {
	app := newGateApp(t, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/anything", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/blocked", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGateRouter_ForwardsToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("upstream " + r.URL.RequestURI()))
	}))
	defer upstream.Close()

	app := newGateApp(t, upstream.URL+"/")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/shop?id=3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "upstream /shop?id=3", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/blocked", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGateRouter_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	app := newGateApp(t, url)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/shop", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGateRouter_StripsBypassHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get(appvisitor.BypassHeader) + "|" + r.Header.Get(appvisitor.TokenHeader)))
	}))
	defer upstream.Close()

	app := newGateApp(t, upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/shop", nil)
	req.Header.Set(appvisitor.BypassHeader, "1")
	req.Header.Set(appvisitor.TokenHeader, "secret-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "|", string(body))
}

func TestGateRouter_AbsoluteFormTarget(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("upstream " + r.URL.RequestURI()))
	}))
	defer upstream.Close()

	app := newGateApp(t, upstream.URL)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/shop?id=3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "upstream /shop?id=3", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/blocked", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
