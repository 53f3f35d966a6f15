package router

import (
	"net/http"
	"strings"
	"time"

	appvisitor "github.com/NeuralTrust/VisitorGate/pkg/app/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/config"
	handlers "github.com/NeuralTrust/VisitorGate/pkg/handlers/http"
	"github.com/NeuralTrust/VisitorGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
)

const (
	HealthPath          = "/health"
	PingPath            = "/__/ping"
	VersionPath         = "/api/v1/version"
	EvaluateVisitorPath = "/api/v1/visitor/evaluate"
	CatchAllPath        = "/*"
)

type gateRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
	config              *config.Config
}

func NewGateRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
	cfg *config.Config,
) ServerRouter {
	return &gateRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
		config:              cfg,
	}
}

func (r *gateRouter) BuildRoutes(router *fiber.App) error {
	if r.middlewareTransport == nil || r.middlewareTransport.VisitorMiddleware == nil ||
		r.handlerTransport == nil || r.handlerTransport.EvaluateVisitorHandler == nil ||
		r.handlerTransport.GetVersionHandler == nil {
		return ErrMissingHandler
	}

	if r.middlewareTransport.PanicRecoverMiddleware != nil {
		router.Use(r.middlewareTransport.PanicRecoverMiddleware.Middleware())
	}

	router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.Get(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	router.Get(VersionPath, r.handlerTransport.GetVersionHandler.Handle)
	router.Post(EvaluateVisitorPath, r.handlerTransport.EvaluateVisitorHandler.Handle)

	router.All(
		CatchAllPath,
		r.middlewareTransport.VisitorMiddleware.Middleware(),
		r.forward(),
	)
	return nil
}

// forward sends allowed requests to the upstream, or answers 204 when the
// gate runs without one.
func (r *gateRouter) forward() fiber.Handler {
	upstream := strings.TrimRight(r.config.Server.UpstreamURL, "/")
	timeout := r.config.Server.ProxyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return func(c *fiber.Ctx) error {
		if upstream == "" {
			return c.SendStatus(fiber.StatusNoContent)
		}
		c.Request().Header.Del(appvisitor.BypassHeader)
		c.Request().Header.Del(appvisitor.TokenHeader)
		if err := proxy.DoTimeout(c, upstream+middleware.RequestURI(c), timeout); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "upstream unavailable")
		}
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}
