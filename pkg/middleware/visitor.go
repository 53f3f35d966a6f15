package middleware

import (
	"errors"
	"strings"

	appvisitor "github.com/NeuralTrust/VisitorGate/pkg/app/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type VisitorOptions struct {
	// FailOpen lets the request through when the evaluation fails instead of
	// handing the error to fiber's error handler.
	FailOpen bool
}

type visitorMiddleware struct {
	logger    *logrus.Logger
	evaluator VisitorEvaluator
	failOpen  bool
}

func NewVisitorMiddleware(logger *logrus.Logger, evaluator VisitorEvaluator, opts VisitorOptions) Middleware {
	return &visitorMiddleware{
		logger:    logger,
		evaluator: evaluator,
		failOpen:  opts.FailOpen,
	}
}

func (m *visitorMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome, err := m.evaluator.EvaluateVisitor(c.UserContext(), &fiberRequest{c: c}, &fiberResponse{c: c})
		if err != nil {
			entry := m.logger.WithError(err).WithField("path", c.Path())
			if m.failOpen {
				entry.Warn("visitor evaluation failed, letting request through")
				return c.Next()
			}
			entry.Error("visitor evaluation failed")
			if errors.Is(err, visitor.ErrInvalidIP) {
				return fiber.NewError(fiber.StatusBadRequest, "invalid client address")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "visitor evaluation failed")
		}

		if outcome != nil {
			c.Locals(VisitorOutcomeKey, outcome)
			if outcome.Content != nil {
				// block response already written
				return nil
			}
		}
		return c.Next()
	}
}

type fiberRequest struct {
	c *fiber.Ctx
}

var _ appvisitor.Request = (*fiberRequest)(nil)

func (r *fiberRequest) Header(name string) string {
	return r.c.Get(name)
}

func (r *fiberRequest) RemoteAddr() string {
	return r.c.Context().RemoteAddr().String()
}

func (r *fiberRequest) Scheme() string {
	return r.c.Protocol()
}

func (r *fiberRequest) Host() string {
	return r.c.Hostname()
}

func (r *fiberRequest) OriginalURL() string {
	return RequestURI(r.c)
}

// RequestURI returns the request target as path and query. fasthttp keeps
// absolute-form targets (GET http://host/path) verbatim in OriginalURL.
func RequestURI(c *fiber.Ctx) string {
	if u := c.OriginalURL(); strings.HasPrefix(u, "/") {
		return u
	}
	return string(c.Request().URI().RequestURI())
}

type fiberResponse struct {
	c *fiber.Ctx
}

var _ appvisitor.Response = (*fiberResponse)(nil)

func (r *fiberResponse) SendStatus(code int) error {
	return r.c.SendStatus(code)
}

func (r *fiberResponse) SendHTML(code int, body string) error {
	r.c.Status(code)
	r.c.Type("html", "utf-8")
	return r.c.SendString(body)
}

func (r *fiberResponse) Redirect(code int, location string) error {
	return r.c.Redirect(location, code)
}
