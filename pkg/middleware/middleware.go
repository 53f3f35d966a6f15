package middleware

import (
	"context"

	appvisitor "github.com/NeuralTrust/VisitorGate/pkg/app/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/gofiber/fiber/v2"
)

const VisitorOutcomeKey = "visitor_outcome"

type Middleware interface {
	Middleware() fiber.Handler
}

type Transport struct {
	PanicRecoverMiddleware Middleware
	VisitorMiddleware      Middleware
}

type VisitorEvaluator interface {
	EvaluateVisitor(ctx context.Context, req appvisitor.Request, resp appvisitor.Response) (*visitor.Outcome, error)
}
