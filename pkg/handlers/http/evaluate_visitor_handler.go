package http

import (
	"context"
	"errors"

	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

//go:generate mockery --name=ManualEvaluator --dir=. --output=./mocks --filename=manual_evaluator_mock.go --case=underscore
type ManualEvaluator interface {
	EvaluateVisitorManually(ctx context.Context, ip, userAgent, event, domain string) (*visitor.Outcome, error)
}

type evaluateVisitorHandler struct {
	logger    *logrus.Logger
	evaluator ManualEvaluator
}

func NewEvaluateVisitorHandler(logger *logrus.Logger, evaluator ManualEvaluator) Handler {
	return &evaluateVisitorHandler{
		logger:    logger,
		evaluator: evaluator,
	}
}

// Handle @Summary Evaluate a visitor
// @Description Asks the verdict service about explicit visitor signals and returns the block outcome without serving it.
// @Tags Visitor
// @Accept json
// @Produce json
// @Param payload body request.EvaluateVisitorRequest true "Visitor signals"
// @Success 200 {object} visitor.Outcome "Evaluation outcome"
// @Failure 400 {object} map[string]interface{} "Invalid request data or IP address"
// @Failure 502 {object} map[string]interface{} "Verdict service unavailable or rejected the request"
// @Router /api/v1/visitor/evaluate [post]
func (h *evaluateVisitorHandler) Handle(c *fiber.Ctx) error {
	var req request.EvaluateVisitorRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload.Error()})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	outcome, err := h.evaluator.EvaluateVisitorManually(c.UserContext(), req.IP, req.UserAgent, req.Event, req.Domain)
	if err != nil {
		if errors.Is(err, visitor.ErrInvalidIP) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": visitor.ErrInvalidIP.Error()})
		}
		h.logger.WithError(err).Error("manual visitor evaluation failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(outcome)
}
