package visitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/httpx"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/moonito"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/VisitorGate/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultContentTimeout = 10 * time.Second

// Evaluator asks the verdict service about each visitor and builds the
// response for the ones it wants blocked. All fields are fixed after
// NewEvaluator so one instance serves concurrent evaluations.
type Evaluator struct {
	config        domain.Config
	credentials   moonito.Credentials
	verdictClient moonito.Client
	contentClient httpx.Client
	logger        *logrus.Logger
	random        io.Reader
	token         string
}

type Option func(*Evaluator)

func WithVerdictClient(client moonito.Client) Option {
	return func(e *Evaluator) {
		if client != nil {
			e.verdictClient = client
		}
	}
}

// WithContentClient sets the client used for proxy content fetches.
func WithContentClient(client httpx.Client) Option {
	return func(e *Evaluator) {
		if client != nil {
			e.contentClient = client
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func withRandom(r io.Reader) Option {
	return func(e *Evaluator) {
		e.random = r
	}
}

func NewEvaluator(cfg domain.Config, opts ...Option) (*Evaluator, error) {
	cfg.UnwantedVisitorAction = cfg.UnwantedVisitorAction.Normalize()
	e := &Evaluator{
		config: cfg,
		credentials: moonito.Credentials{
			PublicKey: cfg.APIPublicKey,
			SecretKey: cfg.APISecretKey,
		},
		logger: logrus.StandardLogger(),
		random: defaultRandom(),
	}
	for _, opt := range opts {
		opt(e)
	}

	token, err := newBypassToken(e.random)
	if err != nil {
		return nil, err
	}
	e.token = token

	if e.verdictClient == nil {
		e.verdictClient = moonito.NewMoonitoClient(e.logger)
	}
	if e.contentClient == nil {
		e.contentClient = httpx.NewFastHTTPClient(httpx.WithTimeout(defaultContentTimeout))
	}
	return e, nil
}

// Config returns a copy of the evaluator configuration.
func (e *Evaluator) Config() domain.Config {
	return e.config
}

// EvaluateVisitor gates one inbound request. It returns nil, nil when the
// request was not evaluated (protection off, bypass headers, or the request
// is for the block target itself). A blocked visitor has already received
// the block response when the outcome is returned.
func (e *Evaluator) EvaluateVisitor(ctx context.Context, req Request, resp Response) (*domain.Outcome, error) {
	if !e.config.IsProtected {
		observe(prometheus.ModeInline, prometheus.ResultDisabled)
		return nil, nil
	}
	if e.isBypassed(req) {
		observe(prometheus.ModeInline, prometheus.ResultBypassed)
		return nil, nil
	}

	current := inlineURL(req)
	if matchesTarget(current, e.config.UnwantedVisitorTo) {
		observe(prometheus.ModeInline, prometheus.ResultSelfTarget)
		return nil, nil
	}

	signals := domain.Signals{
		IP:        clientIP(req),
		UserAgent: req.Header("User-Agent"),
		Event:     current,
		Domain:    utils.StripPort(req.Host()),
	}

	outcome, err := e.evaluate(ctx, prometheus.ModeInline, signals, current)
	if err != nil {
		return nil, err
	}
	if outcome.Content == nil {
		return outcome, nil
	}

	if err := deliver(resp, outcome.Content); err != nil {
		return nil, fmt.Errorf("failed to deliver block response: %w", err)
	}
	return outcome, nil
}

// EvaluateVisitorManually evaluates explicit signals and only returns the
// outcome. It never reads bypass headers.
func (e *Evaluator) EvaluateVisitorManually(ctx context.Context, ip, userAgent, event, domainName string) (*domain.Outcome, error) {
	if !e.config.IsProtected {
		observe(prometheus.ModeManual, prometheus.ResultDisabled)
		return domain.AllowedOutcome(), nil
	}

	current := manualURL(event, domainName)
	if matchesTarget(current, e.config.UnwantedVisitorTo) {
		observe(prometheus.ModeManual, prometheus.ResultSelfTarget)
		return domain.AllowedOutcome(), nil
	}

	signals := domain.Signals{
		IP:        ip,
		UserAgent: userAgent,
		Event:     event,
		Domain:    domainName,
	}
	return e.evaluate(ctx, prometheus.ModeManual, signals, current)
}

func (e *Evaluator) evaluate(ctx context.Context, mode string, signals domain.Signals, current string) (*domain.Outcome, error) {
	log := e.logger.WithFields(logrus.Fields{
		"trace_id":   uuid.NewString(),
		"mode":       mode,
		"ip":         signals.IP,
		"user_agent": utils.ParseUserAgent(signals.UserAgent).String(),
		"event":      signals.Event,
	})
	log.Debug("evaluating visitor")

	if !IsValidIP(signals.IP) {
		observe(mode, prometheus.ResultInvalidIP)
		log.Warn("rejecting visitor with invalid ip")
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidIP, signals.IP)
	}

	verdict, err := e.verdictClient.Analyze(ctx, signals, e.credentials)
	if err != nil {
		observe(mode, prometheus.ResultError)
		if !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("verdict lookup failed")
		}
		return nil, fmt.Errorf("error handling visitor: %w", err)
	}

	outcome := &domain.Outcome{
		NeedToBlock:    verdict.NeedToBlock,
		DetectActivity: verdict.DetectActivity,
	}
	if !verdict.NeedToBlock {
		observe(mode, prometheus.ResultAllowed)
		log.Debug("visitor allowed")
		return outcome, nil
	}

	content, err := e.blockContent(ctx, current, log)
	if err != nil {
		observe(mode, prometheus.ResultError)
		log.WithError(err).Error("failed to build block content")
		return nil, err
	}
	outcome.Content = content

	observe(mode, prometheus.ResultBlocked)
	log.WithFields(logrus.Fields{
		"detect_activity": verdict.DetectActivity,
		"action":          e.config.UnwantedVisitorAction.String(),
		"target":          e.config.UnwantedVisitorTo.Kind().String(),
	}).Info("visitor blocked")
	return outcome, nil
}

func deliver(resp Response, content *domain.BlockContent) error {
	switch {
	case content.Kind == domain.ContentStatus:
		return resp.SendStatus(content.StatusCode)
	case content.RedirectURL != "":
		return resp.Redirect(http.StatusFound, content.RedirectURL)
	default:
		return resp.SendHTML(content.StatusCode, content.HTML)
	}
}

func observe(mode, result string) {
	prometheus.EvaluationsTotal.WithLabelValues(mode, result).Inc()
}
