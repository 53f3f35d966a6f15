package moonito

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/httpx"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://moonito.net"
	analyticsPath  = "/api/v1/analytics"

	PublicKeyHeader = "X-Public-Key"
	SecretKeyHeader = "X-Secret-Key"
)

var ErrMalformedResponse = errors.New("malformed verdict response")

type MoonitoClient struct {
	client         httpx.Client
	logger         *logrus.Logger
	circuitBreaker httpx.CircuitBreaker
	baseURL        string
}

func NewMoonitoClient(logger *logrus.Logger, opts ...MoonitoClientOption) Client {
	c := &MoonitoClient{
		logger:         logger,
		baseURL:        DefaultBaseURL,
		circuitBreaker: httpx.NoopCircuitBreaker{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httpx.NewFastHTTPClient()
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c
}

func (c *MoonitoClient) Analyze(
	ctx context.Context,
	signals visitor.Signals,
	credentials Credentials,
) (*visitor.Verdict, error) {
	var body []byte

	start := time.Now()
	err := c.circuitBreaker.Execute(func() error {
		var err error
		body, err = c.executeAnalyticsRequest(ctx, signals, credentials)
		return err
	})
	prometheus.VerdictLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).Error("verdict request failed")
		}
		if visitor.IsTransportError(err) {
			return nil, err
		}
		return nil, visitor.NewTransportError(visitor.CallVerdict, err)
	}

	return decodeVerdict(body)
}

func (c *MoonitoClient) executeAnalyticsRequest(
	ctx context.Context,
	signals visitor.Signals,
	credentials Credentials,
) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.analyticsURL(signals), nil)
	if err != nil {
		return nil, visitor.NewTransportError(visitor.CallVerdict, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", signals.UserAgent)
	req.Header.Set(PublicKeyHeader, credentials.PublicKey)
	req.Header.Set(SecretKeyHeader, credentials.SecretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, visitor.NewTransportError(visitor.CallVerdict, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, visitor.NewTransportError(visitor.CallVerdict, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.WithField("status_code", resp.StatusCode).Debug("verdict service responded")
	return body, nil
}

func (c *MoonitoClient) analyticsURL(signals visitor.Signals) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(c.baseURL, "/"))
	b.WriteString(analyticsPath)
	b.WriteString("?ip=")
	b.WriteString(encodeComponent(signals.IP))
	b.WriteString("&ua=")
	b.WriteString(encodeComponent(signals.UserAgent))
	b.WriteString("&events=")
	b.WriteString(encodeComponent(signals.Event))
	b.WriteString("&domain=")
	b.WriteString(encodeComponent(signals.Domain))
	return b.String()
}

// decodeVerdict applies the envelope rules: an error object wins, otherwise
// missing fields fall back to an allow verdict.
func decodeVerdict(body []byte) (*visitor.Verdict, error) {
	var envelope analyticsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, visitor.NewTransportError(visitor.CallVerdict, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}

	if envelope.Error != nil {
		messages := []string(envelope.Error.Message)
		if len(messages) == 0 {
			messages = []string{"unknown error"}
		}
		return nil, &visitor.RemoteServiceError{Messages: messages}
	}

	verdict := &visitor.Verdict{}
	if envelope.Data != nil && envelope.Data.Status != nil {
		verdict.NeedToBlock = bool(envelope.Data.Status.NeedToBlock)
		verdict.DetectActivity = envelope.Data.Status.DetectActivity
	}
	return verdict, nil
}

// encodeComponent escapes like encodeURIComponent: spaces become %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
