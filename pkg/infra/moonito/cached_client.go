package moonito

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/NeuralTrust/VisitorGate/pkg/cache"
	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const verdictKeyPrefix = "visitor:verdict:"

type cachedVerdict struct {
	NeedToBlock    bool `json:"need_to_block"`
	DetectActivity any  `json:"detect_activity"`
}

// CachedClient stores successful verdicts in redis. Errors are never cached
// and cache failures fall through to the wrapped client.
type CachedClient struct {
	inner  Client
	cache  *cache.Cache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedClient(inner Client, c *cache.Cache, ttl time.Duration, logger *logrus.Logger) Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedClient{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedClient) Analyze(
	ctx context.Context,
	signals visitor.Signals,
	credentials Credentials,
) (*visitor.Verdict, error) {
	key := verdictKey(signals, credentials)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var entry cachedVerdict
		if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
			prometheus.VerdictCacheLookups.WithLabelValues("hit").Inc()
			return &visitor.Verdict{
				NeedToBlock:    entry.NeedToBlock,
				DetectActivity: entry.DetectActivity,
			}, nil
		}
		c.logger.WithField("key", key).Warn("discarding unreadable cached verdict")
		prometheus.VerdictCacheLookups.WithLabelValues("miss").Inc()
	case errors.Is(err, cache.ErrMiss):
		prometheus.VerdictCacheLookups.WithLabelValues("miss").Inc()
	default:
		c.logger.WithError(err).Warn("verdict cache read failed")
		prometheus.VerdictCacheLookups.WithLabelValues("error").Inc()
	}

	verdict, err := c.inner.Analyze(ctx, signals, credentials)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedVerdict{
		NeedToBlock:    verdict.NeedToBlock,
		DetectActivity: verdict.DetectActivity,
	})
	if err != nil {
		c.logger.WithError(err).Warn("verdict not cacheable")
		return verdict, nil
	}
	if err := c.cache.Set(ctx, key, string(payload), c.ttl); err != nil {
		c.logger.WithError(err).Warn("verdict cache write failed")
	}
	return verdict, nil
}

// verdictKey hashes the signals together with the public key so tenants
// sharing a redis never read each other's verdicts.
func verdictKey(signals visitor.Signals, credentials Credentials) string {
	h := sha256.New()
	for _, part := range []string{credentials.PublicKey, signals.IP, signals.UserAgent, signals.Event, signals.Domain} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return verdictKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
