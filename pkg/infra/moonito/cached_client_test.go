package moonito

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/VisitorGate/pkg/cache"
	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	calls   int
	verdict *visitor.Verdict
	err     error
}

func (s *stubClient) Analyze(context.Context, visitor.Signals, Credentials) (*visitor.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

var (
	cacheSignals = visitor.Signals{IP: "198.51.100.1", UserAgent: "curl/8.0", Event: "https://example.com/", Domain: "example.com"}
	cacheCreds   = Credentials{PublicKey: "pub", SecretKey: "sec"}
)

func TestVerdictKey(t *testing.T) {
	key := verdictKey(cacheSignals, cacheCreds)
	assert.True(t, len(key) == len(verdictKeyPrefix)+64)
	assert.Equal(t, key, verdictKey(cacheSignals, cacheCreds))

	other := cacheCreds
	other.PublicKey = "another"
	assert.NotEqual(t, key, verdictKey(cacheSignals, other))

	// field boundaries are part of the hash
	a := visitor.Signals{IP: "1", UserAgent: "23"}
	b := visitor.Signals{IP: "12", UserAgent: "3"}
	assert.NotEqual(t, verdictKey(a, cacheCreds), verdictKey(b, cacheCreds))
}

func TestCachedClient_Hit(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	inner := &stubClient{}
	client := NewCachedClient(inner, cache.NewCacheWithClient(redisClient), time.Minute, logrus.New())

	key := verdictKey(cacheSignals, cacheCreds)
	mock.ExpectGet(key).SetVal(`{"need_to_block":true,"detect_activity":"scraper"}`)

	verdict, err := client.Analyze(context.Background(), cacheSignals, cacheCreds)
	require.NoError(t, err)
	assert.True(t, verdict.NeedToBlock)
	assert.Equal(t, "scraper", verdict.DetectActivity)
	assert.Equal(t, 0, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedClient_MissStores(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	inner := &stubClient{verdict: &visitor.Verdict{NeedToBlock: true, DetectActivity: "bot"}}
	client := NewCachedClient(inner, cache.NewCacheWithClient(redisClient), time.Minute, logrus.New())

	key := verdictKey(cacheSignals, cacheCreds)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, `{"need_to_block":true,"detect_activity":"bot"}`, time.Minute).SetVal("OK")

	verdict, err := client.Analyze(context.Background(), cacheSignals, cacheCreds)
	require.NoError(t, err)
	assert.True(t, verdict.NeedToBlock)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedClient_ErrorsNotCached(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	remote := &visitor.RemoteServiceError{Messages: []string{"quota exceeded"}}
	inner := &stubClient{err: remote}
	client := NewCachedClient(inner, cache.NewCacheWithClient(redisClient), time.Minute, logrus.New())

	mock.ExpectGet(verdictKey(cacheSignals, cacheCreds)).RedisNil()

	_, err := client.Analyze(context.Background(), cacheSignals, cacheCreds)
	assert.ErrorIs(t, err, remote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedClient_CacheFailureFallsThrough(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	inner := &stubClient{verdict: &visitor.Verdict{}}
	client := NewCachedClient(inner, cache.NewCacheWithClient(redisClient), time.Minute, logrus.New())

	key := verdictKey(cacheSignals, cacheCreds)
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, `{"need_to_block":false,"detect_activity":null}`, time.Minute).SetErr(errors.New("connection refused"))

	verdict, err := client.Analyze(context.Background(), cacheSignals, cacheCreds)
	require.NoError(t, err)
	assert.False(t, verdict.NeedToBlock)
	assert.Equal(t, 1, inner.calls)
}
