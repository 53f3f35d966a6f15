package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/VisitorGate/pkg/cache"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_RequiresHost(t *testing.T) {
	_, err := cache.NewCache(cache.Config{})
	assert.Error(t, err)
}

func TestCache_Get(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := cache.NewCacheWithClient(client)

	mock.ExpectGet("present").SetVal("value")
	mock.ExpectGet("absent").RedisNil()
	mock.ExpectGet("broken").SetErr(errors.New("connection reset"))

	value, err := c.Get(context.Background(), "present")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	_, err = c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrMiss)

	_, err = c.Get(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_SetAndDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := cache.NewCacheWithClient(client)

	mock.ExpectSet("key", "value", time.Minute).SetVal("OK")
	mock.ExpectDel("key").SetVal(1)

	assert.NoError(t, c.Set(context.Background(), "key", "value", time.Minute))
	assert.NoError(t, c.Delete(context.Background(), "key"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Ping(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := cache.NewCacheWithClient(client)

	mock.ExpectPing().SetErr(errors.New("down"))
	err := c.Ping(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}
