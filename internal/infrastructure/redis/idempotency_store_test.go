package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-movements-api/internal/application/dto"
	infraredis "github.com/jhoicas/stock-movements-api/internal/infrastructure/redis"
	"github.com/jhoicas/stock-movements-api/pkg/config"
)

// Requiere Redis real: TEST_REDIS_ADDR=localhost:6379 go test ./internal/infrastructure/redis/
func TestIdempotencyStore_ReservarYLiberar(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no definido")
	}
	ctx := context.Background()
	client, err := infraredis.NewClient(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := infraredis.NewIdempotencyStore(client, time.Minute)
	key := "test:" + uuid.New().String()

	ok, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, stored, "reservada sin respuesta todavía")

	require.NoError(t, store.Complete(ctx, key, dto.StoredResponse{Status: 201, Body: []byte(`{"id":1}`), RequestHash: "h"}))
	stored, err = store.Lookup(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 201, stored.Status)
	assert.JSONEq(t, `{"id":1}`, string(stored.Body))

	ttl, err := client.TTL(ctx, "idempotency:movement:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "Complete conserva el TTL")

	require.NoError(t, store.Release(ctx, key))
	ok, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, store.Release(ctx, key))
}
