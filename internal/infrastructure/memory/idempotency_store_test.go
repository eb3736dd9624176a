package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-movements-api/internal/application/dto"
)

func TestIdempotencyStore_ReservaUnaVez(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "u1:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, "u1:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Release(ctx, "u1:abc"))
	ok, _ = s.Reserve(ctx, "u1:abc")
	assert.True(t, ok, "tras Release la clave vuelve a estar libre")
}

func TestIdempotencyStore_Expira(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	ctx := context.Background()

	ok, _ := s.Reserve(ctx, "k")
	require.True(t, ok)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	ok, _ = s.Reserve(ctx, "k")
	assert.True(t, ok)
}

func TestIdempotencyStore_BorraClavesVencidas(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		ok, err := s.Reserve(ctx, fmt.Sprintf("u1:%d", i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Len(t, s.keys, 500)

	s.now = func() time.Time { return base.Add(30 * time.Second) }
	_, _ = s.Reserve(ctx, "u1:nueva")
	assert.Len(t, s.keys, 501, "ninguna clave ha vencido todavía")

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	ok, err := s.Reserve(ctx, "u2:otra")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, s.keys, 1, "solo queda la clave recién reservada")
}

func TestIdempotencyStore_GuardaYDevuelveRespuesta(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "u1:abc")
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := s.Lookup(ctx, "u1:abc")
	require.NoError(t, err)
	assert.Nil(t, stored, "en curso todavía no hay respuesta")

	body := []byte(`{"new_stock":7}`)
	require.NoError(t, s.Complete(ctx, "u1:abc", dto.StoredResponse{Status: 201, Body: body, RequestHash: "h1"}))
	body[0] = 'X'

	stored, err = s.Lookup(ctx, "u1:abc")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 201, stored.Status)
	assert.Equal(t, `{"new_stock":7}`, string(stored.Body))
	assert.Equal(t, "h1", stored.RequestHash)

	ok, _ = s.Reserve(ctx, "u1:abc")
	assert.False(t, ok, "una clave completada sigue reservada")

	require.NoError(t, s.Complete(ctx, "desconocida", dto.StoredResponse{Status: 201}))
	stored, _ = s.Lookup(ctx, "desconocida")
	assert.Nil(t, stored)
}
