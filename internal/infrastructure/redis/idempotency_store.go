// Package redis guarda claves de idempotencia para los POST de movimientos.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-movements-api/internal/application/dto"
	"github.com/jhoicas/stock-movements-api/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:movement:"
	pendingValue         = "pending"
)

// IdempotencyStore reserva claves Idempotency-Key con SETNX + TTL.
type IdempotencyStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewIdempotencyStore construye el store sobre un cliente ya abierto.
func NewIdempotencyStore(client *goredis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve marca la clave como usada. false si ya estaba reservada.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, pendingValue, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Complete guarda la respuesta original conservando el TTL de la reserva.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp dto.StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := s.client.SetArgs(ctx, idempotencyKeyPrefix+key, data, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Lookup devuelve la respuesta guardada, o nil si la clave no existe o sigue en curso.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (*dto.StoredResponse, error) {
	val, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if string(val) == pendingValue {
		return nil, nil
	}
	var resp dto.StoredResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, nil
}

// Release libera la clave para que el cliente pueda reintentar (movimiento rechazado o fallido).
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
