package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-movements-api/internal/application/dto"
	"github.com/jhoicas/stock-movements-api/pkg/logger"
)

// HeaderIdempotencyKey header opcional para reintentos seguros de POST.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplayed marca una respuesta repetida desde el store.
const HeaderIdempotentReplayed = "Idempotent-Replayed"

// IdempotencyGuard es el contrato mínimo que necesita el middleware.
// Lo implementan redis.IdempotencyStore y memory.IdempotencyStore.
type IdempotencyGuard interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string, resp dto.StoredResponse) error
	Lookup(ctx context.Context, key string) (*dto.StoredResponse, error)
	Release(ctx context.Context, key string) error
}

// Idempotency evita que un mismo Idempotency-Key registre dos veces. Sin header la petición pasa tal cual.
// La clave se acota por usuario y se libera si el handler no responde 2xx, para que el cliente pueda reintentar.
//   - Reintento de una petición ya confirmada: se repite la respuesta original.
//   - 409 DUPLICATE_REQUEST si la petición original sigue en curso.
//   - 422 IDEMPOTENCY_KEY_REUSED si la clave llega con otro cuerpo.
//   - 503 IDEMPOTENCY_CHECK_FAILED si el store no responde.
func Idempotency(guard IdempotencyGuard, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		header := c.Get(HeaderIdempotencyKey)
		if guard == nil || header == "" {
			return c.Next()
		}
		key := GetUserID(c) + ":" + header
		hash := requestHash(c)

		ok, err := guard.Reserve(c.Context(), key)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("verificar idempotency key")
			return idempotencyUnavailable(c)
		}
		if !ok {
			stored, err := guard.Lookup(c.Context(), key)
			if err != nil {
				log.Error().Err(err).Str("key", key).Msg("leer respuesta idempotente")
				return idempotencyUnavailable(c)
			}
			if stored == nil {
				return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
					Code:    "DUPLICATE_REQUEST",
					Message: "petición con el mismo Idempotency-Key en curso",
				})
			}
			if stored.RequestHash != hash {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
					Code:    "IDEMPOTENCY_KEY_REUSED",
					Message: "Idempotency-Key ya usado con otra petición",
				})
			}
			c.Set(HeaderIdempotentReplayed, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(stored.Status).Send(stored.Body)
		}

		err = c.Next()
		status := c.Response().StatusCode()
		if err != nil || status < 200 || status >= 300 {
			if relErr := guard.Release(context.Background(), key); relErr != nil {
				log.Warn().Err(relErr).Str("key", key).Msg("liberar idempotency key")
			}
			return err
		}
		// Si falla, la clave queda en curso hasta el TTL y los reintentos reciben 409.
		resp := dto.StoredResponse{
			Status:      status,
			Body:        append([]byte(nil), c.Response().Body()...),
			RequestHash: hash,
		}
		if cErr := guard.Complete(context.Background(), key, resp); cErr != nil {
			log.Warn().Err(cErr).Str("key", key).Msg("guardar respuesta idempotente")
		}
		return nil
	}
}

func requestHash(c *fiber.Ctx) string {
	h := sha256.New()
	h.Write([]byte(c.Method()))
	h.Write([]byte{0})
	h.Write([]byte(c.Path()))
	h.Write([]byte{0})
	h.Write(c.Body())
	return hex.EncodeToString(h.Sum(nil))
}

func idempotencyUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Code:    "IDEMPOTENCY_CHECK_FAILED",
		Message: "no se pudo verificar Idempotency-Key, intente más tarde",
	})
}
