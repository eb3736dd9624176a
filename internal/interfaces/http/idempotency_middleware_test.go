package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-movements-api/internal/application/dto"
	"github.com/jhoicas/stock-movements-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-movements-api/internal/interfaces/http"
)

type downGuard struct{}

func (downGuard) Reserve(context.Context, string) (bool, error) { return false, errors.New("redis caído") }
func (downGuard) Complete(context.Context, string, dto.StoredResponse) error {
	return nil
}
func (downGuard) Lookup(context.Context, string) (*dto.StoredResponse, error) { return nil, nil }
func (downGuard) Release(context.Context, string) error                       { return nil }

// busyGuard simula una clave reservada por otra petición todavía en curso.
type busyGuard struct {
	lookupErr error
}

func (busyGuard) Reserve(context.Context, string) (bool, error) { return false, nil }
func (busyGuard) Complete(context.Context, string, dto.StoredResponse) error {
	return nil
}
func (g busyGuard) Lookup(context.Context, string) (*dto.StoredResponse, error) {
	return nil, g.lookupErr
}
func (busyGuard) Release(context.Context, string) error { return nil }

func TestIdempotency_StoreCaidoRetorna503(t *testing.T) {
	app := fiber.New()
	app.Post("/x", apphttp.Idempotency(downGuard{}, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(apphttp.HeaderIdempotencyKey, "abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Sin header no se consulta el store.
	resp2, err := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil), -1)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusCreated, resp2.StatusCode)
}

func postWithKey(t *testing.T, app *fiber.App, key, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	req.Header.Set(apphttp.HeaderIdempotencyKey, key)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestIdempotency_PeticionEnCurso(t *testing.T) {
	app := fiber.New()
	app.Post("/x", apphttp.Idempotency(busyGuard{}, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	resp, body := postWithKey(t, app, "abc", "{}")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "DUPLICATE_REQUEST")

	app = fiber.New()
	app.Post("/x", apphttp.Idempotency(busyGuard{lookupErr: errors.New("timeout")}, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	resp, _ = postWithKey(t, app, "abc", "{}")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIdempotency_RepiteRespuestaOriginal(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Post("/x", apphttp.Idempotency(memory.NewIdempotencyStore(time.Minute), nil), func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})

	resp, first := postWithKey(t, app, "abc", `{"q":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, again := postWithKey(t, app, "abc", `{"q":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(apphttp.HeaderIdempotentReplayed))
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))
	assert.JSONEq(t, first, again)
	assert.Equal(t, 1, calls)

	resp, _ = postWithKey(t, app, "abc", `{"q":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 1, calls)
}
