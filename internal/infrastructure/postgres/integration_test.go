package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-movements-api/internal/application/inventory"
	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-movements-api/pkg/config"
)

// Requiere una base real: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func setupDB(t *testing.T) (*postgres.ProductRepo, *postgres.MovementRepo, *inventory.RecordMovementUseCase) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))

	uc := inventory.NewRecordMovementUseCase(postgres.NewTxRunner(pool, 3, nil), nil)
	return postgres.NewProductRepository(pool), postgres.NewMovementRepository(pool), uc
}

func newProduct(t *testing.T, repo *postgres.ProductRepo, stock int64) string {
	t.Helper()
	id := uuid.New().String()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &entity.Product{
		ID: id, SKU: "IT-" + id, Name: "integración", Stock: stock, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func TestPostgres_OUTConcurrentes(t *testing.T) {
	products, movements, uc := setupDB(t)
	const k, n = 10, 40
	id := newProduct(t, products, k)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.RecordMovement(context.Background(), inventory.MovementInput{
				ProductID: id, UserID: "it", Type: entity.MovementTypeOUT, Quantity: 1,
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "error inesperado: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, k, ok)
	p, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Stock)

	list, err := movements.ListByProduct(context.Background(), id, 100, 0)
	require.NoError(t, err)
	assert.Len(t, list, k)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1].ID, list[i].ID)
	}
	assert.ErrorIs(t, products.Delete(context.Background(), id), domain.ErrConflict)
}

func TestPostgres_ProductoInexistente(t *testing.T) {
	_, movements, uc := setupDB(t)
	id := uuid.New().String()

	_, err := uc.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: id, UserID: "it", Type: entity.MovementTypeIN, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	list, err := movements.ListByProduct(context.Background(), id, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgres_OrdenDeIDPorProductoEsOrdenDeCommit(t *testing.T) {
	products, movements, uc := setupDB(t)
	const initial = 3
	id := newProduct(t, products, initial)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		typ := entity.MovementTypeOUT
		if i%3 == 0 {
			typ = entity.MovementTypeIN
		}
		wg.Add(1)
		go func(typ string) {
			defer wg.Done()
			_, _ = uc.RecordMovement(context.Background(), inventory.MovementInput{
				ProductID: id, UserID: "it", Type: typ, Quantity: 1,
			})
		}(typ)
	}
	wg.Wait()

	list, err := movements.ListByProduct(context.Background(), id, 100, 0)
	require.NoError(t, err)

	// Recorrer el ledger por ID ascendente: ningún prefijo deja stock negativo.
	stock := int64(initial)
	for i := len(list) - 1; i >= 0; i-- {
		stock += list[i].Delta()
		require.GreaterOrEqual(t, stock, int64(0), "movimiento %d aplicado fuera de orden", list[i].ID)
	}
	p, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, p.Stock, stock)
}
