package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo acceso transaccional al stock; solo existe dentro de TxRunner.Run.
type StockRepo struct {
	store *Store
	tx    *tx
}

// GetForUpdate toma el bloqueo del producto (o reutiliza el ya tomado en esta tx).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	if !r.tx.holds(productID) {
		unlock, err := r.store.lockProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get stock for update: %w", err)
		}
		r.tx.unlock[productID] = unlock
	}

	r.store.mu.RLock()
	p, ok := r.store.products[productID]
	var s entity.Stock
	if ok {
		s = entity.Stock{ProductID: p.ID, Quantity: p.Stock, MinStock: p.MinStock, UpdatedAt: p.UpdatedAt}
	}
	r.store.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if staged, ok := r.tx.stock[productID]; ok {
		s.Quantity = staged
	}
	return &s, nil
}

// SetStock deja el nuevo stock en staging hasta el commit.
func (r *StockRepo) SetStock(_ context.Context, productID string, quantity int64) error {
	if !r.tx.holds(productID) {
		return fmt.Errorf("set stock: producto %s no bloqueado en esta transacción", productID)
	}
	if quantity < 0 {
		return fmt.Errorf("set stock: stock negativo %d", quantity)
	}
	r.tx.stock[productID] = quantity
	return nil
}
