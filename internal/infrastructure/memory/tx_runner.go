package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-movements-api/internal/application/inventory"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks en una transacción en memoria: las escrituras quedan
// en staging y se aplican juntas al confirmar; los bloqueos de producto se liberan al final.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn y confirma solo si no devuelve error.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	t := &tx{store: r.store, stock: make(map[string]int64), unlock: make(map[string]func())}
	defer t.release()

	if err := fn(&MovementRepo{store: r.store, tx: t}, &StockRepo{store: r.store, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return t.commit()
}

type tx struct {
	store     *Store
	stock     map[string]int64 // productID -> stock en staging
	movements []*entity.Movement
	unlock    map[string]func()
}

func (t *tx) holds(productID string) bool {
	_, ok := t.unlock[productID]
	return ok
}

func (t *tx) release() {
	for _, u := range t.unlock {
		u()
	}
	t.unlock = nil
}

// commit aplica stock y movimientos bajo el mutex del store; los IDs del ledger
// se asignan aquí, en orden de confirmación.
func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.stock {
		if _, ok := s.products[id]; !ok {
			return fmt.Errorf("commit transaction: producto %s ya no existe", id)
		}
	}
	for id, qty := range t.stock {
		s.products[id].Stock = qty
	}
	for _, m := range t.movements {
		s.nextMovementID++
		m.ID = s.nextMovementID
		s.ledger = append(s.ledger, copyMovement(m))
	}
	return nil
}
