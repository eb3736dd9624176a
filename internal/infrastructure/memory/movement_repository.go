package memory

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger en memoria. Con tx != nil escribe en la transacción; sin tx es de solo lectura.
type MovementRepo struct {
	store *Store
	tx    *tx
}

// NewMovementRepository construye el ledger de solo lectura (consultas).
func NewMovementRepository(store *Store) *MovementRepo {
	return &MovementRepo{store: store}
}

// Append agrega el movimiento a la transacción; el ID se asigna al confirmar.
func (r *MovementRepo) Append(_ context.Context, movement *entity.Movement) error {
	if r.tx == nil {
		return errors.New("append movement: fuera de transacción")
	}
	r.tx.movements = append(r.tx.movements, movement)
	return nil
}

// ListByProduct movimientos del producto, ID descendente.
func (r *MovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	return r.list(func(m *entity.Movement) bool { return m.ProductID == productID }, limit, offset), nil
}

// ListAll ledger completo, ID descendente.
func (r *MovementRepo) ListAll(_ context.Context, limit, offset int) ([]*entity.Movement, error) {
	return r.list(func(*entity.Movement) bool { return true }, limit, offset), nil
}

func (r *MovementRepo) list(match func(*entity.Movement) bool, limit, offset int) []*entity.Movement {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*entity.Movement
	for i := len(r.store.ledger) - 1; i >= 0; i-- {
		if m := r.store.ledger[i]; match(m) {
			out = append(out, copyMovement(m))
		}
	}
	return page(out, limit, offset)
}

func (s *Store) hasMovements(productID string) bool {
	for _, m := range s.ledger {
		if m.ProductID == productID {
			return true
		}
	}
	return false
}
