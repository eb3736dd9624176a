package repository

import (
	"context"

	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
)

// MovementRepository es el ledger append-only de movimientos.
// Las escrituras deben compartir la transacción del StockRepository.
type MovementRepository interface {
	// Append persiste el movimiento y le asigna ID (estrictamente creciente).
	Append(ctx context.Context, movement *entity.Movement) error
	// ListByProduct devuelve los movimientos del producto, ID descendente.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)
	// ListAll devuelve el ledger completo, ID descendente.
	// Entre productos distintos el ID sigue el orden de asignación, no el de commit:
	// no paginar por ID esperando una secuencia sin huecos.
	ListAll(ctx context.Context, limit, offset int) ([]*entity.Movement, error)
}
