package repository

import (
	"context"

	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
)

// StockRepository accede al stock actual de un producto dentro de una transacción.
// Usado solo desde TxRunner para garantizar consistencia con el ledger.
type StockRepository interface {
	// GetForUpdate bloquea el producto hasta el fin de la transacción (SELECT FOR UPDATE).
	// Devuelve nil, nil si el producto no existe.
	GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error)
	// SetStock escribe el nuevo stock; solo válido tras GetForUpdate en la misma transacción.
	SetStock(ctx context.Context, productID string, quantity int64) error
}
