package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

// withProductForUpdate bloquea el producto, deja que fn calcule el nuevo stock a partir
// del actual y lo escribe. El bloqueo dura hasta el fin de la transacción de stockRepo,
// así que lectura, chequeo y escritura no se intercalan con otra petición del mismo producto.
// Si fn rechaza, no se escribe nada.
func withProductForUpdate(
	ctx context.Context,
	stockRepo repository.StockRepository,
	productID string,
	fn func(current *entity.Stock) (int64, error),
) (*entity.Stock, error) {
	current, err := stockRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("lock product stock: %w", err)
	}
	if current == nil {
		return nil, domain.ErrProductNotFound
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := stockRepo.SetStock(ctx, productID, next); err != nil {
		return nil, fmt.Errorf("set product stock: %w", err)
	}
	updated := *current
	updated.Quantity = next
	return &updated, nil
}
