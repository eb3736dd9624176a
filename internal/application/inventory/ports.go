package inventory

import (
	"context"

	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error la transacción se revierte completa; si no, se confirma.
// Una implementación puede reintentar fn ante conflictos de serialización, por lo que fn
// no debe dejar efectos fuera de los repositorios recibidos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}
