package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Stock solo avanza mediante movimientos confirmados; las ediciones de catálogo no lo tocan.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64  // >= 0
	MinStock    int64  // umbral de alerta, >= 0
	CategoryID  string // referencia débil, vacío si no tiene
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock indica si el stock está en o por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
