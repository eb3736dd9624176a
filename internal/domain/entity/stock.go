package entity

import "time"

// Stock es la vista del stock de un producto tomada bajo bloqueo dentro de una transacción.
type Stock struct {
	ProductID string
	Quantity  int64
	MinStock  int64
	UpdatedAt time.Time
}
