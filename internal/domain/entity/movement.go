package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN  = "IN"  // entrada
	MovementTypeOUT = "OUT" // salida
)

// Movement es un registro inmutable del ledger: nunca se edita ni se borra.
// ID lo asigna el ledger al confirmar y es estrictamente creciente.
type Movement struct {
	ID        int64
	ProductID string
	UserID    string // actor autenticado
	Type      string // IN, OUT
	Quantity  int64  // siempre > 0
	Reason    string
	CreatedAt time.Time
}

// IsValidMovementType indica si t es IN u OUT.
func IsValidMovementType(t string) bool {
	return t == MovementTypeIN || t == MovementTypeOUT
}

// Delta devuelve la variación de stock que produce el movimiento.
func (m *Movement) Delta() int64 {
	if m.Type == MovementTypeOUT {
		return -m.Quantity
	}
	return m.Quantity
}
