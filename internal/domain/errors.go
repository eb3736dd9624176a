package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores del motor de movimientos. Los cuatro primeros son de entrada del cliente;
// ErrPersistence es de infraestructura y envuelve la causa original.
var (
	ErrInvalidQuantity   = errors.New("la cantidad debe ser mayor que cero")
	ErrInvalidKind       = errors.New("el tipo de movimiento debe ser IN u OUT")
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrPersistence       = errors.New("no se pudo persistir el movimiento")
)
