package entity

import "time"

// Category agrupa productos. Los productos solo la referencian (sin cascada).
type Category struct {
	ID          string
	Name        string // único
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
