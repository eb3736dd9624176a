// Package memory implementa los puertos de persistencia en memoria con las mismas
// garantías transaccionales que el adaptador PostgreSQL. Lo usan los tests y
// STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu             sync.RWMutex
	products       map[string]*entity.Product
	categories     map[string]*entity.Category
	users          map[string]*entity.User
	ledger         []*entity.Movement // ID ascendente
	nextMovementID int64

	locksMu sync.Mutex
	locks   map[string]*productLock // solo productos con titular o en espera
}

// productLock semáforo de un producto; refs cuenta titular y esperas.
type productLock struct {
	sem  chan struct{}
	refs int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]*entity.Product),
		categories: make(map[string]*entity.Category),
		users:      make(map[string]*entity.User),
		locks:      make(map[string]*productLock),
	}
}

func (s *Store) acquireLockEntry(productID string) *productLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[productID]
	if !ok {
		l = &productLock{sem: make(chan struct{}, 1)}
		s.locks[productID] = l
	}
	l.refs++
	return l
}

func (s *Store) releaseLockEntry(productID string, l *productLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, productID)
	}
}

// lockProduct espera el bloqueo exclusivo del producto o la cancelación de ctx.
// La entrada del mapa se borra cuando nadie la tiene ni la espera.
func (s *Store) lockProduct(ctx context.Context, productID string) (func(), error) {
	l := s.acquireLockEntry(productID)
	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			s.releaseLockEntry(productID, l)
		}, nil
	case <-ctx.Done():
		s.releaseLockEntry(productID, l)
		return nil, ctx.Err()
	}
}

func (s *Store) lockEntries() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
