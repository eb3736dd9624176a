package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/stock-movements-api/internal/application/dto"
)

type idempotencyEntry struct {
	exp  time.Time           // cero = sin expiración
	resp *dto.StoredResponse // nil mientras la petición original está en curso
}

// IdempotencyStore claves Idempotency-Key con expiración, para STORAGE_DRIVER=memory sin Redis.
type IdempotencyStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]idempotencyEntry
	now  func() time.Time

	lastSweep time.Time
}

// NewIdempotencyStore construye el store; ttl <= 0 significa sin expiración.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, keys: make(map[string]idempotencyEntry), now: time.Now}
}

func (e idempotencyEntry) live(now time.Time) bool {
	return e.exp.IsZero() || now.Before(e.exp)
}

// Reserve marca la clave como usada. false si ya estaba reservada y vigente.
func (s *IdempotencyStore) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	if e, ok := s.keys[key]; ok && e.live(now) {
		return false, nil
	}
	var exp time.Time
	if s.ttl > 0 {
		exp = now.Add(s.ttl)
	}
	s.keys[key] = idempotencyEntry{exp: exp}
	return true, nil
}

// Complete guarda la respuesta de la petición original; la expiración no cambia.
func (s *IdempotencyStore) Complete(_ context.Context, key string, resp dto.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		return nil
	}
	resp.Body = append([]byte(nil), resp.Body...)
	e.resp = &resp
	s.keys[key] = e
	return nil
}

// Lookup devuelve la respuesta guardada, o nil si la clave no existe o sigue en curso.
func (s *IdempotencyStore) Lookup(_ context.Context, key string) (*dto.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok || !e.live(s.now()) || e.resp == nil {
		return nil, nil
	}
	c := *e.resp
	c.Body = append([]byte(nil), e.resp.Body...)
	return &c, nil
}

// sweep borra las claves vencidas como mucho una vez por ttl.
func (s *IdempotencyStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	for k, e := range s.keys {
		if !e.live(now) {
			delete(s.keys, k)
		}
	}
	s.lastSweep = now
}

// Release libera la clave.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}
