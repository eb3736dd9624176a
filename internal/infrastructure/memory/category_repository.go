package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo categorías en memoria.
type CategoryRepo struct {
	store *Store
}

// NewCategoryRepository construye el repositorio.
func NewCategoryRepository(store *Store) *CategoryRepo {
	return &CategoryRepo{store: store}
}

func (r *CategoryRepo) nameTaken(name, exceptID string) bool {
	for _, c := range r.store.categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Create persiste una nueva categoría.
func (r *CategoryRepo) Create(_ context.Context, category *entity.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.categories[category.ID]; ok || r.nameTaken(category.Name, "") {
		return domain.ErrDuplicate
	}
	c := *category
	r.store.categories[c.ID] = &c
	return nil
}

// GetByID obtiene una categoría; nil si no existe.
func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if c, ok := r.store.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

// GetByName obtiene una categoría por nombre (sin distinguir mayúsculas).
func (r *CategoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

// Update actualiza nombre y descripción.
func (r *CategoryRepo) Update(_ context.Context, category *entity.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.categories[category.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.nameTaken(category.Name, category.ID) {
		return domain.ErrDuplicate
	}
	c.Name = category.Name
	c.Description = category.Description
	c.UpdatedAt = category.UpdatedAt
	return nil
}

// List lista categorías por nombre.
func (r *CategoryRepo) List(_ context.Context, limit, offset int) ([]*entity.Category, error) {
	r.store.mu.RLock()
	list := make([]*entity.Category, 0, len(r.store.categories))
	for _, c := range r.store.categories {
		cp := *c
		list = append(list, &cp)
	}
	r.store.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

// Delete elimina la categoría y deja sus productos sin categoría (ON DELETE SET NULL).
func (r *CategoryRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.categories, id)
	for _, p := range r.store.products {
		if p.CategoryID == id {
			p.CategoryID = ""
		}
	}
	return nil
}
