package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo de productos en memoria.
type ProductRepo struct {
	store *Store
}

// NewProductRepository construye el repositorio.
func NewProductRepository(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

// Create persiste un nuevo producto con su stock inicial.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, p := range s.products {
		if p.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	if product.CategoryID != "" {
		if _, ok := s.categories[product.CategoryID]; !ok {
			return domain.ErrInvalidInput
		}
	}
	s.products[product.ID] = copyProduct(product)
	return nil
}

// GetByID obtiene un producto por ID; nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if p, ok := r.store.products[id]; ok {
		return copyProduct(p), nil
	}
	return nil, nil
}

// GetBySKU obtiene un producto por SKU; nil si no existe.
func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, p := range r.store.products {
		if p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

// Update actualiza los campos de catálogo. Stock no se toca.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[product.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if product.CategoryID != "" {
		if _, ok := s.categories[product.CategoryID]; !ok {
			return domain.ErrInvalidInput
		}
	}
	p.Name = product.Name
	p.Description = product.Description
	p.Price = product.Price
	p.MinStock = product.MinStock
	p.CategoryID = product.CategoryID
	p.UpdatedAt = product.UpdatedAt
	return nil
}

// List lista productos, más recientes primero.
func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.RLock()
	list := make([]*entity.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		list = append(list, copyProduct(p))
	}
	r.store.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return page(list, limit, offset), nil
}

// Delete elimina el producto si no tiene movimientos. Toma el bloqueo del producto
// para no cruzarse con un movimiento en curso.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	unlock, err := r.store.lockProduct(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return nil
	}
	if s.hasMovements(id) {
		return domain.ErrConflict
	}
	delete(s.products, id)
	return nil
}
