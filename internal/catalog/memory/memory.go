// Package memory provides an in-memory ProductCatalog implementation,
// used for tests and single-node deployments without a database file.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sibylcommerce/sibyl/internal/domain"
)

// Store is an in-memory product catalog. Products are kept in insertion
// order so paging is stable.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]*domain.Product
}

// NewStore creates an empty in-memory catalog.
func NewStore() *Store {
	return &Store{
		nextID: 1,
		order:  nil,
		items:  make(map[int64]*domain.Product),
	}
}

// Create persists a product and assigns its identity. The identity is
// assigned exactly once: a product that already has one is rejected.
func (s *Store) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if p == nil {
		return nil, errors.New("product cannot be nil")
	}
	if p.ID != 0 {
		return nil, errors.New("product already has an identity")
	}
	if p.Name == "" {
		return nil, errors.New("product name cannot be empty")
	}
	if p.Category == "" {
		return nil, errors.New("product category cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.nextID++
	s.order = append(s.order, stored.ID)
	s.items[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// FindByID returns the product with the given identity.
func (s *Store) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	copied := *p
	return &copied, nil
}

// FindBySlug returns the product with the given URL slug.
func (s *Store) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if s.items[id].Slug == slug {
			copied := *s.items[id]
			return &copied, nil
		}
	}

	return nil, domain.ErrProductNotFound
}

// FindAll returns a page of products in insertion order.
func (s *Store) FindAll(_ context.Context, limit, offset int) ([]*domain.Product, error) {
	if limit < 0 || offset < 0 {
		return nil, errors.New("limit and offset must be non-negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.order) {
		return nil, nil
	}

	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	page := make([]*domain.Product, 0, end-offset)
	for _, id := range s.order[offset:end] {
		copied := *s.items[id]
		page = append(page, &copied)
	}

	return page, nil
}

// FindByCategory returns up to limit products in the given category,
// in insertion order.
func (s *Store) FindByCategory(_ context.Context, category string, limit int) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*domain.Product
	for _, id := range s.order {
		if len(matches) == limit {
			break
		}
		if s.items[id].Category == category {
			copied := *s.items[id]
			matches = append(matches, &copied)
		}
	}

	return matches, nil
}

// Categories returns the distinct category names, sorted.
func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.items {
		seen[p.Category] = struct{}{}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return categories, nil
}

// Count returns the total number of products.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order), nil
}
