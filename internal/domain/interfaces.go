package domain

import (
	"context"
	"errors"
)

// ErrProductNotFound indicates the requested product does not exist.
var ErrProductNotFound = errors.New("product not found")

// ProductCatalog is the read interface over the product catalog.
// A relational or in-memory implementation satisfies it.
type ProductCatalog interface {
	// FindByID returns the product with the given identity, or
	// ErrProductNotFound.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindBySlug returns the product with the given URL slug, or
	// ErrProductNotFound.
	FindBySlug(ctx context.Context, slug string) (*Product, error)

	// FindAll returns a page of products in insertion order.
	FindAll(ctx context.Context, limit, offset int) ([]*Product, error)

	// FindByCategory returns up to limit products in the given category.
	FindByCategory(ctx context.Context, category string, limit int) ([]*Product, error)

	// Categories returns the distinct category names in the catalog.
	Categories(ctx context.Context) ([]string, error)

	// Count returns the total number of products.
	Count(ctx context.Context) (int, error)
}

// PopularityRanker supplies the "popular products" signal used by the
// fallback generator. The default implementation samples the catalog at
// random; a real implementation can rank by tracked view counts without
// touching the fallback control flow.
type PopularityRanker interface {
	// Top returns up to limit products ordered from most to least popular.
	Top(ctx context.Context, limit int) ([]*Product, error)
}
