package domain

import "time"

// Product represents a catalog item. Products are read-only from the
// recommender's perspective: they are loaded from the catalog store and
// never mutated or persisted by this package.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       Money     `json:"-"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Source identifies which generation path produced a recommendation.
type Source string

const (
	// SourceSimilarity marks results from the trained nearest-neighbor model.
	SourceSimilarity Source = "learned-similarity"

	// SourceCategory marks results from the category co-membership fallback.
	SourceCategory Source = "category-fallback"

	// SourcePopularity marks results from the popularity fallback.
	SourcePopularity Source = "popularity-fallback"
)

// Recommendation is an immutable output record. Instances are constructed
// only by the similarity model or the fallback generator; merged copies
// are new values, never mutations.
type Recommendation struct {
	ProductID   int64   `json:"product_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       string  `json:"price"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	Explanation string  `json:"explanation"`
	Source      Source  `json:"source"`
}
