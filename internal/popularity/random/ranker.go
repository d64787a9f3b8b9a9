// Package random provides the placeholder PopularityRanker: without
// tracked view or purchase counters, a randomized catalog sample stands
// in for a true popularity signal.
package random

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sibylcommerce/sibyl/internal/domain"
)

// sampleWindow bounds how much of the catalog is considered per call.
const sampleWindow = 200

// Ranker samples the catalog at random.
type Ranker struct {
	catalog domain.ProductCatalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRanker creates a randomized-sample ranker.
func NewRanker(catalog domain.ProductCatalog, seed int64) *Ranker {
	return &Ranker{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Top returns up to limit products drawn at random from the catalog.
func (r *Ranker) Top(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit < 1 {
		return nil, nil
	}

	window, err := r.catalog.FindAll(ctx, sampleWindow, 0)
	if err != nil {
		return nil, fmt.Errorf("catalog sample failed: %w", err)
	}

	shuffled := make([]*domain.Product, len(window))
	copy(shuffled, window)

	r.mu.Lock()
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	r.mu.Unlock()

	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}

	return shuffled, nil
}
