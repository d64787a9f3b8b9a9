// Package redis provides a PopularityRanker backed by a Redis sorted set
// of product view counters. It is the substitutable "real" popularity
// implementation behind the domain.PopularityRanker interface.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sibylcommerce/sibyl/internal/domain"
	"github.com/sibylcommerce/sibyl/internal/observability"
)

const viewCounterKey = "sibyl:product:views"

// Ranker ranks products by tracked view counts.
type Ranker struct {
	client  *redis.Client
	catalog domain.ProductCatalog
}

// NewRanker creates a Redis-backed popularity ranker.
func NewRanker(client *redis.Client, catalog domain.ProductCatalog) *Ranker {
	return &Ranker{
		client:  client,
		catalog: catalog,
	}
}

// RecordView increments the view counter for a product. Callers invoke
// this from the browsing path; failures are returned for the caller to
// log, never to block the request.
func (r *Ranker) RecordView(ctx context.Context, productID int64) error {
	err := r.client.ZIncrBy(ctx, viewCounterKey, 1, strconv.FormatInt(productID, 10)).Err()
	if err != nil {
		return fmt.Errorf("increment view counter: %w", err)
	}

	return nil
}

// Top returns up to limit products ordered by descending view count.
// Counter entries whose product no longer exists are skipped.
func (r *Ranker) Top(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit < 1 {
		return nil, nil
	}

	ids, err := r.client.ZRevRange(ctx, viewCounterKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read view counters: %w", err)
	}

	logger := observability.FromContext(ctx)

	products := make([]*domain.Product, 0, len(ids))
	for _, member := range ids {
		id, parseErr := strconv.ParseInt(member, 10, 64)
		if parseErr != nil {
			logger.Warn("malformed view counter member, skipping",
				zap.String("member", member))
			continue
		}

		p, findErr := r.catalog.FindByID(ctx, id)
		if errors.Is(findErr, domain.ErrProductNotFound) {
			// Counter outlived the product.
			continue
		}
		if findErr != nil {
			return nil, fmt.Errorf("resolve popular product %d: %w", id, findErr)
		}

		products = append(products, p)
	}

	return products, nil
}
