package domain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sibylcommerce/sibyl/internal/observability"
)

// Strategy selects how the fallback generator sources recommendations.
type Strategy string

const (
	// StrategyCategory recommends products from the target's category.
	StrategyCategory Strategy = "category"

	// StrategyPopularity recommends popular products from the whole catalog.
	StrategyPopularity Strategy = "popularity"

	// StrategyHybrid blends category matches with popular products.
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy validates a strategy name from configuration or a request.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyCategory, StrategyPopularity, StrategyHybrid:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("unknown fallback strategy: %q", name)
	}
}

// Fallback score bands. Category matches score strictly below the learned
// path's close-neighbor range, popularity strictly below category.
const (
	categoryScoreBase    = 68.0
	categoryScoreFloor   = 60.0
	popularityScoreBase  = 58.0
	popularityScoreFloor = 50.0
	fallbackScoreStep    = 1.5
)

// FallbackGenerator produces deterministic rule-based recommendations
// without a trained model, using category co-membership and popularity as
// weak signals. Catalog errors propagate to the caller: the orchestrator
// is the single point that converts failures into degraded responses.
type FallbackGenerator struct {
	catalog ProductCatalog
	ranker  PopularityRanker
}

// NewFallbackGenerator creates a fallback generator (DI constructor).
func NewFallbackGenerator(catalog ProductCatalog, ranker PopularityRanker) *FallbackGenerator {
	return &FallbackGenerator{
		catalog: catalog,
		ranker:  ranker,
	}
}

// Generate produces up to limit recommendations for target using the given
// strategy. target may be nil for cold-start requests, in which case only
// the popularity signal applies. Products whose identity is in exclude are
// never returned, nor is the target itself.
func (g *FallbackGenerator) Generate(
	ctx context.Context,
	target *Product,
	limit int,
	strategy Strategy,
	exclude ...int64,
) ([]Recommendation, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	excluded := make(map[int64]struct{}, len(exclude)+1)
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	if target != nil {
		excluded[target.ID] = struct{}{}
	}

	if target == nil && strategy != StrategyPopularity {
		strategy = StrategyPopularity
	}

	var (
		results []Recommendation
		err     error
	)

	switch strategy {
	case StrategyCategory:
		results, err = g.fromCategory(ctx, target, limit, excluded)
	case StrategyPopularity:
		results, err = g.fromPopularity(ctx, limit, excluded)
	case StrategyHybrid:
		results, err = g.hybrid(ctx, target, limit, excluded)
	default:
		return nil, fmt.Errorf("unknown fallback strategy: %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	logger.Info("fallback recommendations generated",
		zap.String("fallback_strategy", string(strategy)),
		zap.Int("count", len(results)),
	)

	return results, nil
}

// fromCategory recommends products sharing the target's category, scored
// descending within the category band.
func (g *FallbackGenerator) fromCategory(
	ctx context.Context,
	target *Product,
	limit int,
	excluded map[int64]struct{},
) ([]Recommendation, error) {
	// Fetch one extra row so the target's own presence does not shrink
	// the result set.
	candidates, err := g.catalog.FindByCategory(ctx, target.Category, limit+len(excluded))
	if err != nil {
		return nil, fmt.Errorf("category lookup failed: %w", err)
	}

	results := make([]Recommendation, 0, limit)
	for _, p := range candidates {
		if len(results) == limit {
			break
		}
		if _, skip := excluded[p.ID]; skip {
			continue
		}

		results = append(results, Recommendation{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price.String(),
			Score:     bandScore(categoryScoreBase, categoryScoreFloor, len(results)),
			Rank:      len(results) + 1,
			Explanation: fmt.Sprintf("From the same %s category as %s",
				target.Category, target.Name),
			Source: SourceCategory,
		})
	}

	return results, nil
}

// fromPopularity recommends popular products, scored descending within the
// popularity band.
func (g *FallbackGenerator) fromPopularity(
	ctx context.Context,
	limit int,
	excluded map[int64]struct{},
) ([]Recommendation, error) {
	candidates, err := g.ranker.Top(ctx, limit+len(excluded))
	if err != nil {
		return nil, fmt.Errorf("popularity lookup failed: %w", err)
	}

	results := make([]Recommendation, 0, limit)
	for _, p := range candidates {
		if len(results) == limit {
			break
		}
		if _, skip := excluded[p.ID]; skip {
			continue
		}

		results = append(results, Recommendation{
			ProductID:   p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Price:       p.Price.String(),
			Score:       bandScore(popularityScoreBase, popularityScoreFloor, len(results)),
			Rank:        len(results) + 1,
			Explanation: fmt.Sprintf("Popular with other shoppers: %s", p.Name),
			Source:      SourcePopularity,
		})
	}

	return results, nil
}

// hybrid allocates ceil(limit/2) slots to category matches and fills the
// remainder with popular products not already selected.
func (g *FallbackGenerator) hybrid(
	ctx context.Context,
	target *Product,
	limit int,
	excluded map[int64]struct{},
) ([]Recommendation, error) {
	categoryQuota := (limit + 1) / 2

	fromCategory, err := g.fromCategory(ctx, target, categoryQuota, excluded)
	if err != nil {
		return nil, err
	}

	if len(fromCategory) < categoryQuota {
		// Category pass underfilled; popularity silently covers the gap.
		observability.FromContext(ctx).Warn("category fallback underfilled",
			zap.Int("wanted", categoryQuota),
			zap.Int("got", len(fromCategory)),
		)
	}

	remainder := limit - len(fromCategory)
	if remainder == 0 {
		return fromCategory, nil
	}

	popularExcluded := make(map[int64]struct{}, len(excluded)+len(fromCategory))
	for id := range excluded {
		popularExcluded[id] = struct{}{}
	}
	for _, rec := range fromCategory {
		popularExcluded[rec.ProductID] = struct{}{}
	}

	fromPopular, err := g.fromPopularity(ctx, remainder, popularExcluded)
	if err != nil {
		return nil, err
	}

	merged := make([]Recommendation, 0, len(fromCategory)+len(fromPopular))
	merged = append(merged, fromCategory...)
	for _, rec := range fromPopular {
		rec.Rank = len(merged) + 1
		merged = append(merged, rec)
	}

	return merged, nil
}

// bandScore assigns a descending score within a fixed band, flooring at
// the band's lower edge.
func bandScore(base, floor float64, position int) float64 {
	score := base - fallbackScoreStep*float64(position)
	if score < floor {
		return floor
	}

	return score
}
