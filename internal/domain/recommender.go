package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sibylcommerce/sibyl/internal/observability"
)

const (
	// DefaultMinProducts is the minimum catalog size for the learned path.
	DefaultMinProducts = 5

	// DefaultNeighbors is the default candidate pool size for training.
	DefaultNeighbors = 5

	snapshotPageSize = 100
)

// RecommenderOptions tunes the orchestrator. The zero value selects the
// hybrid fallback strategy, DefaultMinProducts and DefaultNeighbors.
type RecommenderOptions struct {
	DefaultStrategy Strategy
	MinProducts     int
	Neighbors       int
}

func (o RecommenderOptions) withDefaults() RecommenderOptions {
	if o.DefaultStrategy == "" {
		o.DefaultStrategy = StrategyHybrid
	}
	if o.MinProducts < 1 {
		o.MinProducts = DefaultMinProducts
	}
	if o.Neighbors < 1 {
		o.Neighbors = DefaultNeighbors
	}

	return o
}

// GenerateOptions carries per-request overrides for Generate.
type GenerateOptions struct {
	// ForceFallback skips the learned path entirely.
	ForceFallback bool

	// Strategy overrides the configured fallback strategy when non-empty.
	Strategy Strategy
}

// RecommenderService is the single public entry point for recommendation
// generation. It owns the model lifecycle (lazy train, explicit cache
// clear), decides learned-vs-fallback per request, merges and deduplicates
// results, and guarantees that a well-formed request never surfaces an
// internal error: every failure inside Generate degrades to a best-effort
// fallback or an empty list.
//
// The cached snapshot and trained model are guarded by a mutex, so one
// service instance may be shared across concurrent requests.
type RecommenderService struct {
	catalog  ProductCatalog
	fallback *FallbackGenerator
	opts     RecommenderOptions

	mu       sync.RWMutex
	snapshot []*Product
	model    *Model
}

// NewRecommenderService creates a recommendation orchestrator (DI constructor).
func NewRecommenderService(
	catalog ProductCatalog,
	fallback *FallbackGenerator,
	opts RecommenderOptions,
) *RecommenderService {
	return &RecommenderService{
		catalog:  catalog,
		fallback: fallback,
		opts:     opts.withDefaults(),
	}
}

// Generate returns up to limit ranked recommendations for the given
// product. The only caller-visible error is malformed input; a missing
// product degrades to cold-start popularity results and internal failures
// degrade to fallback or an empty list.
func (s *RecommenderService) Generate(
	ctx context.Context,
	productID int64,
	limit int,
	opts GenerateOptions,
) ([]Recommendation, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	strategy := s.opts.DefaultStrategy
	if opts.Strategy != "" {
		strategy = opts.Strategy
	}

	ctx = observability.WithProductID(ctx, productID)
	ctx = observability.WithStrategy(ctx, string(strategy))
	logger := observability.FromContext(ctx)

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		logger.Error("catalog snapshot load failed", zap.Error(err))
		return s.degrade(ctx, productID, limit, strategy), nil
	}

	target, err := s.catalog.FindByID(ctx, productID)
	if errors.Is(err, ErrProductNotFound) {
		// Cold start: unknown product, recommend what is popular.
		logger.Info("target product not found, serving cold-start fallback")
		recs, fbErr := s.fallback.Generate(ctx, nil, limit, StrategyPopularity, productID)
		if fbErr != nil {
			logger.Error("cold-start fallback failed", zap.Error(fbErr))
			return []Recommendation{}, nil
		}
		return rerank(recs), nil
	}
	if err != nil {
		logger.Error("target product lookup failed", zap.Error(err))
		return s.degrade(ctx, productID, limit, strategy), nil
	}

	if opts.ForceFallback || len(snapshot) < s.opts.MinProducts {
		logger.Info("using rule-based fallback",
			zap.Bool("forced", opts.ForceFallback),
			zap.Int("catalog_size", len(snapshot)),
			zap.Int("min_products", s.opts.MinProducts),
		)
		recs, fbErr := s.fallback.Generate(ctx, target, limit, strategy)
		if fbErr != nil {
			logger.Error("fallback generation failed", zap.Error(fbErr))
			return []Recommendation{}, nil
		}
		return rerank(recs), nil
	}

	model, err := s.ensureTrained(ctx, snapshot)
	if err != nil {
		logger.Error("model training failed", zap.Error(err))
		return s.degrade(ctx, productID, limit, strategy), nil
	}

	learned := model.Recommend(target, limit)

	if len(learned) < limit {
		learned = s.topUp(ctx, target, learned, limit, strategy)
	}

	return rerank(learned), nil
}

// ClearCache drops the cached catalog snapshot and the trained model so
// the next Generate call reloads and retrains from scratch. Safe to call
// when nothing is cached.
func (s *RecommenderService) ClearCache() {
	s.mu.Lock()
	s.snapshot = nil
	s.model = nil
	s.mu.Unlock()
}

// loadSnapshot returns the cached catalog snapshot, paging through the
// full catalog on first use.
func (s *RecommenderService) loadSnapshot(ctx context.Context) ([]*Product, error) {
	s.mu.RLock()
	cached := s.snapshot
	s.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}

	var snapshot []*Product
	for offset := 0; ; offset += snapshotPageSize {
		page, err := s.catalog.FindAll(ctx, snapshotPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("catalog page at offset %d: %w", offset, err)
		}

		snapshot = append(snapshot, page...)
		if len(page) < snapshotPageSize {
			break
		}
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	return snapshot, nil
}

// ensureTrained returns the current trained model, training one from the
// snapshot if none exists. Training replaces any prior model wholesale.
func (s *RecommenderService) ensureTrained(ctx context.Context, snapshot []*Product) (*Model, error) {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()

	if model != nil {
		return model, nil
	}

	model, err := TrainModel(snapshot, s.opts.Neighbors)
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("similarity model trained",
		zap.Int("products", model.Size()),
		zap.Int("neighbors", model.Neighbors()),
	)

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	return model, nil
}

// topUp appends fallback results for the shortfall left by the learned
// path, excluding the target and anything already recommended.
func (s *RecommenderService) topUp(
	ctx context.Context,
	target *Product,
	learned []Recommendation,
	limit int,
	strategy Strategy,
) []Recommendation {
	logger := observability.FromContext(ctx)
	logger.Info("learned path returned short, topping up via fallback",
		zap.Int("learned", len(learned)),
		zap.Int("limit", limit),
	)

	exclude := make([]int64, 0, len(learned))
	for _, rec := range learned {
		exclude = append(exclude, rec.ProductID)
	}

	extra, err := s.fallback.Generate(ctx, target, limit-len(learned), strategy, exclude...)
	if err != nil {
		logger.Warn("top-up fallback failed, returning learned results only",
			zap.Error(err))
		return learned
	}

	return append(learned, extra...)
}

// degrade is the catch-all conversion of internal failures into a
// best-effort fallback response. The target is re-fetched; if even that
// fails the caller gets an empty list rather than an error.
func (s *RecommenderService) degrade(
	ctx context.Context,
	productID int64,
	limit int,
	strategy Strategy,
) []Recommendation {
	logger := observability.FromContext(ctx)

	target, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		logger.Error("degraded path could not fetch target, returning empty result",
			zap.Error(err))
		return []Recommendation{}
	}

	recs, err := s.fallback.Generate(ctx, target, limit, strategy)
	if err != nil {
		logger.Error("degraded fallback failed, returning empty result",
			zap.Error(err))
		return []Recommendation{}
	}

	return rerank(recs)
}

// rerank rewrites ranks to a contiguous 1..n over the merged sequence.
func rerank(recs []Recommendation) []Recommendation {
	ranked := make([]Recommendation, len(recs))
	for i, rec := range recs {
		rec.Rank = i + 1
		ranked[i] = rec
	}

	return ranked
}
