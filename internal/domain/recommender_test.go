package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sibylcommerce/sibyl/internal/domain"
)

func newService(catalog *mockCatalog, ranker *mockRanker, opts domain.RecommenderOptions) *domain.RecommenderService {
	fallback := domain.NewFallbackGenerator(catalog, ranker)
	return domain.NewRecommenderService(catalog, fallback, opts)
}

func TestRecommenderService_LearnedPath(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

	results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, rec := range results {
		require.Equal(t, domain.SourceSimilarity, rec.Source)
		require.Equal(t, i+1, rec.Rank)
		require.NotEqual(t, int64(1), rec.ProductID)
	}
}

func TestRecommenderService_ThresholdSwitch(t *testing.T) {
	ctx := context.Background()

	t.Run("four products stays on fallback", func(t *testing.T) {
		items := electronicsAndBooks()[:4]
		svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

		results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)

		for _, rec := range results {
			require.NotEqual(t, domain.SourceSimilarity, rec.Source)
		}
	})

	t.Run("five products attempts the learned path", func(t *testing.T) {
		items := electronicsAndBooks()
		svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

		results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		require.Equal(t, domain.SourceSimilarity, results[0].Source)
	})
}

func TestRecommenderService_ColdStart(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

	// Unknown product: popularity-flavored results, no error.
	results, err := svc.Generate(ctx, 999, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, rec := range results {
		require.Equal(t, domain.SourcePopularity, rec.Source)
	}
}

func TestRecommenderService_ColdStartEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	svc := newService(&mockCatalog{}, &mockRanker{}, domain.RecommenderOptions{})

	results, err := svc.Generate(ctx, 999, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestRecommenderService_ForceFallback(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

	results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{ForceFallback: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, rec := range results {
		require.NotEqual(t, domain.SourceSimilarity, rec.Source)
	}
}

func TestRecommenderService_StrategyOverride(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

	results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{
		ForceFallback: true,
		Strategy:      domain.StrategyPopularity,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, rec := range results {
		require.Equal(t, domain.SourcePopularity, rec.Source)
	}
}

func TestRecommenderService_TopUpMergesWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	items := []*domain.Product{
		product(1, "Amp", "Electronics", 10000),
		product(2, "Bridge", "Electronics", 12000),
		product(3, "Cable", "Electronics", 9000),
		product(4, "Dock", "Electronics", 11000),
		product(5, "Essays", "Books", 1500),
		product(6, "Poems", "Books", 1200),
		product(7, "Atlas", "Books", 3000),
	}
	// Neighbor pool of 3 cannot satisfy a limit of 5 on its own.
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items},
		domain.RecommenderOptions{Neighbors: 3})

	results, err := svc.Generate(ctx, 1, 5, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, results, 5)

	seen := map[int64]struct{}{}
	learnedDone := false
	for i, rec := range results {
		require.Equal(t, i+1, rec.Rank, "ranks must be contiguous")
		require.NotEqual(t, int64(1), rec.ProductID)

		_, dup := seen[rec.ProductID]
		require.False(t, dup, "merged results must not repeat a product")
		seen[rec.ProductID] = struct{}{}

		// Learned results come first, fallback appended after.
		if rec.Source == domain.SourceSimilarity {
			require.False(t, learnedDone, "learned results must precede fallback")
		} else {
			learnedDone = true
		}
	}

	require.Equal(t, domain.SourceSimilarity, results[0].Source)
	require.True(t, learnedDone, "top-up must have contributed results")
}

func TestRecommenderService_FallbackScoresBelowLearned(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items},
		domain.RecommenderOptions{Neighbors: 3})

	results, err := svc.Generate(ctx, 1, 5, domain.GenerateOptions{})
	require.NoError(t, err)

	var minLearned, maxFallback float64 = 101, -1
	for _, rec := range results {
		if rec.Source == domain.SourceSimilarity {
			if rec.Score < minLearned {
				minLearned = rec.Score
			}
		} else if rec.Score > maxFallback {
			maxFallback = rec.Score
		}
	}

	require.Less(t, maxFallback, minLearned)
}

func TestRecommenderService_SnapshotCachedAcrossCalls(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	catalog := &mockCatalog{products: items}
	svc := newService(catalog, &mockRanker{products: items}, domain.RecommenderOptions{})

	_, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	callsAfterFirst := catalog.findAllCalls
	require.Positive(t, callsAfterFirst)

	_, err = svc.Generate(ctx, 2, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, callsAfterFirst, catalog.findAllCalls, "second call must reuse the cached snapshot")

	svc.ClearCache()

	_, err = svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Greater(t, catalog.findAllCalls, callsAfterFirst, "clear must force a reload")
}

func TestRecommenderService_ClearCacheIdempotent(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	svc := newService(&mockCatalog{products: items}, &mockRanker{products: items}, domain.RecommenderOptions{})

	// Clearing an empty cache is a no-op.
	svc.ClearCache()
	svc.ClearCache()

	results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestRecommenderService_SnapshotFailureDegradesToFallback(t *testing.T) {
	ctx := context.Background()
	items := electronicsAndBooks()
	catalog := &mockCatalog{products: items, findAllErr: errors.New("disk gone")}
	svc := newService(catalog, &mockRanker{products: items}, domain.RecommenderOptions{})

	results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, rec := range results {
		require.NotEqual(t, domain.SourceSimilarity, rec.Source)
	}
}

func TestRecommenderService_TotalFailureReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	catalog := &mockCatalog{
		products:    electronicsAndBooks(),
		findAllErr:  errors.New("disk gone"),
		findByIDErr: errors.New("disk gone"),
	}
	svc := newService(catalog, &mockRanker{}, domain.RecommenderOptions{})

	results, err := svc.Generate(ctx, 1, 3, domain.GenerateOptions{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestRecommenderService_InvalidLimit(t *testing.T) {
	svc := newService(&mockCatalog{}, &mockRanker{}, domain.RecommenderOptions{})

	_, err := svc.Generate(context.Background(), 1, 0, domain.GenerateOptions{})
	require.Error(t, err)
}
