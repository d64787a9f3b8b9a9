package random_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sibylcommerce/sibyl/internal/catalog/memory"
	"github.com/sibylcommerce/sibyl/internal/domain"
	"github.com/sibylcommerce/sibyl/internal/popularity/random"
)

func seededCatalog(t *testing.T, n int) *memory.Store {
	t.Helper()

	store := memory.NewStore()
	ctx := context.Background()
	names := []string{"Amp", "Bridge", "Cable", "Dock", "Essays", "Flute"}

	for i := 0; i < n; i++ {
		_, err := store.Create(ctx, &domain.Product{
			Name:     names[i%len(names)],
			Slug:     names[i%len(names)],
			Category: "Electronics",
			Price:    domain.NewMoney(int64(1000*(i+1)), "USD"),
		})
		require.NoError(t, err)
	}

	return store
}

func TestRanker_Top(t *testing.T) {
	ctx := context.Background()
	catalog := seededCatalog(t, 6)
	ranker := random.NewRanker(catalog, 42)

	top, err := ranker.Top(ctx, 4)
	require.NoError(t, err)
	require.Len(t, top, 4)

	// Every returned product exists in the catalog, none repeats.
	seen := map[int64]struct{}{}
	for _, p := range top {
		_, dup := seen[p.ID]
		require.False(t, dup)
		seen[p.ID] = struct{}{}

		_, err := catalog.FindByID(ctx, p.ID)
		require.NoError(t, err)
	}
}

func TestRanker_TopSmallCatalog(t *testing.T) {
	ctx := context.Background()
	ranker := random.NewRanker(seededCatalog(t, 2), 42)

	top, err := ranker.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
}

func TestRanker_TopEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	ranker := random.NewRanker(memory.NewStore(), 42)

	top, err := ranker.Top(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestRanker_TopZeroLimit(t *testing.T) {
	ctx := context.Background()
	ranker := random.NewRanker(seededCatalog(t, 3), 42)

	top, err := ranker.Top(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestRanker_SeededDeterminism(t *testing.T) {
	ctx := context.Background()
	catalog := seededCatalog(t, 6)

	first, err := random.NewRanker(catalog, 7).Top(ctx, 6)
	require.NoError(t, err)

	second, err := random.NewRanker(catalog, 7).Top(ctx, 6)
	require.NoError(t, err)

	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
	}
}
