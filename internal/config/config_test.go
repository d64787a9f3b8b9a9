package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sibylcommerce/sibyl/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 30, cfg.Server.WriteTimeout)
		require.Equal(t, "sqlite", cfg.Catalog.Driver)
		require.Equal(t, "data/catalog.db", cfg.Catalog.DBPath)
		require.Empty(t, cfg.Redis.Addr)
		require.Equal(t, "hybrid", cfg.Recommender.FallbackStrategy)
		require.Equal(t, 5, cfg.Recommender.MinProducts)
		require.Equal(t, 5, cfg.Recommender.Neighbors)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("SERVER_READ_TIMEOUT", "60")
		t.Setenv("SERVER_WRITE_TIMEOUT", "60")
		t.Setenv("CATALOG_DRIVER", "memory")
		t.Setenv("CATALOG_DB_PATH", "/tmp/test.db")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("RECS_FALLBACK_STRATEGY", "popularity")
		t.Setenv("RECS_MIN_PRODUCTS", "10")
		t.Setenv("RECS_NEIGHBORS", "8")

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, 60, cfg.Server.ReadTimeout)
		require.Equal(t, 60, cfg.Server.WriteTimeout)
		require.Equal(t, "memory", cfg.Catalog.Driver)
		require.Equal(t, "/tmp/test.db", cfg.Catalog.DBPath)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, "popularity", cfg.Recommender.FallbackStrategy)
		require.Equal(t, 10, cfg.Recommender.MinProducts)
		require.Equal(t, 8, cfg.Recommender.Neighbors)
	})
}
