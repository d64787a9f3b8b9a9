package main

import (
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/sibylcommerce/sibyl/internal/catalog/memory"
	"github.com/sibylcommerce/sibyl/internal/catalog/sqlite"
	"github.com/sibylcommerce/sibyl/internal/config"
	"github.com/sibylcommerce/sibyl/internal/domain"
	"github.com/sibylcommerce/sibyl/internal/http"
	"github.com/sibylcommerce/sibyl/internal/http/middleware"
	"github.com/sibylcommerce/sibyl/internal/observability"
	"github.com/sibylcommerce/sibyl/internal/popularity/random"
	redisrank "github.com/sibylcommerce/sibyl/internal/popularity/redis"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Product catalog store
	if err := container.Provide(func(cfg *config.CatalogConfig) (domain.ProductCatalog, error) {
		switch cfg.Driver {
		case "sqlite":
			return sqlite.NewStore(cfg.DBPath)
		case "memory":
			return memory.NewStore(), nil
		default:
			return nil, fmt.Errorf("unknown catalog driver: %q", cfg.Driver)
		}
	}); err != nil {
		log.Fatalf("Failed to provide product catalog: %v", err)
	}

	// Popularity ranker: Redis view counters when configured, otherwise
	// the randomized-sample placeholder.
	if err := container.Provide(func(
		cfg *config.RedisConfig,
		catalog domain.ProductCatalog,
	) domain.PopularityRanker {
		if cfg.Addr == "" {
			return random.NewRanker(catalog, randomSeed())
		}

		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		return redisrank.NewRanker(client, catalog)
	}); err != nil {
		log.Fatalf("Failed to provide popularity ranker: %v", err)
	}

	// Domain services
	if err := container.Provide(domain.NewFallbackGenerator); err != nil {
		log.Fatalf("Failed to provide fallback generator: %v", err)
	}
	if err := container.Provide(func(
		catalog domain.ProductCatalog,
		fallback *domain.FallbackGenerator,
		cfg *config.RecommenderConfig,
	) (*domain.RecommenderService, error) {
		strategy, err := domain.ParseStrategy(cfg.FallbackStrategy)
		if err != nil {
			return nil, err
		}

		return domain.NewRecommenderService(catalog, fallback, domain.RecommenderOptions{
			DefaultStrategy: strategy,
			MinProducts:     cfg.MinProducts,
			Neighbors:       cfg.Neighbors,
		}), nil
	}); err != nil {
		log.Fatalf("Failed to provide recommender service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

func randomSeed() int64 {
	return time.Now().UnixNano()
}
