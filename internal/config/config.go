package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Config represents the recommender service configuration.
type Config struct {
	Server      ServerConfig
	CORS        CORSConfig
	Catalog     CatalogConfig
	Redis       RedisConfig
	Recommender RecommenderConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// CatalogConfig selects and configures the product catalog store.
type CatalogConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `env:"CATALOG_DRIVER"  envDefault:"sqlite"`
	DBPath string `env:"CATALOG_DB_PATH" envDefault:"data/catalog.db"`
}

// RedisConfig configures the optional Redis-backed popularity ranker.
// An empty Addr disables it and the randomized sampler is used instead.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RecommenderConfig contains recommendation generation settings.
type RecommenderConfig struct {
	FallbackStrategy string `env:"RECS_FALLBACK_STRATEGY" envDefault:"hybrid"`
	MinProducts      int    `env:"RECS_MIN_PRODUCTS"      envDefault:"5"`
	Neighbors        int    `env:"RECS_NEIGHBORS"         envDefault:"5"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*CatalogConfig
	*RedisConfig
	*RecommenderConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Catalog,
		&cfg.Redis,
		&cfg.Recommender,
	}
}
