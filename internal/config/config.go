package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/playperu/geohunt/internal/media"
)

const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	WebDir   string     `env:"WEB_DIR" envDefault:"../web/dist"`
	SeedDemo bool       `env:"SEED_DEMO" envDefault:"false"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"data/geohunt.db"`
	MongoURI     string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string `env:"MONGO_DB" envDefault:"geohunt"`

	TaskRadiusKm       float64 `env:"TASK_RADIUS_KM" envDefault:"25"`
	MaxDistanceKm      float64 `env:"MAX_DISTANCE_KM" envDefault:"0.1"`
	Debug              bool    `env:"DEBUG" envDefault:"false"`
	DebugMaxDistanceKm float64 `env:"DEBUG_MAX_DISTANCE_KM" envDefault:"1000"`

	Media           media.Config  `envPrefix:"MEDIA_"`
	MediaRetries    int           `env:"MEDIA_RETRIES" envDefault:"10"`
	MediaRetryDelay time.Duration `env:"MEDIA_RETRY_DELAY" envDefault:"3s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.StoreBackend != BackendSQLite && cfg.StoreBackend != BackendMongo {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendMongo, cfg.StoreBackend)
	}
	if cfg.MediaRetries < 0 {
		return nil, fmt.Errorf("MEDIA_RETRIES must not be negative, got %d", cfg.MediaRetries)
	}
	return &cfg, nil
}

// GeofenceKm is the completion radius in effect: the wide debug radius when
// DEBUG is set.
func (c *Config) GeofenceKm() float64 {
	if c.Debug {
		return c.DebugMaxDistanceKm
	}
	return c.MaxDistanceKm
}

func (c *Config) MediaRetry() media.RetryPolicy {
	return media.RetryPolicy{Retries: c.MediaRetries, Delay: c.MediaRetryDelay}
}
