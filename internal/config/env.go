// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"

	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/space"
)

type AppConfig struct {
	CleanerEnvConfig
	ServerEnvConfig
	ClientEnvConfig
	Environment string `env:"ENVIRONMENT, default=prod"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &AppConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(cfg.Environment)

	log.Debug().
		Int("k", cfg.K).
		Int("jobs", cfg.Jobs).
		Str("method", cfg.Method).
		Str("environment", cfg.Environment).
		Msg("configuration loaded")
	return cfg, nil
}

// CleanerEnvConfig holds the selection engine hyperparameters.
type CleanerEnvConfig struct {
	K          int     `env:"CPCLEAN_K, default=3"`
	Jobs       int     `env:"CPCLEAN_JOBS, default=4"`
	Seed       uint64  `env:"CPCLEAN_SEED, default=1"`
	Eps        float64 `env:"CPCLEAN_EPS, default=1e-100"`
	SampleSize int     `env:"CPCLEAN_SAMPLE_SIZE, default=32"`
	Method     string  `env:"CPCLEAN_METHOD, default=cpclean"`
	WeightMode string  `env:"CPCLEAN_WEIGHT_MODE, default=uniform"`
}

// Options maps the environment onto cleaner options.
func (c *CleanerEnvConfig) Options() []cpclean.Option {
	return []cpclean.Option{
		cpclean.WithK(c.K),
		cpclean.WithJobs(c.Jobs),
		cpclean.WithSeed(c.Seed),
		cpclean.WithEps(c.Eps),
		cpclean.WithSampleSize(c.SampleSize),
	}
}

// BuildOptions maps the environment onto similarity space options.
func (c *CleanerEnvConfig) BuildOptions() ([]space.BuildOption, error) {
	mode, err := space.ParseWeightMode(c.WeightMode)
	if err != nil {
		return nil, err
	}
	return []space.BuildOption{space.WithWeightMode(mode)}, nil
}

// ServerEnvConfig configures the server.
type ServerEnvConfig struct {
	Address       string `env:"SERVER_ADDRESS, default=127.0.0.1"`
	Port          int    `env:"SERVER_PORT, default=8080"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT, default=67108864"`
}

// ClientEnvConfig configures the client.
type ClientEnvConfig struct {
	ServerURL     string        `env:"SERVER_URL, default=http://127.0.0.1:8080"`
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT, default=10m"`
	RetryMax      int           `env:"CLIENT_RETRY_MAX, default=3"`
	RetryWaitMin  time.Duration `env:"CLIENT_RETRY_WAIT_MIN, default=500ms"`
	RetryWaitMax  time.Duration `env:"CLIENT_RETRY_WAIT_MAX, default=20s"`
}
