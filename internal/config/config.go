package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// loadEnv reads a .env file from the working directory when one exists.
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func load(ctx context.Context) (*Config, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &cfg, nil
}

// LoadConfig loads the bot configuration. DISCORD_TOKEN is required.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.DiscordToken == "" {
		return nil, ErrConfig("DISCORD_TOKEN required")
	}
	return cfg, nil
}

// LoadCLIConfig is LoadConfig without the Discord requirements.
func LoadCLIConfig(ctx context.Context) (*Config, error) {
	return load(ctx)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
