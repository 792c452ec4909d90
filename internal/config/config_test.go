package config_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sonroyaalmerol/guildtune/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "")
		t.Setenv("DATA_DIR", t.TempDir())

		_, err := config.LoadConfig(context.Background())
		var cfgErr config.ErrConfig
		if !errors.As(err, &cfgErr) {
			t.Fatalf("LoadConfig() error = %v, want ErrConfig", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("DISCORD_TOKEN", "token")
		t.Setenv("DATA_DIR", dir)
		unsetenv(t, "FFMPEG_PATH")
		t.Setenv("SPOTIFY_CLIENT_ID", "")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "")

		cfg, err := config.LoadConfig(context.Background())
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.DataDir != dir {
			t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
		}
		if cfg.FFmpegPath != "ffmpeg" {
			t.Errorf("FFmpegPath = %q, want %q", cfg.FFmpegPath, "ffmpeg")
		}
		if cfg.SpotifyEnabled() {
			t.Error("SpotifyEnabled() = true, want false")
		}
	})

	t.Run("cli does not need a token", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "")
		t.Setenv("DATA_DIR", t.TempDir())
		t.Setenv("SPOTIFY_CLIENT_ID", "id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")

		cfg, err := config.LoadCLIConfig(context.Background())
		if err != nil {
			t.Fatalf("LoadCLIConfig() error = %v", err)
		}
		if !cfg.SpotifyEnabled() {
			t.Error("SpotifyEnabled() = false, want true")
		}
	})
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &config.Config{LogLevel: tt.in}
			if got := cfg.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
}
