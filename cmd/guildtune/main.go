package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/handlers"
	"github.com/sonroyaalmerol/guildtune/internal/repository"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := repository.OpenDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	bot := handlers.NewBot(cfg, repository.NewRepo(db))
	if err := bot.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
