package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/repository"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/stream"
	"github.com/urfave/cli/v2"
)

const cliGuild = "cli"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadCLIConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	var res *resolver.Resolver

	app := &cli.App{
		Name:        "guildtune-cli",
		Description: "A development CLI for resolving and playing tracks without Discord",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-tracks", Usage: "max tracks read from one playlist", Value: resolver.DefaultMaxTracks},
		},
		Before: func(c *cli.Context) error {
			res = resolver.New(cfg, resolver.WithMaxTracks(c.Int("max-tracks")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "Resolve a link or search query and print the tracks",
				ArgsUsage: "<query or URL>",
				Action: func(c *cli.Context) error {
					input := c.Args().First()
					if input == "" {
						return cli.Exit("Please provide a query or URL", 1)
					}
					fmt.Printf("kind: %s\n", resolver.Classify(input))

					tracks, err := res.Resolve(c.Context, input)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					for i, t := range tracks {
						fmt.Printf("%3d. %s [%s] %s\n", i+1, t, t.Duration, t.URL)
					}
					return nil
				},
			},
			{
				Name:      "render",
				Usage:     "Play a query through the playback engine into raw s16le PCM",
				ArgsUsage: "<query or URL>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, - for stdout", Value: "-"},
					&cli.BoolFlag{Name: "realtime", Usage: "pace output to playback speed"},
					&cli.BoolFlag{Name: "shuffle", Usage: "shuffle resolved tracks"},
					&cli.IntFlag{Name: "limit", Usage: "max tracks to play, 0 for all"},
				},
				Action: func(c *cli.Context) error {
					input := c.Args().First()
					if input == "" {
						return cli.Exit("Please provide a query or URL", 1)
					}
					w, closeOut, err := openOutput(c.String("out"))
					if err != nil {
						return cli.Exit("Failed to open output: "+err.Error(), 1)
					}
					defer closeOut()

					tracks, err := res.Resolve(c.Context, input)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if n := c.Int("limit"); n > 0 && len(tracks) > n {
						tracks = tracks[:n]
					}

					e := player.NewEngine(cliGuild, player.Deps{
						Streams:    res,
						Transcoder: stream.FFmpeg{Path: cfg.FFmpegPath, Logger: slog.Default()},
						Voice:      &stream.FileConnector{W: w, Realtime: c.Bool("realtime")},
						Announcer:  printer{},
						Logger:     slog.Default(),
					})
					if _, err := e.Enqueue(c.String("out"), tracks, false, c.Bool("shuffle")); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if err := e.Wait(c.Context); err != nil {
						e.Reset()
						return cli.Exit("Interrupted", 130)
					}
					return nil
				},
			},
			{
				Name:  "favorites",
				Usage: "List the saved favorites of a guild",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "guild-id", Usage: "ID of the guild to list favorites for", Required: true},
				},
				Action: func(c *cli.Context) error {
					db, err := repository.OpenDB(cfg)
					if err != nil {
						return cli.Exit("Failed to open database: "+err.Error(), 1)
					}
					defer db.Close()

					favs, err := repository.NewFavoritesService(repository.NewRepo(db)).List(c.Context, c.String("guild-id"))
					if err != nil {
						return cli.Exit("Failed to list favorites: "+err.Error(), 1)
					}
					if len(favs) == 0 {
						log.Println("No favorites found for the specified guild.")
						return nil
					}
					for _, f := range favs {
						fmt.Printf("%s\t%s\t%s\n", f.Name, f.Query, f.Author)
					}
					return nil
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// printer announces tracks on stderr so stdout can carry audio.
type printer struct{}

func (printer) TrackStarted(_ string, t resolver.Track) func() {
	fmt.Fprintf(os.Stderr, "now playing: %s\n", t)
	return nil
}
