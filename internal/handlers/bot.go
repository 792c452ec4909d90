package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/autocomplete"
	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/repository"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/stream"
	"github.com/sonroyaalmerol/guildtune/internal/ui"
)

const shutdownTimeout = 10 * time.Second

type Bot struct {
	cfg      *config.Config
	repo     *repository.Repo
	resolver *resolver.Resolver
}

func NewBot(cfg *config.Config, repo *repository.Repo) *Bot {
	// no overall timeout: response bodies are live audio streams
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = 15 * time.Second
	res := resolver.New(cfg, resolver.WithHTTPClient(&http.Client{Transport: transport}))
	return &Bot{cfg: cfg, repo: repo, resolver: res}
}

func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	announcer := NewAnnouncer(dg, b.repo, ui.EmojisFromConfig(b.cfg))
	registry := player.NewRegistry(player.Deps{
		Streams:    b.resolver,
		Transcoder: stream.FFmpeg{Path: b.cfg.FFmpegPath, Logger: slog.Default()},
		Voice:      &stream.DiscordConnector{Session: dg},
		Announcer:  announcer,
		Logger:     slog.Default(),
	})
	suggester := &autocomplete.Suggester{
		HTTP:    &http.Client{Timeout: 2 * time.Second},
		Spotify: b.resolver.Spotify,
	}
	cmd := NewCommandHandler(b.cfg, b.repo, registry, b.resolver, suggester, announcer)

	// On ready: register commands depending on configuration
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("connected", "user", s.State.User.Username)
		b.updateStatus(s)
		appID := s.State.User.ID

		if b.cfg.RegisterCommandsOnBot {
			if err := cmd.RegisterCommands(s, appID, ""); err != nil {
				slog.Error("register global commands", "err", err)
			} else {
				slog.Info("registered global application commands")
			}
			return
		}

		var wg sync.WaitGroup
		for _, g := range s.State.Guilds {
			wg.Add(1)
			go func(guildID string) {
				defer wg.Done()
				if err := cmd.RegisterCommands(s, appID, guildID); err != nil {
					slog.Error("register guild commands", "guild", guildID, "err", err)
				}
			}(g.ID)
		}
		wg.Wait()

		if _, err := s.ApplicationCommandBulkOverwrite(appID, "", []*discordgo.ApplicationCommand{}); err != nil {
			slog.Error("clear global commands", "err", err)
		} else {
			slog.Info("cleared global application commands")
		}
		slog.Info("registered commands on all guilds")
	})

	// If registering per-guild, register on new guilds too
	dg.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if b.cfg.RegisterCommandsOnBot {
			return
		}
		if err := cmd.RegisterCommands(s, s.State.User.ID, g.ID); err != nil {
			slog.Error("register guild commands on join", "guild", g.ID, "err", err)
		}
	})

	dg.AddHandler(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			return
		}
		if registry.Remove(g.ID) {
			slog.Info("left guild, engine removed", "guild", g.ID)
		}
	})

	dg.AddHandler(cmd.HandleInteraction)

	dg.AddHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		b.onVoiceStateUpdate(s, vs, registry)
	})

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	<-ctx.Done()
	slog.Info("shutting down", "engines", registry.Len())

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := registry.Shutdown(sctx); err != nil {
		slog.Warn("engines did not stop in time", "err", err)
	}
	return nil
}

func (b *Bot) updateStatus(s *discordgo.Session) {
	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: b.cfg.BotStatus,
		Activities: []*discordgo.Activity{
			{Name: b.cfg.BotActivity, Type: discordgo.ActivityTypeListening},
		},
	})
	if err != nil {
		slog.Warn("update status failed", "err", err)
	}
}

// onVoiceStateUpdate tells the registry when the last listener leaves the
// channel an engine is playing in.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate, registry *player.Registry) {
	if vs.BeforeUpdate == nil || vs.BeforeUpdate.ChannelID == "" || vs.BeforeUpdate.ChannelID == vs.ChannelID {
		return
	}
	gid, chID := vs.GuildID, vs.BeforeUpdate.ChannelID

	e := registry.Peek(gid)
	if e == nil || e.ConnectedChannel() != chID {
		return
	}
	set, err := b.repo.GetSettings(context.Background(), gid)
	if err == nil && !set.LeaveIfNoListeners {
		return
	}
	if getNonBotSize(s, gid, chID) > 0 {
		return
	}
	if registry.ChannelEmptied(gid, chID) {
		slog.Info("no listeners left, engine removed", "guildID", gid, "channelID", chID)
	}
}

func getNonBotSize(s *discordgo.Session, guildID, channelID string) int {
	g, _ := s.State.Guild(guildID)
	if g == nil {
		return 0
	}
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		m := vs.Member
		if m == nil {
			m, _ = s.State.Member(guildID, vs.UserID)
		}
		switch {
		case m != nil && m.User != nil:
			if !m.User.Bot {
				n++
			}
		case s.State.User == nil || vs.UserID != s.State.User.ID:
			// unknown member, assume a listener
			n++
		}
	}
	return n
}
