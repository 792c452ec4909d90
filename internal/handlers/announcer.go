package handlers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/repository"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/ui"
)

// Announcer posts a now-playing message in the text channel a guild last
// queued from, and deletes it when the track ends.
type Announcer struct {
	session *discordgo.Session
	repo    *repository.Repo
	emojis  ui.Emojis

	mu       sync.Mutex
	channels map[string]string
}

func NewAnnouncer(session *discordgo.Session, repo *repository.Repo, emojis ui.Emojis) *Announcer {
	return &Announcer{
		session:  session,
		repo:     repo,
		emojis:   emojis,
		channels: make(map[string]string),
	}
}

func (a *Announcer) SetChannel(guildID, channelID string) {
	a.mu.Lock()
	a.channels[guildID] = channelID
	a.mu.Unlock()
}

func (a *Announcer) channel(guildID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channels[guildID]
}

func (a *Announcer) TrackStarted(guildID string, t resolver.Track) func() {
	chID := a.channel(guildID)
	if chID == "" {
		return nil
	}
	set, err := a.repo.GetSettings(context.Background(), guildID)
	if err == nil && !set.AnnounceNowPlaying {
		return nil
	}

	msg, err := a.session.ChannelMessageSendEmbed(chID, ui.NowPlayingEmbed(t, a.emojis))
	if err != nil {
		slog.Warn("announce failed", "guildID", guildID, "channelID", chID, "err", err)
		return nil
	}
	return func() {
		if err := a.session.ChannelMessageDelete(chID, msg.ID); err != nil {
			slog.Debug("delete announcement failed", "guildID", guildID, "channelID", chID, "err", err)
		}
	}
}
