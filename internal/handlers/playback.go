package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/ui"
)

const resolveTimeout = 2 * time.Minute

const (
	msgNotInVoice   = "gotta be in a voice channel"
	msgNothingThere = "nothing is playing"
)

func (h *CommandHandler) cmdPlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionsOf(i.ApplicationCommandData().Options)
	h.enqueue(s, i, opts.str("query"), opts.boolean("top"), opts.boolean("shuffle"))
}

// enqueue resolves query and adds the result to the guild's queue,
// starting playback when the guild was idle.
func (h *CommandHandler) enqueue(s *discordgo.Session, i *discordgo.InteractionCreate, query string, top, shuffle bool) {
	guildID := i.GuildID
	chID, ok := userInVoice(s, guildID, userIDOf(i))
	if !ok {
		h.reply(s, i, msgNotInVoice, true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	set := h.settings(ctx, guildID)
	h.deferReply(s, i, set.QAddEphemeral)

	start := time.Now()
	tracks, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		slog.Info("resolve failed", "guildID", guildID, "query", query, "err", err)
		h.editReply(s, i, resolveErrorMessage(err))
		return
	}
	if set.PlaylistLimit > 0 && len(tracks) > set.PlaylistLimit {
		tracks = tracks[:set.PlaylistLimit]
	}
	slog.Debug("resolved", "guildID", guildID, "tracks", len(tracks), "took", time.Since(start))

	h.announcer.SetChannel(guildID, i.ChannelID)

	var pos int
	for range 2 {
		// a reset between GetOrCreate and Enqueue leaves a closed engine behind
		pos, err = h.registry.GetOrCreate(guildID).Enqueue(chID, tracks, top, shuffle)
		if !errors.Is(err, player.ErrEngineClosed) {
			break
		}
	}
	if err != nil {
		slog.Warn("enqueue failed", "guildID", guildID, "err", err)
		h.editReply(s, i, "couldn't queue that, try again")
		return
	}
	slog.Info("cmd play", "guildID", guildID, "userID", userIDOf(i), "tracks", len(tracks), "position", pos)
	h.editReply(s, i, enqueueMessage(tracks, pos, h.emojis))
}

func (h *CommandHandler) cmdPlayPrevious(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionsOf(i.ApplicationCommandData().Options)
	chID, ok := userInVoice(s, i.GuildID, userIDOf(i))
	if !ok {
		h.reply(s, i, msgNotInVoice, true)
		return
	}
	e := h.registry.Peek(i.GuildID)
	if e == nil {
		h.reply(s, i, "nothing has been played yet", true)
		return
	}
	h.announcer.SetChannel(i.GuildID, i.ChannelID)

	index := opts.integer("index", 1)
	t, err := e.PlayPrevious(chID, index-1, opts.boolean("top"))
	switch {
	case errors.Is(err, player.ErrNoHistoryEntry):
		h.reply(s, i, "no song at that position in /previous", true)
	case err != nil:
		slog.Warn("play previous failed", "guildID", i.GuildID, "err", err)
		h.reply(s, i, "couldn't queue that, try again", true)
	default:
		slog.Info("cmd play-previous", "guildID", i.GuildID, "userID", userIDOf(i), "index", index)
		h.reply(s, i, "queued "+h.emojis.Name(t)+" again", false)
	}
}

func (h *CommandHandler) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	count := optionsOf(i.ApplicationCommandData().Options).integer("count", 1)
	e := h.registry.Peek(i.GuildID)
	if e == nil {
		h.reply(s, i, msgNothingThere, true)
		return
	}
	if count <= 1 {
		if !e.Skip() {
			h.reply(s, i, msgNothingThere, true)
			return
		}
		slog.Info("cmd skip", "guildID", i.GuildID, "userID", userIDOf(i))
		h.reply(s, i, skipMessage(1), false)
		return
	}
	removed, skipped := e.SkipMany(count)
	if !skipped {
		h.reply(s, i, "no songs to skip to", true)
		return
	}
	slog.Info("cmd skip", "guildID", i.GuildID, "userID", userIDOf(i), "count", removed+1)
	h.reply(s, i, skipMessage(removed+1), false)
}

func (h *CommandHandler) cmdQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionsOf(i.ApplicationCommandData().Options)
	e := h.registry.Peek(i.GuildID)
	if e == nil {
		h.reply(s, i, "queue is empty", true)
		return
	}
	set := h.settings(context.Background(), i.GuildID)
	pageSize := min(opts.integer("page-size", set.DefaultQueuePageSize), 30)

	embed, err := ui.QueueEmbed(e.GetQueue(), e.Status(), opts.integer("page", 1), pageSize, h.emojis)
	if err != nil {
		h.reply(s, i, err.Error(), true)
		return
	}
	h.replyEmbed(s, i, embed, false)
}

func (h *CommandHandler) cmdPrevious(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var previous []resolver.Track
	if e := h.registry.Peek(i.GuildID); e != nil {
		previous = e.GetPreviousQueue()
	}
	h.replyEmbed(s, i, ui.PreviousEmbed(previous, h.emojis), false)
}

func (h *CommandHandler) cmdNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := h.registry.Peek(i.GuildID)
	if e == nil {
		h.replyEmbed(s, i, ui.PlayingEmbed(nil, player.Status{}, h.emojis), false)
		return
	}
	h.replyEmbed(s, i, ui.PlayingEmbed(e.GetQueue(), e.Status(), h.emojis), false)
}

func (h *CommandHandler) cmdClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := h.registry.Peek(i.GuildID)
	if e == nil {
		h.reply(s, i, "queue is already empty", true)
		return
	}
	n := e.Clear()
	slog.Info("cmd clear", "guildID", i.GuildID, "userID", userIDOf(i), "removed", n)
	h.reply(s, i, clearMessage(n), false)
}

func (h *CommandHandler) cmdShuffle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := h.registry.Peek(i.GuildID)
	if e == nil || len(e.GetQueue()) < 3 {
		h.reply(s, i, "not enough songs to shuffle", true)
		return
	}
	e.Shuffle()
	slog.Info("cmd shuffle", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "shuffled", false)
}

func (h *CommandHandler) cmdPause(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := h.registry.Peek(i.GuildID)
	if e == nil || !e.Pause() {
		h.reply(s, i, "not currently playing", true)
		return
	}
	slog.Info("cmd pause", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "the stop-and-go light is now red", false)
}

func (h *CommandHandler) cmdResume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := h.registry.Peek(i.GuildID)
	if e == nil || !e.Resume() {
		h.reply(s, i, "not paused", true)
		return
	}
	slog.Info("cmd resume", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "the stop-and-go light is now green", false)
}

func (h *CommandHandler) cmdRepeat(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := h.registry.Peek(i.GuildID)
	if e == nil || len(e.GetQueue()) == 0 {
		h.reply(s, i, "no song to repeat!", true)
		return
	}
	on := e.Repeat()
	slog.Info("cmd repeat", "guildID", i.GuildID, "userID", userIDOf(i), "on", on)
	if on {
		h.reply(s, i, "repeating :)", false)
	} else {
		h.reply(s, i, "stopped repeating :(", false)
	}
}

func (h *CommandHandler) cmdJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	chID, ok := userInVoice(s, i.GuildID, userIDOf(i))
	if !ok {
		h.reply(s, i, msgNotInVoice, true)
		return
	}
	e := h.registry.Peek(i.GuildID)
	if e == nil {
		h.reply(s, i, msgNothingThere, true)
		return
	}
	if e.ConnectedChannel() == chID {
		h.reply(s, i, "already here", true)
		return
	}
	if !e.Join(chID) {
		h.reply(s, i, msgNothingThere, true)
		return
	}
	slog.Info("cmd join", "guildID", i.GuildID, "userID", userIDOf(i), "channelID", chID)
	h.reply(s, i, "on my way", false)
}

func (h *CommandHandler) cmdReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.registry.Remove(i.GuildID) {
		h.reply(s, i, "nothing to reset", true)
		return
	}
	slog.Info("cmd reset", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, "u betcha, starting fresh", false)
}
