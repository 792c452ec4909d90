package handlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

func (h *CommandHandler) cmdConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	sub := i.ApplicationCommandData().Options[0]
	opts := optionsOf(sub.Options)

	set := h.settings(ctx, i.GuildID)
	if sub.Name == "get" {
		slog.Debug("config get", "guildID", i.GuildID)
		h.reply(s, i, settingsMessage(set), false)
		return
	}
	var key string
	var value any
	switch sub.Name {
	case "set-playlist-limit":
		limit := opts.integer("limit", 0)
		if limit < 1 {
			h.reply(s, i, "invalid limit", true)
			return
		}
		set.PlaylistLimit = limit
		key, value = "PlaylistLimit", limit
	case "set-leave-if-no-listeners":
		set.LeaveIfNoListeners = opts.boolean("value")
		key, value = "LeaveIfNoListeners", set.LeaveIfNoListeners
	case "set-announce-now-playing":
		set.AnnounceNowPlaying = opts.boolean("value")
		key, value = "AnnounceNowPlaying", set.AnnounceNowPlaying
	case "set-queue-add-response-hidden":
		set.QAddEphemeral = opts.boolean("value")
		key, value = "QAddEphemeral", set.QAddEphemeral
	case "set-default-queue-page-size":
		size := opts.integer("page_size", 0)
		if size < 1 || size > 30 {
			h.reply(s, i, "page size must be between 1 and 30", true)
			return
		}
		set.DefaultQueuePageSize = size
		key, value = "DefaultQueuePageSize", size
	default:
		slog.Debug("unknown config subcommand", "name", sub.Name, "guildID", i.GuildID)
		return
	}

	if err := h.repo.UpdateSettings(ctx, set); err != nil {
		slog.Error("update settings failed", "guildID", i.GuildID, "key", key, "err", err)
		h.reply(s, i, "failed to save config", true)
		return
	}
	slog.Info("config updated", "guildID", i.GuildID, "key", key, "value", value)
	h.reply(s, i, "👍 config updated", false)
}

func (h *CommandHandler) cmdFavorites(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	sub := i.ApplicationCommandData().Options[0]
	opts := optionsOf(sub.Options)
	userID := userIDOf(i)

	switch sub.Name {
	case "use":
		f, err := h.favs.Use(ctx, i.GuildID, opts.str("name"))
		if err != nil {
			h.reply(s, i, favoriteErrorMessage(err), true)
			return
		}
		h.enqueue(s, i, f.Query, opts.boolean("top"), opts.boolean("shuffle"))
	case "list":
		list, err := h.favs.List(ctx, i.GuildID)
		if err != nil {
			slog.Error("list favorites failed", "guildID", i.GuildID, "err", err)
			h.reply(s, i, favoriteErrorMessage(err), true)
			return
		}
		h.reply(s, i, favoritesMessage(list), true)
	case "create":
		if err := h.favs.Create(ctx, i.GuildID, userID, opts.str("name"), opts.str("query")); err != nil {
			slog.Info("create favorite failed", "guildID", i.GuildID, "err", err)
			h.reply(s, i, favoriteErrorMessage(err), true)
			return
		}
		slog.Info("favorite created", "guildID", i.GuildID, "userID", userID, "name", opts.str("name"))
		h.reply(s, i, "👍 favorite created", true)
	case "remove":
		err := h.favs.Remove(ctx, i.GuildID, userID, opts.str("name"), canManageGuild(i))
		if err != nil {
			h.reply(s, i, favoriteErrorMessage(err), true)
			return
		}
		slog.Info("favorite removed", "guildID", i.GuildID, "userID", userID, "name", opts.str("name"))
		h.reply(s, i, "👍 favorite removed", true)
	}
}
