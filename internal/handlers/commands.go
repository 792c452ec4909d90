package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/autocomplete"
	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/repository"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/ui"
)

// Resolver turns user input into tracks. Implemented by *resolver.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, input string) ([]resolver.Track, error)
}

type commandFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

type CommandHandler struct {
	cfg       *config.Config
	repo      *repository.Repo
	favs      *repository.FavoritesService
	registry  *player.Registry
	resolver  Resolver
	suggester *autocomplete.Suggester
	announcer *Announcer
	emojis    ui.Emojis

	routes map[string]commandFunc
}

func NewCommandHandler(
	cfg *config.Config,
	repo *repository.Repo,
	registry *player.Registry,
	res Resolver,
	suggester *autocomplete.Suggester,
	announcer *Announcer,
) *CommandHandler {
	h := &CommandHandler{
		cfg:       cfg,
		repo:      repo,
		favs:      repository.NewFavoritesService(repo),
		registry:  registry,
		resolver:  res,
		suggester: suggester,
		announcer: announcer,
		emojis:    ui.EmojisFromConfig(cfg),
	}
	h.routes = map[string]commandFunc{
		"play":          h.cmdPlay,
		"play-previous": h.cmdPlayPrevious,
		"skip":          h.cmdSkip,
		"queue":         h.cmdQueue,
		"previous":      h.cmdPrevious,
		"clear":         h.cmdClear,
		"shuffle":       h.cmdShuffle,
		"pause":         h.cmdPause,
		"resume":        h.cmdResume,
		"repeat":        h.cmdRepeat,
		"join":          h.cmdJoin,
		"reset":         h.cmdReset,
		"now-playing":   h.cmdNowPlaying,
		"favorites":     h.cmdFavorites,
		"config":        h.cmdConfig,
	}
	return h
}

func boolOpt(name, desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Name: name, Description: desc, Type: discordgo.ApplicationCommandOptionBoolean}
}

func intOpt(name, desc string, required bool, minValue float64) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name: name, Description: desc, Type: discordgo.ApplicationCommandOptionInteger,
		Required: required, MinValue: &minValue,
	}
}

var manageGuild int64 = discordgo.PermissionManageGuild

// Commands is the full slash command set.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a song or playlist from YouTube, SoundCloud, Spotify or Bandcamp, or search YouTube",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "query or URL", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
				boolOpt("top", "add right after the current song"),
				boolOpt("shuffle", "shuffle the added songs"),
			},
		},
		{
			Name:        "play-previous",
			Description: "Queue a song from the previous queue again",
			Options: []*discordgo.ApplicationCommandOption{
				intOpt("index", "position in /previous", true, 1),
				boolOpt("top", "add right after the current song"),
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current song",
			Options: []*discordgo.ApplicationCommandOption{
				intOpt("count", "how many songs to skip [default: 1]", false, 1),
			},
		},
		{
			Name:        "queue",
			Description: "Show the current queue",
			Options: []*discordgo.ApplicationCommandOption{
				intOpt("page", "page of queue to show [default: 1]", false, 1),
				intOpt("page-size", "how many items per page [max: 30]", false, 1),
			},
		},
		{Name: "previous", Description: "Show recently played songs"},
		{Name: "clear", Description: "Clear queue except the current song"},
		{Name: "shuffle", Description: "Shuffle the upcoming songs"},
		{Name: "pause", Description: "Pause the current song"},
		{Name: "resume", Description: "Resume playback"},
		{Name: "repeat", Description: "Toggle repeating the current song"},
		{Name: "join", Description: "Move the bot to your voice channel"},
		{Name: "reset", Description: "Stop playback, clear everything and leave"},
		{Name: "now-playing", Description: "Show the current song"},
		{
			Name:        "favorites",
			Description: "Manage favorites",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "use",
					Description: "play a favorite",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "favorite name", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
						boolOpt("top", "add right after the current song"),
						boolOpt("shuffle", "shuffle the added songs"),
					},
				},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "list favorites"},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "create a favorite",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "name", Type: discordgo.ApplicationCommandOptionString, Required: true},
						{Name: "query", Description: "query or URL", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "remove a favorite",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "name", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
					},
				},
			},
		},
		{
			Name:                     "config",
			Description:              "Configure bot settings",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "get", Description: "show settings"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-playlist-limit", Description: "set max songs added from one playlist", Options: []*discordgo.ApplicationCommandOption{
					intOpt("limit", "max tracks", true, 1),
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-leave-if-no-listeners", Description: "leave when no listeners", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-announce-now-playing", Description: "post a message when a song starts", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-queue-add-response-hidden", Description: "ephemeral queue add responses", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-default-queue-page-size", Description: "queue page size", Options: []*discordgo.ApplicationCommandOption{
					intOpt("page_size", "1-30", true, 1),
				}},
			},
		},
	}
}

func (h *CommandHandler) RegisterCommands(s *discordgo.Session, appID string, guildID string) error {
	start := time.Now()
	slog.Info("registering application commands", "appID", appID, "guildID", guildID)

	cmds := Commands()
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds); err != nil {
		slog.Error("failed to register application commands", "guildID", guildID, "err", err)
		return err
	}

	slog.Info("finished registering commands", "guildID", guildID, "count", len(cmds), "took", time.Since(start))
	return nil
}

func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		slog.Debug("interaction: application command", "guildID", i.GuildID, "userID", userIDOf(i), "command", name)
		fn, ok := h.routes[name]
		if !ok {
			slog.Debug("unknown command", "name", name, "guildID", i.GuildID)
			return
		}
		fn(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		slog.Debug("interaction: autocomplete", "guildID", i.GuildID, "userID", userIDOf(i))
		h.handleAutocomplete(s, i)
	default:
		slog.Debug("interaction: ignored type", "type", i.Type, "guildID", i.GuildID)
	}
}

func (h *CommandHandler) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	choices := []*discordgo.ApplicationCommandOptionChoice{}
	switch data.Name {
	case "play":
		if q := focusedValue(data.Options); strings.TrimSpace(q) != "" {
			choices = h.suggester.Suggest(ctx, q, 10)
		}
	case "favorites":
		if len(data.Options) == 0 {
			break
		}
		names, err := h.favs.Suggest(ctx, i.GuildID, focusedValue(data.Options[0].Options))
		if err != nil {
			slog.Warn("favorite suggestions failed", "guildID", i.GuildID, "err", err)
			break
		}
		choices = autocomplete.Names(names)
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}); err != nil {
		slog.Debug("autocomplete respond failed", "guildID", i.GuildID, "err", err)
	}
}

func focusedValue(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range opts {
		if opt.Focused {
			return opt.StringValue()
		}
	}
	return ""
}

// options indexes command options by name.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o options) str(name string) string {
	if v, ok := o[name]; ok {
		return v.StringValue()
	}
	return ""
}

func (o options) boolean(name string) bool {
	if v, ok := o[name]; ok {
		return v.BoolValue()
	}
	return false
}

func (o options) integer(name string, def int) int {
	if v, ok := o[name]; ok {
		return int(v.IntValue())
	}
	return def
}

func (h *CommandHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	h.respond(s, i, &discordgo.InteractionResponseData{Content: content}, ephemeral)
}

func (h *CommandHandler) replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	h.respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}, ephemeral)
}

func (h *CommandHandler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData, ephemeral bool) {
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		slog.Warn("reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	}); err != nil {
		slog.Warn("defer reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		slog.Warn("edit reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func userInVoice(s *discordgo.Session, guildID, userID string) (channelID string, ok bool) {
	g, _ := s.State.Guild(guildID)
	if g == nil {
		g, _ = s.Guild(guildID)
	}
	if g == nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

func userIDOf(i *discordgo.InteractionCreate) string {
	if i == nil || i.Member == nil || i.Member.User == nil {
		return ""
	}
	return i.Member.User.ID
}

func canManageGuild(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageGuild != 0
}

// settings loads the guild's settings, creating the row on first use.
func (h *CommandHandler) settings(ctx context.Context, guildID string) *repository.Settings {
	set, err := h.repo.UpsertSettings(ctx, guildID)
	if err != nil {
		slog.Warn("upsert settings failed", "guildID", guildID, "err", err)
		return repository.DefaultSettings(guildID)
	}
	return set
}
