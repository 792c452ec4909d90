package handlers

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/repository"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/ui"
)

func TestEveryCommandIsRouted(t *testing.T) {
	h := NewCommandHandler(&config.Config{}, nil, nil, nil, nil, nil)

	var defined, routed []string
	for _, c := range Commands() {
		defined = append(defined, c.Name)
	}
	for name := range h.routes {
		routed = append(routed, name)
	}
	sort.Strings(defined)
	sort.Strings(routed)
	if diff := cmp.Diff(defined, routed); diff != "" {
		t.Errorf("commands and routes differ (-defined +routed):\n%s", diff)
	}
}

func TestOptions(t *testing.T) {
	opts := optionsOf([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "query", Type: discordgo.ApplicationCommandOptionString, Value: "daft punk"},
		{Name: "top", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
		{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
	})

	if got := opts.str("query"); got != "daft punk" {
		t.Errorf("str(query) = %q", got)
	}
	if !opts.boolean("top") || opts.boolean("shuffle") {
		t.Error("boolean options mismatch")
	}
	if got := opts.integer("count", 1); got != 3 {
		t.Errorf("integer(count) = %d, want 3", got)
	}
	if got := opts.integer("page", 1); got != 1 {
		t.Errorf("integer(page) default = %d, want 1", got)
	}
}

func TestFocusedValue(t *testing.T) {
	got := focusedValue([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "top", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
		{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "lo", Focused: true},
	})
	if got != "lo" {
		t.Errorf("focusedValue() = %q, want %q", got, "lo")
	}
}

func TestEnqueueMessage(t *testing.T) {
	one := []resolver.Track{{Name: "Song", Provider: resolver.ProviderYouTube, Duration: time.Minute}}
	many := append(one, resolver.Track{Name: "B"}, resolver.Track{Name: "C"})

	tests := []struct {
		name   string
		tracks []resolver.Track
		pos    int
		want   string
	}{
		{"single now", one, 0, "playing Song"},
		{"single queued", one, 3, "queued Song at position 3"},
		{"batch now", many, 0, "playing Song and queued 2 more"},
		{"batch queued", many, 1, "queued 3 songs starting at position 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enqueueMessage(tt.tracks, tt.pos, ui.Emojis{}); got != tt.want {
				t.Errorf("enqueueMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClearMessage(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "nothing queued after the current song"},
		{1, "removed 1 song, clearer than a field after a fresh harvest"},
		{7, "removed 7 songs, clearer than a field after a fresh harvest"},
	}
	for _, tt := range tests {
		if got := clearMessage(tt.n); got != tt.want {
			t.Errorf("clearMessage(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestResolveErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&resolver.ResolutionError{Input: "x", Err: resolver.ErrUnsupportedInput}, "that link isn't supported"},
		{&resolver.ResolutionError{Input: "x", Err: resolver.ErrNoResults}, "no songs found"},
		{&resolver.ResolutionError{Input: "x", Err: resolver.ErrSpotifyDisabled}, "Spotify isn't set up on this bot"},
		{&resolver.ResolutionError{Input: "x", Err: fmt.Errorf("boom")}, "couldn't load that, try again later"},
	}
	for _, tt := range tests {
		if got := resolveErrorMessage(tt.err); got != tt.want {
			t.Errorf("resolveErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSettingsMessage(t *testing.T) {
	set := repository.DefaultSettings("g")
	set.QAddEphemeral = true
	want := "Config\n" +
		"- Playlist limit: 50\n" +
		"- Leave if no listeners: on\n" +
		"- Announce now playing: on\n" +
		"- Hide queue add responses: on\n" +
		"- Default queue page size: 10"
	if diff := cmp.Diff(want, settingsMessage(set)); diff != "" {
		t.Errorf("settingsMessage mismatch (-want +got):\n%s", diff)
	}
}

func TestFavoritesMessage(t *testing.T) {
	if got := favoritesMessage(nil); got != "no favorites yet" {
		t.Errorf("empty list = %q", got)
	}
	got := favoritesMessage([]repository.Favorite{
		{Name: "lofi", Query: "lofi hip hop", Author: "1"},
		{Name: "rock", Query: "classic rock", Author: "2"},
	})
	want := "- **lofi**: lofi hip hop (<@1>)\n- **rock**: classic rock (<@2>)"
	if got != want {
		t.Errorf("favoritesMessage() = %q, want %q", got, want)
	}
}
