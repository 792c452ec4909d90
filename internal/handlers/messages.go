package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sonroyaalmerol/guildtune/internal/repository"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/ui"
)

// enqueueMessage describes tracks added at queue index pos. Index 0 means
// they start right away.
func enqueueMessage(tracks []resolver.Track, pos int, emojis ui.Emojis) string {
	if len(tracks) == 1 {
		if pos == 0 {
			return "playing " + emojis.Name(tracks[0])
		}
		return fmt.Sprintf("queued %s at position %d", emojis.Name(tracks[0]), pos)
	}
	if pos == 0 {
		return fmt.Sprintf("playing %s and queued %d more", emojis.Name(tracks[0]), len(tracks)-1)
	}
	return fmt.Sprintf("queued %d songs starting at position %d", len(tracks), pos)
}

func skipMessage(n int) string {
	if n == 1 {
		return "keep 'em comin'"
	}
	return fmt.Sprintf("skipped %d songs", n)
}

func clearMessage(n int) string {
	switch n {
	case 0:
		return "nothing queued after the current song"
	case 1:
		return "removed 1 song, clearer than a field after a fresh harvest"
	}
	return fmt.Sprintf("removed %d songs, clearer than a field after a fresh harvest", n)
}

func resolveErrorMessage(err error) string {
	switch {
	case errors.Is(err, resolver.ErrSpotifyDisabled):
		return "Spotify isn't set up on this bot"
	case errors.Is(err, resolver.ErrUnsupportedInput):
		return "that link isn't supported"
	case errors.Is(err, resolver.ErrNoResults):
		return "no songs found"
	}
	return "couldn't load that, try again later"
}

func favoriteErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrFavoriteExists):
		return "a favorite with that name already exists"
	case errors.Is(err, repository.ErrFavoriteNotFound):
		return "no favorite with that name (or it isn't yours)"
	case errors.Is(err, repository.ErrFavoriteInvalid):
		return "name and query can't be empty"
	}
	return "something went wrong"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func settingsMessage(set *repository.Settings) string {
	var b strings.Builder
	b.WriteString("Config\n")
	fmt.Fprintf(&b, "- Playlist limit: %d\n", set.PlaylistLimit)
	fmt.Fprintf(&b, "- Leave if no listeners: %s\n", onOff(set.LeaveIfNoListeners))
	fmt.Fprintf(&b, "- Announce now playing: %s\n", onOff(set.AnnounceNowPlaying))
	fmt.Fprintf(&b, "- Hide queue add responses: %s\n", onOff(set.QAddEphemeral))
	fmt.Fprintf(&b, "- Default queue page size: %d", set.DefaultQueuePageSize)
	return b.String()
}

func favoritesMessage(favs []repository.Favorite) string {
	if len(favs) == 0 {
		return "no favorites yet"
	}
	var b strings.Builder
	for _, f := range favs {
		fmt.Fprintf(&b, "- **%s**: %s (<@%s>)\n", f.Name, f.Query, f.Author)
	}
	return strings.TrimRight(b.String(), "\n")
}
