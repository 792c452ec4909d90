package autocomplete

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/spotify"
	"github.com/sonroyaalmerol/guildtune/internal/utils"
)

const youtubeSuggestURL = "https://suggestqueries.google.com/complete/search"

// Discord caps choice names at 100 characters.
const maxChoiceName = 100

// Suggester builds choices for the play command's query option.
type Suggester struct {
	HTTP     *http.Client
	Endpoint string
	// Spotify may be nil, or return an error when Spotify is not configured.
	Spotify func(ctx context.Context) (*spotify.Client, error)
}

func (s *Suggester) youtube(ctx context.Context, query string) ([]string, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = youtubeSuggestURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("client", "firefox")
	q.Set("ds", "yt")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	utils.ApplyBrowserHeaders(req, nil)
	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggest: unexpected status %s", resp.Status)
	}

	var parsed []any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed) < 2 {
		return nil, nil
	}
	arr, ok := parsed[1].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Suggest mixes YouTube query completions with Spotify albums and tracks.
// Either source failing just leaves its entries out.
func (s *Suggester) Suggest(ctx context.Context, query string, limit int) []*discordgo.ApplicationCommandOptionChoice {
	if limit <= 0 {
		limit = 10
	}
	yt, _ := s.youtube(ctx, query)

	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, limit)
	for _, v := range yt[:min(len(yt), limit)] {
		out = append(out, choice("YouTube: "+v, v))
	}

	if s.Spotify == nil {
		return out
	}
	sp, err := s.Spotify(ctx)
	if err != nil {
		return out
	}
	albums, tracks, err := sp.SearchAlbumsAndTracks(ctx, query, limit/2)
	if err != nil {
		return out
	}

	// make room
	if keep := limit - len(albums) - len(tracks); len(out) > keep {
		out = out[:max(keep, 0)]
	}
	for _, a := range albums {
		name := "Spotify: 💿 " + a.Name
		if len(a.Artists) > 0 {
			name += " - " + a.Artists[0].Name
		}
		out = append(out, choice(name, "spotify:album:"+a.ID.String()))
	}
	for _, t := range tracks {
		name := "Spotify: 🎵 " + t.Name
		if len(t.Artists) > 0 {
			name += " - " + t.Artists[0].Name
		}
		out = append(out, choice(name, "spotify:track:"+t.ID.String()))
	}
	return out[:min(len(out), limit)]
}

// Names turns plain strings into choices, as used for favorite names.
func Names(names []string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, n := range names {
		out = append(out, choice(n, n))
	}
	return out
}

func choice(name, value string) *discordgo.ApplicationCommandOptionChoice {
	return &discordgo.ApplicationCommandOptionChoice{
		Name:  utils.Truncate(name, maxChoiceName),
		Value: value,
	}
}
