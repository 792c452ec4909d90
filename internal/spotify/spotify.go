package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrNotSpotify = errors.New("not a spotify reference")

// Track is the metadata Spotify knows about a song. Spotify can't be
// streamed directly, so playback matches it against YouTube later.
type Track struct {
	Name     string
	Artist   string
	Duration time.Duration
	URL      string
}

type Client struct {
	raw *spotify.Client
}

func NewClientCredentials(ctx context.Context, clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(ctx)
	return &Client{raw: spotify.New(httpClient, spotify.WithRetry(true))}
}

// ParseID accepts open.spotify.com links and spotify:<type>:<id> URIs.
func ParseID(raw string) (typ string, id spotify.ID, err error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) != 3 || parts[2] == "" {
			return "", "", fmt.Errorf("invalid spotify URI %q", raw)
		}
		typ, id = parts[1], spotify.ID(parts[2])
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", err
		}
		if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
			return "", "", ErrNotSpotify
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
			parts = parts[1:]
		}
		if len(parts) < 2 || parts[1] == "" {
			return "", "", fmt.Errorf("invalid spotify URL path %q", u.Path)
		}
		typ, id = parts[0], spotify.ID(parts[1])
	}
	switch typ {
	case "album", "playlist", "track":
		return typ, id, nil
	}
	return "", "", fmt.Errorf("unsupported spotify type %q", typ)
}

func firstArtist(artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}

func fromSimple(t spotify.SimpleTrack) Track {
	return Track{
		Name:     t.Name,
		Artist:   firstArtist(t.Artists),
		Duration: time.Duration(t.Duration) * time.Millisecond,
		URL:      t.ExternalURLs["spotify"],
	}
}

func (c *Client) GetAlbum(ctx context.Context, id spotify.ID, limit int) ([]Track, error) {
	page, err := c.raw.GetAlbumTracks(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Track, 0, page.Total)
	add := func(items []spotify.SimpleTrack) {
		for _, t := range items {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, fromSimple(t))
		}
	}
	add(page.Tracks)
	for page.Next != "" && (limit == 0 || len(out) < limit) {
		if err := c.raw.NextPage(ctx, page); err != nil {
			break
		}
		add(page.Tracks)
	}
	return out, nil
}

func (c *Client) GetPlaylist(ctx context.Context, id spotify.ID, limit int) ([]Track, error) {
	page, err := c.raw.GetPlaylistItems(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Track, 0, page.Total)
	add := func(items []spotify.PlaylistItem) {
		for _, it := range items {
			if it.Track.Track == nil {
				continue
			}
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, fromSimple(it.Track.Track.SimpleTrack))
		}
	}
	add(page.Items)
	for page.Next != "" && (limit == 0 || len(out) < limit) {
		if err := c.raw.NextPage(ctx, page); err != nil {
			break
		}
		add(page.Items)
	}
	return out, nil
}

func (c *Client) GetTrack(ctx context.Context, id spotify.ID) (Track, error) {
	t, err := c.raw.GetTrack(ctx, id)
	if err != nil {
		return Track{}, err
	}
	return fromSimple(t.SimpleTrack), nil
}

func (c *Client) SearchAlbumsAndTracks(ctx context.Context, query string, limit int) ([]spotify.SimpleAlbum, []spotify.FullTrack, error) {
	if limit <= 0 {
		limit = 10
	}
	res, err := c.raw.Search(ctx, query, spotify.SearchTypeAlbum|spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, nil, err
	}
	var albums []spotify.SimpleAlbum
	if res.Albums != nil {
		albums = res.Albums.Albums
	}
	var tracks []spotify.FullTrack
	if res.Tracks != nil {
		tracks = res.Tracks.Tracks
	}
	if len(albums) > limit {
		albums = albums[:limit]
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return albums, tracks, nil
}
