package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/spotify"
	"github.com/sonroyaalmerol/guildtune/internal/utils"
)

// DefaultMaxTracks bounds how many entries a single playlist reference can yield.
const DefaultMaxTracks = 500

type Resolver struct {
	cfg       *config.Config
	http      *http.Client
	maxTracks int

	spotifyOnce sync.Once
	spotify     *spotify.Client
}

type Option func(*Resolver)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.http = c }
}

func WithMaxTracks(n int) Option {
	return func(r *Resolver) { r.maxTracks = n }
}

func New(cfg *config.Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:       cfg,
		http:      http.DefaultClient,
		maxTracks: DefaultMaxTracks,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns a link or a search query into tracks. Errors are always *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, input string) ([]Track, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, &ResolutionError{Input: input, Err: ErrUnsupportedInput}
	}
	rt, ok := lookup(input)
	if !ok {
		return nil, &ResolutionError{Input: input, Err: ErrUnsupportedInput}
	}
	slog.Debug("resolving", "input", input, "kind", rt.kind)

	tracks, err := rt.resolve(r, ctx, input)
	if err != nil {
		return nil, &ResolutionError{Input: input, Err: err}
	}
	if len(tracks) == 0 {
		return nil, &ResolutionError{Input: input, Err: ErrNoResults}
	}
	return tracks, nil
}

// OpenStream returns the encoded audio of t. The body is bound to ctx, so
// cancelling ctx interrupts DNS, connect and read.
func (r *Resolver) OpenStream(ctx context.Context, t Track) (io.ReadCloser, error) {
	src, err := r.streamURL(ctx, t)
	if err != nil {
		return nil, &StreamError{Track: t, Err: err}
	}
	body, err := r.fetch(ctx, src)
	if err != nil {
		return nil, &StreamError{Track: t, Err: err}
	}
	return body, nil
}

func (r *Resolver) streamURL(ctx context.Context, t Track) (string, error) {
	page := t.URL
	switch t.Provider {
	case ProviderYouTube, ProviderSoundCloud, ProviderBandcamp:
	case ProviderSpotify:
		id, err := r.matchOnYouTube(ctx, t)
		if err != nil {
			return "", fmt.Errorf("match on youtube: %w", err)
		}
		page = youtubeWatchURL(id)
	default:
		return "", fmt.Errorf("%w: provider %s", ErrUnsupportedInput, t.Provider)
	}

	info, err := ytdlpGetInfo(ctx, r.cfg, page)
	if err != nil {
		return "", err
	}
	u := info.audioURL()
	if u == "" {
		return "", errors.New("no usable media URL")
	}
	return u, nil
}

func (r *Resolver) fetch(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	utils.ApplyBrowserHeaders(req, nil)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Spotify returns the shared Web API client, or ErrSpotifyDisabled.
func (r *Resolver) Spotify(ctx context.Context) (*spotify.Client, error) {
	if !r.cfg.SpotifyEnabled() {
		return nil, ErrSpotifyDisabled
	}
	r.spotifyOnce.Do(func() {
		// The token source outlives any single request.
		r.spotify = spotify.NewClientCredentials(context.WithoutCancel(ctx), r.cfg.SpotifyClientID, r.cfg.SpotifyClientSecret)
	})
	return r.spotify, nil
}
