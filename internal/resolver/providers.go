package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/sonroyaalmerol/guildtune/internal/spotify"
)

func (r *Resolver) resolveYouTubePlaylist(ctx context.Context, input string) ([]Track, error) {
	info, err := ytdlpPlaylist(ctx, r.cfg, input)
	if err != nil {
		return nil, err
	}
	return info.tracks(ProviderYouTube, r.maxTracks), nil
}

func (r *Resolver) resolveYouTubeVideo(ctx context.Context, input string) ([]Track, error) {
	info, err := ytdlpGetInfo(ctx, r.cfg, input)
	if err != nil {
		return nil, err
	}
	if info.IsLive {
		return nil, fmt.Errorf("%w: live streams", ErrUnsupportedInput)
	}
	return []Track{info.track(ProviderYouTube)}, nil
}

// Sets are small enough to resolve fully, which also fills in titles that
// flat SoundCloud listings leave out.
func (r *Resolver) resolveSoundCloudSet(ctx context.Context, input string) ([]Track, error) {
	info, err := ytdlpGetInfo(ctx, r.cfg, input)
	if err != nil {
		return nil, err
	}
	return info.tracks(ProviderSoundCloud, r.maxTracks), nil
}

func (r *Resolver) resolveSoundCloudTrack(ctx context.Context, input string) ([]Track, error) {
	info, err := ytdlpGetInfo(ctx, r.cfg, input)
	if err != nil {
		return nil, err
	}
	return []Track{info.track(ProviderSoundCloud)}, nil
}

func (r *Resolver) resolveBandcamp(ctx context.Context, input string) ([]Track, error) {
	info, err := ytdlpGetInfo(ctx, r.cfg, input)
	if err != nil {
		return nil, err
	}
	return info.tracks(ProviderBandcamp, r.maxTracks), nil
}

func (r *Resolver) resolveSpotify(ctx context.Context, input string) ([]Track, error) {
	sp, err := r.Spotify(ctx)
	if err != nil {
		return nil, err
	}
	typ, id, err := spotify.ParseID(input)
	if err != nil {
		return nil, err
	}

	var found []spotify.Track
	switch typ {
	case "playlist":
		found, err = sp.GetPlaylist(ctx, id, r.maxTracks)
	case "album":
		found, err = sp.GetAlbum(ctx, id, r.maxTracks)
	case "track":
		var t spotify.Track
		t, err = sp.GetTrack(ctx, id)
		found = []spotify.Track{t}
	}
	if err != nil {
		return nil, err
	}

	out := make([]Track, 0, len(found))
	for _, t := range found {
		u := t.URL
		if u == "" {
			u = input
		}
		out = append(out, Track{
			URL:      u,
			Name:     t.Name,
			Artist:   t.Artist,
			Duration: t.Duration,
			Provider: ProviderSpotify,
		})
	}
	return out, nil
}

// search returns the best single YouTube match for a free-text query.
func (r *Resolver) search(ctx context.Context, query string) ([]Track, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, query)
	if err == nil {
		for _, v := range res.Results {
			if v.VideoID == "" {
				continue
			}
			return []Track{{
				URL:      youtubeWatchURL(v.VideoID),
				Name:     v.Title,
				Artist:   v.Channel,
				Duration: parseClock(v.Duration),
				Provider: ProviderYouTube,
			}}, nil
		}
	}

	info, err := ytdlpGetInfo(ctx, r.cfg, "ytsearch1:"+query)
	if err != nil {
		return nil, err
	}
	tracks := info.tracks(ProviderYouTube, 1)
	return tracks, nil
}

// matchOnYouTube finds a YouTube video id for a Spotify track, trying
// YouTube Music first since it indexes official audio.
func (r *Resolver) matchOnYouTube(ctx context.Context, t Track) (string, error) {
	query := strings.TrimSpace(t.Name + " " + t.Artist)

	if res, err := ytmusic.TrackSearch(query).Next(); err == nil {
		for _, v := range res.Tracks {
			if v.VideoID != "" {
				return v.VideoID, nil
			}
		}
	}

	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	for _, v := range res.Results {
		if v.VideoID != "" {
			return v.VideoID, nil
		}
	}
	return "", ErrNoResults
}

// parseClock parses durations like "3:20" or "1:05:20".
func parseClock(v string) time.Duration {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
