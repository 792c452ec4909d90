package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want resolver.Kind
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG", resolver.KindYouTubePlaylist},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ&list=RDAMVM", resolver.KindYouTubePlaylist},
		{"https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG", resolver.KindYouTubePlaylist},
		{"https://youtu.be/dQw4w9WgXcQ?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG", resolver.KindYouTubePlaylist},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", resolver.KindYouTubeVideo},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", resolver.KindYouTubeVideo},
		{"https://youtu.be/dQw4w9WgXcQ", resolver.KindYouTubeVideo},
		{"https://www.youtube.com/shorts/abcdefghijk", resolver.KindYouTubeVideo},
		{"https://soundcloud.com/artist/sets/album-name", resolver.KindSoundCloudSet},
		{"https://soundcloud.com/artist/track-name", resolver.KindSoundCloudTrack},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", resolver.KindSpotifyPlaylist},
		{"spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", resolver.KindSpotifyPlaylist},
		{"https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy", resolver.KindSpotifyAlbum},
		{"https://open.spotify.com/intl-de/track/11dFghVXANMlKmJXsNCbNl", resolver.KindSpotifyTrack},
		{"https://artist.bandcamp.com/album/some-album", resolver.KindBandcamp},
		{"https://artist.bandcamp.com/track/some-track", resolver.KindBandcamp},
		{"never gonna give you up", resolver.KindSearch},
		{"  lofi beats  ", resolver.KindSearch},
		{"https://example.com/song.mp3", resolver.KindUnsupported},
		{"https://soundcloud.com/artist", resolver.KindUnsupported},
		{"https://open.spotify.com/artist/0OdUWJ0sBjDrqHygGUXeCF", resolver.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := resolver.Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveRejectsUnsupportedInput(t *testing.T) {
	r := resolver.New(&config.Config{})
	for _, in := range []string{"", "   ", "https://example.com/song.mp3"} {
		_, err := r.Resolve(context.Background(), in)
		var resErr *resolver.ResolutionError
		if !errors.As(err, &resErr) {
			t.Fatalf("Resolve(%q) error = %v, want *ResolutionError", in, err)
		}
		if !errors.Is(err, resolver.ErrUnsupportedInput) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnsupportedInput", in, err)
		}
	}
}

func TestResolveSpotifyDisabled(t *testing.T) {
	r := resolver.New(&config.Config{})
	_, err := r.Resolve(context.Background(), "https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl")
	if !errors.Is(err, resolver.ErrSpotifyDisabled) {
		t.Errorf("Resolve() error = %v, want ErrSpotifyDisabled", err)
	}
}

func TestOpenStreamUnknownProvider(t *testing.T) {
	r := resolver.New(&config.Config{})
	tr := resolver.Track{URL: "x", Provider: resolver.Provider(42)}
	_, err := r.OpenStream(context.Background(), tr)
	var streamErr *resolver.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("OpenStream() error = %v, want *StreamError", err)
	}
	if streamErr.Track != tr {
		t.Errorf("StreamError.Track = %+v, want %+v", streamErr.Track, tr)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		track resolver.Track
		want  string
	}{
		{resolver.Track{Name: "Song", Artist: "Channel", Provider: resolver.ProviderYouTube}, "Song"},
		{resolver.Track{Name: "Song", Artist: "Band", Provider: resolver.ProviderBandcamp}, "Song"},
		{resolver.Track{Name: "Song", Artist: "Artist", Provider: resolver.ProviderSoundCloud}, "Song by Artist"},
		{resolver.Track{Name: "Song", Artist: "Artist", Provider: resolver.ProviderSpotify}, "Song by Artist"},
		{resolver.Track{Name: "Song", Provider: resolver.ProviderSpotify}, "Song"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.track.Provider.String(), func(t *testing.T) {
			if got := tt.track.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderString(t *testing.T) {
	if got := resolver.ProviderSoundCloud.String(); got != "SoundCloud" {
		t.Errorf("String() = %q, want %q", got, "SoundCloud")
	}
	if got := resolver.Provider(9).String(); got != "Provider(9)" {
		t.Errorf("String() = %q, want %q", got, "Provider(9)")
	}
	tr := resolver.Track{Name: "a", Duration: time.Second, Provider: resolver.ProviderYouTube}
	if got := tr.String(); got != "YouTube: a" {
		t.Errorf("Track.String() = %q, want %q", got, "YouTube: a")
	}
}
