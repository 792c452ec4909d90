package resolver

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"3:20", 200 * time.Second},
		{"1:05:20", time.Hour + 5*time.Minute + 20*time.Second},
		{"0:07", 7 * time.Second},
		{"", 0},
		{"LIVE", 0},
		{"1:2:3:4", 0},
	}
	for _, tt := range tests {
		if got := parseClock(tt.in); got != tt.want {
			t.Errorf("parseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInfoTracks(t *testing.T) {
	playlist := ytdlpInfo{
		Title: "mix",
		Entries: []ytdlpInfo{
			{ID: "aaaaaaaaaaa", Title: "first", Uploader: "ch", Duration: 61.5},
			{ID: "", Title: "no id"},
			{ID: "bbbbbbbbbbb", Title: "second"},
			{ID: "ccccccccccc", Title: "third"},
		},
	}
	got := playlist.tracks(ProviderYouTube, 2)
	want := []Track{
		{URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", Name: "first", Artist: "ch", Duration: 61500 * time.Millisecond, Provider: ProviderYouTube},
		{URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", Name: "second", Provider: ProviderYouTube},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tracks() mismatch (-want +got):\n%s", diff)
	}

	single := ytdlpInfo{Title: "one", WebpageURL: "https://soundcloud.com/a/b", Uploader: "a"}
	got = single.tracks(ProviderSoundCloud, 10)
	want = []Track{{URL: "https://soundcloud.com/a/b", Name: "one", Artist: "a", Provider: ProviderSoundCloud}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tracks() mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioURL(t *testing.T) {
	tests := []struct {
		name string
		info ytdlpInfo
		want string
	}{
		{"requested first", ytdlpInfo{Requested: []string{"https://r"}, URL: "https://u", Formats: []string{"https://f"}}, "https://r"},
		{"top level", ytdlpInfo{URL: "https://u", Formats: []string{"https://f"}}, "https://u"},
		{"formats", ytdlpInfo{Formats: []string{"rtmp://x", "https://f"}}, "https://f"},
		{"none", ytdlpInfo{WebpageURL: "https://page"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.audioURL(); got != tt.want {
				t.Errorf("audioURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
