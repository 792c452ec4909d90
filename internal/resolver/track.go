package resolver

import (
	"fmt"
	"time"
)

// Provider identifies where a track was resolved from.
type Provider int

const (
	ProviderYouTube Provider = iota
	ProviderSoundCloud
	ProviderSpotify
	ProviderBandcamp
)

func (p Provider) String() string {
	switch p {
	case ProviderYouTube:
		return "YouTube"
	case ProviderSoundCloud:
		return "SoundCloud"
	case ProviderSpotify:
		return "Spotify"
	case ProviderBandcamp:
		return "Bandcamp"
	}
	return fmt.Sprintf("Provider(%d)", int(p))
}

// Track is a resolved, playable unit. Values are never mutated after Resolve returns them.
type Track struct {
	URL      string
	Name     string
	Artist   string
	Duration time.Duration
	Provider Provider
}

// DisplayName is the name shown to users. Music services that separate
// artist from title render as "name by artist".
func (t Track) DisplayName() string {
	switch t.Provider {
	case ProviderSoundCloud, ProviderSpotify:
		if t.Artist != "" {
			return t.Name + " by " + t.Artist
		}
		return t.Name
	case ProviderYouTube, ProviderBandcamp:
		return t.Name
	}
	return t.Name
}

func (t Track) String() string {
	return t.Provider.String() + ": " + t.DisplayName()
}
