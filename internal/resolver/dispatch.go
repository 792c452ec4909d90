package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Kind is the shape of an input as recognised by the dispatch table.
type Kind int

const (
	KindUnsupported Kind = iota
	KindYouTubePlaylist
	KindYouTubeVideo
	KindSoundCloudSet
	KindSoundCloudTrack
	KindSpotifyPlaylist
	KindSpotifyAlbum
	KindSpotifyTrack
	KindBandcamp
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindYouTubePlaylist:
		return "youtube-playlist"
	case KindYouTubeVideo:
		return "youtube-video"
	case KindSoundCloudSet:
		return "soundcloud-set"
	case KindSoundCloudTrack:
		return "soundcloud-track"
	case KindSpotifyPlaylist:
		return "spotify-playlist"
	case KindSpotifyAlbum:
		return "spotify-album"
	case KindSpotifyTrack:
		return "spotify-track"
	case KindBandcamp:
		return "bandcamp"
	case KindSearch:
		return "search"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	reYouTubePlaylist = []*regexp.Regexp{
		regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/(?:watch|playlist)\?.*\blist=[\w-]+`),
		regexp.MustCompile(`^https?://youtu\.be/[\w-]+.*[?&]list=[\w-]+`),
	}
	reYouTubeVideo = []*regexp.Regexp{
		regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/watch\?.*\bv=[\w-]+`),
		regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/shorts/[\w-]+`),
		regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	}
	reSoundCloudSet   = regexp.MustCompile(`^https?://(?:www\.|m\.)?soundcloud\.com/[^/?#]+/sets/[^/?#]+`)
	reSoundCloudTrack = regexp.MustCompile(`^https?://(?:www\.|m\.)?soundcloud\.com/[^/?#]+/[^/?#]+`)
	reSpotifyPlaylist = regexp.MustCompile(`^(?:https?://open\.spotify\.com/(?:intl-[a-z]+/)?playlist/|spotify:playlist:)\w+`)
	reSpotifyAlbum    = regexp.MustCompile(`^(?:https?://open\.spotify\.com/(?:intl-[a-z]+/)?album/|spotify:album:)\w+`)
	reSpotifyTrack    = regexp.MustCompile(`^(?:https?://open\.spotify\.com/(?:intl-[a-z]+/)?track/|spotify:track:)\w+`)
	reBandcamp        = regexp.MustCompile(`^https?://[^/]+\.bandcamp\.com/(?:track|album)/.+`)
)

func anyMatch(res ...*regexp.Regexp) func(string) bool {
	return func(s string) bool {
		for _, re := range res {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}
}

// isReference reports whether input should be treated as a link rather than a search query.
func isReference(input string) bool {
	if strings.HasPrefix(input, "spotify:") {
		return true
	}
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type route struct {
	kind    Kind
	match   func(string) bool
	resolve func(r *Resolver, ctx context.Context, input string) ([]Track, error)
}

// routes is evaluated top to bottom and the first match wins. A provider's
// playlist shape always comes before its single item shape.
var routes = []route{
	{KindYouTubePlaylist, anyMatch(reYouTubePlaylist...), (*Resolver).resolveYouTubePlaylist},
	{KindYouTubeVideo, anyMatch(reYouTubeVideo...), (*Resolver).resolveYouTubeVideo},
	{KindSoundCloudSet, anyMatch(reSoundCloudSet), (*Resolver).resolveSoundCloudSet},
	{KindSoundCloudTrack, anyMatch(reSoundCloudTrack), (*Resolver).resolveSoundCloudTrack},
	{KindSpotifyPlaylist, anyMatch(reSpotifyPlaylist), (*Resolver).resolveSpotify},
	{KindSpotifyAlbum, anyMatch(reSpotifyAlbum), (*Resolver).resolveSpotify},
	{KindSpotifyTrack, anyMatch(reSpotifyTrack), (*Resolver).resolveSpotify},
	{KindBandcamp, anyMatch(reBandcamp), (*Resolver).resolveBandcamp},
	{KindSearch, func(s string) bool { return !isReference(s) }, (*Resolver).search},
}

func lookup(input string) (route, bool) {
	for _, rt := range routes {
		if rt.match(input) {
			return rt, true
		}
	}
	return route{kind: KindUnsupported}, false
}

// Classify returns which route Resolve would take for input.
func Classify(input string) Kind {
	rt, _ := lookup(strings.TrimSpace(input))
	return rt.kind
}
