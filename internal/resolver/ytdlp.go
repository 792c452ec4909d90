package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/sonroyaalmerol/guildtune/internal/config"
)

// ytdlpInfo is the subset of yt-dlp's JSON the resolver relies on.
type ytdlpInfo struct {
	ID         string
	Title      string
	Uploader   string
	Duration   float64
	IsLive     bool
	WebpageURL string
	URL        string
	Formats    []string
	Requested  []string
	Entries    []ytdlpInfo
}

// streamFormat prefers progressive http(s) audio so the body can be fetched
// directly; manifests (HLS/DASH) are the last resort.
const streamFormat = "ba[protocol=https]/ba[protocol=http]/ba/best"

var installOnce sync.Once

func installYtdlp(ctx context.Context) {
	installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})
}

func s(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func f(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func b(ptr *bool) bool {
	if ptr == nil {
		return false
	}
	return *ptr
}

func formatURLs(fs []*ytdlp.ExtractedFormat) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		if f == nil || f.URL == "" {
			continue
		}
		out = append(out, f.URL)
	}
	return out
}

func fromExtracted(e *ytdlp.ExtractedInfo) ytdlpInfo {
	info := ytdlpInfo{
		ID:         e.ID,
		Title:      s(e.Title),
		Uploader:   s(e.Uploader),
		Duration:   f(e.Duration),
		IsLive:     b(e.IsLive),
		WebpageURL: s(e.WebpageURL),
		URL:        s(e.URL),
		Formats:    formatURLs(e.Formats),
		Requested:  formatURLs(e.RequestedFormats),
	}
	for _, entry := range e.Entries {
		if entry == nil {
			continue
		}
		info.Entries = append(info.Entries, fromExtracted(entry))
	}
	return info
}

func newYtdlpCommand(cfg *config.Config, url string) *ytdlp.Command {
	cmd := ytdlp.New().NoCheckCertificates()
	if cfg.YouTubeCookiesPath != "" {
		cmd = cmd.Cookies(cfg.YouTubeCookiesPath)
	}
	if strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be") || strings.HasPrefix(url, "ytsearch") {
		args := "youtube:player-client=default,mweb"
		if cfg.YouTubePOToken != "" {
			args += ";po_token=" + cfg.YouTubePOToken
		}
		cmd = cmd.ExtractorArgs(args)
	}
	return cmd
}

func runYtdlp(ctx context.Context, cmd *ytdlp.Command, url string) (ytdlpInfo, error) {
	installYtdlp(ctx)

	res, err := cmd.Run(ctx, url)
	if err != nil {
		if strings.Contains(err.Error(), "Sign in to confirm") {
			return ytdlpInfo{}, fmt.Errorf("yt-dlp (PO token may be required): %w", err)
		}
		return ytdlpInfo{}, fmt.Errorf("yt-dlp run: %w", err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return ytdlpInfo{}, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return ytdlpInfo{}, fmt.Errorf("parse yt-dlp json: %w", ErrNoResults)
	}
	return fromExtracted(infos[0]), nil
}

// ytdlpGetInfo dumps the full info for url, selecting a directly fetchable audio format.
func ytdlpGetInfo(ctx context.Context, cfg *config.Config, url string) (ytdlpInfo, error) {
	cmd := newYtdlpCommand(cfg, url).
		Format(streamFormat).
		DumpJSON()
	return runYtdlp(ctx, cmd, url)
}

// ytdlpPlaylist lists a playlist without resolving each entry.
func ytdlpPlaylist(ctx context.Context, cfg *config.Config, url string) (ytdlpInfo, error) {
	cmd := newYtdlpCommand(cfg, url).
		FlatPlaylist().
		DumpJSON()
	slog.Debug("yt-dlp playlist fetch", "url", url)
	info, err := runYtdlp(ctx, cmd, url)
	if err != nil {
		return ytdlpInfo{}, err
	}
	slog.Debug("yt-dlp playlist parsed", "url", url, "entries", len(info.Entries))
	return info, nil
}

// audioURL returns the best directly playable URL: requested formats, then
// the top-level url, then any format.
func (i ytdlpInfo) audioURL() string {
	for _, u := range i.Requested {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	if strings.HasPrefix(i.URL, "http") {
		return i.URL
	}
	for _, u := range i.Formats {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	return ""
}

func (i ytdlpInfo) pageURL(provider Provider) string {
	if i.WebpageURL != "" {
		return i.WebpageURL
	}
	if provider == ProviderYouTube && i.ID != "" {
		return youtubeWatchURL(i.ID)
	}
	return i.URL
}

func (i ytdlpInfo) track(provider Provider) Track {
	name := i.Title
	if name == "" {
		name = i.pageURL(provider)
	}
	return Track{
		URL:      i.pageURL(provider),
		Name:     name,
		Artist:   i.Uploader,
		Duration: time.Duration(i.Duration * float64(time.Second)),
		Provider: provider,
	}
}

// tracks flattens a playlist container, or returns the item itself.
func (i ytdlpInfo) tracks(provider Provider, limit int) []Track {
	if len(i.Entries) == 0 {
		return []Track{i.track(provider)}
	}
	out := make([]Track, 0, len(i.Entries))
	for _, e := range i.Entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if e.pageURL(provider) == "" {
			continue
		}
		out = append(out, e.track(provider))
	}
	return out
}

func youtubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
