package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/config"
	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/utils"
)

const (
	colorPlaying = 0x006400
	colorPaused  = 0x8B0000
	colorEmpty   = 0x992222
	colorNotice  = 0xE67E22

	maxDesc = 4096
)

// Emojis holds the markup rendered in front of track names.
type Emojis struct {
	YouTube    string
	SoundCloud string
	Spotify    string
	Bandcamp   string
}

func EmojisFromConfig(cfg *config.Config) Emojis {
	return Emojis{
		YouTube:    cfg.YouTubeEmoji,
		SoundCloud: cfg.SoundCloudEmoji,
		Spotify:    cfg.SpotifyEmoji,
		Bandcamp:   cfg.BandcampEmoji,
	}
}

func (e Emojis) For(p resolver.Provider) string {
	switch p {
	case resolver.ProviderYouTube:
		return e.YouTube
	case resolver.ProviderSoundCloud:
		return e.SoundCloud
	case resolver.ProviderSpotify:
		return e.Spotify
	case resolver.ProviderBandcamp:
		return e.Bandcamp
	}
	return ""
}

// Name renders a track as "<emoji> name", escaped for markdown.
func (e Emojis) Name(t resolver.Track) string {
	name := utils.EscapeMd(t.DisplayName())
	if emoji := e.For(t.Provider); emoji != "" {
		return emoji + " " + name
	}
	return name
}

func (e Emojis) Link(t resolver.Track) string {
	if t.URL == "" {
		return e.Name(t)
	}
	return fmt.Sprintf("[%s](%s)", e.Name(t), t.URL)
}

func duration(t resolver.Track) string {
	if t.Duration <= 0 {
		return "?"
	}
	return utils.PrettyDuration(t.Duration)
}

// NowPlayingEmbed is the short notice posted when a track starts.
func NowPlayingEmbed(t resolver.Track, emojis Emojis) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: "**Now Playing:** " + emojis.Name(t),
		Color:       colorNotice,
	}
}

func statusLine(cur resolver.Track, st player.Status) string {
	button := "⏹️"
	if st.Paused {
		button = "▶️"
	}

	progress := 0.0
	if cur.Duration > 0 {
		progress = float64(st.Elapsed) / float64(cur.Duration)
	}
	elapsed := utils.PrettyDuration(st.Elapsed)
	if cur.Duration > 0 {
		elapsed = fmt.Sprintf("%s/%s", utils.PrettyDuration(min(st.Elapsed, cur.Duration)), utils.PrettyDuration(cur.Duration))
	}
	line := fmt.Sprintf("%s %s `[ %s ]`", button, ProgressBar(10, progress), elapsed)
	if st.Action == player.ActionRepeat {
		line += " 🔂"
	}
	return line
}

// PlayingEmbed shows the head of queue with a progress bar.
func PlayingEmbed(queue []resolver.Track, st player.Status, emojis Emojis) *discordgo.MessageEmbed {
	if len(queue) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "Nothing Playing",
			Description: "The queue is empty",
			Color:       colorEmpty,
		}
	}
	cur := queue[0]
	title, color := "Now Playing", colorPlaying
	if st.Paused {
		title, color = "Paused", colorPaused
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("**%s**\n\n%s", emojis.Link(cur), statusLine(cur, st)),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Source: " + cur.Provider.String()},
	}
}

// QueueEmbed renders one page of the queue. Pages are 1-based and cover
// the tracks after the playing one.
func QueueEmbed(queue []resolver.Track, st player.Status, page, pageSize int, emojis Emojis) (*discordgo.MessageEmbed, error) {
	if len(queue) == 0 {
		return nil, fmt.Errorf("queue is empty")
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	upNext := queue[1:]
	maxPage := max(1, (len(upNext)+pageSize-1)/pageSize)
	if page < 1 || page > maxPage {
		return nil, fmt.Errorf("the queue isn't that big")
	}

	cur := queue[0]
	desc := fmt.Sprintf("**%s**\n\n%s\n\n", emojis.Link(cur), statusLine(cur, st))

	begin := (page - 1) * pageSize
	end := min(begin+pageSize, len(upNext))
	if begin < end {
		lines := make([]string, 0, end-begin)
		for i, t := range upNext[begin:end] {
			lines = append(lines, fmt.Sprintf("`%d.` %s `[ %s ]`", begin+i+1, emojis.Link(t), duration(t)))
		}
		desc += "**Up next:**\n" + fitLines(lines, maxDesc-len(desc))
	}

	var total time.Duration
	for _, t := range queue {
		total += t.Duration
	}
	title := "Now Playing"
	if st.Action == player.ActionRepeat {
		title += " (repeat on)"
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       colorPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "In queue", Value: countTracks(len(upNext)), Inline: true},
			{Name: "Total length", Value: totalLength(total), Inline: true},
			{Name: "Page", Value: fmt.Sprintf("%d out of %d", page, maxPage), Inline: true},
		},
	}, nil
}

// PreviousEmbed lists finished tracks, numbered the way play-previous expects.
func PreviousEmbed(previous []resolver.Track, emojis Emojis) *discordgo.MessageEmbed {
	if len(previous) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "Previous Queue",
			Description: "Nothing has been played yet",
			Color:       colorEmpty,
		}
	}
	lines := make([]string, len(previous))
	for i, t := range previous {
		lines[i] = fmt.Sprintf("`%d.` %s `[ %s ]`", i+1, emojis.Link(t), duration(t))
	}
	return &discordgo.MessageEmbed{
		Title:       "Previous Queue",
		Description: fitLines(lines, maxDesc),
		Color:       colorNotice,
	}
}

// fitLines joins as many lines as fit in budget bytes and notes the rest.
func fitLines(lines []string, budget int) string {
	var b strings.Builder
	shown := 0
	for _, line := range lines {
		if b.Len()+len(line)+1 > budget {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
		shown++
	}
	if rest := len(lines) - shown; rest > 0 {
		more := fmt.Sprintf("…and %d more", rest)
		if b.Len()+len(more) <= budget {
			b.WriteString(more)
		}
	}
	return b.String()
}

func countTracks(n int) string {
	switch n {
	case 0:
		return "-"
	case 1:
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}

func totalLength(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return utils.PrettyDuration(d)
}
