package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sonroyaalmerol/guildtune/internal/resolver"
)

// HistorySize is how many finished tracks an engine remembers.
const HistorySize = 10

// Action is the most recent control intent for the playing track.
type Action int

const (
	ActionNone Action = iota
	ActionSkip
	ActionPause
	ActionResume
	ActionRepeat
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSkip:
		return "skip"
	case ActionPause:
		return "pause"
	case ActionResume:
		return "resume"
	case ActionRepeat:
		return "repeat"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Status is a point-in-time view of an engine for rendering.
type Status struct {
	Action    Action
	Paused    bool
	Running   bool
	ChannelID string
	Connected bool
	// Elapsed is time spent in the current run of the playing track.
	Elapsed time.Duration
}

// StreamOpener returns the encoded audio of a track. Implemented by *resolver.Resolver.
type StreamOpener interface {
	OpenStream(ctx context.Context, t resolver.Track) (io.ReadCloser, error)
}

// Transcoder converts encoded audio into s16le, 48 kHz, stereo PCM.
type Transcoder interface {
	Transcode(ctx context.Context, src io.Reader) (io.ReadCloser, error)
}

// Sink accepts PCM for live playback. Close must be called exactly once.
type Sink interface {
	Write(ctx context.Context, pcm []byte) error
	Flush(ctx context.Context) error
	Close() error
}

// VoiceConn is a live voice connection bound to one channel.
type VoiceConn interface {
	ChannelID() string
	Ready() bool
	NewSink(ctx context.Context) (Sink, error)
	Close() error
}

type VoiceConnector interface {
	Connect(ctx context.Context, guildID, channelID string) (VoiceConn, error)
}

// Announcer is told when a track starts. The returned func, if any, runs
// when that track's attempt ends.
type Announcer interface {
	TrackStarted(guildID string, t resolver.Track) func()
}

type Deps struct {
	Streams    StreamOpener
	Transcoder Transcoder
	Voice      VoiceConnector
	Announcer  Announcer
	Logger     *slog.Logger
}
