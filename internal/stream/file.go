package stream

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sonroyaalmerol/guildtune/internal/player"
)

// FileConnector plays into an io.Writer instead of a voice channel. Every
// "channel" shares the same writer. With Realtime set, writes are paced to
// the audio's duration.
type FileConnector struct {
	W        io.Writer
	Realtime bool

	mu sync.Mutex
}

var _ player.VoiceConnector = (*FileConnector)(nil)

func (f *FileConnector) Connect(_ context.Context, _, channelID string) (player.VoiceConn, error) {
	return &fileConn{parent: f, channelID: channelID}, nil
}

type fileConn struct {
	parent    *FileConnector
	channelID string
	closed    bool
	mu        sync.Mutex
}

func (c *fileConn) ChannelID() string { return c.channelID }

func (c *fileConn) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fileConn) NewSink(context.Context) (player.Sink, error) {
	return &fileSink{parent: c.parent}, nil
}

func (c *fileConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

type fileSink struct {
	parent  *FileConnector
	started time.Time
	written int64
}

func (s *fileSink) Write(ctx context.Context, pcm []byte) error {
	if s.parent.Realtime {
		if err := s.pace(ctx); err != nil {
			return err
		}
	}
	s.parent.mu.Lock()
	_, err := s.parent.W.Write(pcm)
	s.parent.mu.Unlock()
	s.written += int64(len(pcm))
	return err
}

// pace sleeps until the wall clock catches up with the audio written so far.
func (s *fileSink) pace(ctx context.Context) error {
	if s.started.IsZero() {
		s.started = time.Now()
		return nil
	}
	const bytesPerSecond = player.SampleRate * player.Channels * 2
	due := s.started.Add(time.Duration(s.written) * time.Second / bytesPerSecond)
	d := time.Until(due)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fileSink) Flush(context.Context) error { return nil }

func (s *fileSink) Close() error { return nil }
