package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/guildtune/internal/player"
)

const (
	disconnectTimeout = 3 * time.Second
	// sendStallCheck is how often a blocked send rechecks the connection.
	sendStallCheck = time.Second
)

var errDisconnectTimeout = errors.New("voice disconnect timed out")

// DiscordConnector joins voice channels through a discordgo session.
// Joins for one guild run one at a time because discordgo reuses a single
// VoiceConnection per guild.
type DiscordConnector struct {
	Session *discordgo.Session

	mu      sync.Mutex
	pending map[string]chan struct{}
}

var _ player.VoiceConnector = (*DiscordConnector)(nil)

type joinResult struct {
	vc  *discordgo.VoiceConnection
	err error
}

// Connect joins channelID. discordgo's join does not take a context, so it
// runs in the background; when ctx ends first the late connection is
// disconnected before the next join for the guild may start.
func (d *DiscordConnector) Connect(ctx context.Context, guildID, channelID string) (player.VoiceConn, error) {
	done, err := d.acquire(ctx, guildID)
	if err != nil {
		return nil, err
	}

	res := make(chan joinResult, 1)
	go func() {
		vc, err := d.Session.ChannelVoiceJoin(guildID, channelID, false, true)
		res <- joinResult{vc, err}
	}()

	select {
	case r := <-res:
		d.release(guildID, done)
		if r.err != nil {
			return nil, fmt.Errorf("join voice channel %s: %w", channelID, r.err)
		}
		c := &DiscordConn{channelID: channelID, guildID: guildID}
		c.vc.Store(r.vc)
		return c, nil
	case <-ctx.Done():
		go func() {
			defer d.release(guildID, done)
			r := <-res
			if r.err == nil && r.vc != nil {
				if err := disconnect(r.vc); err != nil {
					slog.Warn("disconnect abandoned voice join", "guildID", guildID, "err", err)
				}
			}
		}()
		return nil, ctx.Err()
	}
}

// acquire waits for any join still in flight for guildID and claims the slot.
func (d *DiscordConnector) acquire(ctx context.Context, guildID string) (chan struct{}, error) {
	for {
		d.mu.Lock()
		if d.pending == nil {
			d.pending = make(map[string]chan struct{})
		}
		busy, ok := d.pending[guildID]
		if !ok {
			done := make(chan struct{})
			d.pending[guildID] = done
			d.mu.Unlock()
			return done, nil
		}
		d.mu.Unlock()

		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (d *DiscordConnector) release(guildID string, done chan struct{}) {
	d.mu.Lock()
	if d.pending[guildID] == done {
		delete(d.pending, guildID)
	}
	d.mu.Unlock()
	close(done)
}

// disconnect leaves the channel, giving up after disconnectTimeout.
func disconnect(vc *discordgo.VoiceConnection) error {
	errc := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("voice disconnect panic: %v", r)
			}
		}()
		errc <- vc.Disconnect()
	}()

	t := time.NewTimer(disconnectTimeout)
	defer t.Stop()
	select {
	case err := <-errc:
		return err
	case <-t.C:
		return errDisconnectTimeout
	}
}

func vcReady(vc *discordgo.VoiceConnection) bool {
	if vc == nil {
		return false
	}
	vc.RLock()
	defer vc.RUnlock()
	return vc.Ready && vc.OpusSend != nil
}

type DiscordConn struct {
	vc        atomic.Pointer[discordgo.VoiceConnection]
	channelID string
	guildID   string
}

func (c *DiscordConn) ChannelID() string { return c.channelID }

func (c *DiscordConn) Ready() bool {
	return vcReady(c.vc.Load())
}

func (c *DiscordConn) NewSink(context.Context) (player.Sink, error) {
	vc := c.vc.Load()
	if !vcReady(vc) {
		return nil, errors.New("voice connection not ready")
	}
	enc, err := NewOpusEncoder()
	if err != nil {
		return nil, err
	}
	_ = vc.Speaking(true)
	return &opusSink{vc: vc, enc: enc, framer: newFramer()}, nil
}

// Close stops speaking and leaves the channel.
func (c *DiscordConn) Close() error {
	vc := c.vc.Swap(nil)
	if vc == nil {
		return nil
	}
	if vcReady(vc) {
		_ = vc.Speaking(false)
	}
	if err := disconnect(vc); err != nil {
		slog.Debug("voice disconnect", "guildID", c.guildID, "err", err)
		return err
	}
	return nil
}

// opusSink encodes PCM into opus packets and hands them to discordgo,
// which paces them at one per 20 ms.
type opusSink struct {
	vc     *discordgo.VoiceConnection
	enc    *OpusEncoder
	framer *framer
}

var errVoiceClosed = errors.New("voice connection closed")

func (s *opusSink) send(ctx context.Context, pkt []byte) (err error) {
	if len(pkt) == 0 {
		return nil
	}
	// OpusSend stays open after a disconnect, so a dropped connection shows
	// up as a send that never drains; the panic guard covers a closed channel.
	defer func() {
		if recover() != nil {
			err = errVoiceClosed
		}
	}()
	out := make([]byte, len(pkt))
	copy(out, pkt)

	select {
	case s.vc.OpusSend <- out:
		return nil
	default:
	}
	tick := time.NewTicker(sendStallCheck)
	defer tick.Stop()
	for {
		select {
		case s.vc.OpusSend <- out:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if !vcReady(s.vc) {
				return errVoiceClosed
			}
		}
	}
}

func (s *opusSink) Write(ctx context.Context, pcm []byte) error {
	return s.framer.push(pcm, func(frame []byte) error {
		return s.enc.EncodeFrame(frame, func(pkt []byte) error { return s.send(ctx, pkt) })
	})
}

func (s *opusSink) Flush(ctx context.Context) error {
	emit := func(pkt []byte) error { return s.send(ctx, pkt) }
	if err := s.framer.flush(func(frame []byte) error { return s.enc.EncodeFrame(frame, emit) }); err != nil {
		return err
	}
	return s.enc.Flush(emit)
}

func (s *opusSink) Close() error {
	if vcReady(s.vc) {
		_ = s.vc.Speaking(false)
	}
	s.enc.Close()
	return nil
}
