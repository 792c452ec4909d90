package player_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
)

// Track URLs pick the fake stream's behaviour by prefix:
//
//	block:  one frame, then blocks until cancelled
//	fail:   OpenStream fails
//	empty:  zero bytes
//	panic:  OpenStream panics
//	gate:   finite, but OpenStream waits for the gate channel to close
//	tcfail: finite, but Transcode fails to start
//	exitfail: finite, but the transcoder reports a failed exit on Close
//	anything else: finiteBytes of PCM, then EOF
const finiteBytes = player.FrameBytes*2 + 100

func tr(url string) resolver.Track {
	return resolver.Track{URL: url, Name: url, Provider: resolver.ProviderYouTube}
}

func trs(urls ...string) []resolver.Track {
	out := make([]resolver.Track, len(urls))
	for i, u := range urls {
		out[i] = tr(u)
	}
	return out
}

func urls(ts []resolver.Track) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.URL
	}
	return out
}

type fakeStreams struct {
	mu    sync.Mutex
	opens map[string]int
	gate  chan struct{}
}

func (f *fakeStreams) OpenStream(ctx context.Context, t resolver.Track) (io.ReadCloser, error) {
	f.mu.Lock()
	if f.opens == nil {
		f.opens = make(map[string]int)
	}
	f.opens[t.URL]++
	f.mu.Unlock()

	switch {
	case strings.HasPrefix(t.URL, "fail:"):
		return nil, &resolver.StreamError{Track: t, Err: errors.New("boom")}
	case strings.HasPrefix(t.URL, "panic:"):
		panic("stream exploded")
	case strings.HasPrefix(t.URL, "empty:"):
		return io.NopCloser(bytes.NewReader(nil)), nil
	case strings.HasPrefix(t.URL, "block:"):
		return &blockingReader{ctx: ctx, first: make([]byte, player.FrameBytes)}, nil
	case strings.HasPrefix(t.URL, "gate:"):
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	case strings.HasPrefix(t.URL, "tcfail:"), strings.HasPrefix(t.URL, "exitfail:"):
		kind, _, _ := strings.Cut(t.URL, ":")
		return &taggedReader{Reader: bytes.NewReader(make([]byte, finiteBytes)), kind: kind}, nil
	}
	return io.NopCloser(bytes.NewReader(make([]byte, finiteBytes))), nil
}

// taggedReader carries a transcoder failure mode through to passthrough.
type taggedReader struct {
	io.Reader
	kind string
}

func (r *taggedReader) Close() error { return nil }

func (f *fakeStreams) Opens(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[url]
}

type blockingReader struct {
	ctx   context.Context
	first []byte
}

func (r *blockingReader) Read(p []byte) (int, error) {
	if len(r.first) > 0 {
		n := copy(p, r.first)
		r.first = r.first[n:]
		return n, nil
	}
	<-r.ctx.Done()
	return 0, r.ctx.Err()
}

func (r *blockingReader) Close() error { return nil }

// passthrough stands in for ffmpeg and tracks how many pipelines are open.
type passthrough struct {
	open atomic.Int64
}

var (
	errTranscodeStart = errors.New("transcoder failed to start")
	errTranscodeExit  = errors.New("transcoder exited with status 1")
)

func (p *passthrough) Transcode(_ context.Context, src io.Reader) (io.ReadCloser, error) {
	var closeErr error
	if tagged, ok := src.(*taggedReader); ok {
		switch tagged.kind {
		case "tcfail":
			return nil, errTranscodeStart
		case "exitfail":
			closeErr = errTranscodeExit
		}
	}
	p.open.Add(1)
	return &countedReader{Reader: src, closeErr: closeErr, release: func() { p.open.Add(-1) }}, nil
}

type countedReader struct {
	io.Reader
	once     sync.Once
	release  func()
	closeErr error
}

func (c *countedReader) Close() error {
	c.once.Do(c.release)
	return c.closeErr
}

type fakeVoice struct {
	mu        sync.Mutex
	connected []string
	openConns atomic.Int64
	openSinks atomic.Int64
	written   atomic.Int64
	flushes   atomic.Int64

	// closeDelay makes Close slow; overlapped records a Connect that ran
	// while some Close was still in progress.
	closeDelay time.Duration
	closing    atomic.Int64
	overlapped atomic.Bool
}

func (v *fakeVoice) Connect(_ context.Context, _, channelID string) (player.VoiceConn, error) {
	if v.closing.Load() > 0 {
		v.overlapped.Store(true)
	}
	if channelID == "unreachable" {
		return nil, errors.New("connect refused")
	}
	v.mu.Lock()
	v.connected = append(v.connected, channelID)
	v.mu.Unlock()
	v.openConns.Add(1)
	return &fakeConn{voice: v, channelID: channelID}, nil
}

func (v *fakeVoice) Connected() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.connected...)
}

type fakeConn struct {
	voice     *fakeVoice
	channelID string
	closed    atomic.Bool
}

func (c *fakeConn) ChannelID() string { return c.channelID }
func (c *fakeConn) Ready() bool       { return !c.closed.Load() }

func (c *fakeConn) NewSink(context.Context) (player.Sink, error) {
	c.voice.openSinks.Add(1)
	return &fakeSink{voice: c.voice}, nil
}

func (c *fakeConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.voice.closing.Add(1)
	defer c.voice.closing.Add(-1)
	time.Sleep(c.voice.closeDelay)
	c.voice.openConns.Add(-1)
	return nil
}

type fakeSink struct {
	voice *fakeVoice
	once  sync.Once
}

func (s *fakeSink) Write(ctx context.Context, pcm []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.voice.written.Add(int64(len(pcm)))
	return nil
}

func (s *fakeSink) Flush(context.Context) error {
	s.voice.flushes.Add(1)
	return nil
}

func (s *fakeSink) Close() error {
	s.once.Do(func() { s.voice.openSinks.Add(-1) })
	return nil
}

type fakeAnnouncer struct {
	started  atomic.Int64
	finished atomic.Int64
	// onFinish runs when a track's announcement is taken down.
	onFinish func()
}

func (a *fakeAnnouncer) TrackStarted(string, resolver.Track) func() {
	a.started.Add(1)
	return func() {
		a.finished.Add(1)
		if a.onFinish != nil {
			a.onFinish()
		}
	}
}

type harness struct {
	streams   *fakeStreams
	transcode *passthrough
	voice     *fakeVoice
	announcer *fakeAnnouncer
	deps      player.Deps
}

func newHarness() *harness {
	h := &harness{
		streams:   &fakeStreams{gate: make(chan struct{})},
		transcode: &passthrough{},
		voice:     &fakeVoice{},
		announcer: &fakeAnnouncer{},
	}
	h.deps = player.Deps{
		Streams:    h.streams,
		Transcoder: h.transcode,
		Voice:      h.voice,
		Announcer:  h.announcer,
	}
	return h
}

func (h *harness) engine(t *testing.T) *player.Engine {
	t.Helper()
	e := player.NewEngine("guild", h.deps)
	t.Cleanup(func() {
		e.Reset()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.Wait(ctx)
	})
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitIdle(t *testing.T, e *player.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("engine loop did not stop: %v", err)
	}
}
