package player

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sonroyaalmerol/guildtune/internal/resolver"
	"github.com/sonroyaalmerol/guildtune/internal/utils"
)

// attempt is one cancellable play of the queue head. Cancelling ctx ends
// the attempt; runCancel only stops the current pipeline run (pause).
type attempt struct {
	id     string
	track  resolver.Track
	ctx    context.Context
	cancel context.CancelFunc

	runCancel context.CancelFunc
	started   time.Time
	paused    bool
	resume    chan struct{}
}

// Engine plays one guild's queue. All methods are safe for concurrent use.
//
// Action transitions happen under mu together with the cancellation they
// imply, so a command can never set a flag without its attempt seeing it:
//
//	None    -> Skip, Pause, Repeat
//	Repeat  -> None, Skip, Pause
//	Pause   -> Resume, Skip, Repeat
//	Resume  -> Skip, Pause, Repeat
//	Skip    -> Repeat (the cancelled attempt still advances)
type Engine struct {
	guildID string
	deps    Deps
	log     *slog.Logger

	mu            sync.Mutex
	queue         []resolver.Track
	previous      []resolver.Track
	action        Action
	cur           *attempt
	running       bool
	loopDone      chan struct{}
	closed        bool
	channelID     string
	conn          VoiceConn
	connChannelID string
	// teardown is closed once the most recently detached connection is closed.
	teardown chan struct{}
}

func NewEngine(guildID string, deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		guildID: guildID,
		deps:    deps,
		log:     logger.With("guildID", guildID),
	}
}

func (e *Engine) GuildID() string { return e.guildID }

// Enqueue adds tracks to the queue, right after the playing track when
// atTop is set. channelID becomes the voice destination unless a connection
// is already live. It returns the queue index of the first added track.
func (e *Engine) Enqueue(channelID string, tracks []resolver.Track, atTop, shuffle bool) (int, error) {
	batch := slices.Clone(tracks)
	if shuffle && len(batch) > 1 {
		utils.ShuffleSlice(batch)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrEngineClosed
	}
	if channelID != "" && e.conn == nil {
		e.channelID = channelID
	}

	pos := len(e.queue)
	if atTop && len(e.queue) > 0 {
		pos = 1
		e.queue = slices.Insert(e.queue, 1, batch...)
	} else {
		e.queue = append(e.queue, batch...)
	}
	e.startLocked()
	return pos, nil
}

// PlayPrevious enqueues entry index of GetPreviousQueue.
func (e *Engine) PlayPrevious(channelID string, index int, atTop bool) (resolver.Track, error) {
	e.mu.Lock()
	if index < 0 || index >= len(e.previous) {
		e.mu.Unlock()
		return resolver.Track{}, ErrNoHistoryEntry
	}
	t := e.previous[index]
	e.mu.Unlock()

	if _, err := e.Enqueue(channelID, []resolver.Track{t}, atTop, false); err != nil {
		return resolver.Track{}, err
	}
	return t, nil
}

// Skip ends the playing track. The queue advances once its attempt unwinds.
func (e *Engine) Skip() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skipLocked()
}

func (e *Engine) skipLocked() bool {
	if e.cur == nil {
		return false
	}
	e.action = ActionSkip
	e.cur.cancel()
	return true
}

// SkipMany skips n tracks: n-1 queued ones are dropped, then the playing one
// is skipped. Nothing happens unless something is queued after the head.
func (e *Engine) SkipMany(n int) (removed int, skipped bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 || len(e.queue) <= 1 {
		return 0, false
	}
	removed = min(n-1, len(e.queue)-1)
	e.queue = slices.Delete(e.queue, 1, 1+removed)
	return removed, e.skipLocked()
}

// Pause stops sending audio. The track restarts from the beginning on Resume.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	att := e.cur
	if att == nil || att.paused || att.ctx.Err() != nil {
		return false
	}
	att.paused = true
	e.action = ActionPause
	if att.runCancel != nil {
		att.runCancel()
	}
	return true
}

func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	att := e.cur
	if att == nil || !att.paused {
		return false
	}
	att.paused = false
	e.action = ActionResume
	select {
	case att.resume <- struct{}{}:
	default:
	}
	return true
}

// Repeat toggles repeating the playing track and returns the new state.
func (e *Engine) Repeat() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.action == ActionRepeat {
		e.action = ActionNone
		return false
	}
	e.action = ActionRepeat
	return true
}

// Shuffle permutes everything after the playing track.
func (e *Engine) Shuffle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) > 2 {
		utils.ShuffleSlice(e.queue[1:])
	}
}

// Clear drops everything but the playing track and returns how many were removed.
func (e *Engine) Clear() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) <= 1 {
		return 0
	}
	removed := len(e.queue) - 1
	clear(e.queue[1:])
	e.queue = e.queue[:1]
	return removed
}

// Join moves playback to channelID and replays the current track there.
func (e *Engine) Join(channelID string) bool {
	e.mu.Lock()
	if e.closed || len(e.queue) == 0 {
		e.mu.Unlock()
		return false
	}
	e.queue = slices.Insert(e.queue, 1, e.queue[0])
	e.channelID = channelID
	att := e.cur
	teardown := e.detachConnLocked()
	e.mu.Unlock()

	teardown()

	e.mu.Lock()
	// the attempt may have ended on its own meanwhile; then the copy plays next
	if e.cur == att {
		e.skipLocked()
	}
	e.mu.Unlock()
	return true
}

// Reset empties the queue, stops playback and disconnects. The engine
// rejects further Enqueue calls.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.queue = nil
	if e.cur != nil {
		e.action = ActionSkip
		e.cur.cancel()
	}
	teardown := e.detachConnLocked()
	e.mu.Unlock()

	teardown()
}

func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) GetQueue() []resolver.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.queue)
}

func (e *Engine) GetPreviousQueue() []resolver.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.previous)
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Action:    e.action,
		Running:   e.running,
		ChannelID: e.channelID,
		Connected: e.conn != nil,
	}
	if e.cur != nil {
		st.Paused = e.cur.paused
		if !st.Paused && !e.cur.started.IsZero() {
			st.Elapsed = time.Since(e.cur.started)
		}
	}
	return st
}

// ConnectedChannel is the channel of the live voice connection, or "".
func (e *Engine) ConnectedChannel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connChannelID
}

// Wait blocks until the background loop running at call time has exited.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.loopDone
	e.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) startLocked() {
	if e.running || len(e.queue) == 0 {
		return
	}
	e.running = true
	e.loopDone = make(chan struct{})
	e.cur = e.newAttemptLocked()
	go e.loop(e.loopDone)
}

func (e *Engine) newAttemptLocked() *attempt {
	ctx, cancel := context.WithCancel(context.Background())
	e.action = ActionNone
	return &attempt{
		id:     uuid.NewString(),
		track:  e.queue[0],
		ctx:    ctx,
		cancel: cancel,
		resume: make(chan struct{}, 1),
	}
}

func (e *Engine) loop(done chan struct{}) {
	for {
		e.mu.Lock()
		att := e.cur
		e.mu.Unlock()

		e.play(att)
		if !e.advance(att, done) {
			return
		}
	}
}

// advance retires att's track into history and installs the next attempt.
// It reports whether the loop should continue.
func (e *Engine) advance(att *attempt, done chan struct{}) bool {
	att.cancel()

	e.mu.Lock()
	if !e.closed && len(e.queue) > 0 {
		e.previous = append(e.previous, e.queue[0])
		if over := len(e.previous) - HistorySize; over > 0 {
			e.previous = slices.Delete(e.previous, 0, over)
		}
		e.queue = slices.Delete(e.queue, 0, 1)
	}
	if !e.closed && len(e.queue) > 0 {
		e.cur = e.newAttemptLocked()
		e.mu.Unlock()
		return true
	}

	e.cur = nil
	e.running = false
	if !e.closed {
		e.action = ActionNone
	}
	teardown := e.detachConnLocked()
	close(done)
	e.mu.Unlock()

	teardown()
	e.log.Debug("queue drained, loop stopped")
	return false
}

// play runs att until it completes, fails or is cancelled. Repeat and
// pause/resume restart the pipeline from the start of the track.
func (e *Engine) play(att *attempt) {
	log := e.log.With("attempt", att.id, "track", att.track.URL)
	defer func() {
		if r := recover(); r != nil {
			log.Error("playback panic recovered", "panic", r)
		}
	}()

	if e.deps.Announcer != nil {
		if finish := e.deps.Announcer.TrackStarted(e.guildID, att.track); finish != nil {
			defer finish()
		}
	}

	for {
		conn, err := e.ensureConn(att)
		if err != nil {
			if att.ctx.Err() == nil {
				log.Warn("voice connect failed", "err", err)
			}
			return
		}

		runCtx, runCancel := context.WithCancel(att.ctx)
		e.mu.Lock()
		paused := att.paused
		att.runCancel = runCancel
		att.started = time.Now()
		e.mu.Unlock()

		var n int64
		if !paused {
			log.Info("playing", "name", att.track.DisplayName())
			n, err = e.stream(runCtx, conn, att.track)
		}
		interrupted := paused || runCtx.Err() != nil
		runCancel()

		e.mu.Lock()
		interrupted = interrupted || att.paused
		repeat := e.action == ActionRepeat
		finished := att.ctx.Err() == nil && !interrupted && (err != nil || !repeat || n == 0)
		if finished {
			// a Pause from here on finds the attempt over
			att.cancel()
		}
		e.mu.Unlock()

		switch {
		case finished && err != nil:
			log.Warn("track failed", "err", err)
			return
		case finished, att.ctx.Err() != nil:
			return
		case interrupted:
			if !e.waitResume(att) {
				return
			}
			log.Debug("resuming from the start")
		default:
			log.Debug("repeating")
		}
	}
}

func (e *Engine) waitResume(att *attempt) bool {
	select {
	case <-att.resume:
		return true
	case <-att.ctx.Done():
		return false
	}
}

// ensureConn returns a ready connection to the requested channel, reusing
// the live one when it already points there.
func (e *Engine) ensureConn(att *attempt) (VoiceConn, error) {
	e.mu.Lock()
	conn, channelID := e.conn, e.channelID
	e.mu.Unlock()

	if channelID == "" {
		return nil, ErrNoChannel
	}
	if conn != nil && e.connChannelIs(conn, channelID) && conn.Ready() {
		return conn, nil
	}
	if conn != nil {
		teardown := func() {}
		e.mu.Lock()
		if e.conn == conn {
			teardown = e.detachConnLocked()
		}
		e.mu.Unlock()
		teardown()
	}
	if err := e.awaitTeardown(att.ctx); err != nil {
		return nil, err
	}

	fresh, err := e.deps.Voice.Connect(att.ctx, e.guildID, channelID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.closed || att.ctx.Err() != nil {
		teardown := e.retireLocked(fresh)
		e.mu.Unlock()
		teardown()
		return nil, context.Canceled
	}
	e.conn, e.connChannelID = fresh, channelID
	e.mu.Unlock()
	return fresh, nil
}

func (e *Engine) connChannelIs(conn VoiceConn, channelID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn == conn && e.connChannelID == channelID
}

// detachConnLocked unhooks the live connection and returns the func that
// closes it, which must be called without mu held. Detached connections
// close in order and awaitTeardown waits for all of them.
func (e *Engine) detachConnLocked() func() {
	conn := e.conn
	e.conn, e.connChannelID = nil, ""
	return e.retireLocked(conn)
}

func (e *Engine) retireLocked(conn VoiceConn) func() {
	if conn == nil {
		return func() {}
	}
	prev := e.teardown
	done := make(chan struct{})
	e.teardown = done
	return func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		e.closeConn(conn)
	}
}

// awaitTeardown blocks until every detached connection has been closed, so
// a new voice join never races the previous disconnect.
func (e *Engine) awaitTeardown(ctx context.Context) error {
	e.mu.Lock()
	td := e.teardown
	e.mu.Unlock()
	if td == nil {
		return nil
	}
	select {
	case <-td:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) closeConn(conn VoiceConn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warn("voice disconnect failed", "err", err)
	}
}
