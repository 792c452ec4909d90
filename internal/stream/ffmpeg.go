package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sonroyaalmerol/guildtune/internal/player"
	"github.com/sonroyaalmerol/guildtune/internal/utils"
)

// TranscodeError reports an ffmpeg process that failed to start or exited
// with a non-zero status.
type TranscodeError struct {
	Err    error
	Stderr string
}

func (e *TranscodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

var _ error = (*TranscodeError)(nil)

// FFmpeg transcodes any container ffmpeg understands into raw s16le PCM
// at 48 kHz stereo.
type FFmpeg struct {
	Path   string
	Logger *slog.Logger
}

var _ player.Transcoder = FFmpeg{}

func (f FFmpeg) Args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-ac", strconv.Itoa(player.Channels),
		"-ar", strconv.Itoa(player.SampleRate),
		"-f", "s16le",
		"pipe:1",
	}
}

// Transcode starts ffmpeg reading src on stdin. Closing the returned reader
// kills the process if it is still running and reaps it.
func (f FFmpeg) Transcode(ctx context.Context, src io.Reader) (io.ReadCloser, error) {
	path := f.Path
	if path == "" {
		path = "ffmpeg"
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := utils.ExecWith(ctx, path, f.Args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, &TranscodeError{Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &TranscodeError{Err: err}
	}
	stderr := &tailBuffer{max: 2048}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &TranscodeError{Err: err}
	}

	go func() {
		_, err := io.Copy(stdin, src)
		_ = stdin.Close()
		if err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) {
			log.Debug("ffmpeg stdin copy ended", "err", err)
		}
	}()

	return &ffmpegProcess{cmd: cmd, stdout: stdout, stderr: stderr, cancel: cancel}, nil
}

type ffmpegProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr *tailBuffer
	cancel context.CancelFunc

	eof      atomic.Bool
	once     sync.Once
	closeErr error
}

func (p *ffmpegProcess) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		p.eof.Store(true)
	}
	return n, err
}

// Close reaps the process. The exit status is only reported for a process
// whose output was read to the end; a killed one is not an error.
func (p *ffmpegProcess) Close() error {
	p.once.Do(func() {
		finished := p.eof.Load()
		if !finished {
			p.cancel()
		}
		err := p.cmd.Wait()
		p.cancel()
		if finished && err != nil {
			p.closeErr = &TranscodeError{Err: err, Stderr: p.stderr.String()}
		}
	})
	return p.closeErr
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
