package player

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sonroyaalmerol/guildtune/internal/resolver"
)

// PCM layout produced by the Transcoder and consumed by sinks.
const (
	SampleRate   = 48000
	Channels     = 2
	FrameSamples = 960 // 20 ms
	FrameBytes   = FrameSamples * Channels * 2
)

// stream pushes one full play of t into conn and returns the PCM byte count
// delivered. Resources are released network first, then transcoder, then sink.
func (e *Engine) stream(ctx context.Context, conn VoiceConn, t resolver.Track) (n int64, err error) {
	var (
		src  io.ReadCloser
		pcm  io.ReadCloser
		sink Sink
	)
	defer func() {
		if src != nil {
			_ = src.Close()
		}
		if pcm != nil {
			_ = pcm.Close()
		}
		if sink != nil {
			_ = sink.Close()
		}
	}()

	src, err = e.deps.Streams.OpenStream(ctx, t)
	if err != nil {
		return 0, err
	}
	pcm, err = e.deps.Transcoder.Transcode(ctx, src)
	if err != nil {
		return 0, err
	}
	sink, err = conn.NewSink(ctx)
	if err != nil {
		return 0, fmt.Errorf("open sink: %w", err)
	}

	n, err = copyPCM(ctx, sink, pcm)
	if err != nil {
		return n, err
	}

	// A clean EOF can still hide a transcoder failure; its exit status
	// only shows up on Close.
	closeErr := pcm.Close()
	pcm = nil
	return n, closeErr
}

// copyPCM moves frame-sized chunks from r into sink, then flushes it.
func copyPCM(ctx context.Context, sink Sink, r io.Reader) (int64, error) {
	buf := make([]byte, FrameBytes)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := sink.Write(ctx, buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return total, ctxErr
			}
			return total, fmt.Errorf("read pcm: %w", err)
		}
	}
	if err := sink.Flush(ctx); err != nil {
		return total, err
	}
	return total, nil
}
