package stream

import "github.com/sonroyaalmerol/guildtune/internal/player"

// framer regroups arbitrary PCM writes into fixed frames.
type framer struct {
	size int
	buf  []byte
}

func newFramer() *framer {
	return &framer{size: player.FrameBytes, buf: make([]byte, 0, player.FrameBytes)}
}

// push emits every complete frame and keeps the remainder.
func (f *framer) push(pcm []byte, emit func(frame []byte) error) error {
	for len(pcm) > 0 {
		n := min(f.size-len(f.buf), len(pcm))
		f.buf = append(f.buf, pcm[:n]...)
		pcm = pcm[n:]
		if len(f.buf) == f.size {
			if err := emit(f.buf); err != nil {
				return err
			}
			f.buf = f.buf[:0]
		}
	}
	return nil
}

// flush pads a partial frame with silence and emits it.
func (f *framer) flush(emit func(frame []byte) error) error {
	if len(f.buf) == 0 {
		return nil
	}
	n := len(f.buf)
	f.buf = f.buf[:f.size]
	clear(f.buf[n:])
	err := emit(f.buf)
	f.buf = f.buf[:0]
	return err
}

func (f *framer) pending() int { return len(f.buf) }
