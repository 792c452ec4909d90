package stream

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/asticode/go-astiav"
	"github.com/sonroyaalmerol/guildtune/internal/player"
)

type OpusPacketHandler func(pkt []byte) error

// OpusEncoder wraps libopus through go-astiav. Input is one 20 ms frame of
// interleaved s16le stereo PCM at a time.
type OpusEncoder struct {
	cc     *astiav.CodecContext
	frame  *astiav.Frame
	packet *astiav.Packet
}

const opusBitRate = 160_000

func NewOpusEncoder() (*OpusEncoder, error) {
	codec := astiav.FindEncoderByName("libopus")
	if codec == nil {
		return nil, errors.New("libopus encoder not found (check ffmpeg installation)")
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, errors.New("failed to allocate codec context for libopus")
	}
	cc.SetSampleRate(player.SampleRate)
	cc.SetChannelLayout(astiav.ChannelLayoutStereo)
	cc.SetSampleFormat(astiav.SampleFormatS16)
	cc.SetBitRate(opusBitRate)

	opts := astiav.NewDictionary()
	defer opts.Free()
	_ = opts.Set("frame_duration", "20", 0)
	_ = opts.Set("application", "audio", 0)

	if err := cc.Open(codec, opts); err != nil {
		cc.Free()
		return nil, fmt.Errorf("failed to open opus encoder: %w", err)
	}

	frame := astiav.AllocFrame()
	if frame == nil {
		cc.Free()
		return nil, errors.New("failed to allocate audio frame for encoder")
	}
	frame.SetSampleRate(player.SampleRate)
	frame.SetChannelLayout(astiav.ChannelLayoutStereo)
	frame.SetSampleFormat(astiav.SampleFormatS16)
	frame.SetNbSamples(player.FrameSamples)
	if err := frame.AllocBuffer(0); err != nil {
		frame.Free()
		cc.Free()
		return nil, fmt.Errorf("failed to allocate frame buffer: %w", err)
	}

	pkt := astiav.AllocPacket()
	if pkt == nil {
		frame.Free()
		cc.Free()
		return nil, errors.New("failed to allocate packet for encoder")
	}

	slog.Debug("opus encoder opened",
		"sampleRate", cc.SampleRate(),
		"channels", cc.ChannelLayout().Channels(),
		"bitRate", cc.BitRate())

	return &OpusEncoder{cc: cc, frame: frame, packet: pkt}, nil
}

func (e *OpusEncoder) Close() {
	if e.packet != nil {
		e.packet.Free()
		e.packet = nil
	}
	if e.frame != nil {
		e.frame.Free()
		e.frame = nil
	}
	if e.cc != nil {
		e.cc.Free()
		e.cc = nil
	}
}

// EncodeFrame expects exactly player.FrameBytes of PCM.
func (e *OpusEncoder) EncodeFrame(pcm []byte, onPacket OpusPacketHandler) error {
	if len(pcm) != player.FrameBytes {
		return fmt.Errorf("invalid PCM frame size: expected %d bytes, got %d", player.FrameBytes, len(pcm))
	}
	if err := e.frame.Data().SetBytes(pcm, 0); err != nil {
		return fmt.Errorf("failed to set frame data bytes: %w", err)
	}
	if err := e.cc.SendFrame(e.frame); err != nil {
		return fmt.Errorf("failed to send frame to encoder: %w", err)
	}
	return e.drain(onPacket)
}

// Flush drains packets still buffered in the codec.
func (e *OpusEncoder) Flush(onPacket OpusPacketHandler) error {
	if err := e.cc.SendFrame(nil); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil
		}
		return fmt.Errorf("failed to send flush frame: %w", err)
	}
	return e.drain(onPacket)
}

func (e *OpusEncoder) drain(onPacket OpusPacketHandler) error {
	for {
		e.packet.Unref()
		if err := e.cc.ReceivePacket(e.packet); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("failed to receive opus packet: %w", err)
		}
		if err := onPacket(e.packet.Data()); err != nil {
			return err
		}
	}
}
