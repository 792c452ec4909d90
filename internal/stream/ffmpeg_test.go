package stream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sonroyaalmerol/guildtune/internal/stream"
)

func TestFFmpegArgs(t *testing.T) {
	want := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0", "-vn",
		"-ac", "2", "-ar", "48000",
		"-f", "s16le", "pipe:1",
	}
	if diff := cmp.Diff(want, stream.FFmpeg{}.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

// fakeFFmpeg writes a shell script that stands in for the ffmpeg binary.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscodePassesAudioThrough(t *testing.T) {
	ff := stream.FFmpeg{Path: fakeFFmpeg(t, "cat")}
	input := bytes.Repeat([]byte("pcm!"), 5000)

	out, err := ff.Transcode(context.Background(), bytes.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Errorf("got %d bytes back, want %d", len(got), len(input))
	}
}

func TestTranscodeReportsExitStatus(t *testing.T) {
	ff := stream.FFmpeg{Path: fakeFFmpeg(t, "cat >/dev/null; echo 'Invalid data found' >&2; exit 1")}

	out, err := ff.Transcode(context.Background(), strings.NewReader("garbage"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(out); err != nil {
		t.Fatal(err)
	}
	err = out.Close()

	var te *stream.TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("Close() = %v, want *TranscodeError", err)
	}
	if !strings.Contains(te.Stderr, "Invalid data found") {
		t.Errorf("Stderr = %q", te.Stderr)
	}
}

func TestTranscodeCloseKillsRunningProcess(t *testing.T) {
	ff := stream.FFmpeg{Path: fakeFFmpeg(t, "exec sleep 30")}

	pr, pw := io.Pipe()
	defer pw.Close()
	out, err := ff.Transcode(context.Background(), pr)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("Close() of a killed process = %v, want nil", err)
	}
}

func TestTranscodeMissingBinary(t *testing.T) {
	ff := stream.FFmpeg{Path: filepath.Join(t.TempDir(), "does-not-exist")}
	_, err := ff.Transcode(context.Background(), strings.NewReader(""))

	var te *stream.TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TranscodeError", err)
	}
}
