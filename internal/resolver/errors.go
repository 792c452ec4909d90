package resolver

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrNoResults        = errors.New("no results")
	ErrSpotifyDisabled  = errors.New("spotify is not enabled")
)

// ResolutionError is returned by Resolve when the input can't be turned into tracks.
type ResolutionError struct {
	Input string
	Err   error
}

var _ error = (*ResolutionError)(nil)

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Input, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// StreamError is returned by OpenStream when audio for a track can't be fetched.
type StreamError struct {
	Track Track
	Err   error
}

var _ error = (*StreamError)(nil)

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Track.URL, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
