package player

import "errors"

var (
	ErrEngineClosed   = errors.New("engine closed")
	ErrNoHistoryEntry = errors.New("no such entry in the previous queue")
	ErrNoChannel      = errors.New("no voice channel requested")
)
