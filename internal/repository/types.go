package repository

import (
	"database/sql"
	"errors"
)

var (
	ErrFavoriteExists   = errors.New("a favorite with that name already exists")
	ErrFavoriteNotFound = errors.New("no favorite with that name")
)

type Repo struct {
	db *sql.DB
}

// Settings are per-guild preferences. Zero rows means defaults.
type Settings struct {
	GuildID              string
	PlaylistLimit        int
	LeaveIfNoListeners   bool
	AnnounceNowPlaying   bool
	QAddEphemeral        bool
	DefaultQueuePageSize int
}

type Favorite struct {
	ID      int64
	GuildID string
	Author  string
	Name    string
	Query   string
}

// DefaultSettings mirrors the column defaults of the settings table.
func DefaultSettings(guildID string) *Settings {
	return &Settings{
		GuildID:              guildID,
		PlaylistLimit:        50,
		LeaveIfNoListeners:   true,
		AnnounceNowPlaying:   true,
		DefaultQueuePageSize: 10,
	}
}
