package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id) VALUES (?)`, guild,
	); err != nil {
		return nil, fmt.Errorf("insert settings: %w", err)
	}
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, playlist_limit, leave_if_no_listeners, announce_now_playing,
	       queue_add_ephemeral, default_queue_page_size
	FROM settings WHERE guild_id = ?`, guild)

	var s Settings
	var leave, announce, ephemeral int
	if err := row.Scan(
		&s.GuildID,
		&s.PlaylistLimit,
		&leave,
		&announce,
		&ephemeral,
		&s.DefaultQueuePageSize,
	); err != nil {
		return nil, err
	}
	s.LeaveIfNoListeners = leave != 0
	s.AnnounceNowPlaying = announce != 0
	s.QAddEphemeral = ephemeral != 0
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE settings SET
		  playlist_limit=?,
		  leave_if_no_listeners=?,
		  announce_now_playing=?,
		  queue_add_ephemeral=?,
		  default_queue_page_size=?
		WHERE guild_id=?`,
		s.PlaylistLimit, boolToInt(s.LeaveIfNoListeners), boolToInt(s.AnnounceNowPlaying),
		boolToInt(s.QAddEphemeral), s.DefaultQueuePageSize, s.GuildID,
	)
	return err
}

func (r *Repo) AddFavorite(ctx context.Context, f *Favorite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites(guild_id, author_id, name, query) VALUES (?,?,?,?)`,
		f.GuildID, f.Author, f.Name, f.Query,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrFavoriteExists
	}
	return err
}

// RemoveFavorite deletes name in guild. Only its author may remove it
// unless force is set.
func (r *Repo) RemoveFavorite(ctx context.Context, guild, name, author string, force bool) (int64, error) {
	q := `DELETE FROM favorites WHERE guild_id=? AND name=?`
	args := []any{guild, name}
	if !force {
		q += ` AND author_id=?`
		args = append(args, author)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) FindFavorite(ctx context.Context, guild, name string) (*Favorite, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, guild_id, author_id, name, query FROM favorites WHERE guild_id=? AND name=?`, guild, name)
	var f Favorite
	if err := row.Scan(&f.ID, &f.GuildID, &f.Author, &f.Name, &f.Query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFavoriteNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) ListFavorites(ctx context.Context, guild string) ([]Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, guild_id, author_id, name, query FROM favorites WHERE guild_id=? ORDER BY name ASC`, guild)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.GuildID, &f.Author, &f.Name, &f.Query); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SearchFavorites lists names in guild starting with prefix, for autocomplete.
func (r *Repo) SearchFavorites(ctx context.Context, guild, prefix string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM favorites WHERE guild_id=? AND name LIKE ? ESCAPE '\' ORDER BY name ASC LIMIT ?`,
		guild, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
