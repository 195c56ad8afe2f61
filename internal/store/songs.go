package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Song represents a song row together with its uploader name and like-set.
type Song struct {
	ID         uuid.UUID
	Author     string
	Title      string
	Cover      *string
	Path       string
	UploadedBy uuid.UUID
	Uploader   string
	Likes      []uuid.UUID
	CreatedAt  time.Time
}

// SongFields carries a partial metadata update; nil fields are left
// untouched by UpdateSongFields.
type SongFields struct {
	Author *string
	Title  *string
	Cover  *string
}

// NewSong carries the fields of a song to insert.
type NewSong struct {
	Author     string
	Title      string
	Cover      *string
	Path       string
	UploadedBy uuid.UUID
}

const songSelect = `
	SELECT s.id, s.author, s.title, s.cover, s.path, s.uploaded_by, u.username, s.created_at,
	       COALESCE(array_agg(l.user_id::text) FILTER (WHERE l.user_id IS NOT NULL), '{}')
	FROM songs s
	JOIN users u ON u.id = s.uploaded_by
	LEFT JOIN song_likes l ON l.song_id = s.id`

const songGroupBy = ` GROUP BY s.id, u.username`

// CreateSong inserts a song and returns its id.
func (s *Store) CreateSong(ctx context.Context, song NewSong) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (id, author, title, cover, path, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, song.Author, song.Title, song.Cover, song.Path, song.UploadedBy); err != nil {
		return uuid.Nil, fmt.Errorf("insert song: %w", err)
	}
	return id, nil
}

// GetSong returns a single song by id, including its like-set.
func (s *Store) GetSong(ctx context.Context, id uuid.UUID) (Song, error) {
	row := s.db.QueryRowContext(ctx, songSelect+` WHERE s.id = $1`+songGroupBy, id)

	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// ListSongs returns songs ordered newest first.
func (s *Store) ListSongs(ctx context.Context, skip, limit int) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx,
		songSelect+songGroupBy+` ORDER BY s.created_at DESC OFFSET $1 LIMIT $2`,
		skip, limit)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

// FindSongs returns songs whose author or title matches the query.
func (s *Store) FindSongs(ctx context.Context, query string) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx,
		songSelect+` WHERE s.author ILIKE $1 OR s.title ILIKE $1`+songGroupBy+
			` ORDER BY s.created_at DESC LIMIT 100`,
		"%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("find songs: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

// UpdateSongFields persists only the fields present in the update. An empty
// update is a no-op.
func (s *Store) UpdateSongFields(ctx context.Context, id uuid.UUID, fields SongFields) error {
	set := ""
	args := []interface{}{}
	argIdx := 1

	appendSet := func(column string, value interface{}) {
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if fields.Author != nil {
		appendSet("author", *fields.Author)
	}
	if fields.Title != nil {
		appendSet("title", *fields.Title)
	}
	if fields.Cover != nil {
		appendSet("cover", *fields.Cover)
	}

	if len(args) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE songs SET %s WHERE id = $%d", set, argIdx), args...)
	if err != nil {
		return fmt.Errorf("update song: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

// DeleteSong removes a song. Likes go with it via the FK cascade.
func (s *Store) DeleteSong(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (Song, error) {
	var (
		song  Song
		cover sql.NullString
		likes []string
	)

	if err := row.Scan(&song.ID, &song.Author, &song.Title, &cover, &song.Path,
		&song.UploadedBy, &song.Uploader, &song.CreatedAt, pq.Array(&likes)); err != nil {
		return Song{}, err
	}

	if cover.Valid {
		song.Cover = &cover.String
	}
	for _, raw := range likes {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return Song{}, fmt.Errorf("parse like user id: %w", err)
		}
		song.Likes = append(song.Likes, userID)
	}
	return song, nil
}

func collectSongs(rows *sql.Rows) ([]Song, error) {
	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}
