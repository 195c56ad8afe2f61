package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AddLike adds the user to the song's like-set. The insert is atomic per
// element; adding an already-present like is a no-op, so concurrent toggles
// from different users never clobber each other.
func (s *Store) AddLike(ctx context.Context, songID, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO song_likes (song_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, songID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrSongNotFound
		}
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

// RemoveLike removes the user from the song's like-set. Removing an absent
// like is a no-op.
func (s *Store) RemoveLike(ctx context.Context, songID, userID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM song_likes
		WHERE song_id = $1 AND user_id = $2
	`, songID, userID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}
