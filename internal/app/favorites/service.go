// Package favorites mutates a song's like-set on behalf of one viewer.
package favorites

import (
	"context"

	"github.com/google/uuid"
)

// LikeStore exposes the atomic per-element set operations the mutator
// relies on. The store, not this service, guarantees that concurrent
// toggles on the same song never lose an update.
type LikeStore interface {
	AddLike(ctx context.Context, songID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, songID, userID uuid.UUID) error
}

// Service exposes the favorite toggle.
type Service struct {
	store LikeStore
}

// New constructs a favorites Service backed by the provided store.
func New(store LikeStore) *Service {
	return &Service{store: store}
}

// Favorite adds the user to the song's like-set. Adding an already-present
// user is a no-op, not an error.
func (s *Service) Favorite(ctx context.Context, songID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.AddLike(ctx, songID, userID)
}

// Unfavorite removes the user from the song's like-set. Removing an absent
// user is a no-op.
func (s *Service) Unfavorite(ctx context.Context, songID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.RemoveLike(ctx, songID, userID)
}
