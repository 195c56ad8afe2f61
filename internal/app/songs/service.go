package songs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songvault/internal/access"
	"songvault/internal/cdn"
	"songvault/internal/store"
)

// ErrForbidden indicates the viewer may not perform the mutation.
var ErrForbidden = errors.New("access denied")

// UpstreamError wraps a Song Store or uploader failure. Handlers report it
// without the underlying detail; the cause stays available for logging.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SongStore captures the persistence operations the pipeline needs.
type SongStore interface {
	CreateSong(ctx context.Context, song store.NewSong) (uuid.UUID, error)
	GetSong(ctx context.Context, id uuid.UUID) (store.Song, error)
	ListSongs(ctx context.Context, skip, limit int) ([]store.Song, error)
	FindSongs(ctx context.Context, query string) ([]store.Song, error)
	UpdateSongFields(ctx context.Context, id uuid.UUID, fields store.SongFields) error
	DeleteSong(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates song reads and mutations.
type Service struct {
	store    SongStore
	uploader cdn.Uploader
	log      zerolog.Logger
}

// New constructs a song Service.
func New(st SongStore, uploader cdn.Uploader, log zerolog.Logger) *Service {
	return &Service{store: st, uploader: uploader, log: log}
}

// Update applies a validated mutation to a song and returns the normalized
// changed-field set. Order matters: resolve, authorize, validate, upload,
// persist. A failed upload aborts before persistence; a failed persistence
// after an upload triggers a compensating delete of the uploaded object so
// the song stays observably unchanged.
func (s *Service) Update(ctx context.Context, songID uuid.UUID, viewer access.Viewer, payload UpdatePayload) (Update, error) {
	song, err := s.getSong(ctx, songID)
	if err != nil {
		return Update{}, err
	}

	if !access.CanModify(viewer, song.UploadedBy) {
		return Update{}, ErrForbidden
	}

	update, cover, verr := payload.validate()
	if verr != nil {
		return Update{}, verr
	}

	uploaded := ""
	if cover != nil {
		ref, err := s.uploader.Store(ctx, cover.MimeType, cover.Data)
		if err != nil {
			return Update{}, &UpstreamError{Op: "upload cover", Err: err}
		}
		uploaded = ref
		update.Cover = &ref
	}

	if err := s.store.UpdateSongFields(ctx, songID, store.SongFields(update)); err != nil {
		if uploaded != "" {
			s.removeUploaded(ctx, uploaded)
		}
		if errors.Is(err, store.ErrSongNotFound) {
			return Update{}, err
		}
		return Update{}, &UpstreamError{Op: "update song", Err: err}
	}

	return update, nil
}

// Delete removes a song. Unlike update, deletion is role-gated only:
// ownership grants no delete right.
func (s *Service) Delete(ctx context.Context, songID uuid.UUID, viewer access.Viewer) error {
	if _, err := s.getSong(ctx, songID); err != nil {
		return err
	}

	if !access.HasRole(viewer, access.MinDeleteRole) {
		return ErrForbidden
	}

	if err := s.store.DeleteSong(ctx, songID); err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return err
		}
		return &UpstreamError{Op: "delete song", Err: err}
	}
	return nil
}

// Get returns one song projected for the viewer.
func (s *Service) Get(ctx context.Context, songID uuid.UUID, viewer access.Viewer) (View, error) {
	song, err := s.getSong(ctx, songID)
	if err != nil {
		return View{}, err
	}
	return ToView(song, viewer), nil
}

// List returns a page of songs projected for the viewer.
func (s *Service) List(ctx context.Context, viewer access.Viewer, skip, limit int) ([]View, error) {
	var fields []FieldError
	if skip < 0 {
		fields = append(fields, FieldError{Field: "skip", Message: "must not be negative"})
	}
	if limit < 0 || limit > 100 {
		fields = append(fields, FieldError{Field: "limit", Message: "must be between 0 and 100"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if limit == 0 {
		limit = 50
	}

	songs, err := s.store.ListSongs(ctx, skip, limit)
	if err != nil {
		return nil, &UpstreamError{Op: "list songs", Err: err}
	}
	return s.toViews(songs, viewer), nil
}

// Find returns songs matching the query, projected for the viewer.
func (s *Service) Find(ctx context.Context, viewer access.Viewer, query string) ([]View, error) {
	if query == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "query", Message: "must not be empty"}}}
	}

	songs, err := s.store.FindSongs(ctx, query)
	if err != nil {
		return nil, &UpstreamError{Op: "find songs", Err: err}
	}
	return s.toViews(songs, viewer), nil
}

func (s *Service) getSong(ctx context.Context, songID uuid.UUID) (store.Song, error) {
	song, err := s.store.GetSong(ctx, songID)
	if err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return store.Song{}, err
		}
		return store.Song{}, &UpstreamError{Op: "load song", Err: err}
	}
	return song, nil
}

func (s *Service) toViews(songs []store.Song, viewer access.Viewer) []View {
	views := make([]View, len(songs))
	for i, song := range songs {
		views[i] = ToView(song, viewer)
	}
	return views
}
