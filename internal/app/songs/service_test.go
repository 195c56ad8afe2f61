package songs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songvault/internal/access"
	"songvault/internal/store"
)

type stubStore struct {
	song   store.Song
	getErr error

	songs   []store.Song
	listErr error

	createErr error
	createdID uuid.UUID
	created   *store.NewSong

	updateErr     error
	updatedID     uuid.UUID
	updatedFields *store.SongFields

	deleteErr error
	deletedID uuid.UUID
}

func (s *stubStore) CreateSong(ctx context.Context, song store.NewSong) (uuid.UUID, error) {
	s.created = &song
	if s.createErr != nil {
		return uuid.Nil, s.createErr
	}
	return s.createdID, nil
}

func (s *stubStore) GetSong(ctx context.Context, id uuid.UUID) (store.Song, error) {
	if s.getErr != nil {
		return store.Song{}, s.getErr
	}
	return s.song, nil
}

func (s *stubStore) ListSongs(ctx context.Context, skip, limit int) ([]store.Song, error) {
	return s.songs, s.listErr
}

func (s *stubStore) FindSongs(ctx context.Context, query string) ([]store.Song, error) {
	return s.songs, s.listErr
}

func (s *stubStore) UpdateSongFields(ctx context.Context, id uuid.UUID, fields store.SongFields) error {
	s.updatedID = id
	s.updatedFields = &fields
	return s.updateErr
}

func (s *stubStore) DeleteSong(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	return s.deleteErr
}

type stubUploader struct {
	ref        string
	storeErr   error
	storeCalls int
	removed    []string
}

func (u *stubUploader) Store(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	u.storeCalls++
	if u.storeErr != nil {
		return "", u.storeErr
	}
	return u.ref, nil
}

func (u *stubUploader) Remove(ctx context.Context, ref string) error {
	u.removed = append(u.removed, ref)
	return nil
}

func newService(st *stubStore, up *stubUploader) *Service {
	return New(st, up, zerolog.Nop())
}

func ownedSong(owner uuid.UUID) store.Song {
	return store.Song{
		ID:         uuid.New(),
		Author:     "Massive Attack",
		Title:      "Angel",
		UploadedBy: owner,
		Uploader:   "owner",
	}
}

func TestUpdateNotFoundBeforeValidation(t *testing.T) {
	st := &stubStore{getErr: store.ErrSongNotFound}
	up := &stubUploader{}
	svc := newService(st, up)

	// Payload would fail validation; NotFound must win anyway.
	payload := MediaUpdate{Cover: CoverFile{MimeType: "image/gif", Size: 1}}

	_, err := svc.Update(context.Background(), uuid.New(), access.Viewer{ID: uuid.New(), Role: access.RoleAdmin}, payload)
	if !errors.Is(err, store.ErrSongNotFound) {
		t.Fatalf("err = %v, want ErrSongNotFound", err)
	}
	if up.storeCalls != 0 {
		t.Error("uploader must not run for a missing song")
	}
	if st.updatedFields != nil {
		t.Error("store must not be updated for a missing song")
	}
}

func TestUpdateForbiddenForStrangers(t *testing.T) {
	owner := uuid.New()
	st := &stubStore{song: ownedSong(owner)}
	svc := newService(st, &stubUploader{})

	_, err := svc.Update(context.Background(), st.song.ID,
		access.Viewer{ID: uuid.New(), Role: access.RoleUser},
		MetadataUpdate{Title: strPtr("Renamed")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if st.updatedFields != nil {
		t.Error("store must not be updated on a forbidden request")
	}
}

func TestUpdatePersistsOnlyPresentFields(t *testing.T) {
	owner := uuid.New()
	st := &stubStore{song: ownedSong(owner)}
	svc := newService(st, &stubUploader{})

	updated, err := svc.Update(context.Background(), st.song.ID,
		access.Viewer{ID: owner, Role: access.RoleUser},
		MetadataUpdate{Title: strPtr("Teardrop")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.updatedFields == nil {
		t.Fatal("expected a store update")
	}
	if st.updatedFields.Title == nil || *st.updatedFields.Title != "Teardrop" {
		t.Errorf("title = %v, want Teardrop", st.updatedFields.Title)
	}
	if st.updatedFields.Author != nil || st.updatedFields.Cover != nil {
		t.Error("absent fields must stay untouched")
	}
	if updated.Title == nil || *updated.Title != "Teardrop" {
		t.Errorf("result = %+v, want only the changed title", updated)
	}
}

func TestUpdateValidationReportsAllFields(t *testing.T) {
	owner := uuid.New()
	st := &stubStore{song: ownedSong(owner)}
	svc := newService(st, &stubUploader{})

	_, err := svc.Update(context.Background(), st.song.ID,
		access.Viewer{ID: owner, Role: access.RoleUser},
		MetadataUpdate{Author: strPtr(strings.Repeat("a", 121)), Cover: strPtr("not-a-uri")})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("got %d field errors, want 2: %v", len(verr.Fields), verr)
	}
	if st.updatedFields != nil {
		t.Error("store must not be updated on validation failure")
	}
}

func TestUpdateUploadsCoverThenPersists(t *testing.T) {
	owner := uuid.New()
	st := &stubStore{song: ownedSong(owner)}
	up := &stubUploader{ref: "https://cdn.example.com/covers/abc.png"}
	svc := newService(st, up)

	updated, err := svc.Update(context.Background(), st.song.ID,
		access.Viewer{ID: owner, Role: access.RoleUser},
		MediaUpdate{
			Author: strPtr("Massive Attack"),
			Cover:  CoverFile{MimeType: "image/png", Size: 1024, Data: strings.NewReader("png-bytes")},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if up.storeCalls != 1 {
		t.Fatalf("uploader calls = %d, want 1", up.storeCalls)
	}
	if st.updatedFields == nil || st.updatedFields.Cover == nil || *st.updatedFields.Cover != up.ref {
		t.Fatalf("persisted cover = %v, want %q", st.updatedFields, up.ref)
	}
	if updated.Cover == nil || *updated.Cover != up.ref {
		t.Fatalf("result cover = %v, want %q", updated.Cover, up.ref)
	}
}

func TestUpdateUploadFailureIsFatal(t *testing.T) {
	owner := uuid.New()
	st := &stubStore{song: ownedSong(owner)}
	up := &stubUploader{storeErr: errors.New("bucket down")}
	svc := newService(st, up)

	_, err := svc.Update(context.Background(), st.song.ID,
		access.Viewer{ID: owner, Role: access.RoleUser},
		MediaUpdate{Cover: CoverFile{MimeType: "image/png", Size: 1024, Data: strings.NewReader("x")}})

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if st.updatedFields != nil {
		t.Error("song must stay unchanged when the upload fails")
	}
}

func TestUpdateCompensatesOrphanedUpload(t *testing.T) {
	owner := uuid.New()
	st := &stubStore{song: ownedSong(owner), updateErr: errors.New("db down")}
	up := &stubUploader{ref: "https://cdn.example.com/covers/orphan.png"}
	svc := newService(st, up)

	_, err := svc.Update(context.Background(), st.song.ID,
		access.Viewer{ID: owner, Role: access.RoleUser},
		MediaUpdate{Cover: CoverFile{MimeType: "image/png", Size: 1024, Data: strings.NewReader("x")}})

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if len(up.removed) != 1 || up.removed[0] != up.ref {
		t.Fatalf("removed = %v, want the uploaded ref deleted", up.removed)
	}
}

func TestDeleteIsRoleGated(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name    string
		viewer  access.Viewer
		wantErr error
	}{
		{
			name:    "owner without moderator role",
			viewer:  access.Viewer{ID: owner, Role: access.RoleUser},
			wantErr: ErrForbidden,
		},
		{
			name:   "non-owner moderator",
			viewer: access.Viewer{ID: uuid.New(), Role: access.RoleModerator},
		},
		{
			name:   "admin",
			viewer: access.Viewer{ID: uuid.New(), Role: access.RoleAdmin},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := &stubStore{song: ownedSong(owner)}
			svc := newService(st, &stubUploader{})

			err := svc.Delete(context.Background(), st.song.ID, tc.viewer)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if st.deletedID != uuid.Nil {
					t.Error("store delete must not run on a forbidden request")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.deletedID != st.song.ID {
				t.Errorf("deleted id = %v, want %v", st.deletedID, st.song.ID)
			}
		})
	}
}

func TestDeleteMissingSong(t *testing.T) {
	st := &stubStore{getErr: store.ErrSongNotFound}
	svc := newService(st, &stubUploader{})

	err := svc.Delete(context.Background(), uuid.New(), access.Viewer{ID: uuid.New(), Role: access.RoleAdmin})
	if !errors.Is(err, store.ErrSongNotFound) {
		t.Fatalf("err = %v, want ErrSongNotFound", err)
	}
}

func TestListBounds(t *testing.T) {
	st := &stubStore{}
	svc := newService(st, &stubUploader{})
	viewer := access.Viewer{ID: uuid.New(), Role: access.RoleUser}

	tests := []struct {
		name        string
		skip, limit int
		wantErr     bool
	}{
		{name: "defaults", skip: 0, limit: 0},
		{name: "negative skip", skip: -1, limit: 10, wantErr: true},
		{name: "limit too large", skip: 0, limit: 101, wantErr: true},
		{name: "limit at max", skip: 0, limit: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), viewer, tc.skip, tc.limit)
			var verr *ValidationError
			if tc.wantErr && !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
