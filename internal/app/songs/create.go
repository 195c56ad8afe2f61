package songs

import (
	"context"
	"io"

	"songvault/internal/access"
	"songvault/internal/store"
)

const (
	audioMimeType = "audio/mpeg"
	// maxAudioBytes is the inclusive track upload limit (10 MiB).
	maxAudioBytes = 10 * 1024 * 1024
)

// AudioFile is the binary descriptor of an uploaded track.
type AudioFile struct {
	MimeType string
	Size     int64
	Data     io.Reader
}

// Creation is the payload for adding a song to the catalog. Author and
// title are required; the cover image is optional.
type Creation struct {
	Author *string
	Title  *string
	Song   AudioFile
	Cover  *CoverFile
}

func (c Creation) validate() *ValidationError {
	var fields []FieldError

	requireText(&fields, "author", c.Author)
	requireText(&fields, "title", c.Title)

	if c.Song.MimeType != audioMimeType {
		fields = append(fields, FieldError{Field: "song", Message: "must be an mpeg audio file"})
	}
	if c.Song.Size > maxAudioBytes {
		fields = append(fields, FieldError{Field: "song", Message: "must not exceed 10 MiB"})
	}

	if c.Cover != nil {
		if !coverMimeRe.MatchString(c.Cover.MimeType) {
			fields = append(fields, FieldError{Field: "cover", Message: "must be a jpeg, png or webp image"})
		}
		if c.Cover.Size > maxCoverBytes {
			fields = append(fields, FieldError{Field: "cover", Message: "must not exceed 2 MiB"})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func requireText(fields *[]FieldError, name string, value *string) {
	if value == nil {
		*fields = append(*fields, FieldError{Field: name, Message: "is required"})
		return
	}
	validateText(fields, name, value)
}

// Create validates the payload, uploads the track and optional cover, and
// inserts the song owned by the viewer. Uploaded objects are removed again
// if a later step fails, so a failed create leaves no stored media behind.
func (s *Service) Create(ctx context.Context, viewer access.Viewer, creation Creation) (View, error) {
	if verr := creation.validate(); verr != nil {
		return View{}, verr
	}

	path, err := s.uploader.Store(ctx, creation.Song.MimeType, creation.Song.Data)
	if err != nil {
		return View{}, &UpstreamError{Op: "upload song", Err: err}
	}

	var cover *string
	if creation.Cover != nil {
		ref, err := s.uploader.Store(ctx, creation.Cover.MimeType, creation.Cover.Data)
		if err != nil {
			s.removeUploaded(ctx, path)
			return View{}, &UpstreamError{Op: "upload cover", Err: err}
		}
		cover = &ref
	}

	id, err := s.store.CreateSong(ctx, store.NewSong{
		Author:     *creation.Author,
		Title:      *creation.Title,
		Cover:      cover,
		Path:       path,
		UploadedBy: viewer.ID,
	})
	if err != nil {
		s.removeUploaded(ctx, path)
		if cover != nil {
			s.removeUploaded(ctx, *cover)
		}
		return View{}, &UpstreamError{Op: "create song", Err: err}
	}

	song, err := s.getSong(ctx, id)
	if err != nil {
		return View{}, err
	}
	return ToView(song, viewer), nil
}

func (s *Service) removeUploaded(ctx context.Context, ref string) {
	if err := s.uploader.Remove(ctx, ref); err != nil {
		s.log.Error().Err(err).Str("ref", ref).Msg("orphaned media upload")
	}
}
