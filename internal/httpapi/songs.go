package httpapi

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"songvault/internal/app/songs"
)

// maxUploadMemory bounds in-memory multipart buffering; larger cover parts
// spill to disk and are still size-checked by the validator.
const maxUploadMemory = 8 << 20

var errUnsupportedMediaType = errors.New("unsupported content type")

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.viewer(w, r)
	if !ok {
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: errUnsupportedMediaType.Error()})
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return
	}

	song, songHeader, err := r.FormFile("song")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing song file part"})
		return
	}
	defer song.Close()

	creation := songs.Creation{
		Author: formValue(r, "author"),
		Title:  formValue(r, "title"),
		Song: songs.AudioFile{
			MimeType: songHeader.Header.Get("Content-Type"),
			Size:     songHeader.Size,
			Data:     song,
		},
	}

	if cover, coverHeader, err := r.FormFile("cover"); err == nil {
		defer cover.Close()
		creation.Cover = &songs.CoverFile{
			MimeType: coverHeader.Header.Get("Content-Type"),
			Size:     coverHeader.Size,
			Data:     cover,
		}
	}

	view, err := s.songs.Create(r.Context(), viewer, creation)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.viewer(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	skip, err := queryInt(query.Get("skip"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid skip parameter"})
		return
	}
	limit, err := queryInt(query.Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
		return
	}

	views, err := s.songs.List(r.Context(), viewer, skip, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Songs []songs.View `json:"songs"`
	}{Songs: views})
}

func (s *Server) handleFindSongs(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.viewer(w, r)
	if !ok {
		return
	}

	views, err := s.songs.Find(r.Context(), viewer, r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Songs []songs.View `json:"songs"`
	}{Songs: views})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.viewer(w, r)
	if !ok {
		return
	}

	id, err := songID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return
	}

	view, err := s.songs.Get(r.Context(), id, viewer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.viewer(w, r)
	if !ok {
		return
	}

	id, err := songID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return
	}

	payload, cleanup, err := parseUpdatePayload(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUnsupportedMediaType) {
			status = http.StatusUnsupportedMediaType
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	defer cleanup()

	updated, err := s.songs.Update(r.Context(), id, viewer, payload)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.viewer(w, r)
	if !ok {
		return
	}

	id, err := songID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return
	}

	if err := s.songs.Delete(r.Context(), id, viewer); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseUpdatePayload picks the payload variant from the request content
// type. The choice is made once here; nothing downstream re-inspects
// headers. The returned cleanup closes any opened file part and must run
// after the payload has been consumed.
func parseUpdatePayload(r *http.Request) (songs.UpdatePayload, func(), error) {
	noop := func() {}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, noop, errUnsupportedMediaType
	}

	switch {
	case mediaType == "application/json":
		var body struct {
			Author *string `json:"author"`
			Title  *string `json:"title"`
			Cover  *string `json:"cover"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, noop, errors.New("invalid JSON payload")
		}
		return songs.MetadataUpdate{Author: body.Author, Title: body.Title, Cover: body.Cover}, noop, nil

	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, noop, errors.New("invalid multipart payload")
		}

		file, header, err := r.FormFile("cover")
		if err != nil {
			return nil, noop, errors.New("missing cover file part")
		}

		return songs.MediaUpdate{
			Author: formValue(r, "author"),
			Title:  formValue(r, "title"),
			Cover: songs.CoverFile{
				MimeType: header.Header.Get("Content-Type"),
				Size:     header.Size,
				Data:     file,
			},
		}, func() { file.Close() }, nil

	default:
		return nil, noop, errUnsupportedMediaType
	}
}

// formValue distinguishes absent form fields from empty ones.
func formValue(r *http.Request, name string) *string {
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
