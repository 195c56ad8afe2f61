package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songvault/internal/access"
	"songvault/internal/app/songs"
	"songvault/internal/app/users"
	"songvault/internal/store"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, username, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// SongService coordinates song reads and mutations.
type SongService interface {
	Create(ctx context.Context, viewer access.Viewer, creation songs.Creation) (songs.View, error)
	Get(ctx context.Context, songID uuid.UUID, viewer access.Viewer) (songs.View, error)
	List(ctx context.Context, viewer access.Viewer, skip, limit int) ([]songs.View, error)
	Find(ctx context.Context, viewer access.Viewer, query string) ([]songs.View, error)
	Update(ctx context.Context, songID uuid.UUID, viewer access.Viewer, payload songs.UpdatePayload) (songs.Update, error)
	Delete(ctx context.Context, songID uuid.UUID, viewer access.Viewer) error
}

// FavoritesService coordinates favoriting workflows.
type FavoritesService interface {
	Favorite(ctx context.Context, songID, userID uuid.UUID) error
	Unfavorite(ctx context.Context, songID, userID uuid.UUID) error
}

// TokenParser turns a bearer token into the viewer it identifies.
type TokenParser interface {
	Parse(raw string) (access.Viewer, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users     UserService
	songs     SongService
	favorites FavoritesService
	tokens    TokenParser
	log       zerolog.Logger
}

// New configures a Server with the given services.
func New(users UserService, songService SongService, favorites FavoritesService, tokens TokenParser, log zerolog.Logger) *Server {
	return &Server{
		users:     users,
		songs:     songService,
		favorites: favorites,
		tokens:    tokens,
		log:       log,
	}
}

// Routes exposes the HTTP handlers for accounts, songs and favorites.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("POST /api/v1/songs", s.handleCreateSong)
	mux.HandleFunc("GET /api/v1/songs", s.handleListSongs)
	mux.HandleFunc("GET /api/v1/songs/find", s.handleFindSongs)
	mux.HandleFunc("GET /api/v1/songs/{id}", s.handleGetSong)
	mux.HandleFunc("PATCH /api/v1/songs/{id}", s.handleUpdateSong)
	mux.HandleFunc("DELETE /api/v1/songs/{id}", s.handleDeleteSong)

	mux.HandleFunc("POST /api/v1/songs/{id}/favorite", s.handleFavorite)
	mux.HandleFunc("DELETE /api/v1/songs/{id}/favorite", s.handleUnfavorite)

	return mux
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error  string             `json:"error"`
	Fields []songs.FieldError `json:"fields,omitempty"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	id, err := s.users.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "username or email already taken"})
		case errors.Is(err, users.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			s.log.Error().Err(err).Msg("signup failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		ID uuid.UUID `json:"id"`
	}{ID: id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: store.ErrInvalidCredentials.Error()})
			return
		}
		s.log.Error().Err(err).Msg("login failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// viewer authenticates the request, writing the 401 itself on failure.
func (s *Server) viewer(w http.ResponseWriter, r *http.Request) (access.Viewer, bool) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return access.Viewer{}, false
	}

	viewer, err := s.tokens.Parse(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
		return access.Viewer{}, false
	}
	return viewer, true
}

// writeError maps service failures onto the HTTP taxonomy. Upstream detail
// is logged, never sent to the caller.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *songs.ValidationError
	var uerr *songs.UpstreamError

	switch {
	case errors.Is(err, store.ErrSongNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "song not found"})
	case errors.Is(err, songs.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid input", Fields: verr.Fields})
	case errors.As(err, &uerr):
		s.log.Error().Err(uerr.Err).Str("op", uerr.Op).Msg("upstream failure")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream service unavailable"})
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func songID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
