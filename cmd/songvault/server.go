package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"songvault/internal/app/favorites"
	"songvault/internal/app/songs"
	"songvault/internal/app/users"
	"songvault/internal/auth"
	"songvault/internal/cdn"
	"songvault/internal/httpapi"
	"songvault/internal/logging"
	"songvault/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store, uploader cdn.Uploader, log zerolog.Logger) http.Handler {
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	userSvc := users.New(dataStore, tokens)
	songSvc := songs.New(dataStore, uploader, log)
	favoritesSvc := favorites.New(dataStore)

	handler := httpapi.New(userSvc, songSvc, favoritesSvc, tokens, log).Routes()
	return withCORS(cfg.AllowedOrigins, logging.Middleware(log, handler))
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
