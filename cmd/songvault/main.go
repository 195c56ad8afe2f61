package main

import (
	"context"
	"net/http"
	"os"

	"songvault/internal/cdn"
	"songvault/internal/logging"
	"songvault/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fallback := logging.New(logging.Config{})
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := logging.New(cfg.Logging)

	db, err := openDatabase(context.Background(), cfg.DatabaseURL, cfg.DBConnectTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	uploader, err := cdn.New(cfg.CDN)
	if err != nil {
		log.Fatal().Err(err).Msg("init cdn client")
	}

	dataStore := store.New(db)
	handler := newHTTPHandler(cfg, dataStore, uploader, log)

	log.Info().Str("addr", cfg.Addr).Msg("API listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
