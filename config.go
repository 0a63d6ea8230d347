package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"audio-download-service/pkg/ingest"
)

// Config collects everything the service reads from the environment. It is
// built once in main and handed to the components that need it; nothing in
// this codebase reads configuration through package-level state.
type Config struct {
	Addr           string                 // LISTEN_ADDR, e.g. ":8080"
	DBDSN          string                 // DB_DSN; Postgres when set
	SQLitePath     string                 // SQLITE_PATH; fallback database file
	AutoMigrate    bool                   // DB_AUTO_MIGRATE
	StorageRoot    string                 // AUDIO_STORAGE; blob store root
	MaxUploadBytes int64                  // MAX_UPLOAD_BYTES
	Collision      ingest.CollisionPolicy // COLLISION_POLICY
}

func loadConfig() (Config, error) {
	cfg := Config{
		Addr:           ":8080",
		DBDSN:          os.Getenv("DB_DSN"),
		SQLitePath:     "audio.db",
		AutoMigrate:    true,
		StorageRoot:    "audio_storage",
		MaxUploadBytes: ingest.DefaultMaxBytes,
		Collision:      ingest.PolicyOverwrite,
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("AUDIO_STORAGE"); v != "" {
		cfg.StorageRoot = v
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			cfg.AutoMigrate = false
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("COLLISION_POLICY"); v != "" {
		p, err := ingest.ParsePolicy(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid COLLISION_POLICY: %w", err)
		}
		cfg.Collision = p
	}
	return cfg, nil
}
