package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"audio-download-service/pkg/blob"
	"audio-download-service/pkg/ingest"
)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Support a lightweight migrate command: `./audio_download_service migrate`
	// It creates the schema then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if _, err := openDB(cfg); err != nil {
			log.Fatal(err)
		}
		fmt.Println("migration completed")
		return
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}

	store, err := blob.New(cfg.StorageRoot)
	if err != nil {
		log.Fatal(err)
	}
	// A crash between staging and rename can strand temp files; sweep them.
	if n, err := store.SweepTemp(); err != nil {
		log.Printf("temp sweep warning: %v", err)
	} else if n > 0 {
		log.Printf("removed %d stale temp file(s) under %s", n, cfg.StorageRoot)
	}

	srv := newServer(db, ingest.New(store, cfg.MaxUploadBytes, cfg.Collision))

	r := gin.Default()
	r.Use(cors.Default())
	srv.setupRoutes(r)

	r.Run(cfg.Addr)
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
