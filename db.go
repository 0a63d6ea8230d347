package main

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"audio-download-service/models"
)

// openDB connects to Postgres when a DSN is configured and falls back to a
// local SQLite file otherwise, so the service runs without a database server
// in development. Schema creation is idempotent create-if-absent.
func openDB(cfg Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if cfg.DBDSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	} else {
		log.Printf("DB_DSN not set, using SQLite at %s", cfg.SQLitePath)
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.AutoMigrate {
		// Migrate models individually so a failure on one doesn't block others.
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.AudioFile{}); err != nil {
			log.Printf("migration warning (audio_files): %v", err)
		}
	}
	return db, nil
}
