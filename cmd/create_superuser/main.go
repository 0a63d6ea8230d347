package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"audio-download-service/models"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Creates the privileged account out-of-band; the HTTP surface has no
// registration path. Usage: go run ./cmd/create_superuser [email]
func main() {
	email := ""
	if len(os.Args) > 1 {
		email = strings.TrimSpace(os.Args[1])
	} else {
		fmt.Print("Enter email: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			email = strings.TrimSpace(scanner.Text())
		}
	}
	if !emailRE.MatchString(email) {
		log.Fatal("invalid email")
	}
	if len(email) > 50 { // email column is varchar(50)
		log.Fatal("email too long (max 50)")
	}

	db := mustOpenDB()

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Fatalf("email %s already exists (id=%d)", email, existing.ID)
	}

	user := models.User{Email: email, IsSuperuser: true}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create superuser: %v", err)
	}
	fmt.Printf("the superuser %s has been successfully created (id=%d)\n", email, user.ID)
}

func mustOpenDB() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	var (
		db  *gorm.DB
		err error
	)
	if dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "audio.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.AudioFile{}); err != nil {
		log.Printf("migration warning: %v", err)
	}
	return db
}
