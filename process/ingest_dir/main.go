// Bulk-imports audio files from a local directory for one user, running each
// file through the same ingestion pipeline as an HTTP upload. With -watch it
// keeps running and picks up files dropped into the directory.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"audio-download-service/models"
	"audio-download-service/pkg/blob"
	"audio-download-service/pkg/ingest"
)

var verbose bool

func main() {
	dirFlag := flag.String("dir", ".", "directory to scan for audio files")
	userID := flag.Uint("user-id", 0, "user to own the imported files (required)")
	rootFlag := flag.String("storage", "audio_storage", "blob storage root")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	dryRun := flag.Bool("dry-run", false, "list candidate files without touching disk or DB")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	if *dryRun {
		files := listAudioFiles(*dirFlag)
		log.Printf("dry-run: found %d candidate file(s) in %s", len(files), *dirFlag)
		for _, f := range files {
			log.Printf("  %s", f)
		}
		return
	}

	if *userID == 0 {
		log.Fatal("-user-id is required")
	}

	db := mustOpenDB()
	var user models.User
	if err := db.First(&user, *userID).Error; err != nil {
		log.Fatalf("user %d not found: %v", *userID, err)
	}

	store, err := blob.New(*rootFlag)
	if err != nil {
		log.Fatal(err)
	}
	ing := ingest.New(store, 0, ingest.PolicyOverwrite)

	files := listAudioFiles(*dirFlag)
	log.Printf("scanning %d file(s) (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(db, ing, *dirFlag, user.ID, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(db, ing, *dirFlag, user.ID, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
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
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func listAudioFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	_, err := ingest.ValidateExtension(name)
	return err == nil
}

func processSingleFile(db *gorm.DB, ing *ingest.Ingestor, dir, name string, userID uint) {
	// Idempotence: a row already pointing at the destination means this file
	// (or a same-named one) was imported before.
	stem := ingest.SanitizeName(strings.TrimSuffix(name, filepath.Ext(name)))
	ext := strings.ToLower(filepath.Ext(name))
	dest := ing.Store.Path(userID, stem+ext)
	var cnt int64
	db.Model(&models.AudioFile{}).Where("user_id = ? AND path = ?", userID, dest).Count(&cnt)
	if cnt > 0 {
		logV("already imported: %s", name)
		return
	}

	rec, err := ing.IngestLocal(db, userID, filepath.Join(dir, name), "")
	if err != nil {
		log.Printf("skipping %s: %v", name, err)
		return
	}
	logV("imported %s -> id=%d path=%s", name, rec.ID, rec.Path)
}

// runWorkerPool fans file names out to a fixed set of workers. The initial
// slice is processed first; extra channels (watch mode) feed the same pool.
func runWorkerPool(db *gorm.DB, ing *ingest.Ingestor, dir string, userID uint, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(db, ing, dir, name, userID)
			}
		}()
	}
	go func() {
		for _, name := range initial {
			fileCh <- name
		}
		for _, ch := range extraCh {
			for name := range ch {
				fileCh <- name
			}
		}
		close(fileCh)
	}()
	wg.Wait()
}

func watchDirectory(db *gorm.DB, ing *ingest.Ingestor, dir string, userID uint, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// debounce on size stability so slow writers settle before import
		pending := map[string]int64{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) || strings.HasPrefix(name, ".") {
						continue
					}
					pending[name] = -1 // size unknown until the next tick
				}
			case <-ticker.C:
				for _, name := range settled(dir, pending) {
					fileCh <- name
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	runWorkerPool(db, ing, dir, userID, nil, workers, fileCh)
	return nil
}

// settled returns the pending files whose size has not changed since the
// previous tick and drops them from the map. A file still growing keeps its
// latest size and stays pending; one removed mid-write is dropped silently.
func settled(dir string, pending map[string]int64) []string {
	var ready []string
	for name, prev := range pending {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			delete(pending, name)
			continue
		}
		if fi.Size() == prev {
			ready = append(ready, name)
			delete(pending, name)
			continue
		}
		pending[name] = fi.Size()
	}
	return ready
}
