// Package ingest implements the validate -> sanitize -> write -> stage
// pipeline for uploaded audio files. Metadata rows for a request are staged
// inside one transaction and bytes in temp files; only a committed request
// renames its bytes onto the final paths, so disk and database stay paired.
package ingest

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"audio-download-service/models"
	"audio-download-service/pkg/blob"
)

// DefaultMaxBytes is the payload ceiling when none is configured (10 MiB).
const DefaultMaxBytes int64 = 10 << 20

// CollisionPolicy decides what happens when an upload targets a path that
// already holds a file.
type CollisionPolicy string

const (
	PolicyOverwrite CollisionPolicy = "overwrite" // replace silently
	PolicyReject    CollisionPolicy = "reject"    // fail the upload
	PolicyRename    CollisionPolicy = "rename"    // pick a -1, -2, ... suffix
)

// ParsePolicy validates a policy string from configuration.
func ParsePolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyReject:
		return PolicyReject, nil
	case PolicyRename:
		return PolicyRename, nil
	}
	return "", fmt.Errorf("unknown collision policy %q (want overwrite, reject or rename)", s)
}

// Ingestor runs the pipeline against one blob store.
type Ingestor struct {
	Store    *blob.Store
	MaxBytes int64
	Policy   CollisionPolicy
}

// New returns an Ingestor. maxBytes <= 0 selects DefaultMaxBytes.
func New(store *blob.Store, maxBytes int64, policy CollisionPolicy) *Ingestor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if policy == "" {
		policy = PolicyOverwrite
	}
	return &Ingestor{Store: store, MaxBytes: maxBytes, Policy: policy}
}

// SplitNames parses the optional comma-separated display-name list of a
// batch upload. An empty input means "no overrides".
func SplitNames(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IngestOne persists exactly one uploaded file for userID under its own
// commit boundary. An empty nameOverride derives the display name from the
// original filename.
func (ing *Ingestor) IngestOne(db *gorm.DB, userID uint, fh *multipart.FileHeader, nameOverride string) (*models.AudioFile, error) {
	var names []string
	if nameOverride != "" {
		names = []string{nameOverride}
	}
	recs, err := ing.IngestBatch(db, userID, []*multipart.FileHeader{fh}, names)
	if err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// IngestBatch persists files for userID in input order under a single
// commit. If names is non-nil its length must equal the file count; the
// mismatch is rejected before any file is touched. On any failure the
// transaction rolls back and the batch's temp files are discarded without
// ever touching a final path, so the batch is all-or-nothing on disk as
// well as in the database.
func (ing *Ingestor) IngestBatch(db *gorm.DB, userID uint, files []*multipart.FileHeader, names []string) ([]models.AudioFile, error) {
	if len(files) == 0 {
		return nil, badRequest("no files provided")
	}
	if names != nil && len(names) != len(files) {
		return nil, badRequest("got %d names for %d files", len(names), len(files))
	}

	var staged []*pendingFile
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, fh := range files {
			override := ""
			if names != nil {
				override = names[i]
			}
			p, err := ing.ingestOne(tx, userID, fh, override)
			if err != nil {
				return err
			}
			staged = append(staged, p)
		}
		return nil
	})
	if err != nil {
		ing.discard(staged)
		return nil, err
	}
	if err := ing.promote(db, staged); err != nil {
		return nil, err
	}
	out := make([]models.AudioFile, 0, len(staged))
	for _, p := range staged {
		out = append(out, p.rec)
	}
	return out, nil
}

// pendingFile is one staged upload: the row created inside the transaction
// plus the temp blob waiting to be renamed onto its destination.
type pendingFile struct {
	rec  models.AudioFile
	tmp  string
	dest string
}

// discard removes the temp files of a rolled-back batch. Only temps are
// deleted; bytes a committed row references are never touched.
func (ing *Ingestor) discard(staged []*pendingFile) {
	for _, p := range staged {
		if rmErr := ing.Store.Remove(p.tmp); rmErr != nil {
			log.Printf("ingest: temp cleanup failed: %v", rmErr)
		}
	}
}

// promote renames committed temps onto their destinations. A same-directory
// rename failing after commit would leave a row without bytes, so the
// affected rows are deleted again best-effort.
func (ing *Ingestor) promote(db *gorm.DB, staged []*pendingFile) error {
	for i, p := range staged {
		if err := ing.Store.Promote(p.tmp, p.dest); err != nil {
			for _, rest := range staged[i:] {
				_ = ing.Store.Remove(rest.tmp)
				if delErr := db.Delete(&models.AudioFile{}, rest.rec.ID).Error; delErr != nil {
					log.Printf("ingest: failed to drop record %d after rename error: %v", rest.rec.ID, delErr)
				}
			}
			return internal("failed to store file: %v", err)
		}
	}
	return nil
}

// IngestLocal persists a file already on disk (the directory import path)
// through the same pipeline as an upload, under its own commit boundary.
func (ing *Ingestor) IngestLocal(db *gorm.DB, userID uint, srcPath string, nameOverride string) (*models.AudioFile, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, internal("failed to stat %s: %v", srcPath, err)
	}
	if info.Size() > ing.MaxBytes {
		return nil, tooLarge("file exceeds the %d byte limit", ing.MaxBytes)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, internal("failed to read %s: %v", srcPath, err)
	}
	var staged []*pendingFile
	err = db.Transaction(func(tx *gorm.DB) error {
		p, err := ing.stage(tx, userID, filepath.Base(srcPath), data, nameOverride)
		if err != nil {
			return err
		}
		staged = append(staged, p)
		return nil
	})
	if err != nil {
		ing.discard(staged)
		return nil, err
	}
	if err := ing.promote(db, staged); err != nil {
		return nil, err
	}
	return &staged[0].rec, nil
}

// ingestOne validates, writes and stages a single upload on tx.
func (ing *Ingestor) ingestOne(tx *gorm.DB, userID uint, fh *multipart.FileHeader, nameOverride string) (*pendingFile, error) {
	original := filepath.Base(fh.Filename)
	// Reject a bad extension before pulling the payload into memory.
	if _, err := ValidateExtension(original); err != nil {
		return nil, err
	}
	data, err := ing.readPayload(fh)
	if err != nil {
		return nil, err
	}
	return ing.stage(tx, userID, original, data, nameOverride)
}

// stage runs sanitize/collision/write and inserts the metadata row on tx.
// The bytes land in a temp file before the insert; the destination itself is
// only touched after the transaction commits, so a rollback can never cost a
// committed row its blob. A disk error stages nothing.
func (ing *Ingestor) stage(tx *gorm.DB, userID uint, original string, data []byte, nameOverride string) (*pendingFile, error) {
	ext, err := ValidateExtension(original)
	if err != nil {
		return nil, err
	}

	name := nameOverride
	if name == "" {
		name = strings.TrimSuffix(original, filepath.Ext(original))
	}
	name = truncateName(SanitizeName(name))

	dest := ing.Store.Path(userID, name+ext)
	if ing.Store.Exists(dest) {
		switch ing.Policy {
		case PolicyReject:
			return nil, conflict("a file already exists at %s", dest)
		case PolicyRename:
			base := []rune(name)
			for n := 1; ; n++ {
				suffix := fmt.Sprintf("-%d", n)
				b := base
				if len(b)+len(suffix) > models.MaxNameLength {
					b = b[:models.MaxNameLength-len(suffix)]
				}
				candidate := string(b) + suffix
				if !ing.Store.Exists(ing.Store.Path(userID, candidate+ext)) {
					name = candidate
					break
				}
			}
		}
	}

	tmp, err := ing.Store.WriteTemp(userID, data)
	if err != nil {
		return nil, internal("failed to store file: %v", err)
	}

	rec := models.AudioFile{UserID: userID, Name: name, Path: dest}
	if err := tx.Create(&rec).Error; err != nil {
		if rmErr := ing.Store.Remove(tmp); rmErr != nil {
			log.Printf("ingest: temp cleanup failed: %v", rmErr)
		}
		return nil, internal("failed to save file record: %v", err)
	}
	return &pendingFile{rec: rec, tmp: tmp, dest: dest}, nil
}

// readPayload loads the whole upload into memory, enforcing the size
// ceiling before anything reaches disk.
func (ing *Ingestor) readPayload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > ing.MaxBytes {
		return nil, tooLarge("file exceeds the %d byte limit", ing.MaxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, internal("failed to open upload: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, ing.MaxBytes+1))
	if err != nil {
		return nil, internal("failed to read upload: %v", err)
	}
	// Size in the part header is client-supplied; trust the bytes.
	if int64(len(data)) > ing.MaxBytes {
		return nil, tooLarge("file exceeds the %d byte limit", ing.MaxBytes)
	}
	return data, nil
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > models.MaxNameLength {
		return string(r[:models.MaxNameLength])
	}
	return name
}
