package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"audio-download-service/models"
	"audio-download-service/pkg/ingest"
)

// Server holds the handler dependencies. Handlers are methods so nothing
// reaches for package-level state.
type Server struct {
	db  *gorm.DB
	ing *ingest.Ingestor
}

func newServer(db *gorm.DB, ing *ingest.Ingestor) *Server {
	return &Server{db: db, ing: ing}
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/users", s.listUsersHandler)
	files := r.Group("/files")
	files.POST("/upload", s.uploadHandler)
	files.POST("/upload_multiple", s.uploadMultipleHandler)
	files.GET("", s.listFilesHandler)
}

// statusFor maps an ingestion error kind to an HTTP status.
func statusFor(err error) int {
	var ie *ingest.Error
	if !errors.As(err, &ie) {
		return http.StatusInternalServerError
	}
	switch ie.Kind {
	case ingest.KindBadRequest:
		return http.StatusBadRequest
	case ingest.KindNotFound:
		return http.StatusNotFound
	case ingest.KindConflict:
		return http.StatusConflict
	case ingest.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// resolveUser reads user_id from the form (falling back to the query string)
// and loads the user. On failure it writes the error response and reports
// false; uploads and listings must not touch disk for an unknown user.
func (s *Server) resolveUser(c *gin.Context) (*models.User, bool) {
	raw := c.PostForm("user_id")
	if raw == "" {
		raw = c.Query("user_id")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing or invalid user_id"})
		return nil, false
	}
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			nf := ingest.NotFound("user not found")
			c.JSON(statusFor(nf), gin.H{"detail": nf.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load user"})
		}
		return nil, false
	}
	return &user, true
}

// listUsersHandler returns all registered users.
func (s *Server) listUsersHandler(c *gin.Context) {
	users := make([]models.User, 0)
	if err := s.db.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "query failed"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// uploadHandler ingests one file for user_id. Optional form field "name"
// overrides the display name derived from the original filename.
func (s *Server) uploadHandler(c *gin.Context) {
	user, ok := s.resolveUser(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file missing"})
		return
	}
	rec, err := s.ing.IngestOne(s.db, user.ID, fh, c.PostForm("name"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// uploadMultipleHandler ingests every file in the "files" form field under a
// single commit. Optional "names" is comma-separated and must match the file
// count.
func (s *Server) uploadMultipleHandler(c *gin.Context) {
	user, ok := s.resolveUser(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	names := ingest.SplitNames(c.PostForm("names"))
	recs, err := s.ing.IngestBatch(s.db, user.ID, files, names)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// listFilesHandler returns a user's audio files as {items, count}. A user
// with no files gets an empty list, not an error.
func (s *Server) listFilesHandler(c *gin.Context) {
	user, ok := s.resolveUser(c)
	if !ok {
		return
	}
	items := make([]models.AudioFile, 0)
	if err := s.db.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}
