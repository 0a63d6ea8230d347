package blob

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	s, err := New(filepath.Join(t.TempDir(), "audio_storage"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestWriteCreatesUserDirAndFile(t *testing.T) {
	s := newTestStore(t)
	data := []byte("some audio bytes")
	path, err := s.Write(7, "track.mp3", data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != filepath.Join(s.Root, "7", "track.mp3") {
		t.Fatalf("unexpected path %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write(1, "a.mp3", []byte("old")); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	path, err := s.Write(1, "a.mp3", []byte("new"))
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Fatalf("expected replacement, got %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write(2, "b.wav", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	entries, err := os.ReadDir(s.UserDir(2))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "b.wav" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
}

func TestWriteTempStaysOffFinalPath(t *testing.T) {
	s := newTestStore(t)
	tmp, err := s.WriteTemp(5, []byte("staged"))
	if err != nil {
		t.Fatalf("WriteTemp failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(tmp), ".tmp-") {
		t.Fatalf("temp file %s lacks the temp prefix", filepath.Base(tmp))
	}
	if s.Exists(s.Path(5, "staged.mp3")) {
		t.Fatalf("temp write landed on a final path")
	}

	dest := s.Path(5, "staged.mp3")
	if err := s.Promote(tmp, dest); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatalf("temp file still present after promote")
	}
	got, _ := os.ReadFile(dest)
	if string(got) != "staged" {
		t.Fatalf("promoted content mismatch: %q", got)
	}
}

func TestRemoveMissingIsNoError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Remove(s.Path(3, "ghost.ogg")); err != nil {
		t.Fatalf("Remove of missing file failed: %v", err)
	}
}

func TestSweepTemp(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write(4, "keep.mp3", []byte("keep")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	stale := filepath.Join(s.UserDir(4), ".tmp-12345")
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatalf("plant stale temp: %v", err)
	}
	n, err := s.SweepTemp()
	if err != nil {
		t.Fatalf("SweepTemp failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed got %d", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale temp still present")
	}
	if !s.Exists(s.Path(4, "keep.mp3")) {
		t.Fatalf("sweep removed a committed blob")
	}
}
