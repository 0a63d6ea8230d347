package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestSettledWaitsForStableSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "slow.mp3", "part")

	pending := map[string]int64{"slow.mp3": -1}

	// first tick records the size, nothing is ready yet
	if ready := settled(dir, pending); len(ready) != 0 {
		t.Fatalf("expected no files ready on first tick, got %v", ready)
	}
	if pending["slow.mp3"] != 4 {
		t.Fatalf("expected recorded size 4, got %d", pending["slow.mp3"])
	}

	// the writer is still appending, so the file stays pending
	writeFile(t, dir, "slow.mp3", "part two")
	if ready := settled(dir, pending); len(ready) != 0 {
		t.Fatalf("expected growing file to stay pending, got %v", ready)
	}

	// size unchanged across two ticks: ready for import
	ready := settled(dir, pending)
	if len(ready) != 1 || ready[0] != "slow.mp3" {
		t.Fatalf("expected [slow.mp3], got %v", ready)
	}
	if len(pending) != 0 {
		t.Fatalf("expected pending map drained, got %v", pending)
	}
}

func TestSettledDropsRemovedFile(t *testing.T) {
	dir := t.TempDir()
	pending := map[string]int64{"gone.mp3": -1}

	if ready := settled(dir, pending); len(ready) != 0 {
		t.Fatalf("expected nothing ready, got %v", ready)
	}
	if len(pending) != 0 {
		t.Fatalf("expected removed file dropped from pending, got %v", pending)
	}
}

func TestListAudioFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.mp3", "x")
	writeFile(t, dir, "a.wav", "x")
	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, ".hidden.mp3", "x")

	got := listAudioFiles(dir)
	if len(got) != 2 || got[0] != "a.wav" || got[1] != "b.mp3" {
		t.Fatalf("expected [a.wav b.mp3], got %v", got)
	}
}
