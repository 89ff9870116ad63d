package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestWatcherInitialScan verifies the watcher scans before watching.
func TestWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "existing.mp4"), []byte("data"), 0644)

	w, err := NewWatcher(dir, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if got := w.Files(); len(got) != 1 {
		t.Fatalf("expected 1 file, got %d: %v", len(got), got)
	}
}

// TestWatcherDetectsNewFile verifies the onChange callback fires when a
// video is added to the watched directory.
func TestWatcherDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan []string, 2)
	w, err := NewWatcher(dir, zerolog.Nop(), func(files []string) {
		changed <- files
	})
	if err != nil {
		t.Fatal(err)
	}

	go w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	os.WriteFile(filepath.Join(dir, "new_video.mp4"), []byte("data"), 0644)

	select {
	case files := <-changed:
		if len(files) != 1 {
			t.Fatalf("expected 1 file after add, got %d", len(files))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for onChange callback")
	}
}

// TestWatcherDetectsRemoval verifies the callback fires when a file is removed.
func TestWatcherDetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "existing.mp4")
	os.WriteFile(testFile, []byte("data"), 0644)

	changed := make(chan []string, 2)
	w, err := NewWatcher(dir, zerolog.Nop(), func(files []string) {
		changed <- files
	})
	if err != nil {
		t.Fatal(err)
	}

	go w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	os.Remove(testFile)

	select {
	case files := <-changed:
		if len(files) != 0 {
			t.Fatalf("expected 0 files after removal, got %d", len(files))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for removal callback")
	}
}

// TestWatcherIgnoresNonVideoFiles verifies irrelevant files do not count
// toward the library even though they generate filesystem events.
func TestWatcherIgnoresNonVideoFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "movie.mp4"), []byte("data"), 0644)

	w, err := NewWatcher(dir, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("data"), 0644)

	if got := w.Files(); len(got) != 1 {
		t.Fatalf("expected 1 file, got %d: %v", len(got), got)
	}
}
