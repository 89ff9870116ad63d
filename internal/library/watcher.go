package library

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// OnChangeFunc is invoked when the library contents change.
// It receives the updated sorted list of absolute file paths.
type OnChangeFunc func(files []string)

// Watcher monitors the library root (and its subdirectories) for file
// system events and maintains the current list of video files.
type Watcher struct {
	mu       sync.RWMutex
	root     string
	files    []string
	watcher  *fsnotify.Watcher
	onChange OnChangeFunc
	logger   zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a Watcher for the given root folder and performs an
// initial scan. The onChange callback fires whenever the file list changes.
func NewWatcher(root string, logger zerolog.Logger, onChange OnChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		watcher:  fw,
		onChange: onChange,
		logger:   logger.With().Str("component", "library").Logger(),
		stopCh:   make(chan struct{}),
	}

	if err := w.rescan(); err != nil {
		fw.Close()
		return nil, err
	}

	return w, nil
}

// rescan rebuilds the file list and refreshes the set of watched
// directories so files added in new subfolders are picked up too.
func (w *Watcher) rescan() error {
	files, err := Scan(w.root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.files = files
	w.mu.Unlock()

	for _, dir := range w.watchDirs() {
		// Adding an already-watched directory is a no-op.
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("watch add failed")
		}
	}

	w.logger.Info().Int("files", len(files)).Str("root", w.root).Msg("library scanned")
	return nil
}

func (w *Watcher) watchDirs() []string {
	dirs := []string{w.root}
	filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && isHiddenOrSystemName(d.Name()) {
			return filepath.SkipDir
		}
		if path != w.root {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

// Files returns the current sorted list of video file paths.
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	dst := make([]string, len(w.files))
	copy(dst, w.files)
	return dst
}

// Start begins watching for changes. It blocks until Stop is called or
// the watcher encounters a fatal error.
func (w *Watcher) Start() error {
	w.logger.Info().Str("root", w.root).Msg("watching library")

	for {
		select {
		case <-w.stopCh:
			w.logger.Info().Msg("watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevantEvent(event) {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Str("name", event.Name).Msg("library event")
			if err := w.rescan(); err != nil {
				w.logger.Warn().Err(err).Msg("rescan failed")
				continue
			}
			if w.onChange != nil {
				w.onChange(w.Files())
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// Stop halts the watch loop and releases fsnotify resources. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

// isRelevantEvent filters for events that change the library contents.
func isRelevantEvent(e fsnotify.Event) bool {
	return e.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
