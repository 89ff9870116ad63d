// Package library discovers local video files for the channel and keeps
// the collection current by watching the library folder for changes.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"homereel/internal/media"
)

// Folder and file names that are never part of a home movie collection.
var systemNames = map[string]bool{
	"$recycle.bin":              true,
	"system volume information": true,
	"__macosx":                  true,
	"node_modules":              true,
}

func isHiddenOrSystemName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return systemNames[strings.ToLower(name)]
}

// Scan recursively discovers video files under root, skipping hidden and
// system-like directories and files. The result is sorted for stable
// session configuration. An invalid root is an error for the caller; the
// scheduler never sees it.
func Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("invalid folder: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && isHiddenOrSystemName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHiddenOrSystemName(d.Name()) {
			return nil
		}
		if media.IsVideo(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// ScanResult is the outcome of an asynchronous scan.
type ScanResult struct {
	Files []string
	Err   error
}

// ScanAsync runs Scan in its own goroutine and delivers the result on the
// returned channel so the caller's loop is never blocked by disk walks.
func ScanAsync(root string) <-chan ScanResult {
	ch := make(chan ScanResult, 1)
	go func() {
		files, err := Scan(root)
		ch <- ScanResult{Files: files, Err: err}
	}()
	return ch
}
