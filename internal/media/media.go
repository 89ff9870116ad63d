// Package media provides video file detection for the channel,
// based on file extension.
package media

import (
	"path/filepath"
	"strings"
)

// Video file extensions the playback backend can handle.
var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".ts":   true,
	".m4v":  true,
	".hevc": true,
	".flv":  true,
	".wmv":  true,
}

// IsVideo returns true if the file has a recognized video extension.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}
