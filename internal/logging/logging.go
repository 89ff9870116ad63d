// Package logging configures zerolog for the process.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures console output at the given level, plus a JSON log
// file under dir when dir is non-empty. The returned closer releases the
// file; it is safe to call when no file was opened.
func Setup(level, dir string) (zerolog.Logger, func() error, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log level %q: %w", level, err)
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}

	var writer io.Writer = consoleWriter
	closer := func() error { return nil }

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log dir %s: %w", dir, err)
		}
		path := filepath.Join(dir, "homereel.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log file %s: %w", path, err)
		}
		writer = zerolog.MultiLevelWriter(consoleWriter, f)
		closer = f.Close
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(lvl)
	log.Logger = logger
	return logger, closer, nil
}
