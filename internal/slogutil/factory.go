package slogutil

import (
	"io"
	"log/slog"

	"govinv/internal/config"
)

const bytesPerMB = 1024 * 1024

// FromConfig builds the process logger. Records always go to console; when
// logging.file is set they are also appended to that (rotating) file. The
// returned closer is never nil.
func FromConfig(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	level := LevelFromString(cfg.Level)
	consoleHandler := NewLineHandler(console, &slog.HandlerOptions{Level: level})
	if cfg.File == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	rf, err := OpenRotatingFile(cfg.File, int64(cfg.MaxSizeMB)*bytesPerMB, cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	fileHandler := NewLineHandler(rf, &slog.HandlerOptions{Level: level})
	return slog.New(NewTeeHandler(consoleHandler, fileHandler)), rf, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
