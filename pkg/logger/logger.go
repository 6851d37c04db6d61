package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config controls where and how verbosely the process logs
type Config struct {
	// File switches to JSON lines appended to this path
	File  string
	Debug bool
	// Writer receives text logs when File is empty, stderr by default
	Writer io.Writer
}

var (
	mu      sync.RWMutex
	global  = slog.New(slog.DiscardHandler)
	logFile *os.File
)

// Setup installs the process logger. The returned cleanup closes the log file.
func Setup(cfg Config) (func() error, error) {
	level := slog.LevelInfo
	addSource := false
	if cfg.Debug {
		level = slog.LevelDebug
		addSource = true
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	var (
		handler slog.Handler
		f       *os.File
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		var err error
		f, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		handler = slog.NewTextHandler(w, opts)
	}

	mu.Lock()
	global = slog.New(handler)
	logFile = f
	mu.Unlock()

	L().Debug("logger initialized", "file", cfg.File, "debug", cfg.Debug)

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()

		var err error
		if logFile != nil {
			err = logFile.Close()
		}
		logFile = nil
		global = slog.New(slog.DiscardHandler)
		return err
	}
	return cleanup, nil
}

// L returns the process logger
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}
