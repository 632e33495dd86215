// Package sysutil holds process bootstrap helpers: the global log level and
// the root zerolog logger with its optional rotating file sink.
package sysutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetLogLevel sets the global zerolog level. Unknown or empty values mean
// info; "warning" is accepted for warn.
func SetLogLevel(lvl string) {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil || lvl == "" || level == zerolog.NoLevel || level == zerolog.TraceLevel || level == zerolog.Disabled {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// LogOptions configures NewLogger.
type LogOptions struct {
	Pretty bool   // human-readable console output
	File   string // also write JSON lines here, rotated by size

	MaxSizeMB  int // per file; defaults to 100
	MaxBackups int // defaults to 5
	MaxAgeDays int // defaults to 28
}

// NewLogger builds the root logger writing to console and, when opts.File is
// set, to a rotating file. The returned closer releases the file.
func NewLogger(console io.Writer, opts LogOptions) (zerolog.Logger, io.Closer, error) {
	if console == nil {
		console = os.Stdout
	}
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, lj)
		closer = lj
	}
	return zerolog.New(out).With().Timestamp().Logger(), closer, nil
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
