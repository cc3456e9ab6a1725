// internal/infra/logging/logger.go
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder assembles the process logger (stdout by default, or an append-only file).
type Builder struct {
	writer io.Writer
	path   string
	level  string
}

// Logger is the built logger plus the file it writes to (if any).
type Logger struct {
	zerolog.Logger
	file *os.File
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) FromPath(path string) *Builder {
	b.path = strings.TrimSpace(path)
	return b
}

func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

func (b *Builder) Level(level string) *Builder {
	b.level = level
	return b
}

func (b *Builder) Make() (*Logger, error) {
	lvl, err := ParseLevel(b.level)
	if err != nil {
		return nil, err
	}

	out := &Logger{}
	var w io.Writer = os.Stdout
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		out.file, err = os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		w = zerolog.SyncWriter(out.file)
	}
	out.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "hanami").Logger()
	return out, nil
}

// Close closes the log file. stdout / 外部 writer の場合は何もしない。
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}
