// Package logx is the category-filtered logger used by vkframe.
//
// Messages carry a category bit (General or Vulkan) and a severity. A Logger
// only emits a message when its level has the category bit set, so a Logger
// with level None is a no-op.
package logx

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Level is a bitmask of enabled message categories.
type Level uint32

const (
	None    Level = 0
	General Level = 1 << 0
	Vulkan  Level = 1 << 1
	All           = General | Vulkan
)

// Has reports whether every bit of c is enabled in l.
func (l Level) Has(c Level) bool {
	return c != None && l&c == c
}

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case All:
		return "all"
	}
	var parts []string
	if l.Has(General) {
		parts = append(parts, "general")
	}
	if l.Has(Vulkan) {
		parts = append(parts, "vulkan")
	}
	if len(parts) == 0 {
		return strconv.FormatUint(uint64(l), 10)
	}
	return strings.Join(parts, ",")
}

// ParseLevel accepts a comma separated list of category names ("general",
// "vulkan", "all", "none") or the raw bitmask as a number.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		if Level(n)&^All != 0 {
			return None, errors.Errorf("logx: level %d has unknown category bits", n)
		}
		return Level(n), nil
	}
	var lvl Level
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "none", "":
		case "general":
			lvl |= General
		case "vulkan":
			lvl |= Vulkan
		case "all":
			lvl |= All
		default:
			return None, errors.Errorf("logx: unknown level %q", part)
		}
	}
	return lvl, nil
}

// Logger routes category-tagged messages to a slog handler.
type Logger struct {
	level  Level
	log    *slog.Logger
	closer io.Closer
}

// New returns a Logger writing text records to w.
func New(w io.Writer, level Level) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewWithHandler(h, level)
}

// NewWithHandler returns a Logger on top of an existing slog handler.
func NewWithHandler(h slog.Handler, level Level) *Logger {
	return &Logger{level: level, log: slog.New(h)}
}

// Nop returns a Logger that drops everything.
func Nop() *Logger {
	return &Logger{level: None}
}

func (l *Logger) Level() Level {
	if l == nil {
		return None
	}
	return l.level
}

// Enabled reports whether messages of category c are emitted.
func (l *Logger) Enabled(c Level) bool {
	return l != nil && l.log != nil && l.level.Has(c)
}

func (l *Logger) Debug(c Level, msg string, args ...any) {
	l.emit(c, slog.LevelDebug, msg, args)
}

func (l *Logger) Info(c Level, msg string, args ...any) {
	l.emit(c, slog.LevelInfo, msg, args)
}

func (l *Logger) Warn(c Level, msg string, args ...any) {
	l.emit(c, slog.LevelWarn, msg, args)
}

func (l *Logger) Error(c Level, msg string, args ...any) {
	l.emit(c, slog.LevelError, msg, args)
}

func (l *Logger) emit(c Level, sev slog.Level, msg string, args []any) {
	if !l.Enabled(c) {
		return
	}
	args = append([]any{slog.String("category", c.String())}, args...)
	l.log.Log(context.Background(), sev, msg, args...)
}

// Close releases the sink opened for this Logger, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
