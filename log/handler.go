package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// terminalHandler adapts this package's own LogFormatter (TextFormatter,
// JSONFormatter, ColorFormatter) to the slog.Handler interface, so a Logger
// built with NewWithHandler can have slog call back into this package's
// formatting instead of one of slog's built-in handlers.
type terminalHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	formatter LogFormatter
	level     slog.Leveler
	attrs     []slog.Attr
	group     string
}

// NewTerminalHandler returns a slog.Handler that renders records through a
// ColorFormatter, the format intended for a human operator watching a
// terminal (as opposed to New's JSON handler, meant for log aggregation).
func NewTerminalHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return &terminalHandler{
		mu:        &sync.Mutex{},
		out:       w,
		formatter: &ColorFormatter{},
		level:     level,
	}
}

// Enabled implements slog.Handler.
func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

// Handle implements slog.Handler.
func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[h.qualify(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[h.qualify(a.Key)] = a.Value.Any()
		return true
	})

	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelFromSlog(r.Level),
		Message:   r.Message,
		Fields:    fields,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, h.formatter.Format(entry))
	return err
}

// WithAttrs implements slog.Handler.
func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler.
func (h *terminalHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group == "" {
		next.group = name
	} else {
		next.group = next.group + "." + name
	}
	return &next
}

func (h *terminalHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func levelFromSlog(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}
