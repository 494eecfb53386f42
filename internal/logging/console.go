package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGrey   = "\x1b[90m"
)

// consoleHandler renders one line per record:
//
//	2024-05-01T10:00:00Z INFO synchronizer: record synchronized record_id=... genres=3
//
// The component attribute becomes the line prefix instead of a key/value pair.
type consoleHandler struct {
	out       *lockedWriter
	level     slog.Leveler
	addSource bool
	colour    bool

	group     string
	component string
	preset    []field
}

type field struct {
	key   string
	value slog.Value
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := lw.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource, colour bool) slog.Handler {
	return &consoleHandler{
		out:       &lockedWriter{w: w},
		level:     level,
		addSource: addSource,
		colour:    colour,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, rec slog.Record) error {
	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	component := h.component
	fields := make([]field, 0, len(h.preset)+rec.NumAttrs())
	fields = append(fields, h.preset...)
	rec.Attrs(func(a slog.Attr) bool {
		fields = h.collect(fields, h.group, a, &component)
		return true
	})

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(h.label(rec.Level))
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(rec.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.addSource && rec.PC != 0 {
		if src := rec.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(renderValue(f.value))
	}
	b.WriteByte('\n')
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		next.preset = next.collect(next.preset, next.group, a, &next.component)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

// collect appends a's leaves to dst under prefix. A top-level component
// attribute is captured instead of appended.
func (h *consoleHandler) collect(dst []field, prefix string, a slog.Attr, component *string) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = joinKey(prefix, a.Key)
		}
		for _, child := range a.Value.Group() {
			dst = h.collect(dst, inner, child, component)
		}
		return dst
	}
	if prefix == "" && a.Key == FieldComponent {
		if *component == "" {
			*component = plainString(a.Value)
		}
		return dst
	}
	key := joinKey(prefix, a.Key)
	if key == "" {
		return dst
	}
	return append(dst, field{key: key, value: a.Value})
}

func (h *consoleHandler) label(level slog.Level) string {
	text, colour := "DEBUG", ansiGrey
	switch {
	case level >= slog.LevelError:
		text, colour = "ERROR", ansiRed
	case level >= slog.LevelWarn:
		text, colour = "WARN", ansiYellow
	case level >= slog.LevelInfo:
		text, colour = "INFO", ansiBlue
	}
	if h.colour {
		return colour + text + ansiReset
	}
	return text
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func plainString(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

// renderValue prints v, quoting anything with spaces, quotes or '='.
func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	default:
		s = plainString(v)
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
