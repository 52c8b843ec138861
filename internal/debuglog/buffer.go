// Package debuglog keeps an invocation's diagnostic log lines in memory so
// they can be returned to the caller as output rows.
package debuglog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Buffer is a slog.Handler that stores one formatted line per record.
// Handlers derived with WithAttrs or WithGroup share the same lines.
type Buffer struct {
	store  *store
	level  slog.Leveler
	attrs  string
	prefix string
}

type store struct {
	mu    sync.Mutex
	lines []string
}

// New returns an empty buffer accepting records at or above level.
// A nil level accepts everything from debug up.
func New(level slog.Leveler) *Buffer {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Buffer{store: &store{}, level: level}
}

func (b *Buffer) Enabled(_ context.Context, l slog.Level) bool {
	return l >= b.level.Level()
}

func (b *Buffer) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if r.Level >= slog.LevelWarn {
		sb.WriteString(r.Level.String())
		sb.WriteString(": ")
	}
	sb.WriteString(r.Message)
	sb.WriteString(b.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, b.prefix, a)
		return true
	})
	b.Append(sb.String())
	return nil
}

func (b *Buffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(b.attrs)
	for _, a := range attrs {
		writeAttr(&sb, b.prefix, a)
	}
	nb := *b
	nb.attrs = sb.String()
	return &nb
}

func (b *Buffer) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	nb := *b
	nb.prefix = b.prefix + name + "."
	return &nb
}

// Append stores raw text; multi-line text becomes one entry per line.
func (b *Buffer) Append(text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.lines = append(b.store.lines, lines...)
}

// Lines returns a copy of the stored lines.
func (b *Buffer) Lines() []string {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	out := make([]string, len(b.store.lines))
	copy(out, b.store.lines)
	return out
}

// Drain returns the stored lines and empties the buffer.
func (b *Buffer) Drain() []string {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	out := b.store.lines
	b.store.lines = nil
	return out
}

// Len returns the number of stored lines.
func (b *Buffer) Len() int {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return len(b.store.lines)
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, p, ga)
		}
		return
	}

	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " =\"\t\n") {
		v = strconv.Quote(v)
	}
	sb.WriteString(v)
}
