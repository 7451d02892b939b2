package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Line is a formatted log record delivered to the panel.
type Line struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   string
}

// String renders the line the way the panel shows it.
func (l Line) String() string {
	var b strings.Builder
	b.WriteString(l.Time.Format(TimeFormat))
	b.WriteString(" [")
	b.WriteString(l.Level.String())
	b.WriteString("] ")
	b.WriteString(l.Message)
	if l.Attrs != "" {
		b.WriteByte(' ')
		b.WriteString(l.Attrs)
	}
	return b.String()
}

// ChannelHandler sends records to a channel without blocking. Records are
// dropped when the consumer falls behind.
type ChannelHandler struct {
	ch      chan<- Line
	level   slog.Leveler
	attrs   string
	group   string
	dropped *atomic.Int64
}

// NewChannelHandler creates a handler writing to ch.
func NewChannelHandler(ch chan<- Line, level slog.Leveler) *ChannelHandler {
	return &ChannelHandler{ch: ch, level: level, dropped: new(atomic.Int64)}
}

// Dropped returns the number of records lost to a full channel.
func (h *ChannelHandler) Dropped() int64 {
	return h.dropped.Load()
}

func (h *ChannelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ChannelHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.group, a)
		return true
	})
	line := Line{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: strings.TrimSpace(b.String())}
	select {
	case h.ch <- line:
	default:
		h.dropped.Add(1)
	}
	return nil
}

func (h *ChannelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.group, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

func (h *ChannelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(b, key, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	v := a.Value.String()
	if strings.ContainsAny(v, " =\"") {
		v = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	b.WriteString(v)
}
