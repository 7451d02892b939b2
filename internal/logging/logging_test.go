package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(\"verbose\") should fail")
	}
}

func TestConsoleHandler_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, slog.LevelInfo))
	log.Info("clicked", "name", "Allow")
	log.Debug("hidden")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("buffer output should not be colourised: %q", out)
	}
	if !strings.Contains(out, "clicked") || !strings.Contains(out, "name=Allow") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
}

func TestChannelHandler_FormatsAttrs(t *testing.T) {
	ch := make(chan Line, 4)
	log := slog.New(NewChannelHandler(ch, slog.LevelDebug)).With("hwnd", "42")
	log.WithGroup("click").Info("clicked", "name", "Allow once", "method", "invoke")

	line := <-ch
	if line.Message != "clicked" || line.Level != slog.LevelInfo {
		t.Fatalf("unexpected line: %+v", line)
	}
	want := `hwnd=42 click.name="Allow once" click.method=invoke`
	if line.Attrs != want {
		t.Errorf("attrs = %q, want %q", line.Attrs, want)
	}
}

func TestChannelHandler_DropsWhenFull(t *testing.T) {
	ch := make(chan Line, 1)
	h := NewChannelHandler(ch, slog.LevelInfo)
	log := slog.New(h)
	log.Info("one")
	log.Info("two")
	if h.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", h.Dropped())
	}
}

func TestLine_String(t *testing.T) {
	l := Line{Time: time.Date(2026, 1, 1, 14, 3, 9, 0, time.UTC), Level: slog.LevelWarn, Message: "connection failed", Attrs: "failures=5"}
	want := "14:03:09 [WARN] connection failed failures=5"
	if got := l.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFanout(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	f := Fanout{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
	if !f.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("fanout should be enabled when any handler is")
	}
	log := slog.New(f).With("session", "s1")
	log.Debug("tick")
	log.Info("clicked")

	if !strings.Contains(debugBuf.String(), "tick") || !strings.Contains(debugBuf.String(), "clicked") {
		t.Errorf("debug handler missed records: %q", debugBuf.String())
	}
	if strings.Contains(infoBuf.String(), "tick") {
		t.Error("info handler should not receive debug records")
	}
	if !strings.Contains(infoBuf.String(), "session=s1") {
		t.Errorf("attrs should reach every handler: %q", infoBuf.String())
	}
}
