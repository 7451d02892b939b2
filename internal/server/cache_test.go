package server

import (
	"errors"
	"testing"
	"time"

	"github.com/mj1618/autoallow/internal/dump"
	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform/fake"
)

func TestDumpCache(t *testing.T) {
	d := fake.New()
	w := model.Window{Handle: 0x10, Title: "a - Visual Studio Code", Process: "code"}
	d.AddWindow(w, fake.N("Window", w.Title, fake.Button("Run")))

	now := time.Unix(1000, 0)
	c := NewDumpCache(500 * time.Millisecond)
	c.now = func() time.Time { return now }

	read := func(opts dump.Options) dump.WindowDump {
		t.Helper()
		wd, err := c.Window(d, w, opts)
		if err != nil {
			t.Fatalf("Window: %v", err)
		}
		return wd
	}

	first := read(dump.Options{Depth: 5})
	read(dump.Options{Depth: 5})
	if got := d.Connects(w.Handle); got != 1 {
		t.Errorf("connects within TTL = %d, want 1", got)
	}
	if len(first.Elements) != 2 {
		t.Errorf("elements = %d, want 2", len(first.Elements))
	}

	read(dump.Options{Depth: 3})
	if got := d.Connects(w.Handle); got != 2 {
		t.Errorf("different scope should read again, connects = %d", got)
	}

	now = now.Add(time.Second)
	read(dump.Options{Depth: 5})
	if got := d.Connects(w.Handle); got != 3 {
		t.Errorf("expired entry should read again, connects = %d", got)
	}

	c.InvalidateWindow(w.Handle)
	read(dump.Options{Depth: 5})
	if got := d.Connects(w.Handle); got != 4 {
		t.Errorf("invalidated entry should read again, connects = %d", got)
	}
}

func TestDumpCache_FailuresNotCached(t *testing.T) {
	d := fake.New()
	w := model.Window{Handle: 0x20, Title: "b"}
	d.AddWindow(w, nil)
	d.FailConnect(w.Handle, errors.New("access denied"))

	c := NewDumpCache(time.Minute)
	if _, err := c.Window(d, w, dump.Options{}); err == nil {
		t.Fatal("expected error")
	}
	d.FailConnect(w.Handle, nil)
	if _, err := c.Window(d, w, dump.Options{}); err != nil {
		t.Fatalf("second read: %v", err)
	}
}

func TestDumpCache_Disabled(t *testing.T) {
	d := fake.New()
	w := model.Window{Handle: 0x30, Title: "c"}
	d.AddWindow(w, nil)

	c := NewDumpCache(0)
	c.Window(d, w, dump.Options{})
	c.Window(d, w, dump.Options{})
	if got := d.Connects(w.Handle); got != 2 {
		t.Errorf("connects = %d, want 2", got)
	}
}
