package model

import (
	"fmt"
	"strconv"
)

// Handle is an opaque top-level window identifier (an HWND on Windows).
type Handle uintptr

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// ParseHandle accepts decimal or 0x-prefixed hexadecimal handles.
func ParseHandle(s string) (Handle, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q: %w", s, err)
	}
	return Handle(v), nil
}

// Window represents a visible top-level window.
type Window struct {
	Handle  Handle `yaml:"hwnd"              json:"hwnd"`
	Title   string `yaml:"title"             json:"title"`
	PID     int    `yaml:"pid,omitempty"     json:"pid,omitempty"`
	Process string `yaml:"process,omitempty" json:"process,omitempty"`
}
