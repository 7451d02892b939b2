//go:build windows

package windows

import (
	"sync"
	"unsafe"

	"github.com/shirou/gopsutil/v4/process"
	winapi "golang.org/x/sys/windows"

	"github.com/mj1618/autoallow/internal/model"
)

var (
	user32                   = winapi.NewLazySystemDLL("user32.dll")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
)

// EnumWindows callbacks are a limited resource, so one callback is created
// for the process and guarded by enumMu.
var (
	enumMu       sync.Mutex
	enumHandles  []winapi.HWND
	enumCallback = winapi.NewCallback(func(hwnd winapi.HWND, _ uintptr) uintptr {
		enumHandles = append(enumHandles, hwnd)
		return 1
	})
)

// Enumerator lists visible top-level windows.
type Enumerator struct{}

// NewEnumerator creates a window enumerator.
func NewEnumerator() *Enumerator {
	return &Enumerator{}
}

// ListWindows returns every visible top-level window whose process name
// resolves.
func (e *Enumerator) ListWindows() ([]model.Window, error) {
	handles, err := topLevelWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]model.Window, 0, len(handles))
	for _, hwnd := range handles {
		if !winapi.IsWindowVisible(hwnd) {
			continue
		}
		var pid uint32
		if _, err := winapi.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
			continue
		}
		name := processName(pid)
		if name == "" {
			continue
		}
		windows = append(windows, model.Window{
			Handle:  model.Handle(hwnd),
			Title:   windowText(hwnd),
			PID:     int(pid),
			Process: name,
		})
	}
	return windows, nil
}

// IsAlive reports whether the handle still names a window.
func (e *Enumerator) IsAlive(h model.Handle) bool {
	return winapi.IsWindow(winapi.HWND(h))
}

func topLevelWindows() ([]winapi.HWND, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumHandles = enumHandles[:0]
	if err := winapi.EnumWindows(enumCallback, nil); err != nil {
		return nil, err
	}
	out := make([]winapi.HWND, len(enumHandles))
	copy(out, enumHandles)
	return out, nil
}

func windowText(hwnd winapi.HWND) string {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return winapi.UTF16ToString(buf)
}

// processName returns the lowercase executable base name without ".exe",
// or "" when the process cannot be inspected.
func processName(pid uint32) string {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}
	name, err := proc.Name()
	if err != nil {
		return ""
	}
	return normalizeProcessName(name)
}
