//go:build windows

package windows

import (
	"sync"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// IUIAutomationElement vtable slots.
const (
	elemGetCurrentPatternAs      = 14
	elemCurrentControlType       = 21
	elemCurrentName              = 23
	elemCurrentIsEnabled         = 28
	elemCurrentAutomationID      = 29
	elemCurrentClassName         = 30
	elemCurrentIsOffscreen       = 38
	elemCurrentBoundingRectangle = 43
)

// Control patterns used for activation.
const (
	invokePatternID           = 10000
	legacyAccessiblePatternID = 10018

	invokeSlot          = 3
	doDefaultActionSlot = 4
)

var (
	iidInvokePattern           = ole.NewGUID("{FB377FBE-8EA6-46D5-9C73-6499642D3059}")
	iidLegacyAccessiblePattern = ole.NewGUID("{828055AD-355B-4435-86D5-3B51C14A9B1B}")
)

type rect struct {
	Left, Top, Right, Bottom int32
}

// element implements platform.Control over an IUIAutomationElement.
type element struct {
	t   *tree
	raw *ole.IUnknown

	mu   sync.Mutex
	info model.ElementInfo
	read bool
}

func newElement(t *tree, raw *ole.IUnknown) *element {
	return &element{t: t, raw: raw}
}

func (e *element) Info() model.ElementInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.read {
		e.info = e.readInfo()
		e.read = true
	}
	return e.info
}

func (e *element) Refresh() error {
	if e.t.isClosed() {
		return errTreeClosed
	}
	info := e.readInfo()
	e.mu.Lock()
	e.info = info
	e.read = true
	e.mu.Unlock()
	return nil
}

// readInfo reads each property independently. A failed read leaves the
// field unknown.
func (e *element) readInfo() model.ElementInfo {
	var info model.ElementInfo

	var ct int32
	if comCall(e.raw, elemCurrentControlType, uintptr(unsafe.Pointer(&ct))) == nil {
		info.ControlType = model.ControlTypeName(int(ct))
	} else {
		info.ControlType = "Unknown"
	}
	info.Name = e.readString(elemCurrentName)
	info.AutomationID = e.readString(elemCurrentAutomationID)
	info.ClassName = e.readString(elemCurrentClassName)

	var enabled int32
	if comCall(e.raw, elemCurrentIsEnabled, uintptr(unsafe.Pointer(&enabled))) == nil {
		info.Enabled = model.Bool(enabled != 0)
	}
	var offscreen int32
	if comCall(e.raw, elemCurrentIsOffscreen, uintptr(unsafe.Pointer(&offscreen))) == nil {
		info.Visible = model.Bool(offscreen == 0)
	}
	var r rect
	if comCall(e.raw, elemCurrentBoundingRectangle, uintptr(unsafe.Pointer(&r))) == nil {
		info.Bounds = &model.Rect{
			X:      int(r.Left),
			Y:      int(r.Top),
			Width:  int(r.Right - r.Left),
			Height: int(r.Bottom - r.Top),
		}
	}
	return info
}

func (e *element) readString(slot int) string {
	var bstr *uint16
	if comCall(e.raw, slot, uintptr(unsafe.Pointer(&bstr))) != nil || bstr == nil {
		return ""
	}
	s := ole.BstrToString(bstr)
	ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
	return s
}

func (e *element) Children() ([]platform.Control, error) {
	raws, err := e.t.children(e.raw)
	out := make([]platform.Control, len(raws))
	for i, raw := range raws {
		out[i] = newElement(e.t, raw)
	}
	return out, err
}

func (e *element) Invoke() error {
	return e.callPattern(invokePatternID, iidInvokePattern, invokeSlot)
}

func (e *element) Click() error {
	return e.callPattern(legacyAccessiblePatternID, iidLegacyAccessiblePattern, doDefaultActionSlot)
}

func (e *element) ClickInput() error {
	if e.t.isClosed() {
		return errTreeClosed
	}
	if err := e.Refresh(); err != nil {
		return err
	}
	info := e.Info()
	if info.Bounds == nil || info.Bounds.Width <= 0 || info.Bounds.Height <= 0 {
		return errNoBounds
	}
	x, y := info.Bounds.Center()
	return clickAt(x, y)
}

// callPattern fetches the pattern interface and calls its parameterless
// method at slot.
func (e *element) callPattern(patternID int, iid *ole.GUID, slot int) error {
	if e.t.isClosed() {
		return errTreeClosed
	}
	var pattern *ole.IUnknown
	if err := comCall(e.raw, elemGetCurrentPatternAs, uintptr(patternID), uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&pattern))); err != nil {
		return err
	}
	if pattern == nil {
		return platform.ErrNoPattern
	}
	defer pattern.Release()
	return comCall(pattern, slot)
}
