//go:build windows

package windows

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

var (
	clsidCUIAutomation = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation   = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
)

// IUIAutomation vtable slots.
const (
	uiaElementFromHandle    = 6
	uiaGetControlViewWalker = 14
	walkerGetFirstChild     = 4
	walkerGetNextSibling    = 6
)

// sFalse is returned by CoInitializeEx when the thread is already
// initialised.
const sFalse = 1

// Automation opens UI Automation trees. It implements platform.Connector.
type Automation struct {
	mu    sync.Mutex
	users int
	uia   *ole.IUnknown
}

// NewAutomation creates a connector. No COM work happens until Begin.
func NewAutomation() *Automation {
	return &Automation{}
}

// Begin locks the calling goroutine to its OS thread, joins the COM
// multithreaded apartment and creates the automation object on first use.
func (a *Automation) Begin() (func(), error) {
	runtime.LockOSThread()
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("initialise COM: %w", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uia == nil {
		uia, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
		if err != nil {
			ole.CoUninitialize()
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("create UI Automation: %w", err)
		}
		a.uia = uia
	}
	a.users++

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			a.users--
			if a.users == 0 && a.uia != nil {
				a.uia.Release()
				a.uia = nil
			}
			a.mu.Unlock()
			ole.CoUninitialize()
			runtime.UnlockOSThread()
		})
	}, nil
}

// Connect opens a fresh tree rooted at the window.
func (a *Automation) Connect(h model.Handle) (platform.Tree, error) {
	a.mu.Lock()
	uia := a.uia
	a.mu.Unlock()
	if uia == nil {
		return nil, errors.New("UI Automation not initialised; call Begin first")
	}

	t := &tree{}
	var root *ole.IUnknown
	if err := comCall(uia, uiaElementFromHandle, uintptr(h), uintptr(unsafe.Pointer(&root))); err != nil {
		return nil, fmt.Errorf("element from handle %s: %w", h, err)
	}
	if root == nil {
		return nil, fmt.Errorf("element from handle %s: no element", h)
	}
	t.track(root)

	var walker *ole.IUnknown
	if err := comCall(uia, uiaGetControlViewWalker, uintptr(unsafe.Pointer(&walker))); err != nil || walker == nil {
		t.Close()
		if err == nil {
			err = errors.New("no walker")
		}
		return nil, fmt.Errorf("control view walker: %w", err)
	}
	t.walker = walker
	t.root = newElement(t, root)
	return t, nil
}

// tree owns every COM reference created while it is open.
type tree struct {
	mu     sync.Mutex
	walker *ole.IUnknown
	root   *element
	refs   []*ole.IUnknown
	closed bool
}

func (t *tree) track(u *ole.IUnknown) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs = append(t.refs, u)
}

func (t *tree) Root() platform.Control { return t.root }

// Close releases every element obtained from the tree.
func (t *tree) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, u := range t.refs {
		u.Release()
	}
	t.refs = nil
	if t.walker != nil {
		t.walker.Release()
		t.walker = nil
	}
}

func (t *tree) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *tree) children(parent *ole.IUnknown) ([]*ole.IUnknown, error) {
	if t.isClosed() {
		return nil, errTreeClosed
	}
	var out []*ole.IUnknown
	var child *ole.IUnknown
	if err := comCall(t.walker, walkerGetFirstChild, uintptr(unsafe.Pointer(parent)), uintptr(unsafe.Pointer(&child))); err != nil {
		return nil, err
	}
	for child != nil {
		t.track(child)
		out = append(out, child)
		var next *ole.IUnknown
		if err := comCall(t.walker, walkerGetNextSibling, uintptr(unsafe.Pointer(child)), uintptr(unsafe.Pointer(&next))); err != nil {
			return out, err
		}
		child = next
	}
	return out, nil
}

var errTreeClosed = errors.New("tree closed")

// comCall invokes the vtable slot of obj and converts the HRESULT.
func comCall(obj *ole.IUnknown, slot int, args ...uintptr) error {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(unsafe.Pointer(obj))}, args...)...)
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}
