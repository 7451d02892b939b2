package platform

import "github.com/mj1618/autoallow/internal/model"

// Enumerator lists top-level desktop windows.
type Enumerator interface {
	// ListWindows returns every visible top-level window whose owning
	// process could be resolved, in platform enumeration order. Process
	// names are lowercase with any ".exe" suffix removed.
	ListWindows() ([]model.Window, error)

	// IsAlive reports whether the handle still names a window.
	IsAlive(h model.Handle) bool
}

// Connector opens accessibility trees for top-level windows.
type Connector interface {
	// Begin prepares the calling OS thread for accessibility calls. The
	// returned func must be called from the same thread when done.
	Begin() (end func(), err error)

	// Connect opens a fresh tree rooted at the window. Nothing is cached
	// between calls.
	Connect(h model.Handle) (Tree, error)
}

// Tree is an open accessibility tree. Every Control obtained from it is
// invalid after Close.
type Tree interface {
	Root() Control
	Close()
}

// Control is one accessibility element.
type Control interface {
	// Info returns the last properties read. Failed reads leave the
	// corresponding field unknown.
	Info() model.ElementInfo

	// Refresh re-reads the properties from the live element.
	Refresh() error

	// Children returns the direct children in tree order.
	Children() ([]Control, error)

	// Invoke activates the element through its invoke affordance.
	Invoke() error

	// ClickInput synthesizes a mouse click at the element centre.
	ClickInput() error

	// Click performs the element's default action.
	Click() error
}
