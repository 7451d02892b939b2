// Package fake provides an in-memory desktop implementing the platform
// interfaces. It backs the package tests and the --demo mode.
package fake

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// ErrClosed is returned by controls used after their tree was closed.
var ErrClosed = errors.New("tree closed")

// Node is one element of a fake accessibility tree.
type Node struct {
	Info     model.ElementInfo
	Children []*Node

	InvokeErr     error
	ClickInputErr error
	ClickErr      error
	RefreshErr    error
	ChildrenErr   error

	// Transient nodes detach from their parent after a successful
	// activation, like a confirmation prompt that dismisses itself.
	Transient bool

	invokes     atomic.Int32
	clickInputs atomic.Int32
	clicks      atomic.Int32
}

// N builds a node of the given type.
func N(controlType, name string, children ...*Node) *Node {
	return &Node{
		Info:     model.ElementInfo{ControlType: controlType, Name: name},
		Children: children,
	}
}

// Button builds an enabled, visible button with a typical prompt size.
func Button(name string) *Node {
	return &Node{Info: model.ElementInfo{
		ControlType: model.TypeButton,
		Name:        name,
		Enabled:     model.Bool(true),
		Visible:     model.Bool(true),
		Bounds:      &model.Rect{X: 400, Y: 600, Width: 80, Height: 24},
	}}
}

// WithID sets the automation id.
func (n *Node) WithID(id string) *Node {
	n.Info.AutomationID = id
	return n
}

// WithClass sets the class name.
func (n *Node) WithClass(class string) *Node {
	n.Info.ClassName = class
	return n
}

// WithBounds sets the bounding rectangle.
func (n *Node) WithBounds(x, y, w, h int) *Node {
	n.Info.Bounds = &model.Rect{X: x, Y: y, Width: w, Height: h}
	return n
}

// Hidden marks the node offscreen.
func (n *Node) Hidden() *Node {
	n.Info.Visible = model.Bool(false)
	return n
}

// Disabled marks the node disabled.
func (n *Node) Disabled() *Node {
	n.Info.Enabled = model.Bool(false)
	return n
}

// Invokes returns the number of successful invoke activations.
func (n *Node) Invokes() int { return int(n.invokes.Load()) }

// ClickInputs returns the number of successful synthesized clicks.
func (n *Node) ClickInputs() int { return int(n.clickInputs.Load()) }

// Clicks returns the number of successful default actions.
func (n *Node) Clicks() int { return int(n.clicks.Load()) }

// Activations returns the total number of successful activations.
func (n *Node) Activations() int {
	return n.Invokes() + n.ClickInputs() + n.Clicks()
}

// Desktop is an in-memory set of windows and their trees.
type Desktop struct {
	mu       sync.Mutex
	windows  []model.Window
	trees    map[model.Handle]*Node
	connErrs map[model.Handle]error
	connects map[model.Handle]int
	listErr  error
	open     int
}

// New returns an empty desktop.
func New() *Desktop {
	return &Desktop{
		trees:    make(map[model.Handle]*Node),
		connErrs: make(map[model.Handle]error),
		connects: make(map[model.Handle]int),
	}
}

// AddWindow adds a window. A nil root gets an empty Window node.
func (d *Desktop) AddWindow(w model.Window, root *Node) {
	if root == nil {
		root = N("Window", w.Title)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, w)
	d.trees[w.Handle] = root
}

// RemoveWindow closes a window.
func (d *Desktop) RemoveWindow(h model.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.windows {
		if w.Handle == h {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			break
		}
	}
	delete(d.trees, h)
}

// FailConnect makes Connect fail for h until called again with nil.
func (d *Desktop) FailConnect(h model.Handle, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.connErrs, h)
		return
	}
	d.connErrs[h] = err
}

// FailList makes ListWindows fail until called again with nil.
func (d *Desktop) FailList(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listErr = err
}

// Connects returns how many Connect calls were made for h.
func (d *Desktop) Connects(h model.Handle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects[h]
}

// OpenTrees returns the number of trees not yet closed.
func (d *Desktop) OpenTrees() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Append adds child below parent while the desktop may be in use.
func (d *Desktop) Append(parent, child *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	parent.Children = append(parent.Children, child)
}

// Provider returns a provider backed by d.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{Enumerator: d, Connector: d}
}

func (d *Desktop) ListWindows() ([]model.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]model.Window, len(d.windows))
	copy(out, d.windows)
	return out, nil
}

func (d *Desktop) IsAlive(h model.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.trees[h]
	return ok
}

func (d *Desktop) Begin() (func(), error) {
	return func() {}, nil
}

func (d *Desktop) Connect(h model.Handle) (platform.Tree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connects[h]++
	if err := d.connErrs[h]; err != nil {
		return nil, err
	}
	root, ok := d.trees[h]
	if !ok {
		return nil, fmt.Errorf("window %s not found", h)
	}
	d.open++
	t := &tree{d: d}
	t.root = &control{t: t, n: root}
	return t, nil
}

type tree struct {
	d      *Desktop
	root   *control
	closed bool
}

func (t *tree) Root() platform.Control { return t.root }

func (t *tree) Close() {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.d.open--
	}
}

type control struct {
	t      *tree
	n      *Node
	parent *Node
}

func (c *control) Info() model.ElementInfo {
	c.t.d.mu.Lock()
	defer c.t.d.mu.Unlock()
	return c.n.Info
}

func (c *control) Refresh() error {
	c.t.d.mu.Lock()
	defer c.t.d.mu.Unlock()
	if c.t.closed {
		return ErrClosed
	}
	return c.n.RefreshErr
}

func (c *control) Children() ([]platform.Control, error) {
	c.t.d.mu.Lock()
	defer c.t.d.mu.Unlock()
	if c.t.closed {
		return nil, ErrClosed
	}
	if c.n.ChildrenErr != nil {
		return nil, c.n.ChildrenErr
	}
	out := make([]platform.Control, len(c.n.Children))
	for i, child := range c.n.Children {
		out[i] = &control{t: c.t, n: child, parent: c.n}
	}
	return out, nil
}

func (c *control) Invoke() error {
	return c.activate(c.n.InvokeErr, &c.n.invokes)
}

func (c *control) ClickInput() error {
	return c.activate(c.n.ClickInputErr, &c.n.clickInputs)
}

func (c *control) Click() error {
	return c.activate(c.n.ClickErr, &c.n.clicks)
}

func (c *control) activate(fail error, counter *atomic.Int32) error {
	c.t.d.mu.Lock()
	defer c.t.d.mu.Unlock()
	if c.t.closed {
		return ErrClosed
	}
	if fail != nil {
		return fail
	}
	counter.Add(1)
	if c.n.Transient && c.parent != nil {
		kids := c.parent.Children
		for i, k := range kids {
			if k == c.n {
				c.parent.Children = append(kids[:i:i], kids[i+1:]...)
				break
			}
		}
	}
	return nil
}
