package model

import "fmt"

// Rect is a screen rectangle in physical pixels.
type Rect struct {
	X      int `yaml:"x"      json:"x"`
	Y      int `yaml:"y"      json:"y"`
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Pos formats the top-left corner as "(x,y)".
func (r Rect) Pos() string {
	return fmt.Sprintf("(%d,%d)", r.X, r.Y)
}

// Size formats the dimensions as "WxH".
func (r Rect) Size() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ElementInfo holds the properties of one accessibility element.
// Pointer fields are nil when the property could not be read.
type ElementInfo struct {
	ControlType  string `yaml:"type"              json:"type"`
	Name         string `yaml:"name,omitempty"    json:"name,omitempty"`
	AutomationID string `yaml:"id,omitempty"      json:"id,omitempty"`
	ClassName    string `yaml:"class,omitempty"   json:"class,omitempty"`
	Enabled      *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Visible      *bool  `yaml:"visible,omitempty" json:"visible,omitempty"`
	Bounds       *Rect  `yaml:"bounds,omitempty"  json:"bounds,omitempty"`
}

// IsEnabled reports the enabled flag, treating unknown as enabled.
func (e ElementInfo) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// IsVisible reports the visible flag, treating unknown as visible.
func (e ElementInfo) IsVisible() bool {
	return e.Visible == nil || *e.Visible
}

// Element is an accessibility element together with its subtree.
type Element struct {
	ElementInfo `yaml:",inline"`
	Children    []Element `yaml:"children,omitempty" json:"children,omitempty"`
}

// Bool returns a pointer to b, for populating optional flags.
func Bool(b bool) *bool {
	return &b
}
