package platform

import (
	"fmt"
	"strings"
)

// Method names an activation strategy.
type Method string

const (
	MethodInvoke     Method = "invoke"
	MethodClickInput Method = "click_input"
	MethodClick      Method = "click"
)

// DefaultMethods is the order strategies are tried in.
var DefaultMethods = []Method{MethodInvoke, MethodClickInput, MethodClick}

// ParseMethod converts a config or flag value to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoke":
		return MethodInvoke, nil
	case "click_input", "click-input":
		return MethodClickInput, nil
	case "click":
		return MethodClick, nil
	default:
		return "", fmt.Errorf("unknown activation method: %q (expected invoke, click_input, or click)", s)
	}
}

// Run performs the strategy on c.
func (m Method) Run(c Control) error {
	switch m {
	case MethodInvoke:
		return c.Invoke()
	case MethodClickInput:
		return c.ClickInput()
	case MethodClick:
		return c.Click()
	default:
		return fmt.Errorf("unknown activation method: %q", string(m))
	}
}
