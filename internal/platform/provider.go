package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Provider bundles the platform backends for the current OS.
type Provider struct {
	Enumerator Enumerator
	Connector  Connector
}

// ErrUnsupported is returned on platforms without an accessibility backend.
var ErrUnsupported = fmt.Errorf("autoallow is not supported on %s/%s; supported: windows/amd64, windows/arm64", runtime.GOOS, runtime.GOARCH)

// ErrNoPattern is returned when an element lacks the affordance an
// activation strategy needs.
var ErrNoPattern = errors.New("pattern not available")

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/windows/init.go for the Windows registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
