//go:build windows

package windows

import "github.com/mj1618/autoallow/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Enumerator: NewEnumerator(),
			Connector:  NewAutomation(),
		}, nil
	}
}
