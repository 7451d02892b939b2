//go:build windows

package windows

import (
	"errors"
	"time"

	"github.com/go-vgo/robotgo"
)

var errNoBounds = errors.New("element has no on-screen bounds")

// clickAt moves the pointer to (x, y) and clicks the left button.
func clickAt(x, y int) error {
	robotgo.Move(x, y)
	time.Sleep(50 * time.Millisecond)
	robotgo.Click("left", false)
	return nil
}
