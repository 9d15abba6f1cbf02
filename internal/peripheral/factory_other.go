//go:build !linux

package peripheral

import (
	"fmt"
	"runtime"

	"github.com/go-ble/ble"
)

func newDevice(int, Handlers) (ble.Device, error) {
	return nil, fmt.Errorf("%w: peripheral role on %s", ErrUnsupported, runtime.GOOS)
}
