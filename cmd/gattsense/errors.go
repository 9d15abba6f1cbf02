package main

import (
	"errors"
	"os"

	"github.com/srg/gattsense/internal/gatt"
	"github.com/srg/gattsense/internal/joystick"
	"github.com/srg/gattsense/internal/peripheral"
)

// FormatUserError turns known failures into actionable messages. Unknown
// errors are printed as-is.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, peripheral.ErrPermission):
		return "access to the Bluetooth adapter was denied; run as root or grant CAP_NET_ADMIN and CAP_NET_RAW (" + err.Error() + ")"
	case errors.Is(err, peripheral.ErrNoAdapter):
		return "no Bluetooth adapter found; check --hci and that the adapter is up (" + err.Error() + ")"
	case errors.Is(err, peripheral.ErrAdapterBusy):
		return "the Bluetooth adapter is in use; stop bluetoothd or other BLE tools first (" + err.Error() + ")"
	case errors.Is(err, peripheral.ErrUnsupported):
		return "serving a GATT peripheral is not supported on this platform (" + err.Error() + ")"
	case errors.Is(err, peripheral.ErrAdvertiseTimeout):
		return "no central connected before the advertising timeout expired"
	case errors.Is(err, joystick.ErrInit):
		return "joystick converter initialisation failed: " + err.Error()
	case gatt.StatusOf(err) == gatt.StatusInsufficientResources:
		return "the GATT database has no room left for the sensor services (" + err.Error() + ")"
	case errors.Is(err, os.ErrNotExist):
		return "file not found: " + err.Error()
	default:
		return err.Error()
	}
}
