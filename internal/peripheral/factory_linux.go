//go:build linux

package peripheral

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/evt"
)

func newDevice(id int, h Handlers) (ble.Device, error) {
	dev, err := linux.NewDevice(
		ble.OptDeviceID(id),
		ble.OptConnectHandler(func(e evt.LEConnectionComplete) {
			if h.Connect != nil {
				h.Connect(e.ConnectionHandle())
			}
		}),
		ble.OptDisconnectHandler(func(e evt.DisconnectionComplete) {
			if h.Disconnect != nil {
				h.Disconnect(e.ConnectionHandle())
			}
		}),
	)
	if err != nil {
		return nil, NormalizeError(err)
	}
	return dev, nil
}
