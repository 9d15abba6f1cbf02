package peripheral

import "github.com/go-ble/ble"

// Handlers receive link layer connection events from the device.
type Handlers struct {
	Connect    func(handle uint16)
	Disconnect func(handle uint16)
}

// DeviceFactory creates the platform ble.Device for the given HCI device id
// (can be overridden in tests).
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func(id int, h Handlers) (ble.Device, error) {
	return newDevice(id, h)
}
