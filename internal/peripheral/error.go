package peripheral

import (
	"errors"
	"fmt"
	"strings"
)

// AdapterState is the kind of adapter failure reported by AdapterError.
type AdapterState string

const (
	AdapterMissing     AdapterState = "adapter_missing"
	AdapterPermission  AdapterState = "adapter_permission"
	AdapterBusy        AdapterState = "adapter_busy"
	AdapterUnsupported AdapterState = "adapter_unsupported"
)

// AdapterError reports why the local Bluetooth adapter could not be used.
type AdapterError struct {
	State AdapterState
	Msg   string
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is compares AdapterError values by State.
func (e *AdapterError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*AdapterError)
	if !ok {
		return false
	}
	return e.State == t.State
}

var (
	ErrNoAdapter   = &AdapterError{State: AdapterMissing}
	ErrPermission  = &AdapterError{State: AdapterPermission}
	ErrAdapterBusy = &AdapterError{State: AdapterBusy}
	ErrUnsupported = &AdapterError{State: AdapterUnsupported}
)

// ErrAdvertiseTimeout is returned by Serve when no central connected within
// the advertising timeout.
var ErrAdvertiseTimeout = errors.New("advertising timed out")

// NormalizeError maps known go-ble and HCI socket error strings to
// AdapterError sentinels, wrapping the original error.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "operation not permitted"),
		containsIgnoreCase(msg, "permission denied"):
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case containsIgnoreCase(msg, "no such device"),
		containsIgnoreCase(msg, "can't find hci"):
		return fmt.Errorf("%w: %v", ErrNoAdapter, err)
	case containsIgnoreCase(msg, "device or resource busy"):
		return fmt.Errorf("%w: %v", ErrAdapterBusy, err)
	case containsIgnoreCase(msg, "not supported"),
		containsIgnoreCase(msg, "not implemented"):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	default:
		return err
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
