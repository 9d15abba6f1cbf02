package gatt

import (
	"errors"
	"fmt"
)

// Status is the one-byte result code returned by GATT stack commands.
type Status byte

// Status codes reported by the BlueNRG GATT command set.
const (
	StatusSuccess               Status = 0x00
	StatusUnknownConnection     Status = 0x02
	StatusFailed                Status = 0x41
	StatusInvalidParams         Status = 0x42
	StatusBusy                  Status = 0x43
	StatusNotAllowed            Status = 0x46
	StatusUnspecified           Status = 0x47
	StatusInvalidHandle         Status = 0x60
	StatusInsufficientResources Status = 0x64
	StatusTimeout               Status = 0xFF
)

var statusNames = map[Status]string{
	StatusSuccess:               "success",
	StatusUnknownConnection:     "unknown connection identifier",
	StatusFailed:                "failed",
	StatusInvalidParams:         "invalid parameters",
	StatusBusy:                  "busy",
	StatusNotAllowed:            "not allowed",
	StatusUnspecified:           "unspecified error",
	StatusInvalidHandle:         "invalid handle",
	StatusInsufficientResources: "insufficient resources",
	StatusTimeout:               "timeout",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02x", byte(s))
}

// Err returns nil for StatusSuccess and a *StatusError otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError carries a non-success stack status so callers can inspect it
// with errors.As or compare against the sentinel values below with errors.Is.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("gatt: %s (0x%02x)", e.Status, byte(e.Status))
}

// Is compares StatusError values by Status.
func (e *StatusError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return e.Status == t.Status
}

// Predefined sentinel errors for the statuses callers usually branch on.
var (
	ErrInvalidHandle         = &StatusError{Status: StatusInvalidHandle}
	ErrInvalidParams         = &StatusError{Status: StatusInvalidParams}
	ErrInsufficientResources = &StatusError{Status: StatusInsufficientResources}
)

// StatusOf extracts the stack status from err. It reports StatusSuccess for a
// nil error and StatusUnspecified for errors that carry no status.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Status
	}
	return StatusUnspecified
}
