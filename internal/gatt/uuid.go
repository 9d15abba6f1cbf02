package gatt

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
)

// UUID is a 128-bit attribute UUID stored in little-endian byte order, the
// layout used on the wire and by go-ble.
type UUID [16]byte

// ParseUUID parses the canonical textual form (with or without dashes).
func ParseUUID(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	var out UUID
	for i := range u {
		out[i] = u[len(u)-1-i]
	}
	return out, nil
}

// MustParseUUID is like ParseUUID but panics on malformed input.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the canonical big-endian form, e.g. d973f2e0-b19e-11e2-9e96-0800200c9a66.
func (u UUID) String() string {
	var be uuid.UUID
	for i := range u {
		be[i] = u[len(u)-1-i]
	}
	return be.String()
}

// BLE converts the UUID to its go-ble representation.
func (u UUID) BLE() ble.UUID {
	b := make(ble.UUID, len(u))
	copy(b, u[:])
	return b
}
