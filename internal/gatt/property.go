package gatt

import (
	"strings"

	"github.com/go-ble/ble"
)

// Property is the characteristic property bit field. The bit values are the
// ones defined by the Bluetooth Core specification and shared with go-ble.
type Property byte

const (
	PropBroadcast   = Property(ble.CharBroadcast)
	PropRead        = Property(ble.CharRead)
	PropWriteNR     = Property(ble.CharWriteNR)
	PropWrite       = Property(ble.CharWrite)
	PropNotify      = Property(ble.CharNotify)
	PropIndicate    = Property(ble.CharIndicate)
	PropSignedWrite = Property(ble.CharSignedWrite)
	PropExtended    = Property(ble.CharExtended)
)

var propertyNames = []struct {
	p    Property
	name string
}{
	{PropBroadcast, "broadcast"},
	{PropRead, "read"},
	{PropWriteNR, "write-without-response"},
	{PropWrite, "write"},
	{PropNotify, "notify"},
	{PropIndicate, "indicate"},
	{PropSignedWrite, "authenticated-signed-writes"},
	{PropExtended, "extended-properties"},
}

// Has reports whether all bits of q are set in p.
func (p Property) Has(q Property) bool {
	return p&q == q
}

// BLE converts the property set to its go-ble representation.
func (p Property) BLE() ble.Property {
	return ble.Property(p)
}

func (p Property) String() string {
	var names []string
	for _, pn := range propertyNames {
		if p.Has(pn.p) {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Permission restricts access to a characteristic value.
type Permission byte

const (
	PermNone        Permission = 0x00
	PermAuthenRead  Permission = 0x01
	PermAuthorRead  Permission = 0x02
	PermEncryRead   Permission = 0x04
	PermAuthenWrite Permission = 0x08
	PermAuthorWrite Permission = 0x10
	PermEncryWrite  Permission = 0x20
)

// EventMask selects which attribute accesses the stack reports to the
// application.
type EventMask byte

const (
	DontNotifyEvents                 EventMask = 0x00
	NotifyAttributeWrite             EventMask = 0x01
	NotifyWriteReqAndWaitForApplResp EventMask = 0x02
	NotifyReadReqAndWaitForApplResp  EventMask = 0x04
)

// ServiceKind distinguishes primary from secondary services.
type ServiceKind byte

const (
	PrimaryService   ServiceKind = 0x01
	SecondaryService ServiceKind = 0x02
)
