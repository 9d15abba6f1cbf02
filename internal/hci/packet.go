package hci

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PacketType is the H4 packet indicator preceding every HCI packet.
type PacketType uint8

const (
	CommandPacket PacketType = 0x01
	ACLDataPacket PacketType = 0x02
	SCODataPacket PacketType = 0x03
	EventPacket   PacketType = 0x04
)

// EventCode identifies an HCI event.
type EventCode uint8

const (
	EventDisconnectionComplete    EventCode = 0x05
	EventEncryptionChange         EventCode = 0x08
	EventCommandComplete          EventCode = 0x0E
	EventCommandStatus            EventCode = 0x0F
	EventHardwareError            EventCode = 0x10
	EventNumberOfCompletedPackets EventCode = 0x13
	EventLEMeta                   EventCode = 0x3E
	EventVendor                   EventCode = 0xFF
)

// Subevent identifies an LE meta event.
type Subevent uint8

const (
	SubeventConnectionComplete         Subevent = 0x01
	SubeventAdvertisingReport          Subevent = 0x02
	SubeventConnectionUpdateComplete   Subevent = 0x03
	SubeventReadRemoteFeaturesComplete Subevent = 0x04
	SubeventLongTermKeyRequest         Subevent = 0x05
	SubeventRemoteConnParamRequest     Subevent = 0x06
	SubeventDataLengthChange           Subevent = 0x07
	SubeventEnhancedConnectionComplete Subevent = 0x0A
)

// VendorCode identifies a BlueNRG vendor-specific event.
type VendorCode uint16

const (
	VendorBlueInitialized        VendorCode = 0x0001
	VendorGAPPairingComplete     VendorCode = 0x0401
	VendorGATTAttributeModified  VendorCode = 0x0C01
	VendorGATTProcedureTimeout   VendorCode = 0x0C02
	VendorGATTProcedureComplete  VendorCode = 0x0C10
	VendorGATTWritePermitRequest VendorCode = 0x0C13
	VendorGATTReadPermitRequest  VendorCode = 0x0C14
)

const (
	eventHeaderLen = 3 // packet type, event code, parameter length
	vendorCodeLen  = 2
)

var (
	ErrShortPacket  = errors.New("hci: packet too short")
	ErrShortPayload = errors.New("hci: event payload too short")
)

// Event is a decoded HCI event packet.
type Event struct {
	Code   EventCode
	Params []byte
}

// ParseEvent splits an H4 event packet into its code and parameters. The
// packet must start with the EventPacket indicator.
func ParseEvent(pkt []byte) (Event, error) {
	if len(pkt) < eventHeaderLen {
		return Event{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(pkt))
	}
	if PacketType(pkt[0]) != EventPacket {
		return Event{}, fmt.Errorf("hci: not an event packet (type 0x%02x)", pkt[0])
	}
	plen := int(pkt[2])
	if len(pkt) < eventHeaderLen+plen {
		return Event{}, fmt.Errorf("%w: parameter length %d, have %d", ErrShortPacket, plen, len(pkt)-eventHeaderLen)
	}
	return Event{
		Code:   EventCode(pkt[1]),
		Params: pkt[eventHeaderLen : eventHeaderLen+plen],
	}, nil
}

// NewEventPacket builds an H4 event packet.
func NewEventPacket(code EventCode, params []byte) []byte {
	pkt := make([]byte, eventHeaderLen+len(params))
	pkt[0] = byte(EventPacket)
	pkt[1] = byte(code)
	pkt[2] = byte(len(params))
	copy(pkt[eventHeaderLen:], params)
	return pkt
}

// NewLEMetaPacket builds an LE meta event packet.
func NewLEMetaPacket(sub Subevent, payload []byte) []byte {
	return NewEventPacket(EventLEMeta, append([]byte{byte(sub)}, payload...))
}

// NewVendorPacket builds a vendor-specific event packet.
func NewVendorPacket(code VendorCode, payload []byte) []byte {
	params := make([]byte, vendorCodeLen+len(payload))
	binary.LittleEndian.PutUint16(params, uint16(code))
	copy(params[vendorCodeLen:], payload)
	return NewEventPacket(EventVendor, params)
}
