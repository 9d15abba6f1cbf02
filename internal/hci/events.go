package hci

import (
	"encoding/binary"
	"fmt"
)

// handleMask keeps the 12 connection handle bits of a handle field.
const handleMask = 0x0FFF

// Addr is a Bluetooth device address in over-the-air (little-endian) order.
type Addr [6]byte

// String formats the address most significant byte first, e.g. AA:BB:CC:DD:EE:FF.
func (a Addr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

// LEConnectionComplete is the payload of the LE Connection Complete and LE
// Enhanced Connection Complete subevents.
type LEConnectionComplete struct {
	Status             uint8
	Handle             uint16
	Role               uint8
	PeerAddrType       uint8
	PeerAddr           Addr
	Interval           uint16
	Latency            uint16
	SupervisionTimeout uint16
	ClockAccuracy      uint8
}

const (
	leConnCompleteLen         = 18
	leEnhancedConnCompleteLen = 30
	disconnCompleteLen        = 4
	readPermitRequestLen      = 6
)

// DecodeLEConnectionComplete decodes an LE Connection Complete payload.
func DecodeLEConnectionComplete(p []byte) (LEConnectionComplete, error) {
	if len(p) < leConnCompleteLen {
		return LEConnectionComplete{}, fmt.Errorf("LE connection complete: %w: %d bytes", ErrShortPayload, len(p))
	}
	e := LEConnectionComplete{
		Status:             p[0],
		Handle:             binary.LittleEndian.Uint16(p[1:]) & handleMask,
		Role:               p[3],
		PeerAddrType:       p[4],
		Interval:           binary.LittleEndian.Uint16(p[11:]),
		Latency:            binary.LittleEndian.Uint16(p[13:]),
		SupervisionTimeout: binary.LittleEndian.Uint16(p[15:]),
		ClockAccuracy:      p[17],
	}
	copy(e.PeerAddr[:], p[5:11])
	return e, nil
}

// DecodeLEEnhancedConnectionComplete decodes an LE Enhanced Connection
// Complete payload. The resolvable private addresses are skipped.
func DecodeLEEnhancedConnectionComplete(p []byte) (LEConnectionComplete, error) {
	if len(p) < leEnhancedConnCompleteLen {
		return LEConnectionComplete{}, fmt.Errorf("LE enhanced connection complete: %w: %d bytes", ErrShortPayload, len(p))
	}
	e := LEConnectionComplete{
		Status:             p[0],
		Handle:             binary.LittleEndian.Uint16(p[1:]) & handleMask,
		Role:               p[3],
		PeerAddrType:       p[4],
		Interval:           binary.LittleEndian.Uint16(p[23:]),
		Latency:            binary.LittleEndian.Uint16(p[25:]),
		SupervisionTimeout: binary.LittleEndian.Uint16(p[27:]),
		ClockAccuracy:      p[29],
	}
	copy(e.PeerAddr[:], p[5:11])
	return e, nil
}

// Encode returns the LE Connection Complete payload for e.
func (e LEConnectionComplete) Encode() []byte {
	p := make([]byte, leConnCompleteLen)
	p[0] = e.Status
	binary.LittleEndian.PutUint16(p[1:], e.Handle)
	p[3] = e.Role
	p[4] = e.PeerAddrType
	copy(p[5:11], e.PeerAddr[:])
	binary.LittleEndian.PutUint16(p[11:], e.Interval)
	binary.LittleEndian.PutUint16(p[13:], e.Latency)
	binary.LittleEndian.PutUint16(p[15:], e.SupervisionTimeout)
	p[17] = e.ClockAccuracy
	return p
}

// Packet returns e as a complete LE meta event packet.
func (e LEConnectionComplete) Packet() []byte {
	return NewLEMetaPacket(SubeventConnectionComplete, e.Encode())
}

// DisconnectionComplete is the payload of the Disconnection Complete event.
type DisconnectionComplete struct {
	Status uint8
	Handle uint16
	Reason uint8
}

// DecodeDisconnectionComplete decodes a Disconnection Complete payload.
func DecodeDisconnectionComplete(p []byte) (DisconnectionComplete, error) {
	if len(p) < disconnCompleteLen {
		return DisconnectionComplete{}, fmt.Errorf("disconnection complete: %w: %d bytes", ErrShortPayload, len(p))
	}
	return DisconnectionComplete{
		Status: p[0],
		Handle: binary.LittleEndian.Uint16(p[1:]) & handleMask,
		Reason: p[3],
	}, nil
}

// Packet returns e as a complete event packet.
func (e DisconnectionComplete) Packet() []byte {
	p := make([]byte, disconnCompleteLen)
	p[0] = e.Status
	binary.LittleEndian.PutUint16(p[1:], e.Handle)
	p[3] = e.Reason
	return NewEventPacket(EventDisconnectionComplete, p)
}

// ReadPermitRequest is the payload of the GATT read permit request vendor
// event. AttrHandle is the characteristic value handle being read.
type ReadPermitRequest struct {
	ConnHandle uint16
	AttrHandle uint16
	Offset     uint16
}

// DecodeReadPermitRequest decodes a read permit request payload.
func DecodeReadPermitRequest(p []byte) (ReadPermitRequest, error) {
	if len(p) < readPermitRequestLen {
		return ReadPermitRequest{}, fmt.Errorf("read permit request: %w: %d bytes", ErrShortPayload, len(p))
	}
	return ReadPermitRequest{
		ConnHandle: binary.LittleEndian.Uint16(p[0:]) & handleMask,
		AttrHandle: binary.LittleEndian.Uint16(p[2:]),
		Offset:     binary.LittleEndian.Uint16(p[4:]),
	}, nil
}

// Packet returns e as a complete vendor event packet.
func (e ReadPermitRequest) Packet() []byte {
	p := make([]byte, readPermitRequestLen)
	binary.LittleEndian.PutUint16(p[0:], e.ConnHandle)
	binary.LittleEndian.PutUint16(p[2:], e.AttrHandle)
	binary.LittleEndian.PutUint16(p[4:], e.Offset)
	return NewVendorPacket(VendorGATTReadPermitRequest, p)
}

var eventNames = map[EventCode]string{
	EventDisconnectionComplete:    "disconnection_complete",
	EventEncryptionChange:         "encryption_change",
	EventCommandComplete:          "command_complete",
	EventCommandStatus:            "command_status",
	EventHardwareError:            "hardware_error",
	EventNumberOfCompletedPackets: "number_of_completed_packets",
	EventLEMeta:                   "le_meta",
	EventVendor:                   "vendor",
}

func (c EventCode) String() string {
	if name, ok := eventNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(c))
}

var subeventNames = map[Subevent]string{
	SubeventConnectionComplete:         "le_connection_complete",
	SubeventAdvertisingReport:          "le_advertising_report",
	SubeventConnectionUpdateComplete:   "le_connection_update_complete",
	SubeventReadRemoteFeaturesComplete: "le_read_remote_features_complete",
	SubeventLongTermKeyRequest:         "le_long_term_key_request",
	SubeventRemoteConnParamRequest:     "le_remote_conn_param_request",
	SubeventDataLengthChange:           "le_data_length_change",
	SubeventEnhancedConnectionComplete: "le_enhanced_connection_complete",
}

func (s Subevent) String() string {
	if name, ok := subeventNames[s]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(s))
}

var vendorNames = map[VendorCode]string{
	VendorBlueInitialized:        "blue_initialized",
	VendorGAPPairingComplete:     "gap_pairing_complete",
	VendorGATTAttributeModified:  "gatt_attribute_modified",
	VendorGATTProcedureTimeout:   "gatt_procedure_timeout",
	VendorGATTProcedureComplete:  "gatt_procedure_complete",
	VendorGATTWritePermitRequest: "gatt_write_permit_request",
	VendorGATTReadPermitRequest:  "gatt_read_permit_request",
}

func (c VendorCode) String() string {
	if name, ok := vendorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", uint16(c))
}
