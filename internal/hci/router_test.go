package hci

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls    []string
	payloads [][]byte
}

func (r *recorder) handler(name string) Handler {
	return func(p []byte) {
		r.calls = append(r.calls, name)
		r.payloads = append(r.payloads, append([]byte(nil), p...))
	}
}

func newTestRouter(rec *recorder) *Router {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return NewRouter(Tables{
		Meta: []Entry[Subevent]{
			{Code: SubeventConnectionComplete, Handle: rec.handler("connect")},
			{Code: SubeventConnectionUpdateComplete, Handle: rec.handler("update")},
		},
		Vendor: []Entry[VendorCode]{
			{Code: VendorGATTReadPermitRequest, Handle: rec.handler("read")},
		},
		Events: []Entry[EventCode]{
			{Code: EventDisconnectionComplete, Handle: rec.handler("disconnect")},
		},
	}, logger)
}

func TestRouter_DispatchesByCategory(t *testing.T) {
	tests := []struct {
		name    string
		pkt     []byte
		call    string
		payload []byte
	}{
		{
			name:    "LE meta subevent",
			pkt:     NewLEMetaPacket(SubeventConnectionComplete, []byte{0x00, 0x01, 0x08}),
			call:    "connect",
			payload: []byte{0x00, 0x01, 0x08},
		},
		{
			name:    "second LE meta entry",
			pkt:     NewLEMetaPacket(SubeventConnectionUpdateComplete, []byte{0x07}),
			call:    "update",
			payload: []byte{0x07},
		},
		{
			name:    "vendor event",
			pkt:     NewVendorPacket(VendorGATTReadPermitRequest, []byte{0x01, 0x08, 0x0E, 0x00, 0x00, 0x00}),
			call:    "read",
			payload: []byte{0x01, 0x08, 0x0E, 0x00, 0x00, 0x00},
		},
		{
			name:    "plain event",
			pkt:     NewEventPacket(EventDisconnectionComplete, []byte{0x00, 0x01, 0x08, 0x13}),
			call:    "disconnect",
			payload: []byte{0x00, 0x01, 0x08, 0x13},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := newTestRouter(rec)

			require.True(t, r.Dispatch(tt.pkt), "registered event MUST be handled")
			require.Equal(t, []string{tt.call}, rec.calls)
			assert.Equal(t, tt.payload, rec.payloads[0])
		})
	}
}

func TestRouter_UnmatchedIsNoOp(t *testing.T) {
	tests := []struct {
		name string
		pkt  []byte
	}{
		{"unregistered subevent", NewLEMetaPacket(SubeventAdvertisingReport, []byte{0x01})},
		{"unregistered vendor code", NewVendorPacket(VendorGATTAttributeModified, []byte{0x01})},
		{"unregistered plain event", NewEventPacket(EventHardwareError, []byte{0x01})},
		{"vendor code not in meta table", NewLEMetaPacket(Subevent(0x14), nil)},
		{"ACL data packet", []byte{byte(ACLDataPacket), 0x01, 0x20, 0x00, 0x00}},
		{"command packet", []byte{byte(CommandPacket), 0x03, 0x0C, 0x00}},
		{"empty packet", nil},
		{"truncated header", []byte{byte(EventPacket), byte(EventLEMeta)}},
		{"truncated parameters", []byte{byte(EventPacket), byte(EventDisconnectionComplete), 0x04, 0x00}},
		{"LE meta without subevent", NewEventPacket(EventLEMeta, nil)},
		{"vendor without code", NewEventPacket(EventVendor, []byte{0x14})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := newTestRouter(rec)

			assert.NotPanics(t, func() {
				assert.False(t, r.Dispatch(tt.pkt))
			})
			assert.Empty(t, rec.calls)
		})
	}
}

func TestRouter_EmptyTables(t *testing.T) {
	r := NewRouter(Tables{}, nil)
	assert.False(t, r.Dispatch(DisconnectionComplete{Handle: 1}.Packet()))
	assert.False(t, r.Dispatch(ReadPermitRequest{ConnHandle: 1, AttrHandle: 0x0E}.Packet()))

	_, ok := r.MetaHandler(SubeventConnectionComplete)
	assert.False(t, ok)
}

func TestRouter_TablesAreCopied(t *testing.T) {
	rec := &recorder{}
	tables := Tables{
		Events: []Entry[EventCode]{{Code: EventDisconnectionComplete, Handle: rec.handler("original")}},
	}
	r := NewRouter(tables, nil)

	// Mutating the caller's table after construction must not affect routing.
	tables.Events[0].Handle = rec.handler("replaced")

	require.True(t, r.Dispatch(DisconnectionComplete{Handle: 1}.Packet()))
	assert.Equal(t, []string{"original"}, rec.calls)
}

func TestRouter_FirstMatchWins(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(Tables{
		Events: []Entry[EventCode]{
			{Code: EventDisconnectionComplete, Handle: rec.handler("first")},
			{Code: EventDisconnectionComplete, Handle: rec.handler("second")},
		},
	}, nil)

	require.True(t, r.Dispatch(DisconnectionComplete{Handle: 1}.Packet()))
	assert.Equal(t, []string{"first"}, rec.calls)
}

func TestDecoders_RoundTrip(t *testing.T) {
	conn := LEConnectionComplete{
		Handle:             0x0801,
		Role:               1,
		PeerAddrType:       1,
		PeerAddr:           Addr{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA},
		Interval:           0x0028,
		Latency:            0,
		SupervisionTimeout: 0x01F4,
		ClockAccuracy:      5,
	}
	decoded, err := DecodeLEConnectionComplete(conn.Encode())
	require.NoError(t, err)
	assert.Equal(t, conn, decoded)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", decoded.PeerAddr.String())

	evt, err := ParseEvent(DisconnectionComplete{Handle: 0x0801, Reason: 0x13}.Packet())
	require.NoError(t, err)
	assert.Equal(t, EventDisconnectionComplete, evt.Code)
	disc, err := DecodeDisconnectionComplete(evt.Params)
	require.NoError(t, err)
	assert.Equal(t, DisconnectionComplete{Handle: 0x0801, Reason: 0x13}, disc)

	evt, err = ParseEvent(ReadPermitRequest{ConnHandle: 0x0801, AttrHandle: 0x000E, Offset: 2}.Packet())
	require.NoError(t, err)
	rpr, err := DecodeReadPermitRequest(evt.Params[vendorCodeLen:])
	require.NoError(t, err)
	assert.Equal(t, ReadPermitRequest{ConnHandle: 0x0801, AttrHandle: 0x000E, Offset: 2}, rpr)
}

func TestDecoders_HandleFlagsMasked(t *testing.T) {
	// PB/BC flag bits in the upper nibble are not part of the handle.
	disc, err := DecodeDisconnectionComplete([]byte{0x00, 0x01, 0x28, 0x13})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0801), disc.Handle)
}

func TestDecoders_EnhancedConnectionComplete(t *testing.T) {
	p := make([]byte, 30)
	p[1], p[2] = 0x40, 0x00
	p[3] = 1
	copy(p[5:11], []byte{1, 2, 3, 4, 5, 6})
	p[23] = 0x18
	p[27] = 0x48
	p[29] = 3

	e, err := DecodeLEEnhancedConnectionComplete(p)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0040), e.Handle)
	assert.Equal(t, uint16(0x18), e.Interval)
	assert.Equal(t, uint16(0x48), e.SupervisionTimeout)
	assert.Equal(t, uint8(3), e.ClockAccuracy)
	assert.Equal(t, "06:05:04:03:02:01", e.PeerAddr.String())
}

func TestDecoders_ShortPayload(t *testing.T) {
	_, err := DecodeLEConnectionComplete(make([]byte, 17))
	assert.ErrorIs(t, err, ErrShortPayload)
	_, err = DecodeLEEnhancedConnectionComplete(make([]byte, 18))
	assert.ErrorIs(t, err, ErrShortPayload)
	_, err = DecodeDisconnectionComplete([]byte{0x00})
	assert.ErrorIs(t, err, ErrShortPayload)
	_, err = DecodeReadPermitRequest([]byte{0x01, 0x08})
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestParseEvent_Errors(t *testing.T) {
	_, err := ParseEvent([]byte{0x04})
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = ParseEvent([]byte{byte(ACLDataPacket), 0x00, 0x00})
	assert.Error(t, err)

	_, err = ParseEvent([]byte{byte(EventPacket), byte(EventVendor), 0x05, 0x14})
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestCodeNames(t *testing.T) {
	assert.Equal(t, "le_meta", EventLEMeta.String())
	assert.Equal(t, "0x99", EventCode(0x99).String())
	assert.Equal(t, "le_connection_complete", SubeventConnectionComplete.String())
	assert.Equal(t, "gatt_read_permit_request", VendorGATTReadPermitRequest.String())
	assert.Equal(t, "0x1234", VendorCode(0x1234).String())
}

func TestScanPackets(t *testing.T) {
	input := `
# connection from AA:BB:CC:DD:EE:FF
04 3E 13 01 00 01 08 01 01 FF EE DD CC BB AA 28 00 00 00 F4 01 05

04:05:04:00:01:08:13
`
	var pkts [][]byte
	err := ScanPackets(strings.NewReader(input), func(pkt []byte) error {
		pkts = append(pkts, pkt)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, pkts, 2)

	evt, err := ParseEvent(pkts[0])
	require.NoError(t, err)
	assert.Equal(t, EventLEMeta, evt.Code)
	conn, err := DecodeLEConnectionComplete(evt.Params[1:])
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0801), conn.Handle)

	assert.Equal(t, DisconnectionComplete{Handle: 0x0801, Reason: 0x13}.Packet(), pkts[1])
}

func TestScanPackets_Errors(t *testing.T) {
	err := ScanPackets(strings.NewReader("04 05 zz\n"), func([]byte) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	stop := errors.New("stop")
	err = ScanPackets(strings.NewReader("0405\n0406\n"), func([]byte) error { return stop })
	assert.ErrorIs(t, err, stop)
}
