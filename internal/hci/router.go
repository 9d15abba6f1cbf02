package hci

import (
	"encoding/binary"
	"slices"

	"github.com/sirupsen/logrus"
)

// Handler processes the payload of a routed event: the bytes following the
// subevent code for LE meta events, following the vendor code for vendor
// events, and the whole parameter block for plain events.
type Handler func(payload []byte)

// Entry binds an event code to its handler.
type Entry[C comparable] struct {
	Code   C
	Handle Handler
}

// Tables holds the three dispatch tables of a Router.
type Tables struct {
	Meta   []Entry[Subevent]
	Vendor []Entry[VendorCode]
	Events []Entry[EventCode]
}

// Router dispatches HCI event packets to the handler registered for their
// code. Its tables are copied at construction and never change afterwards.
type Router struct {
	meta   []Entry[Subevent]
	vendor []Entry[VendorCode]
	events []Entry[EventCode]
	logger *logrus.Logger
}

// NewRouter creates a router over a private copy of t.
func NewRouter(t Tables, logger *logrus.Logger) *Router {
	if logger == nil {
		logger = logrus.New()
	}
	return &Router{
		meta:   slices.Clone(t.Meta),
		vendor: slices.Clone(t.Vendor),
		events: slices.Clone(t.Events),
		logger: logger,
	}
}

// Dispatch routes pkt to its handler. It reports whether a handler ran;
// packets that are not events, are malformed, or carry an unregistered code
// are ignored.
func (r *Router) Dispatch(pkt []byte) bool {
	if len(pkt) == 0 || PacketType(pkt[0]) != EventPacket {
		return false
	}
	evt, err := ParseEvent(pkt)
	if err != nil {
		r.logger.WithError(err).Debug("Dropping malformed event packet")
		return false
	}

	switch evt.Code {
	case EventLEMeta:
		if len(evt.Params) < 1 {
			return false
		}
		sub := Subevent(evt.Params[0])
		h, ok := r.MetaHandler(sub)
		if !ok {
			r.logger.WithField("subevent", sub).Debug("Unhandled LE meta event")
			return false
		}
		h(evt.Params[1:])

	case EventVendor:
		if len(evt.Params) < vendorCodeLen {
			return false
		}
		code := VendorCode(binary.LittleEndian.Uint16(evt.Params))
		h, ok := r.VendorHandler(code)
		if !ok {
			r.logger.WithField("ecode", code).Debug("Unhandled vendor event")
			return false
		}
		h(evt.Params[vendorCodeLen:])

	default:
		h, ok := r.EventHandler(evt.Code)
		if !ok {
			r.logger.WithField("event", evt.Code).Debug("Unhandled event")
			return false
		}
		h(evt.Params)
	}
	return true
}

// MetaHandler returns the handler registered for an LE meta subevent.
func (r *Router) MetaHandler(code Subevent) (Handler, bool) {
	return lookup(r.meta, code)
}

// VendorHandler returns the handler registered for a vendor event code.
func (r *Router) VendorHandler(code VendorCode) (Handler, bool) {
	return lookup(r.vendor, code)
}

// EventHandler returns the handler registered for a plain event code.
func (r *Router) EventHandler(code EventCode) (Handler, bool) {
	return lookup(r.events, code)
}

func lookup[C comparable](table []Entry[C], code C) (Handler, bool) {
	for _, e := range table {
		if e.Code == code && e.Handle != nil {
			return e.Handle, true
		}
	}
	return nil, false
}
