package gatt

import (
	"fmt"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FirstHandle is the first handle available to application services. Lower
// handles are taken by the GAP and GATT services the stack registers itself.
const FirstHandle uint16 = 0x000C

// ServiceEntry describes a registered service.
type ServiceEntry struct {
	Handle          uint16
	EndHandle       uint16
	UUID            UUID
	Kind            ServiceKind
	Characteristics []*CharEntry

	next uint16 // next free handle inside [Handle+1, EndHandle]
}

// CharEntry describes a registered characteristic.
type CharEntry struct {
	Service uint16
	Decl    uint16
	Value   uint16
	UUID    UUID
	CharParams
}

type attribute struct {
	char  *CharEntry
	value []byte
}

// DB is an in-memory attribute database implementing Stack. Handles are
// allocated sequentially; every characteristic takes a declaration and a
// value record.
type DB struct {
	mu       sync.Mutex
	next     uint32
	services *orderedmap.OrderedMap[uint16, *ServiceEntry]
	attrs    *hashmap.Map[uint16, *attribute] // keyed by value handle
	grants   map[uint16]int
	logger   *logrus.Logger
}

var _ Stack = (*DB)(nil)

// NewDB creates an empty attribute database.
func NewDB(logger *logrus.Logger) *DB {
	if logger == nil {
		logger = logrus.New()
	}
	return &DB{
		next:     uint32(FirstHandle),
		services: orderedmap.New[uint16, *ServiceEntry](),
		attrs:    hashmap.New[uint16, *attribute](),
		grants:   make(map[uint16]int),
		logger:   logger,
	}
}

// AddService implements Stack.
func (db *DB) AddService(uuid UUID, kind ServiceKind, maxAttrs uint8) (uint16, error) {
	if maxAttrs == 0 {
		return 0, fmt.Errorf("add service %s: %w", uuid, ErrInvalidParams)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	end := db.next + uint32(maxAttrs)
	if end > 0xFFFF {
		return 0, fmt.Errorf("add service %s: %w", uuid, ErrInsufficientResources)
	}

	svc := &ServiceEntry{
		Handle:    uint16(db.next),
		EndHandle: uint16(end),
		UUID:      uuid,
		Kind:      kind,
		next:      uint16(db.next) + 1,
	}
	db.services.Set(svc.Handle, svc)
	db.next = end + 1

	db.logger.WithFields(logrus.Fields{
		"uuid":   uuid.String(),
		"handle": fmt.Sprintf("0x%04x", svc.Handle),
		"end":    fmt.Sprintf("0x%04x", svc.EndHandle),
	}).Debug("Service added")

	return svc.Handle, nil
}

// AddChar implements Stack.
func (db *DB) AddChar(service uint16, uuid UUID, c CharParams) (uint16, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	svc, ok := db.services.Get(service)
	if !ok {
		return 0, fmt.Errorf("add characteristic %s to service 0x%04x: %w", uuid, service, ErrInvalidHandle)
	}
	if svc.next == 0 || uint32(svc.next)+1 > uint32(svc.EndHandle) {
		return 0, fmt.Errorf("add characteristic %s to service 0x%04x: %w", uuid, service, ErrInsufficientResources)
	}

	entry := &CharEntry{
		Service:    service,
		Decl:       svc.next,
		Value:      ValueHandle(svc.next),
		UUID:       uuid,
		CharParams: c,
	}
	svc.next += 2
	svc.Characteristics = append(svc.Characteristics, entry)

	initial := make([]byte, c.ValueLen)
	if c.Variable {
		initial = initial[:0]
	}
	db.attrs.Set(entry.Value, &attribute{char: entry, value: initial})

	db.logger.WithFields(logrus.Fields{
		"uuid":       uuid.String(),
		"service":    fmt.Sprintf("0x%04x", service),
		"decl":       fmt.Sprintf("0x%04x", entry.Decl),
		"value":      fmt.Sprintf("0x%04x", entry.Value),
		"properties": c.Properties.String(),
	}).Debug("Characteristic added")

	return entry.Decl, nil
}

// UpdateCharValue implements Stack.
func (db *DB) UpdateCharValue(service, char uint16, offset uint8, value []byte) Status {
	db.mu.Lock()
	defer db.mu.Unlock()

	attr, ok := db.attrs.Get(ValueHandle(char))
	if !ok || attr.char.Service != service {
		return StatusInvalidHandle
	}

	end := int(offset) + len(value)
	if end > int(attr.char.ValueLen) {
		return StatusInvalidParams
	}
	if end > len(attr.value) {
		grown := make([]byte, end)
		copy(grown, attr.value)
		attr.value = grown
	}
	copy(attr.value[offset:], value)
	return StatusSuccess
}

// AllowRead implements Stack.
func (db *DB) AllowRead(conn uint16) Status {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.grants[conn]++
	return StatusSuccess
}

// TakeGrant consumes one read grant issued for conn.
func (db *DB) TakeGrant(conn uint16) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.grants[conn] == 0 {
		return false
	}
	db.grants[conn]--
	if db.grants[conn] == 0 {
		delete(db.grants, conn)
	}
	return true
}

// Grants returns the number of unconsumed read grants for conn.
func (db *DB) Grants(conn uint16) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.grants[conn]
}

// Value returns a copy of the value stored at valueHandle.
func (db *DB) Value(valueHandle uint16) ([]byte, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	attr, ok := db.attrs.Get(valueHandle)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(attr.value))
	copy(out, attr.value)
	return out, true
}

// Characteristic returns the characteristic owning valueHandle.
func (db *DB) Characteristic(valueHandle uint16) (*CharEntry, bool) {
	attr, ok := db.attrs.Get(valueHandle)
	if !ok {
		return nil, false
	}
	return attr.char, true
}

// Services returns the registered services in registration order.
func (db *DB) Services() []*ServiceEntry {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*ServiceEntry, 0, db.services.Len())
	for pair := db.services.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
