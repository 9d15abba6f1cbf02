package gatt

// Stack is the subset of the vendor GATT command set the application uses.
// Handles returned by AddChar are characteristic declaration handles; the
// value attribute always lives at declaration handle + 1.
type Stack interface {
	// AddService registers a service with room for maxAttrs attribute records
	// and returns its handle.
	AddService(uuid UUID, kind ServiceKind, maxAttrs uint8) (uint16, error)

	// AddChar registers a characteristic in service and returns its
	// declaration handle.
	AddChar(service uint16, uuid UUID, c CharParams) (uint16, error)

	// UpdateCharValue writes value at offset into the value attribute of the
	// characteristic addressed by its declaration handle.
	UpdateCharValue(service, char uint16, offset uint8, value []byte) Status

	// AllowRead grants the read request pending on conn.
	AllowRead(conn uint16) Status
}

// CharParams describes a characteristic to AddChar.
type CharParams struct {
	ValueLen    uint16
	Properties  Property
	Permissions Permission
	EventMask   EventMask
	EncKeySize  uint8
	Variable    bool
}

// ValueHandle returns the value attribute handle for a declaration handle.
func ValueHandle(decl uint16) uint16 {
	return decl + 1
}
