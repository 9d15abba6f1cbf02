package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/gattsense/internal/gatt"
)

// UpdateCall records one UpdateCharValue invocation.
type UpdateCall struct {
	Service uint16
	Char    uint16
	Offset  uint8
	Value   []byte
}

// RecordingStack is a gatt.Stack backed by a real gatt.DB that records the
// update and allow-read commands it receives. Setting UpdateStatus or
// AllowStatus to a failure code makes the matching command fail without
// touching the database.
type RecordingStack struct {
	*gatt.DB

	Updates      []UpdateCall
	Allows       []uint16
	UpdateStatus gatt.Status
	AllowStatus  gatt.Status
}

var _ gatt.Stack = (*RecordingStack)(nil)

// NewRecordingStack creates a recording stack over an empty database.
func NewRecordingStack(logger *logrus.Logger) *RecordingStack {
	return &RecordingStack{DB: gatt.NewDB(logger)}
}

// UpdateCharValue implements gatt.Stack.
func (s *RecordingStack) UpdateCharValue(service, char uint16, offset uint8, value []byte) gatt.Status {
	s.Updates = append(s.Updates, UpdateCall{
		Service: service,
		Char:    char,
		Offset:  offset,
		Value:   append([]byte(nil), value...),
	})
	if s.UpdateStatus != gatt.StatusSuccess {
		return s.UpdateStatus
	}
	return s.DB.UpdateCharValue(service, char, offset, value)
}

// AllowRead implements gatt.Stack.
func (s *RecordingStack) AllowRead(conn uint16) gatt.Status {
	s.Allows = append(s.Allows, conn)
	if s.AllowStatus != gatt.StatusSuccess {
		return s.AllowStatus
	}
	return s.DB.AllowRead(conn)
}

// Reset forgets the recorded calls.
func (s *RecordingStack) Reset() {
	s.Updates = nil
	s.Allows = nil
}
