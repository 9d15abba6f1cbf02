package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/gattsense/internal/gatt"
)

// Kind identifies one of the four sensor characteristics.
type Kind int

const (
	BPM Kind = iota
	Weight
	Temperature
	Humidity

	numKinds = 4
)

func (k Kind) String() string {
	switch k {
	case BPM:
		return "bpm"
	case Weight:
		return "weight"
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

const (
	serviceMaxAttrs = 7
	charValueLen    = 4
)

// ErrNotRegistered is returned when the services have not been added yet.
var ErrNotRegistered = errors.New("sensor services not registered")

// Characteristic is one sensor characteristic as registered with the stack.
// Value is always Decl+1.
type Characteristic struct {
	Kind    Kind
	Service uint16
	Decl    uint16
	Value   uint16
	UUID    gatt.UUID
	Current int32
}

// Service exposes the Health and Weather GATT services. It owns the
// characteristic records, the sensor samples and the connection session.
//
// Entry points are serialised with a mutex so the service can be driven
// from a stack that calls back from its own goroutines.
type Service struct {
	mu            sync.Mutex
	stack         gatt.Stack
	logger        *logrus.Logger
	session       Session
	samples       Samples
	healthHandle  uint16
	weatherHandle uint16
	chars         [numKinds]Characteristic
}

// New creates the service on top of stack. Call AddServices before routing
// events to it.
func New(stack gatt.Stack, samples Samples, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Service{
		stack:   stack,
		logger:  logger,
		session: NewSession(),
		samples: samples,
	}
	uuids := [numKinds]gatt.UUID{HealthBPMCharUUID, HealthWeightCharUUID, WeatherTempCharUUID, WeatherHumCharUUID}
	for k := range s.chars {
		s.chars[k] = Characteristic{Kind: Kind(k), UUID: uuids[k]}
	}
	return s
}

// AddServices registers the Health service (BPM, Weight) and the Weather
// service (Temperature, Humidity), each characteristic being a 4-byte
// read-only value whose reads are confirmed by the application.
func (s *Service) AddServices() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.healthHandle, err = s.stack.AddService(HealthServiceUUID, gatt.PrimaryService, serviceMaxAttrs); err != nil {
		return fmt.Errorf("failed to add health service: %w", err)
	}
	if s.weatherHandle, err = s.stack.AddService(WeatherServiceUUID, gatt.PrimaryService, serviceMaxAttrs); err != nil {
		return fmt.Errorf("failed to add weather service: %w", err)
	}

	params := gatt.CharParams{
		ValueLen:    charValueLen,
		Properties:  gatt.PropRead,
		Permissions: gatt.PermNone,
		EventMask:   gatt.NotifyReadReqAndWaitForApplResp,
	}
	owners := [numKinds]uint16{s.healthHandle, s.healthHandle, s.weatherHandle, s.weatherHandle}
	for k := range s.chars {
		c := &s.chars[k]
		decl, err := s.stack.AddChar(owners[k], c.UUID, params)
		if err != nil {
			return fmt.Errorf("failed to add %s characteristic: %w", c.Kind, err)
		}
		c.Service = owners[k]
		c.Decl = decl
		c.Value = gatt.ValueHandle(decl)
	}

	s.logger.WithFields(logrus.Fields{
		"health":  fmt.Sprintf("0x%04x", s.healthHandle),
		"weather": fmt.Sprintf("0x%04x", s.weatherHandle),
	}).Info("Sensor services added")
	return nil
}

// UpdateData pushes v, byte-swapped to big-endian, into the characteristic
// whose value handle is valueHandle. The write is addressed by the
// characteristic's declaration handle. Unknown handles are ignored. A stack
// failure is logged and returned; it is not retried.
func (s *Service) UpdateData(valueHandle uint16, v int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateData(valueHandle, v)
}

func (s *Service) updateData(valueHandle uint16, v int32) error {
	c := s.byValueHandle(valueHandle)
	if c == nil {
		s.logger.WithField("handle", fmt.Sprintf("0x%04x", valueHandle)).Debug("Update for unknown characteristic ignored")
		return nil
	}

	// Native little-endian image of the swapped value, i.e. v in big-endian.
	var payload [charValueLen]byte
	binary.LittleEndian.PutUint32(payload[:], uint32(Swap32(v)))

	c.Current = v
	if err := s.stack.UpdateCharValue(c.Service, c.Decl, 0, payload[:]).Err(); err != nil {
		s.logger.WithFields(logrus.Fields{
			"characteristic": c.Kind.String(),
			"value":          v,
			"error":          err,
		}).Warn("Characteristic value update failed")
		return fmt.Errorf("update %s characteristic: %w", c.Kind, err)
	}
	return nil
}

// OnReadRequest serves a read of the characteristic value at valueHandle:
// the current sample is written into the value attribute and, when a peer
// is connected, the pending read is granted.
//
// The value is written before the connection check, so a request arriving
// while disconnected still updates the attribute but is never granted.
func (s *Service) OnReadRequest(valueHandle uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.byValueHandle(valueHandle); c != nil {
		v := s.samples.of(c.Kind)
		s.logger.WithFields(logrus.Fields{
			"characteristic": c.Kind.String(),
			"value":          v,
		}).Info("Read request received")
		_ = s.updateData(valueHandle, v)
	}

	if !s.session.Connected {
		s.logger.WithField("handle", fmt.Sprintf("0x%04x", valueHandle)).Debug("Read request while disconnected, not granted")
		return
	}
	if err := s.stack.AllowRead(s.session.Handle).Err(); err != nil {
		s.logger.WithFields(logrus.Fields{
			"connection": fmt.Sprintf("0x%04x", s.session.Handle),
			"error":      err,
		}).Warn("Allow read failed")
	}
}

// OnConnect records the peer connection handle.
func (s *Service) OnConnect(handle uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.connect(handle)
	s.logger.WithField("connection", fmt.Sprintf("0x%04x", handle)).Info("Connection complete")
}

// OnDisconnect clears the connection and requests advertising again.
func (s *Service) OnDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.disconnect()
	s.logger.Info("Disconnection complete")
}

// Session returns a snapshot of the connection state.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ConnectionHandle returns the handle of the connected peer, if any.
func (s *Service) ConnectionHandle() (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Handle, s.session.Connected
}

// TakeConnectable reports whether advertising has to be enabled and clears
// the request.
func (s *Service) TakeConnectable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Connectable {
		return false
	}
	s.session.Connectable = false
	return true
}

// SetSamples replaces the readings served on subsequent read requests.
func (s *Service) SetSamples(samples Samples) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = samples
}

// Samples returns the readings currently served.
func (s *Service) Samples() Samples {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

// Characteristic returns the record for k.
func (s *Service) Characteristic(k Kind) Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chars[k]
}

// Characteristics returns all four records in BPM, Weight, Temperature,
// Humidity order.
func (s *Service) Characteristics() []Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Characteristic(nil), s.chars[:]...)
}

// ServiceHandles returns the Health and Weather service handles.
func (s *Service) ServiceHandles() (health, weather uint16, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.healthHandle == 0 {
		return 0, 0, ErrNotRegistered
	}
	return s.healthHandle, s.weatherHandle, nil
}

// byValueHandle returns the characteristic owning valueHandle. Handles are
// unique, so at most one record matches.
func (s *Service) byValueHandle(valueHandle uint16) *Characteristic {
	if valueHandle == 0 {
		return nil
	}
	for k := range s.chars {
		if s.chars[k].Value == valueHandle {
			return &s.chars[k]
		}
	}
	return nil
}
