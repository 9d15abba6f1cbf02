package peripheral

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/gattsense/internal/gatt"
	"github.com/srg/gattsense/internal/groutine"
)

// App is the application side of the server: it is told about connections
// and read requests and decides whether reads are granted.
type App interface {
	OnConnect(handle uint16)
	OnDisconnect()
	OnReadRequest(valueHandle uint16)
	ConnectionHandle() (uint16, bool)
	// TakeConnectable reports a pending request to (re)start advertising
	// and clears it.
	TakeConnectable() bool
}

// Config configures the published device.
type Config struct {
	Name             string
	DeviceID         int
	AdvertiseTimeout time.Duration // zero advertises until a central connects
}

// Server publishes the services of a gatt.DB through a go-ble device. Reads
// are answered with the database value when the application granted them.
type Server struct {
	db     *gatt.DB
	app    App
	cfg    Config
	logger *logrus.Logger

	kick chan struct{}

	mu        sync.Mutex
	advCancel context.CancelFunc
}

// NewServer creates a server for the services registered in db.
func NewServer(db *gatt.DB, app App, cfg Config, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		db:     db,
		app:    app,
		cfg:    cfg,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}
}

// Services converts the database into go-ble services, one read
// characteristic per database characteristic.
func (s *Server) Services() []*ble.Service {
	entries := s.db.Services()
	out := make([]*ble.Service, 0, len(entries))
	for _, entry := range entries {
		svc := ble.NewService(entry.UUID.BLE())
		for _, ch := range entry.Characteristics {
			c := svc.NewCharacteristic(ch.UUID.BLE())
			if ch.Properties.Has(gatt.PropRead) {
				c.HandleRead(ble.ReadHandlerFunc(s.readHandler(ch.Value)))
			}
		}
		out = append(out, svc)
	}
	return out
}

// ServiceUUIDs returns the advertised service UUIDs in registration order.
func (s *Server) ServiceUUIDs() []ble.UUID {
	entries := s.db.Services()
	out := make([]ble.UUID, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.UUID.BLE())
	}
	return out
}

func (s *Server) readHandler(valueHandle uint16) func(req ble.Request, rsp ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		s.app.OnReadRequest(valueHandle)

		conn, connected := s.app.ConnectionHandle()
		if !connected || !s.db.TakeGrant(conn) {
			s.logger.WithField("handle", fmt.Sprintf("0x%04x", valueHandle)).Warn("Read not granted")
			rsp.SetStatus(ble.ErrReadNotPerm)
			return
		}

		value, ok := s.db.Value(valueHandle)
		if !ok {
			rsp.SetStatus(ble.ErrInvalidHandle)
			return
		}
		off := req.Offset()
		if off > len(value) {
			rsp.SetStatus(ble.ErrInvalidOffset)
			return
		}
		if _, err := rsp.Write(value[off:]); err != nil {
			s.logger.WithError(err).Warn("Failed to write read response")
		}
	}
}

// HandleConnect forwards a link layer connection to the application and
// stops advertising.
func (s *Server) HandleConnect(handle uint16) {
	s.app.OnConnect(handle)
	s.stopAdvertising()
}

// HandleDisconnect forwards a disconnection and wakes the advertising loop.
func (s *Server) HandleDisconnect(handle uint16) {
	s.logger.WithField("connection", fmt.Sprintf("0x%04x", handle)).Debug("Link disconnected")
	s.app.OnDisconnect()
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Serve opens the device, publishes the services and advertises whenever the
// application asks to be connectable. It returns ctx.Err() on cancellation.
func (s *Server) Serve(ctx context.Context) error {
	dev, err := DeviceFactory(s.cfg.DeviceID, Handlers{
		Connect:    s.HandleConnect,
		Disconnect: s.HandleDisconnect,
	})
	if err != nil {
		return fmt.Errorf("failed to create BLE device: %w", err)
	}
	defer func() {
		if err := dev.Stop(); err != nil {
			s.logger.WithError(err).Debug("Failed to stop BLE device")
		}
	}()

	for _, svc := range s.Services() {
		if err := dev.AddService(svc); err != nil {
			return fmt.Errorf("failed to add service %s: %w", svc.UUID, NormalizeError(err))
		}
	}

	s.logger.WithFields(logrus.Fields{
		"name":     s.cfg.Name,
		"services": len(s.ServiceUUIDs()),
	}).Info("GATT server started")

	var wg sync.WaitGroup
	defer wg.Wait()
	defer s.stopAdvertising()

	errCh := make(chan error, 1)
	for {
		if s.app.TakeConnectable() {
			s.startAdvertising(ctx, &wg, dev, errCh)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-s.kick:
		}
	}
}

func (s *Server) startAdvertising(ctx context.Context, wg *sync.WaitGroup, dev ble.Device, errCh chan<- error) {
	var advCtx context.Context
	var cancel context.CancelFunc
	if s.cfg.AdvertiseTimeout > 0 {
		advCtx, cancel = context.WithTimeout(ctx, s.cfg.AdvertiseTimeout)
	} else {
		advCtx, cancel = context.WithCancel(ctx)
	}

	s.mu.Lock()
	if s.advCancel != nil {
		s.advCancel()
	}
	s.advCancel = cancel
	s.mu.Unlock()

	uuids := s.ServiceUUIDs()
	s.logger.WithField("name", s.cfg.Name).Info("Advertising")

	groutine.GoWG(advCtx, wg, "advertise", func(advCtx context.Context) {
		err := dev.AdvertiseNameAndServices(advCtx, s.cfg.Name, uuids...)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, context.DeadlineExceeded):
			if ctx.Err() == nil {
				if _, connected := s.app.ConnectionHandle(); !connected {
					sendErr(errCh, ErrAdvertiseTimeout)
				}
			}
		default:
			sendErr(errCh, fmt.Errorf("advertising failed: %w", NormalizeError(err)))
		}
	})
}

func (s *Server) stopAdvertising() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advCancel != nil {
		s.advCancel()
		s.advCancel = nil
	}
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
