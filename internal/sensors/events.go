package sensors

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/gattsense/internal/hci"
)

// Tables returns the dispatch tables wiring HCI events to the service:
// LE connection complete (plain and enhanced), disconnection complete and
// the GATT read permit request.
func (s *Service) Tables() hci.Tables {
	return hci.Tables{
		Meta: []hci.Entry[hci.Subevent]{
			{Code: hci.SubeventConnectionComplete, Handle: s.handleConnectionComplete},
			{Code: hci.SubeventEnhancedConnectionComplete, Handle: s.handleEnhancedConnectionComplete},
		},
		Vendor: []hci.Entry[hci.VendorCode]{
			{Code: hci.VendorGATTReadPermitRequest, Handle: s.handleReadPermitRequest},
		},
		Events: []hci.Entry[hci.EventCode]{
			{Code: hci.EventDisconnectionComplete, Handle: s.handleDisconnectionComplete},
		},
	}
}

// NewRouter returns a router dispatching to s.
func (s *Service) NewRouter() *hci.Router {
	return hci.NewRouter(s.Tables(), s.logger)
}

func (s *Service) handleConnectionComplete(p []byte) {
	e, err := hci.DecodeLEConnectionComplete(p)
	if err != nil {
		s.logger.WithError(err).Warn("Dropping connection complete event")
		return
	}
	s.logConnection(e)
	s.OnConnect(e.Handle)
}

func (s *Service) handleEnhancedConnectionComplete(p []byte) {
	e, err := hci.DecodeLEEnhancedConnectionComplete(p)
	if err != nil {
		s.logger.WithError(err).Warn("Dropping enhanced connection complete event")
		return
	}
	s.logConnection(e)
	s.OnConnect(e.Handle)
}

func (s *Service) logConnection(e hci.LEConnectionComplete) {
	s.logger.WithFields(logrus.Fields{
		"status":   e.Status,
		"peer":     e.PeerAddr.String(),
		"role":     e.Role,
		"interval": e.Interval,
	}).Debug("LE connection complete event")
}

func (s *Service) handleDisconnectionComplete(p []byte) {
	e, err := hci.DecodeDisconnectionComplete(p)
	if err != nil {
		s.logger.WithError(err).Warn("Dropping disconnection complete event")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"status": e.Status,
		"reason": e.Reason,
	}).Debug("Disconnection complete event")
	s.OnDisconnect()
}

func (s *Service) handleReadPermitRequest(p []byte) {
	e, err := hci.DecodeReadPermitRequest(p)
	if err != nil {
		s.logger.WithError(err).Warn("Dropping read permit request")
		return
	}
	s.OnReadRequest(e.AttrHandle)
}
