package sensors

// Session is the connection state of the single peer the service talks to.
type Session struct {
	Connected bool
	Handle    uint16
	// Connectable is set when advertising has to be (re)enabled.
	Connectable bool
}

// NewSession returns the disconnected, connectable state.
func NewSession() Session {
	return Session{Connectable: true}
}

func (s *Session) connect(handle uint16) {
	s.Connected = true
	s.Handle = handle
}

func (s *Session) disconnect() {
	s.Connected = false
	s.Handle = 0
	s.Connectable = true
}

// Samples are the sensor readings served on read requests.
type Samples struct {
	BPM         int32 `yaml:"bpm" default:"85"`
	Weight      int32 `yaml:"weight" default:"90"`
	Temperature int32 `yaml:"temperature" default:"20"`
	Humidity    int32 `yaml:"humidity" default:"80"`
}

// DefaultSamples returns the demo readings.
func DefaultSamples() Samples {
	return Samples{BPM: 85, Weight: 90, Temperature: 20, Humidity: 80}
}

func (s Samples) of(k Kind) int32 {
	switch k {
	case BPM:
		return s.BPM
	case Weight:
		return s.Weight
	case Temperature:
		return s.Temperature
	case Humidity:
		return s.Humidity
	}
	return 0
}

// Swap32 reverses the byte order of v. It converts unconditionally; the
// peer expects big-endian payloads whatever the host order is.
func Swap32(v int32) int32 {
	u := uint32(v)
	return int32(u<<24 | (u<<8)&0x00FF0000 | (u>>8)&0x0000FF00 | u>>24)
}
