package joystick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrInit is returned when the converter cannot be initialised. The sampler
// is unusable after it.
var ErrInit = errors.New("adc init failed")

const (
	DefaultThresholdLow  uint16 = 1500
	DefaultThresholdHigh uint16 = 2500
)

// Thresholds bound the neutral band of an axis; both ends are inclusive.
type Thresholds struct {
	Low  uint16 `yaml:"low" default:"1500"`
	High uint16 `yaml:"high" default:"2500"`
}

// DefaultThresholds returns the 1500/2500 band.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultThresholdLow, High: DefaultThresholdHigh}
}

// Validate rejects an empty band.
func (t Thresholds) Validate() error {
	if t.Low > t.High {
		return fmt.Errorf("threshold low %d above high %d", t.Low, t.High)
	}
	return nil
}

// Value is a joystick direction, each axis being -1, 0 or 1.
type Value struct {
	X int8 `json:"x"`
	Y int8 `json:"y"`
}

func (v Value) String() string {
	return fmt.Sprintf("(%d, %d)", v.X, v.Y)
}

// Classify converts raw readings into a direction. The Y axis is inverted:
// a low reading is up (+1) and a high reading is down (-1).
func Classify(x, y uint16, th Thresholds) Value {
	return Value{X: classify(x, th), Y: -classify(y, th)}
}

func classify(raw uint16, th Thresholds) int8 {
	switch {
	case raw < th.Low:
		return -1
	case raw > th.High:
		return 1
	default:
		return 0
	}
}

// Sampler reads the two joystick axes from an ADC.
type Sampler struct {
	adc        ADC
	thresholds Thresholds
	logger     *logrus.Logger
}

// NewSampler initialises adc and selects the X channel. Any failure is
// wrapped in ErrInit.
func NewSampler(adc ADC, cfg Config, th Thresholds, logger *logrus.Logger) (*Sampler, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := adc.Init(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := adc.Configure(channelConfig(ChannelX)); err != nil {
		return nil, fmt.Errorf("%w: configure %s channel: %v", ErrInit, ChannelX, err)
	}
	return &Sampler{adc: adc, thresholds: th, logger: logger}, nil
}

// Read performs a blocking acquisition of X then Y and classifies it.
func (s *Sampler) Read(ctx context.Context) (Value, error) {
	x, err := s.convert(ctx, ChannelX)
	if err != nil {
		return Value{}, err
	}
	y, err := s.convert(ctx, ChannelY)
	if err != nil {
		return Value{}, err
	}

	v := Classify(x, y, s.thresholds)
	s.logger.WithFields(logrus.Fields{
		"raw_x": x,
		"raw_y": y,
		"x":     v.X,
		"y":     v.Y,
	}).Debug("Joystick sampled")
	return v, nil
}

func (s *Sampler) convert(ctx context.Context, ch Channel) (uint16, error) {
	if err := s.adc.Configure(channelConfig(ch)); err != nil {
		return 0, fmt.Errorf("configure %s channel: %w", ch, err)
	}
	if err := s.adc.Start(); err != nil {
		return 0, fmt.Errorf("start %s conversion: %w", ch, err)
	}
	if err := s.adc.PollForConversion(ctx); err != nil {
		return 0, fmt.Errorf("poll %s conversion: %w", ch, err)
	}
	// Right-aligned results fit in 16 bits.
	return uint16(s.adc.Value()), nil
}

// Watch samples every interval and passes each value to fn until ctx is
// done or a read fails. It returns the read error, or ctx.Err().
func (s *Sampler) Watch(ctx context.Context, interval time.Duration, fn func(Value)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid watch interval %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		v, err := s.Read(ctx)
		if err != nil {
			return err
		}
		fn(v)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
