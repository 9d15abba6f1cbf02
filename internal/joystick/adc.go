package joystick

import (
	"context"
	"fmt"
)

// Channel selects an analog input of the converter.
type Channel uint8

const (
	// ChannelX is wired to PA0.
	ChannelX Channel = 0
	// ChannelY is wired to PA1.
	ChannelY Channel = 1
)

func (c Channel) String() string {
	switch c {
	case ChannelX:
		return "x"
	case ChannelY:
		return "y"
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// SampleTime is the number of converter clock cycles spent sampling.
type SampleTime uint8

const SampleTime3Cycles SampleTime = 3

// DataAlign controls how the conversion result is placed in the data register.
type DataAlign uint8

const (
	AlignRight DataAlign = iota
	AlignLeft
)

// Trigger selects what starts a regular conversion.
type Trigger uint8

const TriggerSoftware Trigger = 0

// Config is the converter setup: one right-aligned conversion started by
// software, no scan or continuous mode.
type Config struct {
	ClockPrescaler  uint8
	ScanMode        bool
	ContinuousMode  bool
	Trigger         Trigger
	DataAlign       DataAlign
	ConversionCount uint8
}

// DefaultConfig returns the single-conversion setup the joystick needs.
func DefaultConfig() Config {
	return Config{
		ClockPrescaler:  2,
		Trigger:         TriggerSoftware,
		DataAlign:       AlignRight,
		ConversionCount: 1,
	}
}

// ChannelConfig configures the regular channel to convert.
type ChannelConfig struct {
	Channel      Channel
	Rank         uint8
	SamplingTime SampleTime
}

// channelConfig returns the configuration used for both axes.
func channelConfig(ch Channel) ChannelConfig {
	return ChannelConfig{Channel: ch, Rank: 1, SamplingTime: SampleTime3Cycles}
}

// ADC is the converter driver. A conversion is a Configure, Start,
// PollForConversion, Value sequence.
type ADC interface {
	Init(cfg Config) error
	Configure(ch ChannelConfig) error
	Start() error
	// PollForConversion blocks until the conversion completes or ctx is done.
	PollForConversion(ctx context.Context) error
	Value() uint32
}
