package joystick

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNotInitialized is returned when a conversion is attempted before Init.
	ErrNotInitialized = errors.New("adc not initialized")
	// ErrNoConversion is returned when polling without a started conversion.
	ErrNoConversion = errors.New("no conversion started")
	// ErrInvalidChannel is returned for channels the joystick does not use.
	ErrInvalidChannel = errors.New("invalid adc channel")
)

// Sample is one recorded pair of raw readings.
type Sample struct {
	X uint16
	Y uint16
}

// ReplayADC is an ADC driver that returns recorded samples. Each sample
// serves one conversion per channel; converting X again moves to the next
// sample. Conversions past the last sample fail with io.EOF.
type ReplayADC struct {
	mu       sync.Mutex
	samples  []Sample
	pos      int
	consumed [2]bool
	channel  Channel
	pending  bool
	value    uint32
	inited   bool
}

var _ ADC = (*ReplayADC)(nil)

// NewReplayADC creates a driver over samples.
func NewReplayADC(samples ...Sample) *ReplayADC {
	return &ReplayADC{samples: append([]Sample(nil), samples...)}
}

// LoadReplayADC reads "x,y" rows of raw readings. Blank lines, lines
// starting with '#' and a leading "x,y" header are skipped.
func LoadReplayADC(r io.Reader) (*ReplayADC, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var samples []Sample
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		if len(samples) == 0 && strings.EqualFold(rec[0], "x") && strings.EqualFold(rec[1], "y") {
			continue
		}

		x, err := parseRaw(rec[0])
		if err != nil {
			return nil, fmt.Errorf("record %d: x: %w", line, err)
		}
		y, err := parseRaw(rec[1])
		if err != nil {
			return nil, fmt.Errorf("record %d: y: %w", line, err)
		}
		samples = append(samples, Sample{X: x, Y: y})
	}
	return NewReplayADC(samples...), nil
}

func parseRaw(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// Init implements ADC.
func (a *ReplayADC) Init(cfg Config) error {
	if cfg.ConversionCount != 1 {
		return fmt.Errorf("unsupported conversion count %d", cfg.ConversionCount)
	}
	if cfg.ScanMode || cfg.ContinuousMode {
		return errors.New("scan and continuous modes are not supported")
	}
	if cfg.Trigger != TriggerSoftware {
		return fmt.Errorf("unsupported trigger %d", cfg.Trigger)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inited = true
	return nil
}

// Configure implements ADC.
func (a *ReplayADC) Configure(ch ChannelConfig) error {
	if ch.Channel != ChannelX && ch.Channel != ChannelY {
		return fmt.Errorf("%w: %s", ErrInvalidChannel, ch.Channel)
	}
	if ch.Rank != 1 {
		return fmt.Errorf("unsupported rank %d", ch.Rank)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inited {
		return ErrNotInitialized
	}
	a.channel = ch.Channel
	return nil
}

// Start implements ADC.
func (a *ReplayADC) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.inited {
		return ErrNotInitialized
	}
	if a.consumed[a.channel] {
		a.pos++
		a.consumed = [2]bool{}
	}
	if a.pos >= len(a.samples) {
		return io.EOF
	}
	a.pending = true
	return nil
}

// PollForConversion implements ADC. Recorded conversions complete at once.
func (a *ReplayADC) PollForConversion(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.pending {
		return ErrNoConversion
	}
	s := a.samples[a.pos]
	if a.channel == ChannelX {
		a.value = uint32(s.X)
	} else {
		a.value = uint32(s.Y)
	}
	a.consumed[a.channel] = true
	a.pending = false
	return nil
}

// Value implements ADC. It returns the last completed conversion.
func (a *ReplayADC) Value() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

// Remaining returns how many samples have not been fully converted yet.
func (a *ReplayADC) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.samples) - a.pos
	if a.consumed[ChannelX] && a.consumed[ChannelY] {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}
