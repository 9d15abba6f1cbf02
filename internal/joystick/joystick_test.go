package joystick

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/srg/gattsense/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ThresholdGrid(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name  string
		raw   uint16
		wantX int8
		wantY int8
	}{
		{name: "zero", raw: 0, wantX: -1, wantY: 1},
		{name: "just below low", raw: 1499, wantX: -1, wantY: 1},
		{name: "low bound is neutral", raw: 1500, wantX: 0, wantY: 0},
		{name: "centre", raw: 2048, wantX: 0, wantY: 0},
		{name: "high bound is neutral", raw: 2500, wantX: 0, wantY: 0},
		{name: "just above high", raw: 2501, wantX: 1, wantY: -1},
		{name: "full scale", raw: 4095, wantX: 1, wantY: -1},
		{name: "max uint16", raw: 0xFFFF, wantX: 1, wantY: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.raw, tt.raw, th)
			assert.Equal(t, tt.wantX, v.X, "X axis")
			assert.Equal(t, tt.wantY, v.Y, "Y axis MUST be inverted")
		})
	}
}

func TestClassify_AllReadings(t *testing.T) {
	th := DefaultThresholds()
	for r := 0; r <= 0xFFFF; r++ {
		raw := uint16(r)
		v := Classify(raw, raw, th)

		var want int8
		switch {
		case raw < th.Low:
			want = -1
		case raw > th.High:
			want = 1
		}
		if v.X != want || v.Y != -want {
			t.Fatalf("raw %d: got %s, want (%d, %d)", raw, v, want, -want)
		}
	}
}

func TestClassify_Example(t *testing.T) {
	// GOAL: raw X=100, Y=3000 with the 1500/2500 band yields (-1, -1)
	v := Classify(100, 3000, DefaultThresholds())
	assert.Equal(t, Value{X: -1, Y: -1}, v)
	assert.Equal(t, "(-1, -1)", v.String())
}

func TestSampler_ReadSequence(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	adc := NewReplayADC(Sample{X: 100, Y: 3000}, Sample{X: 2000, Y: 1000}, Sample{X: 4000, Y: 2000})

	s, err := NewSampler(adc, DefaultConfig(), DefaultThresholds(), helper.Logger)
	require.NoError(t, err)
	assert.Equal(t, 3, adc.Remaining())

	ctx := context.Background()
	want := []Value{{X: -1, Y: -1}, {X: 0, Y: 1}, {X: 1, Y: 0}}
	for i, w := range want {
		v, err := s.Read(ctx)
		require.NoError(t, err, "read %d", i)
		assert.Equal(t, w, v, "read %d", i)
	}
	assert.Equal(t, 0, adc.Remaining())

	_, err = s.Read(ctx)
	assert.ErrorIs(t, err, io.EOF, "exhausted replay MUST report EOF")
	assert.Contains(t, helper.Logs(), "Joystick sampled")
}

func TestSampler_CustomThresholds(t *testing.T) {
	adc := NewReplayADC(Sample{X: 150, Y: 150})
	s, err := NewSampler(adc, DefaultConfig(), Thresholds{Low: 100, High: 200}, nil)
	require.NoError(t, err)

	v, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Value{}, v)
}

func TestNewSampler_InitFailures(t *testing.T) {
	tests := []struct {
		name string
		adc  ADC
		cfg  Config
		th   Thresholds
	}{
		{
			name: "continuous mode rejected",
			adc:  NewReplayADC(),
			cfg:  Config{ContinuousMode: true, ConversionCount: 1},
			th:   DefaultThresholds(),
		},
		{
			name: "multiple conversions rejected",
			adc:  NewReplayADC(),
			cfg:  Config{ConversionCount: 2},
			th:   DefaultThresholds(),
		},
		{
			name: "driver init error",
			adc:  &stubADC{initErr: errors.New("clock not enabled")},
			cfg:  DefaultConfig(),
			th:   DefaultThresholds(),
		},
		{
			name: "driver configure error",
			adc:  &stubADC{configureErr: errors.New("pin not analog")},
			cfg:  DefaultConfig(),
			th:   DefaultThresholds(),
		},
		{
			name: "inverted thresholds",
			adc:  NewReplayADC(),
			cfg:  DefaultConfig(),
			th:   Thresholds{Low: 3000, High: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSampler(tt.adc, tt.cfg, tt.th, nil)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrInit)
		})
	}
}

func TestSampler_PollHonoursContext(t *testing.T) {
	adc := &stubADC{block: true}
	s, err := NewSampler(adc, DefaultConfig(), DefaultThresholds(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "poll x conversion")
}

func TestSampler_ReadsXBeforeY(t *testing.T) {
	adc := &stubADC{values: map[Channel]uint32{ChannelX: 4000, ChannelY: 100}}
	s, err := NewSampler(adc, DefaultConfig(), DefaultThresholds(), nil)
	require.NoError(t, err)

	v, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Value{X: 1, Y: 1}, v)
	// Init selects X, then each axis is reconfigured before its conversion.
	assert.Equal(t, []Channel{ChannelX, ChannelX, ChannelY}, adc.configured)
	assert.Equal(t, 2, adc.starts)
}

func TestSampler_Watch(t *testing.T) {
	adc := NewReplayADC(Sample{X: 0, Y: 0}, Sample{X: 2000, Y: 2000}, Sample{X: 4000, Y: 4000})
	s, err := NewSampler(adc, DefaultConfig(), DefaultThresholds(), nil)
	require.NoError(t, err)

	var got []Value
	err = s.Watch(context.Background(), time.Millisecond, func(v Value) {
		got = append(got, v)
	})

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []Value{{X: -1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: -1}}, got)
}

func TestSampler_WatchCancelled(t *testing.T) {
	samples := make([]Sample, 1000)
	s, err := NewSampler(NewReplayADC(samples...), DefaultConfig(), DefaultThresholds(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = s.Watch(ctx, time.Millisecond, func(Value) {
		calls++
		if calls == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestSampler_WatchInvalidInterval(t *testing.T) {
	s, err := NewSampler(NewReplayADC(), DefaultConfig(), DefaultThresholds(), nil)
	require.NoError(t, err)

	assert.Error(t, s.Watch(context.Background(), 0, func(Value) {}))
}

func TestLoadReplayADC(t *testing.T) {
	input := `# recorded on the bench
x,y
100,3000

2048, 2048
0x0FFF,0
`
	adc, err := LoadReplayADC(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, adc.Remaining())

	s, err := NewSampler(adc, DefaultConfig(), DefaultThresholds(), nil)
	require.NoError(t, err)

	var got []Value
	for adc.Remaining() > 0 {
		v, err := s.Read(context.Background())
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []Value{{X: -1, Y: -1}, {X: 0, Y: 0}, {X: 1, Y: 1}}, got)
}

func TestLoadReplayADC_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing column", input: "100\n"},
		{name: "extra column", input: "1,2,3\n"},
		{name: "not a number", input: "abc,1\n"},
		{name: "out of range", input: "70000,1\n"},
		{name: "negative", input: "1,-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReplayADC(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReplayADC_DriverContract(t *testing.T) {
	adc := NewReplayADC(Sample{X: 1, Y: 2})

	assert.ErrorIs(t, adc.Configure(channelConfig(ChannelX)), ErrNotInitialized)
	assert.ErrorIs(t, adc.Start(), ErrNotInitialized)

	require.NoError(t, adc.Init(DefaultConfig()))
	assert.ErrorIs(t, adc.Configure(ChannelConfig{Channel: 5, Rank: 1}), ErrInvalidChannel)
	assert.ErrorIs(t, adc.PollForConversion(context.Background()), ErrNoConversion)

	require.NoError(t, adc.Configure(channelConfig(ChannelY)))
	require.NoError(t, adc.Start())
	require.NoError(t, adc.PollForConversion(context.Background()))
	assert.Equal(t, uint32(2), adc.Value())
}

func TestChannel_String(t *testing.T) {
	assert.Equal(t, "x", ChannelX.String())
	assert.Equal(t, "y", ChannelY.String())
	assert.Equal(t, "channel(7)", Channel(7).String())
}

// stubADC is a scripted driver recording the calls it receives.
type stubADC struct {
	initErr      error
	configureErr error
	block        bool
	values       map[Channel]uint32

	channel    Channel
	configured []Channel
	starts     int
}

func (a *stubADC) Init(Config) error { return a.initErr }

func (a *stubADC) Configure(ch ChannelConfig) error {
	if a.configureErr != nil {
		return a.configureErr
	}
	a.channel = ch.Channel
	a.configured = append(a.configured, ch.Channel)
	return nil
}

func (a *stubADC) Start() error {
	a.starts++
	return nil
}

func (a *stubADC) PollForConversion(ctx context.Context) error {
	if a.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (a *stubADC) Value() uint32 { return a.values[a.channel] }
