package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/gattsense/internal/joystick"
	"github.com/srg/gattsense/internal/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gattsense", cfg.Device.Name)
	assert.Equal(t, 0, cfg.Device.HCIDevice)
	assert.Equal(t, time.Duration(0), cfg.Device.AdvertiseTimeout)
	assert.Equal(t, sensors.DefaultSamples(), cfg.Sensors)
	assert.Equal(t, joystick.DefaultThresholds(), cfg.Joystick.Thresholds)
	assert.Equal(t, 500*time.Millisecond, cfg.Joystick.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
device:
  name: bench-sensor
  hci_device: 1
  advertise_timeout: 30s
sensors:
  bpm: 72
joystick:
  thresholds:
    low: 1000
  interval: 100ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "bench-sensor", cfg.Device.Name)
	assert.Equal(t, 1, cfg.Device.HCIDevice)
	assert.Equal(t, 30*time.Second, cfg.Device.AdvertiseTimeout)
	assert.Equal(t, int32(72), cfg.Sensors.BPM)
	assert.Equal(t, int32(90), cfg.Sensors.Weight, "missing fields MUST keep defaults")
	assert.Equal(t, uint16(1000), cfg.Joystick.Thresholds.Low)
	assert.Equal(t, uint16(2500), cfg.Joystick.Thresholds.High)
	assert.Equal(t, 100*time.Millisecond, cfg.Joystick.Interval)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "malformed yaml", content: "device: [", errMsg: "parsing config file"},
		{name: "bad log level", content: "log_level: verbose", errMsg: "invalid log level"},
		{name: "empty name", content: "device:\n  name: \"\"", errMsg: "device.name"},
		{name: "negative hci device", content: "device:\n  hci_device: -1", errMsg: "device.hci_device"},
		{name: "inverted thresholds", content: "joystick:\n  thresholds:\n    low: 3000", errMsg: "joystick.thresholds"},
		{name: "zero interval", content: "joystick:\n  interval: 0s", errMsg: "joystick.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     logrus.Level
	}{
		{name: "creates logger with debug level", logLevel: "debug", want: logrus.DebugLevel},
		{name: "creates logger with info level", logLevel: "info", want: logrus.InfoLevel},
		{name: "creates logger with warn level", logLevel: "warn", want: logrus.WarnLevel},
		{name: "creates logger with error level", logLevel: "error", want: logrus.ErrorLevel},
		{name: "falls back to info on bad level", logLevel: "loud", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.want, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, level)

	_, err = ParseLevel("trace")
	assert.ErrorContains(t, err, "must be debug, info, warn, or error")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}
