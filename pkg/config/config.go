package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/gattsense/internal/joystick"
	"github.com/srg/gattsense/internal/sensors"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel string          `yaml:"log_level" default:"info"`
	Device   DeviceConfig    `yaml:"device"`
	Sensors  sensors.Samples `yaml:"sensors"`
	Joystick JoystickConfig  `yaml:"joystick"`
}

// DeviceConfig configures the advertised peripheral.
type DeviceConfig struct {
	Name             string        `yaml:"name" default:"gattsense"`
	HCIDevice        int           `yaml:"hci_device" default:"0"`
	AdvertiseTimeout time.Duration `yaml:"advertise_timeout" default:"0s"`
}

// JoystickConfig configures the joystick sampler.
type JoystickConfig struct {
	Thresholds joystick.Thresholds `yaml:"thresholds"`
	Interval   time.Duration       `yaml:"interval" default:"500ms"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Device.Name == "" {
		return errors.New("device.name must not be empty")
	}
	if c.Device.HCIDevice < 0 {
		return fmt.Errorf("device.hci_device must be >= 0, got %d", c.Device.HCIDevice)
	}
	if c.Device.AdvertiseTimeout < 0 {
		return fmt.Errorf("device.advertise_timeout must be >= 0, got %s", c.Device.AdvertiseTimeout)
	}
	if err := c.Joystick.Thresholds.Validate(); err != nil {
		return fmt.Errorf("joystick.thresholds: %w", err)
	}
	if c.Joystick.Interval <= 0 {
		return fmt.Errorf("joystick.interval must be > 0, got %s", c.Joystick.Interval)
	}
	return nil
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (logrus.Level, error) {
	switch s {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	}
	return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
