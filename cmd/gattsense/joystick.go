package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/gattsense/internal/joystick"
)

// joystickCmd represents the joystick command
var joystickCmd = &cobra.Command{
	Use:   "joystick",
	Short: "Sample the two-axis joystick",
	Long: `Reads the X and Y channels of the joystick converter and prints the direction,
each axis being -1, 0 or 1. Readings below the low threshold are -1 on X and
+1 on Y; readings above the high threshold are 1 on X and -1 on Y.

The converter is replayed from a CSV file of raw "x,y" readings.

Examples:
  # Classify the first recorded sample
  gattsense joystick --source bench.csv

  # Print every sample at the configured interval
  gattsense joystick --source bench.csv --watch

  # Custom interval and thresholds
  gattsense joystick --source bench.csv --watch=100ms --low 1000 --high 3000`,
	Args: cobra.NoArgs,
	RunE: runJoystick,
}

var (
	joystickSource string
	joystickWatch  string
	joystickLow    uint16
	joystickHigh   uint16
)

func init() {
	joystickCmd.Flags().StringVar(&joystickSource, "source", "", "CSV file of raw x,y converter readings (required)")
	joystickCmd.Flags().StringVar(&joystickWatch, "watch", "", "Sample continuously at interval (e.g., --watch=100ms); config interval if no value given")
	joystickCmd.Flags().Lookup("watch").NoOptDefVal = "config"
	joystickCmd.Flags().Uint16Var(&joystickLow, "low", 0, "Low threshold (default from config)")
	joystickCmd.Flags().Uint16Var(&joystickHigh, "high", 0, "High threshold (default from config)")
	_ = joystickCmd.MarkFlagRequired("source")
}

func runJoystick(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	thresholds := cfg.Joystick.Thresholds
	if cmd.Flags().Changed("low") {
		thresholds.Low = joystickLow
	}
	if cmd.Flags().Changed("high") {
		thresholds.High = joystickHigh
	}

	var interval time.Duration
	if joystickWatch != "" {
		interval = cfg.Joystick.Interval
		if joystickWatch != "config" {
			if interval, err = time.ParseDuration(joystickWatch); err != nil {
				return fmt.Errorf("invalid watch interval: %w", err)
			}
		}
	}

	f, err := os.Open(joystickSource)
	if err != nil {
		return fmt.Errorf("failed to open joystick source: %w", err)
	}
	defer f.Close()

	adc, err := joystick.LoadReplayADC(f)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	sampler, err := joystick.NewSampler(adc, joystick.DefaultConfig(), thresholds, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	show := func(v joystick.Value) {
		color.New(color.FgCyan).Fprint(out, "joystick ")
		fmt.Fprintf(out, "x=%d y=%d\n", v.X, v.Y)
	}

	if interval == 0 {
		v, err := sampler.Read(ctx)
		if err != nil {
			return fmt.Errorf("failed to sample joystick: %w", err)
		}
		show(v)
		return nil
	}

	err = sampler.Watch(ctx, interval, show)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
