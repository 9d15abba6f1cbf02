package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/gattsense/internal/gatt"
	"github.com/srg/gattsense/internal/peripheral"
	"github.com/srg/gattsense/internal/sensors"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Health and Weather GATT peripheral",
	Long: `Publishes the Health (heart rate, weight) and Weather (temperature, humidity)
services on the local Bluetooth adapter and advertises until a central connects.
Advertising restarts after every disconnection.

Every read is confirmed by the application: the current sample is written into
the characteristic as a 4-byte big-endian integer, then the read is granted.

Examples:
  # Serve on hci0 with the default readings
  gattsense serve

  # Serve on hci1 under another name
  gattsense serve --hci 1 --name bench-sensor

  # Override readings
  gattsense serve --bpm 72 --temperature -4`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveName             string
	serveHCI              int
	serveAdvertiseTimeout time.Duration
	serveBPM              int32
	serveWeight           int32
	serveTemperature      int32
	serveHumidity         int32
)

func init() {
	serveCmd.Flags().StringVar(&serveName, "name", "", "Advertised device name (default from config)")
	serveCmd.Flags().IntVar(&serveHCI, "hci", 0, "HCI device id (default from config)")
	serveCmd.Flags().DurationVar(&serveAdvertiseTimeout, "advertise-timeout", 0, "Give up when no central connects in time (0 advertises forever)")
	serveCmd.Flags().Int32Var(&serveBPM, "bpm", 0, "Heart rate reading")
	serveCmd.Flags().Int32Var(&serveWeight, "weight", 0, "Weight reading")
	serveCmd.Flags().Int32Var(&serveTemperature, "temperature", 0, "Temperature reading")
	serveCmd.Flags().Int32Var(&serveHumidity, "humidity", 0, "Humidity reading")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		cfg.Device.Name = serveName
	}
	if flags.Changed("hci") {
		cfg.Device.HCIDevice = serveHCI
	}
	if flags.Changed("advertise-timeout") {
		cfg.Device.AdvertiseTimeout = serveAdvertiseTimeout
	}
	if flags.Changed("bpm") {
		cfg.Sensors.BPM = serveBPM
	}
	if flags.Changed("weight") {
		cfg.Sensors.Weight = serveWeight
	}
	if flags.Changed("temperature") {
		cfg.Sensors.Temperature = serveTemperature
	}
	if flags.Changed("humidity") {
		cfg.Sensors.Humidity = serveHumidity
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	db := gatt.NewDB(logger)
	svc := sensors.New(db, cfg.Sensors, logger)
	if err := svc.AddServices(); err != nil {
		return err
	}

	server := peripheral.NewServer(db, svc, peripheral.Config{
		Name:             cfg.Device.Name,
		DeviceID:         cfg.Device.HCIDevice,
		AdvertiseTimeout: cfg.Device.AdvertiseTimeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	color.New(color.FgGreen, color.Bold).Fprintf(out, "Serving %q on hci%d\n", cfg.Device.Name, cfg.Device.HCIDevice)
	printLayout(cmd, svc)

	return server.Serve(ctx)
}

// printLayout prints the registered characteristics and their handles.
func printLayout(cmd *cobra.Command, svc *sensors.Service) {
	out := cmd.OutOrStdout()
	name := color.New(color.FgCyan)
	for _, c := range svc.Characteristics() {
		name.Fprintf(out, "  %-12s", c.Kind)
		fmt.Fprintf(out, " service=%s decl=%s value=%s uuid=%s\n",
			hexHandle(c.Service), hexHandle(c.Decl), hexHandle(c.Value), c.UUID)
	}
}
