package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/gattsense/internal/gatt"
	"github.com/srg/gattsense/internal/hci"
	"github.com/srg/gattsense/internal/sensors"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Feed recorded HCI events through the GATT event router",
	Long: `Reads hex-encoded HCI event packets, one per line, from a file or stdin and
dispatches them to the Health and Weather services backed by an in-memory
attribute database. Every characteristic update and read grant the services
issue is printed.

Lines starting with '#' are comments. Bytes may be separated by spaces or ':'.

Examples:
  # Connect, read the heart rate characteristic, disconnect
  cat <<PKT | gattsense replay
  04 3e 13 01 00 01 08 00 00 11 22 33 44 55 66 28 00 00 00 2a 00 00
  04 ff 08 14 0c 01 08 0e 00 00 00
  04 05 04 00 01 08 13
  PKT

  # Replay a capture and show ignored packets
  gattsense replay capture.hex --show-ignored

  # Machine-readable report
  gattsense replay capture.hex --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

var (
	replayShowIgnored bool
	replayJSON        bool
)

func init() {
	replayCmd.Flags().BoolVar(&replayShowIgnored, "show-ignored", false, "Print packets no handler is registered for")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Print a JSON report instead of the event lines")
}

// replayReport is the --json output.
type replayReport struct {
	Packets int            `json:"packets"`
	Handled int            `json:"handled"`
	Updates []updateRecord `json:"updates"`
	Grants  []string       `json:"grants"`
	Session sessionRecord  `json:"session"`
}

type updateRecord struct {
	Service string `json:"service"`
	Char    string `json:"char"`
	Value   string `json:"value"`
	Status  string `json:"status"`
}

type sessionRecord struct {
	Connected bool   `json:"connected"`
	Handle    string `json:"handle"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open replay file: %w", err)
		}
		defer f.Close()
		in = f
	}

	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	if replayJSON {
		out = io.Discard
	}
	stack := newReportingStack(out, logger)
	svc := sensors.New(stack, cfg.Sensors, logger)
	if err := svc.AddServices(); err != nil {
		return err
	}
	if !replayJSON {
		printLayout(cmd, svc)
	}

	router := svc.NewRouter()
	var total, handled int
	session := svc.Session()
	err = hci.ScanPackets(in, func(pkt []byte) error {
		total++
		if router.Dispatch(pkt) {
			handled++
		} else if replayShowIgnored {
			color.New(color.FgHiBlack).Fprintf(out, "IGNORED %s\n", hex.EncodeToString(pkt))
		}

		if now := svc.Session(); now.Connected != session.Connected || now.Handle != session.Handle {
			if now.Connected {
				color.New(color.FgGreen).Fprintf(out, "CONNECTED conn=%s\n", hexHandle(now.Handle))
			} else {
				color.New(color.FgRed).Fprintf(out, "DISCONNECTED\n")
			}
			session = now
		}
		return nil
	})
	if err != nil {
		return err
	}

	if replayJSON {
		now := svc.Session()
		report := replayReport{
			Packets: total,
			Handled: handled,
			Updates: stack.records,
			Grants:  stack.grantedTo,
			Session: sessionRecord{Connected: now.Connected, Handle: hexHandle(now.Handle)},
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "%d packets, %d handled, %d updates, %d grants\n", total, handled, stack.updates, len(stack.grantedTo))
	return nil
}

// reportingStack is a gatt.Stack over an in-memory database printing every
// update and grant it executes.
type reportingStack struct {
	*gatt.DB
	out       io.Writer
	updates   int
	records   []updateRecord
	grantedTo []string
}

func newReportingStack(out io.Writer, logger *logrus.Logger) *reportingStack {
	return &reportingStack{
		DB:        gatt.NewDB(logger),
		out:       out,
		records:   []updateRecord{},
		grantedTo: []string{},
	}
}

func (s *reportingStack) UpdateCharValue(service, char uint16, offset uint8, value []byte) gatt.Status {
	status := s.DB.UpdateCharValue(service, char, offset, value)
	s.records = append(s.records, updateRecord{
		Service: hexHandle(service),
		Char:    hexHandle(char),
		Value:   hex.EncodeToString(value),
		Status:  status.String(),
	})
	if status != gatt.StatusSuccess {
		color.New(color.FgRed).Fprintf(s.out, "UPDATE FAILED service=%s char=%s status=%s\n", hexHandle(service), hexHandle(char), status)
		return status
	}
	s.updates++
	color.New(color.FgYellow).Fprintf(s.out, "UPDATE service=%s char=%s value=%s\n", hexHandle(service), hexHandle(char), hex.EncodeToString(value))
	return status
}

func (s *reportingStack) AllowRead(conn uint16) gatt.Status {
	status := s.DB.AllowRead(conn)
	s.grantedTo = append(s.grantedTo, hexHandle(conn))
	color.New(color.FgGreen).Fprintf(s.out, "ALLOW READ conn=%s\n", hexHandle(conn))
	return status
}

// hexHandle formats an attribute or connection handle.
func hexHandle(h uint16) string {
	return fmt.Sprintf("0x%04x", h)
}
