package hci

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ScanPackets reads hex-encoded packets from r, one per line, and calls fn
// for each. Blank lines and lines starting with '#' are skipped; whitespace
// and ':' separators inside a line are ignored. Scanning stops at the first
// error returned by fn.
func ScanPackets(r io.Reader, fn func(pkt []byte) error) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		text = strings.NewReplacer(" ", "", "\t", "", ":", "").Replace(text)
		pkt, err := hex.DecodeString(text)
		if err != nil {
			return fmt.Errorf("line %d: invalid hex packet: %w", line, err)
		}
		if err := fn(pkt); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}
