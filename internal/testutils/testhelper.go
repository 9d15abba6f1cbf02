package testutils

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	Output *bytes.Buffer
}

// NewTestHelper creates a test helper whose logger writes to an in-memory
// buffer at debug level, so tests can assert on log entries.
func NewTestHelper(t *testing.T) *TestHelper {
	out := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("captured log output:\n%s", out.String())
		}
	})

	return &TestHelper{
		T:      t,
		Logger: logger,
		Output: out,
	}
}

// Logs returns everything logged so far.
func (h *TestHelper) Logs() string {
	return h.Output.String()
}
