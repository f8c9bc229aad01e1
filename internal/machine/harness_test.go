package machine

// harness_test.go provides a small shared test logger and a ready-wired
// System builder, in the style of the teacher's test_test.go.

import (
	"testing"

	"github.com/lfernandopg/arquisim/internal/obslog"
)

// testLog returns a logger that writes into the test's own log via t.Log.
func testLog(t *testing.T) *obslog.Logger {
	t.Helper()
	return obslog.New(testWriter{t})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Logf("%s", p)

	return len(p), nil
}

// newTestSystem builds a System wired the way NewSystem does, but with a
// logger that reports to t.
func newTestSystem(t *testing.T) *System {
	t.Helper()

	sys := NewSystem(testLog(t))
	t.Cleanup(sys.Shutdown)

	return sys
}
