package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lfernandopg/arquisim/internal/machine"
	"github.com/lfernandopg/arquisim/internal/obslog"
)

func TestConsoleAyudaAndSalir(t *testing.T) {
	sys := machine.NewSystem(obslog.New(&bytes.Buffer{}))
	t.Cleanup(sys.Shutdown)

	in := strings.NewReader("ayuda\nsalir\n")
	var out bytes.Buffer

	c := New(sys, in, &out, obslog.New(&bytes.Buffer{}))
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "ejecutar") {
		t.Errorf("expected ayuda output to mention ejecutar, got %q", out.String())
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	sys := machine.NewSystem(obslog.New(&bytes.Buffer{}))
	t.Cleanup(sys.Shutdown)

	in := strings.NewReader("frobnicate\nexit\n")
	var out bytes.Buffer

	c := New(sys, in, &out, obslog.New(&bytes.Buffer{}))
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("expected an unknown-command message, got %q", out.String())
	}
}
