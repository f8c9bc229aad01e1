package machine

import (
	"testing"
	"time"
)

// TestDMARoundTrip is scenario 6 from spec §8: a write followed by a read
// through the same disk sector should round-trip the stored word.
func TestDMARoundTrip(t *testing.T) {
	sys := newTestSystem(t)

	sys.Memory.Write(400, 12345678)

	sys.DMA.SetTrack(1)
	sys.DMA.SetCylinder(2)
	sys.DMA.SetSector(3)
	sys.DMA.SetOp(DMAWrite)
	sys.DMA.SetMemAddr(400)

	if !sys.DMA.Start() {
		t.Fatal("Start() refused when no transfer was active")
	}

	waitForIODone(t, sys)

	if sys.DMA.Status() != DMAOK {
		t.Fatalf("write status = %v, want DMAOK", sys.DMA.Status())
	}

	sys.DMA.SetOp(DMARead)
	sys.DMA.SetMemAddr(401)

	if !sys.DMA.Start() {
		t.Fatal("Start() refused for the read leg")
	}

	waitForIODone(t, sys)

	if sys.DMA.Status() != DMAOK {
		t.Fatalf("read status = %v, want DMAOK", sys.DMA.Status())
	}

	if got := sys.Memory.Read(401); got != 12345678 {
		t.Errorf("memory[401] = %d, want 12345678", got)
	}
}

func TestDMAInvalidGeometry(t *testing.T) {
	sys := newTestSystem(t)

	sys.DMA.SetTrack(99)
	sys.DMA.SetCylinder(0)
	sys.DMA.SetSector(0)
	sys.DMA.SetOp(DMARead)
	sys.DMA.SetMemAddr(0)
	sys.DMA.Start()

	waitForIODone(t, sys)

	if sys.DMA.Status() != DMAErr {
		t.Errorf("status = %v, want DMAErr for an out-of-range track", sys.DMA.Status())
	}
}

func TestDMARefusesConcurrentStart(t *testing.T) {
	sys := newTestSystem(t)

	sys.DMA.SetTrack(0)
	sys.DMA.SetCylinder(0)
	sys.DMA.SetSector(0)
	sys.DMA.SetOp(DMAWrite)
	sys.DMA.SetMemAddr(0)

	sys.DMA.Start()

	if sys.DMA.Start() {
		t.Error("Start() should refuse while a transfer is active")
	}

	waitForIODone(t, sys)
}

// waitForIODone polls until the DMA controller reports no active transfer.
// Tests don't run a full driver loop, so it watches Active rather than the
// INT_IO_DONE latch; finish clears Active just before it raises
// INT_IO_DONE.
func waitForIODone(t *testing.T, sys *System) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !sys.DMA.Active() {
			return
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("timed out waiting for DMA transfer to settle")
}
