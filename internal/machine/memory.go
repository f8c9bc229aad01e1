package machine

// memory.go implements the flat, word-addressable main store (spec §4.1).

import (
	"fmt"

	"github.com/lfernandopg/arquisim/internal/obslog"
)

// Machine-wide size constants, matching original_source/tipos.h exactly.
const (
	NumWords       = 2000 // TAM_MEMORIA
	OSReservedSize = 300  // MEM_SO: addresses [0, OSReservedSize) belong to the OS image.
)

// Memory is the flat word store shared by the CPU and the DMA controller.
// An occupancy flag per cell is advisory bookkeeping left by the loader; it
// is never consulted to deny an access.
type Memory struct {
	cells    [NumWords]Word
	occupied [NumWords]bool

	log *obslog.Logger
}

// NewMemory creates a zeroed memory store and marks the OS region occupied,
// mirroring memoria_inicializar in original_source/memoria.c.
func NewMemory(log *obslog.Logger) *Memory {
	mem := &Memory{log: log}
	for addr := 0; addr < OSReservedSize; addr++ {
		mem.occupied[addr] = true
	}

	return mem
}

// Read returns the word at addr. Accesses outside [0, NumWords) are logged
// and return 0; bounds enforcement for user programs is the CPU's job
// (spec §4.3), not this component's.
func (m *Memory) Read(addr int) Word {
	if addr < 0 || addr >= NumWords {
		obslog.Errorf(m.log, "memory: read out of range: %d", addr)
		return 0
	}

	return m.cells[addr]
}

// Write stores word at addr. Out-of-range writes are logged and ignored.
func (m *Memory) Write(addr int, word Word) {
	if addr < 0 || addr >= NumWords {
		obslog.Errorf(m.log, "memory: write out of range: %d", addr)
		return
	}

	m.cells[addr] = word
	m.occupied[addr] = true
}

// Occupied reports whether addr has been written by the loader or the OS.
func (m *Memory) Occupied(addr int) bool {
	if addr < 0 || addr >= NumWords {
		return false
	}

	return m.occupied[addr]
}

// ErrOutOfRange describes an out-of-bounds address. Read and Write log and
// ignore such accesses instead of returning it, and no function in this
// package returns it.
type ErrOutOfRange struct {
	Addr int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("memory: address %d out of range [0, %d)", e.Addr, NumWords)
}
