package machine

// system.go implements the system driver: the bus mutex, clock counter,
// and the per-cycle orchestration that ties memory, the interrupt
// controller, the CPU and the DMA controller together (spec §4.5).
// Grounded on the teacher's LC3.Run/Step pair in exec.go, cross-checked
// against original_source/sistema.c's sistema_ciclo.

import (
	"fmt"
	"sync"

	"github.com/lfernandopg/arquisim/internal/obslog"
)

// StackSize is the fixed stack region size reserved above a loaded
// program's code and data. original_source/sistema.c sets RL to
// TAM_MEMORIA-1 with no separate stack region at all; this value is
// instead taken from the RX-to-RL gap in spec §8 scenario 4 (RX=500,
// RL=600). RunProgram sets RL = RX + StackSize - 1, so the limit lands
// at RX+99.
const StackSize = 100

// System owns every long-lived component and drives the step loop. It is
// the single owner named in spec §9: components below it hold only
// non-owning references to each other.
type System struct {
	bus sync.Mutex

	Memory *Memory
	Intr   *Controller
	CPU    *CPU
	DMA    *DMA
	Disk   *Disk

	cycles int

	log *obslog.Logger
}

// NewSystem constructs a fully wired system: memory, interrupt controller,
// CPU, disk and DMA controller, with the DMA worker already running.
func NewSystem(log *obslog.Logger) *System {
	if log == nil {
		log = obslog.Default()
	}

	mem := NewMemory(log)
	intr := NewController(log)
	cpu := NewCPU(mem, intr, log)
	disk := NewDisk()

	sys := &System{Memory: mem, Intr: intr, CPU: cpu, Disk: disk, log: log}
	sys.DMA = NewDMA(&sys.bus, mem, disk, intr, log)

	return sys
}

// Shutdown stops the DMA worker, waiting for any outstanding transfer.
func (s *System) Shutdown() {
	s.DMA.Shutdown()
}

// Step performs exactly one driver step (spec §4.5):
//  1. dispatch a pending interrupt, if deliverable;
//  2. stop if the CPU is already halted;
//  3. run one bus-guarded CPU cycle;
//  4. advance the clock, raising INT_CLOCK at the configured period;
//  5. stop if PC has left [0, NumWords).
func (s *System) Step() {
	if code, pending := s.Intr.Pending(); pending {
		if code == IntBadAddr && !s.hasHandler(IntBadAddr) {
			s.CPU.Stop()
			return
		}

		s.Intr.Dispatch(s.CPU)
	}

	if s.CPU.Stopped() {
		return
	}

	s.bus.Lock()
	s.cycle()
	s.bus.Unlock()

	s.cycles++
	if s.CPU.ClockPeriod > 0 && s.cycles >= s.CPU.ClockPeriod {
		s.Intr.Raise(IntClock)
		s.cycles = 0
	}

	if s.CPU.PSW.PC < 0 || s.CPU.PSW.PC >= NumWords {
		s.CPU.Stop()
	}
}

func (s *System) hasHandler(code int) bool {
	s.Intr.mu.Lock()
	defer s.Intr.mu.Unlock()

	return s.Intr.vector[code] > 0
}

// cycle runs one fetch-decode-execute pass. Must be called with the bus
// mutex held.
func (s *System) cycle() {
	if !s.CPU.fetch() {
		return
	}

	i := s.CPU.IR
	obslog.Message(s.log, fmt.Sprintf("execute %s", i))

	s.CPU.exec(i, s.DMA)
}

// RunProgram loads the program at path at the base address its _start
// header names, sets up
// the initial register file, and runs to completion (debug=false) or hands
// control to a step callback (debug=true), per spec §4.5.
func (s *System) RunProgram(path string, debug bool, onStep func(*System) bool) error {
	start, count, err := LoadProgram(s.Memory, path, s.log)
	if err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	s.CPU.AC = 0
	s.CPU.RB = start
	s.CPU.RX = start + Word(count)
	s.CPU.RL = s.CPU.RX + StackSize - 1
	s.CPU.SP = 0
	s.CPU.PSW = PSW{Mo: User, IE: Enabled, PC: int(start)}
	s.cycles = 0
	s.CPU.stop = false
	s.Intr.Reset()

	if !debug {
		for !s.CPU.Stopped() {
			s.Step()
		}

		return nil
	}

	// onStep runs before Step, not after: the debugger must get a chance
	// to inspect pre-step state and prompt for a command before any
	// instruction executes, matching original_source/sistema.c's
	// sistema_debugger (prompt, then cycle).
	for !s.CPU.Stopped() {
		if onStep != nil && !onStep(s) {
			break
		}

		s.Step()
	}

	return nil
}

// SetClockPeriod installs the cycle period at which INT_CLOCK fires; a
// period of 0 disables the clock (spec §4.3's TTI opcode).
func (s *System) SetClockPeriod(period int) {
	s.CPU.ClockPeriod = period
}
