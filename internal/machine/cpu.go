package machine

// cpu.go implements the CPU's registers and its fetch/decode stages, the
// effective- and physical-address computation, and context save/restore
// (spec §4.3). Instruction execution proper lives in ops.go.

import (
	"github.com/lfernandopg/arquisim/internal/obslog"
)

// CPU holds the machine's register file. AC is the accumulator; RX, RB, RL
// are the index/base/limit registers used for USER-mode relocation and
// bounds checking; SP is the stack pointer; MAR/MDR/IR are the fetch
// staging registers; PSW is the packed status (kept unpacked here for
// convenience, packed on demand by PSW.Pack).
type CPU struct {
	AC Word
	RX Word
	RB Word
	RL Word
	SP Word

	MAR Word
	MDR Word
	IR  Instruction

	PSW PSW

	// ClockPeriod is the cycle count set by TTI; the system driver raises
	// INT_CLOCK every ClockPeriod cycles when it is nonzero (spec §4.5).
	ClockPeriod int

	mem  *Memory
	intr *Controller
	stop bool
	log  *obslog.Logger
}

// NewCPU wires a CPU to its owning system's memory and interrupt
// controller. Neither reference is owned; the System decides lifetime.
func NewCPU(mem *Memory, intr *Controller, log *obslog.Logger) *CPU {
	return &CPU{mem: mem, intr: intr, log: log}
}

// Stopped reports whether the driver should stop calling Cycle on this CPU.
func (c *CPU) Stopped() bool { return c.stop }

// Stop marks the CPU as halted (spec §4.5's "PC leaves [0, N_MEM)" and
// "INT_BAD_ADDR with no handler" cases).
func (c *CPU) Stop() { c.stop = true }

// fetch loads the next instruction into IR, enforcing the USER-mode PC
// bounds check (invariants 1-2: RB <= PC <= RL and PC < RX) before any
// memory access happens (spec §4.3 Fetch). Unlike operand addresses, PC
// is already an absolute address in USER mode, not RB-relative: it is
// set that way by RunProgram (PC = RB = start) and simply read through.
func (c *CPU) fetch() bool {
	if c.PSW.Mo == User {
		pc := Word(c.PSW.PC)
		if pc < c.RB || pc > c.RL || pc >= c.RX {
			c.intr.Raise(IntBadAddr)
			return false
		}
	}

	c.MAR = Word(c.PSW.PC)
	c.MDR = c.mem.Read(int(c.MAR))
	c.IR = DecodeInstruction(c.MDR)
	c.PSW.PC++

	return true
}

// effectiveAddress computes the address named by the instruction's
// addressing mode (spec §4.3 "Effective address"). ok is false for
// Immediate, which has no address (its value is used directly), and for an
// undefined mode digit.
func (c *CPU) effectiveAddress(i Instruction) (addr Word, ok bool) {
	switch i.Mode() {
	case Direct:
		return Word(i.Value()), true
	case Indexed:
		return c.AC + Word(i.Value()), true
	case Immediate:
		return 0, false
	default:
		return 0, false
	}
}

// physicalAddress translates an effective address to the address actually
// dereferenced, adding RB in USER mode (spec's "Physical address").
func (c *CPU) physicalAddress(eff Word) Word {
	if c.PSW.Mo == User {
		return c.RB + eff
	}

	return eff
}

// checkBounds enforces [RB, RL] for a physical address computed while in
// USER mode, raising INT_BAD_ADDR on violation. Always true in KERNEL mode.
func (c *CPU) checkBounds(phys Word) bool {
	if c.PSW.Mo != User {
		return true
	}

	if phys < c.RB || phys > c.RL {
		c.intr.Raise(IntBadAddr)
		return false
	}

	return true
}

// readOperand resolves an instruction's operand value per its addressing
// mode, performing the physical-address translation and bounds check for
// Direct/Indexed modes. ok is false if a bounds violation raised
// INT_BAD_ADDR; the caller must abort the instruction without committing
// any further state.
func (c *CPU) readOperand(i Instruction) (val Word, ok bool) {
	if i.Mode() == Immediate {
		return Word(i.Value()), true
	}

	eff, _ := c.effectiveAddress(i)
	phys := c.physicalAddress(eff)

	if !c.checkBounds(phys) {
		return 0, false
	}

	return c.mem.Read(int(phys)), true
}

// writeOperand stores val at the instruction's effective address, applying
// the same translation and bounds check as readOperand. Immediate mode is
// not a valid store target and is rejected by the caller before this runs.
func (c *CPU) writeOperand(i Instruction, val Word) bool {
	eff, _ := c.effectiveAddress(i)
	phys := c.physicalAddress(eff)

	if !c.checkBounds(phys) {
		return false
	}

	c.mem.Write(int(phys), val)

	return true
}

// classify sets CC from an ALU result, raising INT_OVERFLOW when the
// result's magnitude exceeds a word's range (spec §4.3 "Condition codes").
func (c *CPU) classify(r Word) {
	if r.Overflowed() {
		c.PSW.CC = CCOverflow
		c.intr.Raise(IntOverflow)
		return
	}

	switch {
	case r == 0:
		c.PSW.CC = CCEqual
	case r < 0:
		c.PSW.CC = CCLess
	default:
		c.PSW.CC = CCGreater
	}
}

// stackBase is the origin SP offsets are measured from: RX in USER mode,
// absolute (0) in KERNEL mode, per spec §9(b)'s corrected SP semantics.
func (c *CPU) stackBase() Word {
	if c.PSW.Mo == User {
		return c.RX
	}

	return 0
}

// push writes val at stackBase+SP+1 and increments SP, used by PSH and by
// context save.
func (c *CPU) push(val Word) bool {
	return c.pushAt(c.stackBase(), val)
}

// pop decrements SP and returns the word at the vacated slot, used by POP
// and RETRN. ok is false (with INT_UNDERFLOW raised) when the stack is
// already empty.
func (c *CPU) pop() (val Word, ok bool) {
	return c.popAt(c.stackBase())
}

// pushAt and popAt take an explicit stack base rather than reading
// PSW.Mo, so the interrupt dispatcher can save/restore against the
// pre-dispatch base even after it has already flipped PSW.Mo to KERNEL
// for the handler (spec §4.3's "base = RX in USER, 0 in KERNEL" is fixed
// at the moment of the bracketed save, not re-derived at restore time).
func (c *CPU) pushAt(base Word, val Word) bool {
	phys := base + c.SP + 1

	if base != 0 {
		if !c.checkBoundsAgainst(phys) {
			return false
		}
	} else if int(phys) >= NumWords {
		c.intr.Raise(IntBadAddr)
		return false
	}

	c.SP++
	c.mem.Write(int(phys), val)

	return true
}

func (c *CPU) popAt(base Word) (val Word, ok bool) {
	if c.SP <= 0 {
		c.intr.Raise(IntUnderflow)
		return 0, false
	}

	phys := base + c.SP

	if base != 0 && !c.checkBoundsAgainst(phys) {
		return 0, false
	}

	val = c.mem.Read(int(phys))
	c.SP--

	return val, true
}

// checkBoundsAgainst enforces [RB, RL], the same check checkBounds makes,
// usable when the caller already knows it is operating in a USER-relative
// stack base without re-deriving it from the CPU's current mode.
func (c *CPU) checkBoundsAgainst(phys Word) bool {
	if phys < c.RB || phys > c.RL {
		c.intr.Raise(IntBadAddr)
		return false
	}

	return true
}

// saveContext pushes AC, RX, packed-PSW, in that order (spec §4.3 "Context
// save/restore"), against the stack base in force at the moment of the
// interrupt (before the dispatcher flips PSW.Mo to KERNEL).
func (c *CPU) saveContext() {
	base := c.stackBase()
	c.pushAt(base, c.AC)
	c.pushAt(base, c.RX)
	c.pushAt(base, c.PSW.Pack())
}

// restoreContext pops packed-PSW, RX, AC in reverse order against the same
// base saveContext used, the inverse of saveContext. SP nets to its
// pre-save value across a matched pair.
func (c *CPU) restoreContext(base Word) {
	if psw, ok := c.popAt(base); ok {
		c.PSW = UnpackPSW(psw)
	}

	if rx, ok := c.popAt(base); ok {
		c.RX = rx
	}

	if ac, ok := c.popAt(base); ok {
		c.AC = ac
	}
}
