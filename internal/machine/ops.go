package machine

// ops.go implements the instruction set (spec §4.3's opcode table): exec
// switches on the opcode and hands most cases to a small per-opcode helper
// method on CPU.

import "github.com/lfernandopg/arquisim/internal/obslog"

// Opcodes, matching spec §4.3's table and original_source/tipos.h.
const (
	OpSum = iota
	OpRes
	OpMult
	OpDivi
	OpLoad
	OpStr
	OpLoadRX
	OpStrRX
	OpComp
	OpJmpE
	OpJmpNE
	OpJmpLT
	OpJmpGT
	OpSVC
	OpRetrn
	OpHab
	OpDhab
	OpTTI
	OpChmod
	OpLoadRB
	OpStrRB
	OpLoadRL
	OpStrRL
	OpLoadSP
	OpStrSP
	OpPsh
	OpPop
	OpJ
	OpSDMAP
	OpSDMAC
	OpSDMAS
	OpSDMAIO
	OpSDMAM
	OpSDMAOn
)

// kernelOnly lists opcodes that raise INT_BAD_INST when executed in USER
// mode (spec §4.3's "kernel only" column). Opcodes 19–22 (LOADRB, STRRB,
// LOADRL, STRRL) are split: loads are unrestricted, only the stores
// (STRRB, STRRL) are kernel-only, so they are listed individually below
// rather than as the whole 19–22 range.
var kernelOnly = map[int]bool{
	OpHab:    true,
	OpDhab:   true,
	OpTTI:    true,
	OpChmod:  true,
	OpStrRB:  true,
	OpStrRL:  true,
	OpSDMAP:  true,
	OpSDMAC:  true,
	OpSDMAS:  true,
	OpSDMAIO: true,
	OpSDMAM:  true,
	OpSDMAOn: true,
}

// exec runs one decoded instruction against c, the machine's single
// per-cycle dispatch point (spec §4.3's instruction set table). dma is the
// owning system's DMA controller, needed by the SDMA* opcodes only.
func (c *CPU) exec(i Instruction, dma *DMA) {
	op := i.Opcode()

	if c.PSW.Mo == User && kernelOnly[op] {
		c.intr.Raise(IntBadInst)
		return
	}

	switch op {
	case OpSum:
		c.arith(i, func(a, b Word) Word { return a + b })
	case OpRes:
		c.arith(i, func(a, b Word) Word { return a - b })
	case OpMult:
		c.arith(i, func(a, b Word) Word { return a * b })
	case OpDivi:
		c.divi(i)
	case OpLoad:
		c.load(i)
	case OpStr:
		c.str(i)
	case OpLoadRX:
		c.AC = c.RX
	case OpStrRX:
		c.strRX(i)
	case OpComp:
		c.comp(i)
	case OpJmpE:
		c.condJump(i, c.PSW.CC == CCEqual)
	case OpJmpNE:
		c.condJump(i, c.PSW.CC != CCEqual)
	case OpJmpLT:
		c.condJump(i, c.PSW.CC == CCLess)
	case OpJmpGT:
		c.condJump(i, c.PSW.CC == CCGreater)
	case OpSVC:
		c.intr.Raise(IntSyscall)
	case OpRetrn:
		c.retrn()
	case OpHab:
		c.PSW.IE = Enabled
	case OpDhab:
		c.PSW.IE = Disabled
	case OpTTI:
		c.ClockPeriod = i.Value()
	case OpChmod:
		c.chmod(i)
	case OpLoadRB:
		c.AC = c.RB
	case OpStrRB:
		c.RB = c.AC
	case OpLoadRL:
		c.AC = c.RL
	case OpStrRL:
		c.RL = c.AC
	case OpLoadSP:
		c.AC = c.SP
	case OpStrSP:
		c.strSP()
	case OpPsh:
		c.push(c.AC)
	case OpPop:
		c.popInto()
	case OpJ:
		c.condJump(i, true)
	case OpSDMAP, OpSDMAC, OpSDMAS, OpSDMAIO, OpSDMAM, OpSDMAOn:
		c.sdma(op, i, dma)
	default:
		c.intr.Raise(IntBadInst)
	}
}

// arith implements SUM/RES/MULT: AC <- AC op operand, then classify CC.
func (c *CPU) arith(i Instruction, op func(a, b Word) Word) {
	operand, ok := c.readOperand(i)
	if !ok {
		return
	}

	r := op(c.AC, operand)
	c.classify(r)
	obslog.Operation(c.log, opName(i.Opcode()), int32(c.AC), int32(operand), int32(r))
	c.AC = r
}

// opName labels an opcode for the per-operation log line, the way
// original_source/cpu.c's log_operacion calls name each case.
func opName(op int) string {
	switch op {
	case OpSum:
		return "SUM"
	case OpRes:
		return "RES"
	case OpMult:
		return "MULT"
	case OpDivi:
		return "DIVI"
	case OpComp:
		return "COMP"
	default:
		return "OP"
	}
}

// divi implements DIVI: division by zero raises INT_OVERFLOW rather than
// faulting, per spec §4.3.
func (c *CPU) divi(i Instruction) {
	operand, ok := c.readOperand(i)
	if !ok {
		return
	}

	if operand == 0 {
		c.intr.Raise(IntOverflow)
		return
	}

	r := c.AC / operand
	c.classify(r)
	obslog.Operation(c.log, opName(OpDivi), int32(c.AC), int32(operand), int32(r))
	c.AC = r
}

func (c *CPU) load(i Instruction) {
	operand, ok := c.readOperand(i)
	if !ok {
		return
	}

	c.AC = operand
}

func (c *CPU) str(i Instruction) {
	if i.Mode() == Immediate {
		c.intr.Raise(IntBadInst)
		return
	}

	c.writeOperand(i, c.AC)
}

// strRX implements STRRX: in USER mode the new RX must itself satisfy the
// memory bounds check before it takes effect (spec §4.3). RX is used
// elsewhere (PSH/POP/STRSP) as an already-absolute address, so the
// candidate value is checked directly against [RB, RL], not RB-translated.
func (c *CPU) strRX(i Instruction) {
	if c.PSW.Mo == User {
		if !c.checkBoundsAgainst(c.AC) {
			return
		}
	}

	c.RX = c.AC
}

func (c *CPU) comp(i Instruction) {
	operand, ok := c.readOperand(i)
	if !ok {
		return
	}

	r := c.AC - operand
	c.classify(r)
	obslog.Operation(c.log, opName(OpComp), int32(c.AC), int32(operand), int32(r))
}

// condJump implements JMPE/JMPNE/JMPLT/JMPGT/J: the operand is fetched
// (and bounds-checked) only when the condition holds — spec §4.3's jump
// row reads "if CC matches: fetch operand", and original_source/cpu.c's
// JMPE/JMPNE/JMPLT/JMPGT cases only ever touch memoria[inst.valor] inside
// the matching `if`. PC is committed only if that fetch succeeded and no
// interrupt became pending while fetching the operand (spec §4.2's
// "Scheduling interaction").
func (c *CPU) condJump(i Instruction, take bool) {
	if !take {
		return
	}

	target, ok := c.jumpTarget(i)
	if !ok {
		return
	}

	if _, pending := c.intr.Pending(); pending {
		return
	}

	c.PSW.PC = int(target)
}

// jumpTarget resolves a jump instruction's destination: the addressing
// mode yields a value that is then translated like any other operand
// (RB-relative and bounds-checked in USER mode), per spec §9(a)'s
// resolution of the source's ambiguous jump-target behavior.
func (c *CPU) jumpTarget(i Instruction) (Word, bool) {
	if i.Mode() == Immediate {
		return Word(i.Value()), true
	}

	eff, _ := c.effectiveAddress(i)
	phys := c.physicalAddress(eff)

	if !c.checkBounds(phys) {
		return 0, false
	}

	return phys, true
}

func (c *CPU) retrn() {
	val, ok := c.pop()
	if !ok {
		return
	}

	c.PSW.PC = int(val)
}

// chmod implements CHMOD: kernel-only (enforced by the caller via
// kernelOnly), transitions the mode using the instruction's value field as
// the target mode (0 USER, nonzero KERNEL). This resolves spec §9(d)'s
// noted source ambiguity by treating the operand as an explicit target
// mode rather than an unconditional flip or an outright denial.
func (c *CPU) chmod(i Instruction) {
	if i.Value() == 0 {
		c.PSW.Mo = User
	} else {
		c.PSW.Mo = Kernel
	}
}

// strSP implements STRSP: in USER mode, RX+AC must land in [RB, RL]
// before SP is allowed to move there (spec §4.3). RX is already an
// absolute address (RunProgram sets RX = RB + word_count), the same
// convention push/pop use for their stack base, so no further RB
// translation is applied here.
func (c *CPU) strSP() {
	if c.PSW.Mo == User {
		phys := c.RX + c.AC
		if !c.checkBoundsAgainst(phys) {
			return
		}
	}

	c.SP = c.AC
}

func (c *CPU) popInto() {
	val, ok := c.pop()
	if !ok {
		return
	}

	c.AC = val
}

// sdma implements opcodes 28–33: configure and start the DMA controller.
// Value field carries the configuration argument for the SDMA* setters;
// SDMAON (33) launches the transfer.
func (c *CPU) sdma(op int, i Instruction, dma *DMA) {
	if dma == nil {
		return
	}

	v := i.Value()

	switch op {
	case OpSDMAP:
		dma.SetTrack(v)
	case OpSDMAC:
		dma.SetCylinder(v)
	case OpSDMAS:
		dma.SetSector(v)
	case OpSDMAIO:
		dma.SetOp(DMAOp(v))
	case OpSDMAM:
		dma.SetMemAddr(v)
	case OpSDMAOn:
		dma.Start()
	}
}
