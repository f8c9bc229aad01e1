// Package machine implements the decimal-word virtual machine: memory,
// interrupt controller, CPU, DMA controller and the system driver that
// glues them together.
package machine

import "fmt"

// Word is the base data type on which the machine operates: a signed
// integer representing up to eight decimal digits of magnitude. All
// memory cells and all registers except the PSW store one word.
type Word int32

// Size limits for a word's decimal magnitude.
const (
	WordMaxMagnitude = 9_999_999
	WordDigits       = 8
)

func (w Word) String() string {
	return fmt.Sprintf("%08d", int32(w))
}

// Overflowed reports whether w's magnitude exceeds what a word can hold.
func (w Word) Overflowed() bool {
	m := int32(w)
	if m < 0 {
		m = -m
	}

	return m > WordMaxMagnitude
}

// AddressingMode selects how an instruction's value field is interpreted.
type AddressingMode int

// Addressing modes, matching DIR_DIRECTO/DIR_INMEDIATO/DIR_INDEXADO.
const (
	Direct AddressingMode = iota
	Immediate
	Indexed
)

func (m AddressingMode) String() string {
	switch m {
	case Direct:
		return "DIRECT"
	case Immediate:
		return "IMMEDIATE"
	case Indexed:
		return "INDEXED"
	default:
		return fmt.Sprintf("MODE(%d)", int(m))
	}
}

// Instruction is an 8-decimal-digit machine word, encoded as
// OO A VVVVV: opcode (2 digits), addressing mode (1 digit), value (5 digits).
type Instruction Word

// DecodeInstruction extracts the opcode, addressing mode, and value fields
// from a raw word, per spec §4.3's decode stage.
func DecodeInstruction(raw Word) Instruction {
	return Instruction(raw)
}

// Opcode returns the instruction's two-digit operation code.
func (i Instruction) Opcode() int {
	return int(i) / 1_000_000
}

// Mode returns the instruction's one-digit addressing mode.
func (i Instruction) Mode() AddressingMode {
	return AddressingMode((int(i) / 100_000) % 10)
}

// Value returns the instruction's five-digit value field.
func (i Instruction) Value() int {
	return int(i) % 100_000
}

// EncodeInstruction packs an opcode, addressing mode and value back into a
// word. Used by the CPU and system tests to build programs; round-trips
// with DecodeInstruction (see the decode/encode property test).
func EncodeInstruction(opcode int, mode AddressingMode, value int) Instruction {
	return Instruction(opcode*1_000_000 + int(mode)*100_000 + value)
}

func (i Instruction) String() string {
	return fmt.Sprintf("%02d%d%05d (op=%d mode=%s val=%d)",
		i.Opcode(), int(i.Mode()), i.Value(), i.Opcode(), i.Mode(), i.Value())
}

// ConditionCode is the two-bit result classification left by arithmetic and
// comparison operations.
type ConditionCode int

// Condition codes, matching CC_IGUAL/CC_MENOR/CC_MAYOR/CC_OVERFLOW.
const (
	CCEqual ConditionCode = iota
	CCLess
	CCGreater
	CCOverflow
)

func (c ConditionCode) String() string {
	switch c {
	case CCEqual:
		return "EQ"
	case CCLess:
		return "LT"
	case CCGreater:
		return "GT"
	case CCOverflow:
		return "OVF"
	default:
		return fmt.Sprintf("CC(%d)", int(c))
	}
}

// Mode is the CPU's privilege mode.
type Mode int

// Privilege modes, matching MODO_USUARIO/MODO_KERNEL.
const (
	User Mode = iota
	Kernel
)

func (m Mode) String() string {
	if m == Kernel {
		return "KERNEL"
	}

	return "USER"
}

// InterruptState toggles whether the CPU will take non-critical interrupts.
type InterruptState int

// Interrupt-enable states, matching INT_DESHABILITADAS/INT_HABILITADAS.
const (
	Disabled InterruptState = iota
	Enabled
)

// PSW is the unpacked processor status word: condition code, mode,
// interrupt-enable and program counter (spec §3). Packed form is
//
//	CC·10^7 + MODE·10^6 + IE·10^5 + PC
type PSW struct {
	CC ConditionCode
	Mo Mode
	IE InterruptState
	PC int // 0..99999
}

// Pack returns the PSW as a single word, per spec §3's digit layout.
func (p PSW) Pack() Word {
	return Word(int(p.CC)*10_000_000 + int(p.Mo)*1_000_000 + int(p.IE)*100_000 + p.PC)
}

// UnpackPSW is the inverse of Pack; pack/unpack is a bijection over the PSW
// domain (spec §8's testable property).
func UnpackPSW(w Word) PSW {
	v := int(w)

	return PSW{
		CC: ConditionCode(v / 10_000_000),
		Mo: Mode((v / 1_000_000) % 10),
		IE: InterruptState((v / 100_000) % 10),
		PC: v % 100_000,
	}
}

func (p PSW) String() string {
	return fmt.Sprintf("PSW{CC:%s MODE:%s IE:%d PC:%05d}", p.CC, p.Mo, p.IE, p.PC)
}
