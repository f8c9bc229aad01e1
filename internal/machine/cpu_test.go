package machine

import "testing"

// TestArithmeticAndConditionCode is scenario 1 from spec §8.
func TestArithmeticAndConditionCode(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.PSW = PSW{Mo: Kernel, IE: Enabled, PC: 0}

	sys.Memory.Write(0, Word(EncodeInstruction(OpLoad, Immediate, 5)))
	sys.Memory.Write(1, Word(EncodeInstruction(OpSum, Immediate, 3)))

	for i := 0; i < 2; i++ {
		sys.Step()
	}

	if sys.CPU.AC != 8 {
		t.Errorf("AC = %d, want 8", sys.CPU.AC)
	}

	if sys.CPU.PSW.CC != CCGreater {
		t.Errorf("CC = %s, want GT", sys.CPU.PSW.CC)
	}

	// Scenario 1 (spec §8) ends with "halt via out-of-range PC": drive PC
	// past the end of memory directly, exercising the machine-fault stop
	// path (spec §4.5 step 5) rather than relying on zeroed memory past
	// the two-instruction program to misbehave into a fault.
	sys.CPU.PSW.PC = NumWords
	sys.Step()

	if !sys.CPU.Stopped() {
		t.Error("expected CPU to stop once PC left [0, NumWords)")
	}
}

// TestDivideByZero is scenario 2 from spec §8.
func TestDivideByZero(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.PSW = PSW{Mo: Kernel, IE: Enabled, PC: 0}

	sys.Memory.Write(0, Word(EncodeInstruction(OpLoad, Immediate, 10)))
	sys.Memory.Write(1, Word(EncodeInstruction(OpDivi, Immediate, 0)))

	sys.Step()
	sys.Step()

	if sys.CPU.AC != 10 {
		t.Errorf("AC = %d, want unchanged 10", sys.CPU.AC)
	}

	code, pending := sys.Intr.Pending()
	if !pending || code != IntOverflow {
		t.Errorf("pending = (%d, %v), want (IntOverflow, true)", code, pending)
	}
}

// TestUserProtection is scenario 3 from spec §8.
func TestUserProtection(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.RB = 300
	sys.CPU.RL = 310
	sys.CPU.RX = 310
	sys.CPU.PSW = PSW{Mo: User, IE: Enabled, PC: 300}

	sys.Memory.Write(300, Word(EncodeInstruction(OpLoad, Direct, 50))) // effective physical = 350
	sys.CPU.AC = -1

	sys.Step()

	code, pending := sys.Intr.Pending()
	if !pending || code != IntBadAddr {
		t.Errorf("pending = (%d, %v), want (IntBadAddr, true)", code, pending)
	}

	if sys.CPU.AC != -1 {
		t.Errorf("AC = %d, want unchanged -1", sys.CPU.AC)
	}
}

// TestStackRoundTrip is scenario 4 from spec §8.
func TestStackRoundTrip(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.RX = 500
	sys.CPU.SP = 0
	sys.CPU.RB = 300
	sys.CPU.RL = 600
	sys.CPU.PSW = PSW{Mo: User, IE: Enabled, PC: 300}

	sys.Memory.Write(300, Word(EncodeInstruction(OpLoad, Immediate, 42)))
	sys.Memory.Write(301, Word(EncodeInstruction(OpPsh, Immediate, 0)))
	sys.Memory.Write(302, Word(EncodeInstruction(OpLoad, Immediate, 0)))
	sys.Memory.Write(303, Word(EncodeInstruction(OpPop, Immediate, 0)))

	for i := 0; i < 4; i++ {
		sys.Step()
	}

	if sys.CPU.AC != 42 {
		t.Errorf("AC = %d, want 42", sys.CPU.AC)
	}

	if sys.CPU.SP != 0 {
		t.Errorf("SP = %d, want 0", sys.CPU.SP)
	}
}

// TestPrivilegedInstructionTrap is scenario 5 from spec §8.
func TestPrivilegedInstructionTrap(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.RB = 300
	sys.CPU.RL = 400
	sys.CPU.RX = 400
	sys.CPU.PSW = PSW{Mo: User, IE: Enabled, PC: 300}

	sys.Memory.Write(300, Word(EncodeInstruction(OpHab, Immediate, 0)))

	sys.Step()

	code, pending := sys.Intr.Pending()
	if !pending || code != IntBadInst {
		t.Errorf("pending = (%d, %v), want (IntBadInst, true)", code, pending)
	}

	if sys.CPU.PSW.IE != Enabled {
		t.Errorf("IE = %v, want unchanged Enabled", sys.CPU.PSW.IE)
	}
}

// TestClockInterruptCadence is scenario 7 from spec §8.
func TestClockInterruptCadence(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.PSW = PSW{Mo: Kernel, IE: Enabled, PC: 0}
	sys.CPU.ClockPeriod = 5

	for addr := 0; addr < 5; addr++ {
		sys.Memory.Write(addr, Word(EncodeInstruction(OpLoadRB, Direct, 0)))
	}

	for i := 0; i < 5; i++ {
		sys.Step()
	}

	code, pending := sys.Intr.Pending()
	if !pending || code != IntClock {
		t.Errorf("pending = (%d, %v), want (IntClock, true) after 5 cycles", code, pending)
	}

	if sys.cycles != 0 {
		t.Errorf("cycles = %d, want reset to 0", sys.cycles)
	}
}

// TestCondJumpNotTakenDoesNotFaultOnOperand guards spec §4.3's "if CC
// matches: fetch operand": a conditional jump whose condition does NOT
// hold must never evaluate (and bounds-check) its operand, even when
// that operand addresses memory outside [RB, RL].
func TestCondJumpNotTakenDoesNotFaultOnOperand(t *testing.T) {
	sys := newTestSystem(t)
	sys.CPU.RB = 300
	sys.CPU.RL = 310
	sys.CPU.RX = 310
	sys.CPU.PSW = PSW{Mo: User, IE: Enabled, CC: CCEqual, PC: 300}

	// JMPGT with an out-of-bounds direct operand; CC is EQ, so the jump
	// must not be taken and the operand must never be touched.
	sys.Memory.Write(300, Word(EncodeInstruction(OpJmpGT, Direct, 99999)))

	sys.Step()

	if _, pending := sys.Intr.Pending(); pending {
		t.Error("expected no interrupt: the untaken jump's operand must not be evaluated")
	}

	if sys.CPU.PSW.PC != 301 {
		t.Errorf("PC = %d, want 301 (plain fall-through, no jump taken)", sys.CPU.PSW.PC)
	}
}

func TestSaveRestoreContextRoundTrip(t *testing.T) {
	sys := newTestSystem(t)
	cpu := sys.CPU
	cpu.RB = 300
	cpu.RL = 600
	cpu.RX = 500
	cpu.SP = 0
	cpu.PSW = PSW{Mo: User, IE: Enabled, PC: 42}
	cpu.AC = 7

	wantAC, wantRX, wantPSW, wantSP := cpu.AC, cpu.RX, cpu.PSW, cpu.SP

	base := cpu.stackBase()
	cpu.saveContext()
	cpu.restoreContext(base)

	if cpu.AC != wantAC || cpu.RX != wantRX || cpu.PSW != wantPSW || cpu.SP != wantSP {
		t.Errorf("save/restore round trip changed state: got AC=%d RX=%d PSW=%+v SP=%d",
			cpu.AC, cpu.RX, cpu.PSW, cpu.SP)
	}
}
