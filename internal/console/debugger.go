package console

// debugger.go implements the single-step debugger (spec §6's debugger
// command set), driven through machine.System's introspection surface.
// Command vocabulary taken from original_source/sistema.c's
// sistema_debugger.

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lfernandopg/arquisim/internal/machine"
)

// Debugger prompts for a command before every CPU cycle while a program
// runs in debug mode.
type Debugger struct {
	sys *machine.System
	out io.Writer

	scanner    *bufio.Scanner
	continuous bool
}

// NewDebugger returns a debugger reading commands from in and writing
// output to out.
func NewDebugger(sys *machine.System, in io.Reader, out io.Writer) *Debugger {
	return &Debugger{sys: sys, out: out, scanner: bufio.NewScanner(in)}
}

// OnStep is called before every System.Step while running in debug mode.
// It returns false to stop the run (the `q` command).
func (d *Debugger) OnStep(sys *machine.System) bool {
	if d.continuous {
		return true
	}

	for {
		fmt.Fprint(d.out, "(debug) ")

		if !d.scanner.Scan() {
			return false
		}

		cmd := strings.TrimSpace(d.scanner.Text())

		switch cmd {
		case "s", "":
			return true
		case "r":
			d.dumpRegisters()
		case "m":
			d.dumpMemory()
		case "c":
			d.continuous = true
			return true
		case "q":
			return false
		default:
			fmt.Fprintf(d.out, "unknown debugger command: %s (s/r/m/c/q)\n", cmd)
		}
	}
}

func (d *Debugger) dumpRegisters() {
	cpu := d.sys.CPU
	fmt.Fprintf(d.out, "AC=%s RX=%s RB=%s RL=%s SP=%s %s\n",
		cpu.AC, cpu.RX, cpu.RB, cpu.RL, cpu.SP, cpu.PSW)
}

func (d *Debugger) dumpMemory() {
	fmt.Fprint(d.out, "address: ")

	if !d.scanner.Scan() {
		return
	}

	addr, err := strconv.Atoi(strings.TrimSpace(d.scanner.Text()))
	if err != nil {
		fmt.Fprintf(d.out, "bad address: %v\n", err)
		return
	}

	fmt.Fprintf(d.out, "[%05d] = %s\n", addr, d.sys.Memory.Read(addr))
}
