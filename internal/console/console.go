// Package console implements the operator console: a line-oriented
// front-end over a machine.System (spec §6), and the debugger that steps
// through a program one cycle at a time.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/lfernandopg/arquisim/internal/machine"
	"github.com/lfernandopg/arquisim/internal/obslog"
)

// Console reads operator commands and drives a machine.System.
// Grounded on the teacher's internal/cli Commander/Command dispatch
// shape, generalized from ELSIE's subcommand registry to the fixed
// ejecutar/ayuda/salir vocabulary of original_source/sistema.c.
type Console struct {
	sys *machine.System
	log *obslog.Logger

	in  io.Reader
	out io.Writer

	line *liner.State
}

// New returns a console reading commands from in and writing output to
// out. When in is an *os.File connected to a terminal, liner is used for
// line editing and history (grounded on rcornwell-S370/main.go's use of
// the same package for its own operator console); otherwise commands are
// read with a plain bufio.Scanner.
func New(sys *machine.System, in io.Reader, out io.Writer, log *obslog.Logger) *Console {
	c := &Console{sys: sys, log: log, in: in, out: out}

	if f, ok := in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		c.line = liner.NewLiner()
	}

	return c
}

// Close releases the liner state, if one was created.
func (c *Console) Close() {
	if c.line != nil {
		c.line.Close()
	}
}

// Run reads commands from the console until salir/exit or EOF.
func (c *Console) Run() error {
	defer c.Close()

	if c.line != nil {
		return c.runLiner()
	}

	return c.runScanner()
}

func (c *Console) runLiner() error {
	for {
		text, err := c.line.Prompt("arquisim> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}

			return err
		}

		c.line.AppendHistory(text)

		if !c.dispatch(strings.TrimSpace(text)) {
			return nil
		}
	}
}

func (c *Console) runScanner() error {
	scanner := bufio.NewScanner(c.in)

	fmt.Fprint(c.out, "arquisim> ")

	for scanner.Scan() {
		if !c.dispatch(strings.TrimSpace(scanner.Text())) {
			return nil
		}

		fmt.Fprint(c.out, "arquisim> ")
	}

	return scanner.Err()
}

// dispatch runs one command line; it returns false when the console
// should stop (salir/exit).
func (c *Console) dispatch(line string) bool {
	if line == "" {
		return true
	}

	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "ejecutar":
		c.ejecutar(args)
	case "ayuda", "help":
		c.ayuda()
	case "salir", "exit":
		return false
	default:
		fmt.Fprintf(c.out, "unknown command: %s (try 'ayuda')\n", cmd)
	}

	return true
}

// ejecutar loads and runs a program: `ejecutar <file> [normal|debug]`.
func (c *Console) ejecutar(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "usage: ejecutar <file> [normal|debug]")
		return
	}

	path := args[0]
	mode := "normal"
	if len(args) >= 2 {
		mode = args[1]
	}

	debug := mode == "debug"

	var dbg *Debugger
	var onStep func(*machine.System) bool

	if debug {
		dbg = NewDebugger(c.sys, c.in, c.out)
		onStep = dbg.OnStep
	}

	if err := c.sys.RunProgram(path, debug, onStep); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

func (c *Console) ayuda() {
	fmt.Fprint(c.out, ""+
		"ejecutar <file> [normal|debug]  load and run a program\n"+
		"ayuda                           show this help\n"+
		"salir                           quit\n")
}
