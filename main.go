// arquisim is the command-line entry point for the decimal-word machine
// simulator: it parses flags, wires the structured logger, builds a
// machine.System, and hands off to the operator console.
package main

import (
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/lfernandopg/arquisim/internal/console"
	"github.com/lfernandopg/arquisim/internal/machine"
	"github.com/lfernandopg/arquisim/internal/obslog"
)

func main() {
	optLogFile := getopt.StringLong("log", 'l', "", "Event log file (default: stderr)")
	optProgram := getopt.StringLong("program", 'p', "", "Program file to load and run immediately")
	optMode := getopt.StringLong("mode", 'm', "normal", "Run mode for -program: normal or debug")
	optHelp := getopt.BoolLong("help", 'h', "Help")

	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	logOut := os.Stderr
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			os.Stderr.WriteString("arquisim: cannot create log file: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}

	log := obslog.New(logOut)
	sys := machine.NewSystem(log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		sys.Shutdown()
		os.Exit(0)
	}()

	defer sys.Shutdown()

	if *optProgram != "" {
		debug := *optMode == "debug"

		var dbg *console.Debugger
		var onStep func(*machine.System) bool

		if debug {
			dbg = console.NewDebugger(sys, os.Stdin, os.Stdout)
			onStep = dbg.OnStep
		}

		if err := sys.RunProgram(*optProgram, debug, onStep); err != nil {
			os.Stderr.WriteString("arquisim: " + err.Error() + "\n")
			os.Exit(1)
		}

		return
	}

	c := console.New(sys, os.Stdin, os.Stdout, log)
	if err := c.Run(); err != nil {
		os.Stderr.WriteString("arquisim: " + err.Error() + "\n")
		os.Exit(1)
	}
}
