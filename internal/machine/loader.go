package machine

// loader.go implements the line-oriented text program loader (spec §6),
// generalized from the teacher's internal/vm/loader.go Loader struct
// (binary object-code reader) to the text format of
// original_source/memoria.c's memoria_cargar_programa.

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lfernandopg/arquisim/internal/obslog"
)

// ErrLoad is the sentinel wrapped by every program-load failure, the way
// the teacher wraps ErrObjectLoader.
var ErrLoad = errors.New("machine: program load failed")

// Loader reads the line-oriented program format into memory starting at
// the base address named by the program's _start header. It holds no state
// across calls; LoadProgram is the
// entry point most callers want.
type Loader struct {
	mem *Memory
	log *obslog.Logger
}

// NewLoader returns a loader writing into mem.
func NewLoader(mem *Memory, log *obslog.Logger) *Loader {
	return &Loader{mem: mem, log: log}
}

// Load parses the program at path and writes its instruction words into
// memory. It returns the load base address and the instruction count, the
// (start, count) pair original_source/memoria.c calls
// (dir_inicio, cant_palabras).
func (l *Loader) Load(path string) (start Word, count int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()

	var (
		haveStart bool
		haveCount bool
		inCode    bool
		base      int
		n         int
		loaded    int
	)

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case !inCode && strings.HasPrefix(line, "_start"):
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return 0, 0, fmt.Errorf("%w: malformed _start line %q", ErrLoad, line)
			}

			base, err = strconv.Atoi(fields[1])
			if err != nil {
				return 0, 0, fmt.Errorf("%w: bad _start base: %v", ErrLoad, err)
			}

			haveStart = true

		case !inCode && strings.HasPrefix(line, ".NumeroPalabras"):
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return 0, 0, fmt.Errorf("%w: malformed .NumeroPalabras line %q", ErrLoad, line)
			}

			n, err = strconv.Atoi(fields[1])
			if err != nil {
				return 0, 0, fmt.Errorf("%w: bad .NumeroPalabras count: %v", ErrLoad, err)
			}

			haveCount = true

		case !inCode && strings.HasPrefix(line, ".NombreProg"):
			inCode = true

		case inCode:
			if !startsWithDigit(line) {
				// spec §4.1: non-empty lines that don't begin with a digit
				// inside the code section are skipped, not errors.
				continue
			}

			v, err := strconv.Atoi(line)
			if err != nil {
				return 0, 0, fmt.Errorf("%w: bad instruction word %q: %v", ErrLoad, line, err)
			}

			addr := base + loaded
			if addr < 0 || addr >= NumWords {
				return 0, 0, fmt.Errorf("%w: program overflows memory at word %d", ErrLoad, loaded)
			}

			l.mem.Write(addr, Word(v))
			loaded++

		default:
			// metadata line before .NombreProg that isn't one we recognize;
			// original_source/memoria.c ignores these too.
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	if !haveStart || !haveCount {
		return 0, 0, fmt.Errorf("%w: missing _start or .NumeroPalabras header", ErrLoad)
	}

	if loaded != n {
		obslog.Errorf(l.log, "loader: .NumeroPalabras said %d, loaded %d", n, loaded)
	}

	obslog.Message(l.log, fmt.Sprintf("loaded program at %d (%d words)", base, loaded))

	return Word(base), loaded, nil
}

// startsWithDigit reports whether line begins with an ASCII decimal digit,
// the test spec §4.1 uses to distinguish code lines from skippable ones.
func startsWithDigit(line string) bool {
	return len(line) > 0 && line[0] >= '0' && line[0] <= '9'
}

// LoadProgram is the package-level convenience entry point System uses.
func LoadProgram(mem *Memory, path string, log *obslog.Logger) (Word, int, error) {
	return NewLoader(mem, log).Load(path)
}
