// Package obslog provides the machine's structured event log: a
// write-only textual event stream (spec §6), one line per event the
// machine reports (execute, ALU operation, interrupt raised/dispatched,
// DMA start/finish). Instruction fetches are not logged as separate
// events, in debug mode or otherwise.
package obslog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Logger wraps slog.Logger with the machine's line format. It is safe for
// concurrent use by the driver goroutine and the DMA worker goroutine.
type Logger = slog.Logger

// New returns a logger that writes formatted event lines to out.
func New(out io.Writer) *Logger {
	return slog.New(newHandler(out))
}

// Default returns a logger writing to os.Stderr. Components that are
// constructed without an explicit logger fall back to this, the way the
// teacher's internal/log.DefaultLogger does.
func Default() *Logger {
	return New(os.Stderr)
}

// handler renders log records as single lines: a timestamp, a level, and
// the event kind and operands, matching the original C logger's
// log_mensaje/log_operacion/log_error line shapes (one line per call,
// fflush'd immediately — here, a single buffered Write per record).
type handler struct {
	mu  *sync.Mutex
	out io.Writer

	attrs []slog.Attr
}

func newHandler(out io.Writer) *handler {
	return &handler{mu: &sync.Mutex{}, out: out}
}

func (h *handler) Enabled(context.Context, slog.Level) bool { return true }

func (h *handler) Handle(_ context.Context, rec slog.Record) error {
	line := fmt.Sprintf("[%s] %s %s",
		rec.Time.Format(time.RFC3339Nano), rec.Level.String(), rec.Message)

	for _, a := range h.attrs {
		line += " " + a.String()
	}

	rec.Attrs(func(a slog.Attr) bool {
		line += " " + a.String()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := fmt.Fprintln(h.out, line)

	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &handler{mu: h.mu, out: h.out, attrs: merged}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return h
}

// Helpers mirroring the original logger's log_mensaje/log_error/
// log_operacion entry points, kept as free functions so CPU, interrupt,
// DMA and system code can log without repeating slog.Group boilerplate.

// Message logs a plain informational line, the log_mensaje equivalent.
func Message(log *Logger, msg string) {
	log.Info(msg)
}

// Operation logs an executed instruction's operands and result, the
// log_operacion equivalent. Operands are passed as int32 so this package
// need not import the machine package (which imports this one).
func Operation(log *Logger, op string, operand1, operand2, result int32) {
	log.Info("OPERACION", "op", op, "operand1", operand1, "operand2", operand2, "result", result)
}

// Errorf logs a formatted error line, the log_error equivalent.
func Errorf(log *Logger, format string, args ...any) {
	log.Error(fmt.Sprintf(format, args...))
}
