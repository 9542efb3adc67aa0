package monitoring

import (
	"io"
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Streams bundles the three logging destinations used by the compute
// packages: ops (actionable warnings), diag (per-run diagnostics), and trace
// (per-sample telemetry). Nil writers disable their stream.
type Streams struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// DefaultStreams routes ops and diag to stderr and leaves trace disabled.
func DefaultStreams() Streams {
	return Streams{Ops: os.Stderr, Diag: os.Stderr}
}

// Verbose enables all three streams on stderr.
func Verbose() Streams {
	return Streams{Ops: os.Stderr, Diag: os.Stderr, Trace: os.Stderr}
}

// Quiet disables every stream.
func Quiet() Streams { return Streams{} }
