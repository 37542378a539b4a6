// Package logging provides the diagnostic logger shared by the resolver and
// the assembler.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// VerboseEnv is the environment variable that turns on diagnostic output.
const VerboseEnv = "VERBOSE_LOGS"

// Verbose reports whether diagnostic logging was requested.
func Verbose() bool {
	return os.Getenv(VerboseEnv) != ""
}

// New creates a logger writing to w, prefixed with the base name of name.
// Output is discarded unless VERBOSE_LOGS is set.
func New(w io.Writer, name string) *log.Logger {
	if !Verbose() {
		w = io.Discard
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: "[" + filepath.Base(name) + "]",
		Level:  log.DebugLevel,
	})
}

// Default creates a stderr logger named after the running executable.
func Default() *log.Logger {
	return New(os.Stderr, os.Args[0])
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
