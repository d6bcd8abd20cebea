// Package logger provides leveled logging for the filmsync CLI.
// When verbose mode is enabled via the --verbose flag, debug and info
// messages are printed to stderr to help users follow a sync as it walks
// pages. Warnings and errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	format            = FormatConsole
	log               = build(os.Stderr, FormatConsole)
)

// build creates a zerolog logger for the writer and format (caller must hold mu).
func build(w io.Writer, f string) zerolog.Logger {
	w = zerolog.SyncWriter(w)
	if f != FormatJSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			NoColor:    true,
		}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build(output, format)
}

// SetFormat selects console or json output.
func SetFormat(f string) error {
	mu.Lock()
	defer mu.Unlock()
	switch f {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", f)
	}
	format = f
	log = build(output, format)
	return nil
}

// Debug prints a message if verbose mode is enabled.
func Debug(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Debug().Msgf(msg, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Info().Str("section", name).Msgf("=== %s ===", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Info().Msgf(msg, args...)
	}
}

// Warn prints a warning message.
func Warn(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn().Msgf(msg, args...)
}

// Error prints an error message with the error attached as a field.
func Error(err error, msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error().Err(err).Msgf(msg, args...)
}
