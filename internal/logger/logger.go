// Package logger provides leveled logging for notesrag.
// Debug, Info and Section output is printed only in verbose mode
// (the --verbose flag) to help users follow the ingestion and retrieval
// pipeline. Warnings and errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr

	warnPrefix  = color.New(color.FgYellow)
	errorPrefix = color.New(color.FgRed, color.Bold)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects log lines. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// write prints one line. Lines with verboseOnly set are dropped unless
// verbose mode is on. Holding mu serialises writers sharing output.
func write(verboseOnly bool, line string) {
	mu.Lock()
	defer mu.Unlock()
	if verboseOnly && !verbose {
		return
	}
	_, _ = io.WriteString(output, line)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(true, "[DEBUG] "+fmt.Sprintf(format, args...)+"\n")
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	write(true, "\n=== "+name+" ===\n")
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(true, "[INFO] "+fmt.Sprintf(format, args...)+"\n")
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write(false, warnPrefix.Sprint("[WARN]")+" "+fmt.Sprintf(format, args...)+"\n")
}

// Error prints an error message.
func Error(format string, args ...any) {
	write(false, errorPrefix.Sprint("[ERROR]")+" "+fmt.Sprintf(format, args...)+"\n")
}
