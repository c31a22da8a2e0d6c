// Package debug provides env-gated diagnostic output for the gv CLI.
// Diagnostics go to stderr so they never pollute parseable stdout.
package debug

import (
	"fmt"
	"os"
	"sync"
)

var (
	mu          sync.Mutex
	enabled     = os.Getenv("GROVE_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

// Enabled reports whether diagnostic output is on, via GROVE_DEBUG or
// the --verbose flag.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled || verboseMode
}

// SetVerbose enables verbose output for this process.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = verbose
}

// SetQuiet suppresses non-essential output.
func SetQuiet(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is enabled.
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

// Logf writes a diagnostic line to stderr when debugging is enabled.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints informational output unless quiet mode is on.
func PrintNormal(format string, args ...interface{}) {
	if !IsQuiet() {
		fmt.Printf(format, args...)
	}
}
