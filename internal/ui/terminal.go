package ui

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	colorOnce sync.Once
	useColor  bool
)

// ShouldUseColor reports whether styled output is appropriate:
// stdout must be a terminal with some color support, NO_COLOR must be
// unset, and GROVE_NO_COLOR must not be set.
func ShouldUseColor() bool {
	colorOnce.Do(func() {
		if os.Getenv("GROVE_NO_COLOR") != "" || termenv.EnvNoColor() {
			useColor = false
			return
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			useColor = false
			return
		}
		useColor = termenv.EnvColorProfile() != termenv.Ascii
	})
	return useColor
}

// TerminalWidth returns the stdout width, or fallback when stdout is
// not a terminal.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
