package ui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls pager behavior.
type PagerOptions struct {
	NoPager bool // --no-pager flag
}

// shouldUsePager is false when disabled by flag or GROVE_NO_PAGER, or
// when stdout is not a TTY.
func shouldUsePager(opts PagerOptions) bool {
	if opts.NoPager {
		return false
	}
	if os.Getenv("GROVE_NO_PAGER") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// pagerCommand picks the pager: GROVE_PAGER, then PAGER, then less.
func pagerCommand() []string {
	for _, env := range []string{"GROVE_PAGER", "PAGER"} {
		if p := os.Getenv(env); p != "" {
			return strings.Fields(p)
		}
	}
	// -F quits if output fits on one screen, -R passes color through.
	return []string{"less", "-FRX"}
}

// ShowInPager writes content through a pager when appropriate,
// falling back to plain stdout.
func ShowInPager(content string, opts PagerOptions) error {
	if !shouldUsePager(opts) {
		fmt.Print(content)
		return nil
	}

	parts := pagerCommand()
	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 - pager from user env
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Pager missing or failed; show the content anyway.
		fmt.Print(content)
	}
	return nil
}
