// Package beads speaks the file contract of an external beads issue
// tracker. A linked repo is a .beads directory holding issues.jsonl;
// the tracker's own CLI owns writes, so pushing shells out to it
// through an injected runner and reading never takes locks.
package beads

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovecli/grove/internal/types"
)

// Bead is one issue row from issues.jsonl.
type Bead struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	IssueType   string `json:"issue_type,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Owner       string `json:"owner,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// ResolveDir resolves a linked repo path to the actual .beads
// directory. The link may point at the repo root or at .beads itself,
// and the directory may contain a redirect file naming the real
// location (relative targets resolve against the redirect's own
// directory).
func ResolveDir(repoPath string) (string, error) {
	path := repoPath
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", repoPath, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	dir := path
	if filepath.Base(dir) != ".beads" {
		dir = filepath.Join(dir, ".beads")
	}

	if target, err := os.ReadFile(filepath.Join(dir, "redirect")); err == nil {
		t := strings.TrimSpace(string(target))
		if t != "" {
			if !filepath.IsAbs(t) {
				t = filepath.Join(dir, t)
			}
			dir = filepath.Clean(t)
		}
	}

	return dir, nil
}

// ReadIssues parses issues.jsonl from a resolved .beads directory.
// Blank and malformed lines are skipped; a missing file is an error.
func ReadIssues(dir string) ([]Bead, error) {
	path := filepath.Join(dir, "issues.jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read beads issues: %w", err)
	}
	defer f.Close()

	var beads []Bead
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var b Bead
		if err := json.Unmarshal([]byte(line), &b); err != nil {
			continue
		}
		if b.Status == "" {
			b.Status = "open"
		}
		if b.Priority == 0 {
			b.Priority = 2
		}
		beads = append(beads, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read beads issues: %w", err)
	}
	return beads, nil
}

// IsOpen reports whether a bead status counts as still workable.
func IsOpen(status string) bool {
	switch strings.ToLower(status) {
	case "open", "in_progress", "hooked":
		return true
	}
	return false
}

// FilterOpen keeps only workable beads.
func FilterOpen(beads []Bead) []Bead {
	var open []Bead
	for _, b := range beads {
		if IsOpen(b.Status) {
			open = append(open, b)
		}
	}
	return open
}

// StatusToBud maps a bead status onto the bud lifecycle. Unknown
// statuses land as seeds so nothing imported is silently finished.
func StatusToBud(status string) types.BudStatus {
	switch strings.ToLower(status) {
	case "open":
		return types.StatusSeed
	case "in_progress", "hooked":
		return types.StatusBudding
	case "closed", "done":
		return types.StatusBloomed
	case "wont_fix", "duplicate":
		return types.StatusMulch
	default:
		return types.StatusSeed
	}
}

// PriorityToBud maps the tracker's 1..4 priority scale.
func PriorityToBud(priority int) types.Priority {
	switch {
	case priority <= 1:
		return types.PriorityUrgent
	case priority == 2:
		return types.PriorityHigh
	case priority == 3:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

// BudStatusToBead is the outbound half of StatusToBud.
func BudStatusToBead(status types.BudStatus) string {
	switch status {
	case types.StatusBudding:
		return "in_progress"
	case types.StatusBloomed:
		return "closed"
	case types.StatusMulch:
		return "wont_fix"
	default: // seed, dormant
		return "open"
	}
}

// BudPriorityToBead is the outbound half of PriorityToBud.
func BudPriorityToBead(p types.Priority) int {
	switch p {
	case types.PriorityUrgent:
		return 1
	case types.PriorityHigh:
		return 2
	case types.PriorityLow:
		return 4
	default:
		return 3
	}
}
