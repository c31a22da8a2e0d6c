package beads

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovecli/grove/internal/types"
)

func writeRepo(t *testing.T, lines ...string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ".beads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, "issues.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestResolveDir(t *testing.T) {
	root := writeRepo(t)
	dir := filepath.Join(root, ".beads")

	// Repo root and .beads itself resolve to the same place.
	got, err := ResolveDir(root)
	if err != nil || got != dir {
		t.Errorf("ResolveDir(root) = %q, %v; want %q", got, err, dir)
	}
	got, err = ResolveDir(dir)
	if err != nil || got != dir {
		t.Errorf("ResolveDir(.beads) = %q, %v; want %q", got, err, dir)
	}
}

func TestResolveDirRedirect(t *testing.T) {
	real := writeRepo(t)
	realDir := filepath.Join(real, ".beads")

	stub := t.TempDir()
	stubDir := filepath.Join(stub, ".beads")
	if err := os.MkdirAll(stubDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stubDir, "redirect"), []byte(realDir+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveDir(stub)
	if err != nil {
		t.Fatal(err)
	}
	if got != realDir {
		t.Errorf("ResolveDir through redirect = %q, want %q", got, realDir)
	}
}

func TestReadIssuesSkipsMalformed(t *testing.T) {
	root := writeRepo(t,
		`{"id":"bd-1","title":"first","status":"open","priority":1}`,
		``,
		`{not json at all`,
		`{"id":"bd-2","title":"second"}`,
	)
	dir, _ := ResolveDir(root)

	beads, err := ReadIssues(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(beads) != 2 {
		t.Fatalf("got %d beads, want 2", len(beads))
	}
	// Absent fields take the tracker's defaults.
	if beads[1].Status != "open" || beads[1].Priority != 2 {
		t.Errorf("defaults not applied: %+v", beads[1])
	}
}

func TestReadIssuesMissingFile(t *testing.T) {
	if _, err := ReadIssues(t.TempDir()); err == nil {
		t.Error("missing issues.jsonl accepted")
	}
}

func TestFilterOpen(t *testing.T) {
	beads := []Bead{
		{ID: "a", Status: "open"},
		{ID: "b", Status: "in_progress"},
		{ID: "c", Status: "hooked"},
		{ID: "d", Status: "closed"},
		{ID: "e", Status: "wont_fix"},
	}
	open := FilterOpen(beads)
	if len(open) != 3 {
		t.Errorf("got %d open beads, want 3", len(open))
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		bead string
		want types.BudStatus
	}{
		{"open", types.StatusSeed},
		{"in_progress", types.StatusBudding},
		{"hooked", types.StatusBudding},
		{"closed", types.StatusBloomed},
		{"done", types.StatusBloomed},
		{"wont_fix", types.StatusMulch},
		{"duplicate", types.StatusMulch},
		{"something_new", types.StatusSeed},
	}
	for _, tt := range tests {
		if got := StatusToBud(tt.bead); got != tt.want {
			t.Errorf("StatusToBud(%q) = %s, want %s", tt.bead, got, tt.want)
		}
	}
}

func TestPriorityMappingRoundTrip(t *testing.T) {
	for _, p := range []types.Priority{
		types.PriorityUrgent, types.PriorityHigh,
		types.PriorityMedium, types.PriorityLow,
	} {
		if got := PriorityToBud(BudPriorityToBead(p)); got != p {
			t.Errorf("priority %s round-tripped to %s", p, got)
		}
	}
}
