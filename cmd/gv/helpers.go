package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grovecli/grove/internal/timeparsing"
	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

// parseID accepts "gv-12", "12", or "#12" and returns the numeric id.
func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "gv-"); ok {
		s = rest
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q (want a number or gv-N)", s)
	}
	return id, nil
}

// parseIDs maps parseID over args, failing on the first bad one.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// displayID renders a numeric id in the user-facing gv-N form.
func displayID(id int64) string {
	return fmt.Sprintf("gv-%d", id)
}

// outputJSON marshals v to stdout with indentation. Commands call this
// when --json is set and return immediately after.
func outputJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		FatalError("failed to encode JSON: %v", err)
	}
}

// parseWhen turns a user-supplied date string ("+2d", "next friday",
// "2025-03-01") into a timestamp.
func parseWhen(s string) (time.Time, error) {
	return timeparsing.Parse(s, time.Now())
}

// optInt64 returns a pointer when id is nonzero, nil otherwise. List
// filters and entity links treat nil as "unset".
func optInt64(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// formatBudLine renders one bud as a list row.
func formatBudLine(b *types.Bud) string {
	var sb strings.Builder
	sb.WriteString(ui.RenderAccent(displayID(b.ID)))
	sb.WriteString("  ")
	sb.WriteString(ui.RenderStatus(b.Status))
	sb.WriteString("  ")
	sb.WriteString(ui.RenderPriority(b.Priority))
	sb.WriteString("  ")
	sb.WriteString(ui.Truncate(b.Title, 60))
	if b.Assignee != "" {
		sb.WriteString(ui.RenderMuted("  @" + b.Assignee))
	}
	if b.BeadsID != "" {
		sb.WriteString(ui.RenderMuted("  [" + b.BeadsID + "]"))
	}
	sb.WriteString(ui.RenderMuted("  " + timeparsing.FormatAge(b.UpdatedAt, time.Now())))
	return sb.String()
}

// printBuds renders a bud list, honoring --json.
func printBuds(buds []*types.Bud) {
	if jsonOutput {
		outputJSON(buds)
		return
	}
	if len(buds) == 0 {
		fmt.Println("No buds found.")
		return
	}
	for _, b := range buds {
		fmt.Println(formatBudLine(b))
	}
	fmt.Printf("\n%d %s\n", len(buds), ui.Pluralize(len(buds), "bud"))
}

// logEvent appends a free-form log entry attributed to the current actor
// and session. Failures warn rather than abort: the primary mutation has
// already committed.
func logEvent(itemType types.ItemType, itemID int64, content string) {
	e := &types.ActivityEvent{
		ItemType:  itemType,
		ItemID:    itemID,
		EventType: types.EventLog,
		Content:   fmt.Sprintf("%s: %s", getActor(), content),
		SessionID: sessionID,
	}
	if err := store.AppendEvent(rootCtx, e); err != nil {
		WarnError("failed to record log event: %v", err)
	}
}
