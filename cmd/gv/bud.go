package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/timeparsing"
	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add <title>",
	Aliases: []string{"capture", "new"},
	GroupID: "buds",
	Short:   "Capture a new bud",
	Long:    `Captures a bud in seed status. Seeds are raw, unprocessed captures; clarify them into dormant before working on them.`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bud := &types.Bud{
			Title:     strings.Join(args, " "),
			SessionID: sessionID,
		}
		bud.Description, _ = cmd.Flags().GetString("description")
		bud.Context, _ = cmd.Flags().GetString("context")
		bud.Notes, _ = cmd.Flags().GetString("notes")
		bud.Labels, _ = cmd.Flags().GetStringSlice("label")

		if p, _ := cmd.Flags().GetString("priority"); p != "" {
			bud.Priority = types.Priority(p)
		}
		if e, _ := cmd.Flags().GetString("energy"); e != "" {
			bud.EnergyLevel = types.EnergyLevel(e)
		}
		if mine, _ := cmd.Flags().GetBool("mine"); mine {
			bud.Assignee = getActor()
		} else {
			bud.Assignee, _ = cmd.Flags().GetString("assignee")
		}

		branchID, _ := cmd.Flags().GetInt64("branch")
		trunkID, _ := cmd.Flags().GetInt64("trunk")
		groveID, _ := cmd.Flags().GetInt64("grove")
		bud.BranchID = optInt64(branchID)
		bud.TrunkID = optInt64(trunkID)
		bud.GroveID = optInt64(groveID)

		if pts, _ := cmd.Flags().GetInt("points"); pts > 0 {
			bud.StoryPoints = &pts
		}
		if est, _ := cmd.Flags().GetInt("estimate"); est > 0 {
			bud.EstimatedMinutes = &est
		}
		for flag, dst := range map[string]**time.Time{
			"due":       &bud.DueDate,
			"scheduled": &bud.ScheduledDate,
			"defer":     &bud.DeferUntil,
		} {
			if s, _ := cmd.Flags().GetString(flag); s != "" {
				t, err := parseWhen(s)
				if err != nil {
					FatalError("invalid --%s: %v", flag, err)
				}
				*dst = &t
			}
		}

		if clarified, _ := cmd.Flags().GetBool("clarified"); clarified {
			bud.Status = types.StatusDormant
		}

		if err := store.CreateBud(rootCtx, bud); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(bud)
			return
		}
		fmt.Printf("Captured %s: %s\n", ui.RenderAccent(displayID(bud.ID)), bud.Title)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: "buds",
	Short:   "List buds",
	Run: func(cmd *cobra.Command, args []string) {
		filter := types.BudFilter{}
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			filter.Status = types.BudStatus(s)
		}
		if p, _ := cmd.Flags().GetString("priority"); p != "" {
			filter.Priority = types.Priority(p)
		}
		branchID, _ := cmd.Flags().GetInt64("branch")
		trunkID, _ := cmd.Flags().GetInt64("trunk")
		groveID, _ := cmd.Flags().GetInt64("grove")
		filter.BranchID = optInt64(branchID)
		filter.TrunkID = optInt64(trunkID)
		filter.GroveID = optInt64(groveID)
		filter.Assignee, _ = cmd.Flags().GetString("assignee")
		filter.Context, _ = cmd.Flags().GetString("context")
		filter.Labels, _ = cmd.Flags().GetStringSlice("label")
		filter.IncludeDone, _ = cmd.Flags().GetBool("all")
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		if mine, _ := cmd.Flags().GetBool("mine"); mine {
			filter.Assignee = getActor()
		}

		buds, err := store.ListBuds(rootCtx, filter)
		if err != nil {
			FatalError("%v", err)
		}
		printBuds(buds)
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	GroupID: "buds",
	Short:   "Show full detail for one bud",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		bud, err := store.GetBud(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(bud)
			return
		}
		printBudDetail(bud)
	},
}

func printBudDetail(bud *types.Bud) {
	fmt.Printf("%s  %s  %s\n", ui.RenderAccent(displayID(bud.ID)), ui.RenderStatus(bud.Status), ui.RenderPriority(bud.Priority))
	fmt.Println(ui.RenderHeader(bud.Title))
	if bud.Description != "" {
		fmt.Println(ui.WrapText(bud.Description, ui.TerminalWidth(80)))
	}
	fmt.Println(ui.RenderSeparator())

	now := time.Now()
	fmt.Printf("Created %s", timeparsing.FormatAge(bud.CreatedAt, now))
	if bud.ClarifiedAt != nil {
		fmt.Printf(", clarified %s", timeparsing.FormatAge(*bud.ClarifiedAt, now))
	}
	if bud.StartedAt != nil {
		fmt.Printf(", started %s", timeparsing.FormatAge(*bud.StartedAt, now))
	}
	if bud.CompletedAt != nil {
		fmt.Printf(", completed %s", timeparsing.FormatAge(*bud.CompletedAt, now))
	}
	fmt.Println()

	if bud.Assignee != "" {
		fmt.Printf("Assignee: %s\n", bud.Assignee)
	}
	if bud.Context != "" {
		fmt.Printf("Context: %s\n", bud.Context)
	}
	if len(bud.Labels) > 0 {
		fmt.Printf("Labels: %s\n", strings.Join(bud.Labels, ", "))
	}
	if bud.DueDate != nil {
		fmt.Printf("Due: %s\n", bud.DueDate.Format("2006-01-02"))
	}
	if bud.BeadsID != "" {
		fmt.Printf("Bead: %s\n", bud.BeadsID)
	}

	if blockers, err := store.GetDependencies(rootCtx, bud.ID); err == nil && len(blockers) > 0 {
		fmt.Println("\nDepends on:")
		for _, dep := range blockers {
			fmt.Printf("  %s\n", formatBudLine(dep))
		}
	}
	if dependents, err := store.GetDependents(rootCtx, bud.ID); err == nil && len(dependents) > 0 {
		fmt.Println("\nBlocks:")
		for _, dep := range dependents {
			fmt.Printf("  %s\n", formatBudLine(dep))
		}
	}
	if dews, err := store.ListDewForItem(rootCtx, types.ItemBud, bud.ID); err == nil && len(dews) > 0 {
		fmt.Println("\nDew:")
		for _, d := range dews {
			fmt.Printf("  [%s] %s\n", d.Status, ui.Truncate(d.Content, 70))
		}
	}
}

// transitionCommand builds one lifecycle verb as a cobra command. All the
// verbs share shape: parse id, transition, report old and new status.
func transitionCommand(use string, aliases []string, short string, target types.BudStatus) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <id>...",
		Aliases: aliases,
		GroupID: "buds",
		Short:   short,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ids, err := parseIDs(args)
			if err != nil {
				FatalError("%v", err)
			}
			for _, id := range ids {
				before, err := store.GetBud(rootCtx, id)
				if err != nil {
					FatalError("%v", err)
				}
				bud, err := store.TransitionBud(rootCtx, id, target)
				if err != nil {
					FatalError("%v", err)
				}
				if before.Status != bud.Status {
					counters.Transition(rootCtx, string(before.Status), string(bud.Status))
				}
				if jsonOutput {
					outputJSON(bud)
					continue
				}
				if before.Status == bud.Status {
					fmt.Printf("%s already %s\n", displayID(id), ui.RenderStatus(bud.Status))
				} else {
					fmt.Printf("%s: %s → %s\n", displayID(id), ui.RenderStatus(before.Status), ui.RenderStatus(bud.Status))
				}
			}
		},
	}
}

var (
	clarifyCmd = transitionCommand("clarify", []string{"dormant"}, "Mark buds clarified and ready (seed → dormant)", types.StatusDormant)
	startCmd   = transitionCommand("start", []string{"bud"}, "Start working on buds (→ budding)", types.StatusBudding)
	bloomCmd   = transitionCommand("bloom", []string{"done", "close"}, "Complete buds (→ bloomed)", types.StatusBloomed)
	mulchCmd   = transitionCommand("mulch", []string{"drop"}, "Drop buds (→ mulch)", types.StatusMulch)
)

var pulseCmd = &cobra.Command{
	Use:     "pulse <id> <status>",
	GroupID: "buds",
	Short:   "Transition a bud to an explicit status",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		target := types.BudStatus(args[1])
		if !target.IsValid() {
			FatalError("invalid status %q (want seed|dormant|budding|bloomed|mulch)", args[1])
		}
		before, err := store.GetBud(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		bud, err := store.TransitionBud(rootCtx, id, target)
		if err != nil {
			FatalError("%v", err)
		}
		if before.Status != bud.Status {
			counters.Transition(rootCtx, string(before.Status), string(bud.Status))
		}
		if jsonOutput {
			outputJSON(bud)
			return
		}
		fmt.Printf("%s: %s → %s\n", displayID(id), ui.RenderStatus(before.Status), ui.RenderStatus(bud.Status))
	},
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Aliases: []string{"update"},
	GroupID: "buds",
	Short:   "Edit bud fields",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		bud, err := store.GetBud(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		if s, _ := cmd.Flags().GetString("title"); s != "" {
			bud.Title = s
		}
		if cmd.Flags().Changed("description") {
			bud.Description, _ = cmd.Flags().GetString("description")
		}
		if s, _ := cmd.Flags().GetString("priority"); s != "" {
			bud.Priority = types.Priority(s)
		}
		if cmd.Flags().Changed("assignee") {
			bud.Assignee, _ = cmd.Flags().GetString("assignee")
		}
		if cmd.Flags().Changed("context") {
			bud.Context, _ = cmd.Flags().GetString("context")
		}
		if cmd.Flags().Changed("notes") {
			bud.Notes, _ = cmd.Flags().GetString("notes")
		}
		if cmd.Flags().Changed("branch") {
			branchID, _ := cmd.Flags().GetInt64("branch")
			bud.BranchID = optInt64(branchID)
		}
		if cmd.Flags().Changed("trunk") {
			trunkID, _ := cmd.Flags().GetInt64("trunk")
			bud.TrunkID = optInt64(trunkID)
		}
		if cmd.Flags().Changed("grove") {
			groveID, _ := cmd.Flags().GetInt64("grove")
			bud.GroveID = optInt64(groveID)
		}
		if s, _ := cmd.Flags().GetString("due"); s != "" {
			t, err := parseWhen(s)
			if err != nil {
				FatalError("invalid --due: %v", err)
			}
			bud.DueDate = &t
		}
		if min, _ := cmd.Flags().GetInt("spent"); min > 0 {
			bud.TimeSpentMinutes += min
		}
		if err := store.UpdateBud(rootCtx, bud); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(bud)
			return
		}
		fmt.Printf("Updated %s\n", displayID(id))
	},
}

var seedsCmd = &cobra.Command{
	Use:     "seeds",
	Aliases: []string{"inbox"},
	GroupID: "views",
	Short:   "List unprocessed seed buds",
	Run: func(cmd *cobra.Command, args []string) {
		buds, err := store.ListBuds(rootCtx, types.BudFilter{Status: types.StatusSeed})
		if err != nil {
			FatalError("%v", err)
		}
		printBuds(buds)
	},
}

var nowCmd = &cobra.Command{
	Use:     "now",
	Aliases: []string{"ready", "actionable"},
	GroupID: "views",
	Short:   "List actionable buds (clarified or started, nothing blocking)",
	Run: func(cmd *cobra.Command, args []string) {
		buds, err := store.ActionableBuds(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		printBuds(buds)
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	GroupID: "buds",
	Short:   "Delete a bud and its dependency edges",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.DeleteBud(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Deleted %s\n", displayID(id))
	},
}

var logCmd = &cobra.Command{
	Use:     "log <id> <note>",
	GroupID: "buds",
	Short:   "Append a note to a bud's activity trail",
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if _, err := store.GetBud(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		logEvent(types.ItemBud, id, strings.Join(args[1:], " "))
		fmt.Printf("Logged on %s\n", displayID(id))
	},
}

func init() {
	addCmd.Flags().StringP("description", "d", "", "Longer description")
	addCmd.Flags().StringP("priority", "p", "", "Priority (urgent|high|medium|low)")
	addCmd.Flags().Int64("branch", 0, "Branch to file the bud under")
	addCmd.Flags().Int64("trunk", 0, "Trunk to link the bud to directly")
	addCmd.Flags().Int64("grove", 0, "Grove to link the bud to directly")
	addCmd.Flags().String("assignee", "", "Assignee")
	addCmd.Flags().Bool("mine", false, "Assign to the current actor")
	addCmd.Flags().String("context", "", "Context tag (e.g. @home, @errands)")
	addCmd.Flags().String("energy", "", "Energy level required (high|medium|low)")
	addCmd.Flags().StringSlice("label", nil, "Labels (repeatable)")
	addCmd.Flags().String("notes", "", "Free-form notes")
	addCmd.Flags().Int("points", 0, "Story points")
	addCmd.Flags().Int("estimate", 0, "Estimated minutes")
	addCmd.Flags().String("due", "", "Due date (+2d, next friday, 2025-03-01)")
	addCmd.Flags().String("scheduled", "", "Scheduled date")
	addCmd.Flags().String("defer", "", "Defer until date")
	addCmd.Flags().Bool("clarified", false, "Create as dormant instead of seed")

	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().StringP("priority", "p", "", "Filter by priority")
	listCmd.Flags().Int64("branch", 0, "Filter by branch")
	listCmd.Flags().Int64("trunk", 0, "Filter by trunk")
	listCmd.Flags().Int64("grove", 0, "Filter by grove")
	listCmd.Flags().String("assignee", "", "Filter by assignee")
	listCmd.Flags().Bool("mine", false, "Only buds assigned to the current actor")
	listCmd.Flags().String("context", "", "Filter by context")
	listCmd.Flags().StringSlice("label", nil, "Filter by labels (all must match)")
	listCmd.Flags().BoolP("all", "a", false, "Include bloomed and mulched buds")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum results")

	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().StringP("priority", "p", "", "New priority")
	editCmd.Flags().String("assignee", "", "New assignee")
	editCmd.Flags().String("context", "", "New context")
	editCmd.Flags().String("notes", "", "New notes")
	editCmd.Flags().Int64("branch", 0, "Move to branch (0 detaches)")
	editCmd.Flags().Int64("trunk", 0, "Link to trunk (0 detaches)")
	editCmd.Flags().Int64("grove", 0, "Link to grove (0 detaches)")
	editCmd.Flags().String("due", "", "New due date")
	editCmd.Flags().Int("spent", 0, "Add minutes to time spent")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, clarifyCmd, startCmd, bloomCmd,
		mulchCmd, pulseCmd, editCmd, seedsCmd, nowCmd, deleteCmd, logCmd)
}
