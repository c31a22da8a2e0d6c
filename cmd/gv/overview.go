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

var overviewCmd = &cobra.Command{
	Use:     "overview",
	Aliases: []string{"tree"},
	GroupID: "views",
	Short:   "Show the full grove → trunk → branch tree",
	Run: func(cmd *cobra.Command, args []string) {
		ov, err := store.Overview(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(ov)
			return
		}

		var sb strings.Builder
		for _, g := range ov.Groves {
			writeOverviewNode(&sb, g)
		}
		if len(ov.OrphanTrunks) > 0 {
			sb.WriteString(ui.RenderHeader("unattached trunks") + "\n")
			for _, t := range ov.OrphanTrunks {
				writeOverviewNode(&sb, t)
			}
		}
		if len(ov.OrphanBranches) > 0 {
			sb.WriteString(ui.RenderHeader("unattached branches") + "\n")
			for _, b := range ov.OrphanBranches {
				writeOverviewNode(&sb, b)
			}
		}
		if len(ov.LooseBuds) > 0 {
			sb.WriteString(ui.RenderHeader("loose buds") + "\n")
			for _, bud := range ov.LooseBuds {
				sb.WriteString("  " + formatBudLine(bud) + "\n")
			}
		}
		sb.WriteString(ui.RenderSeparator() + "\n")
		sb.WriteString(formatStats(&ov.Stats))

		noPager, _ := cmd.Flags().GetBool("no-pager")
		_ = ui.ShowInPager(sb.String(), ui.PagerOptions{NoPager: noPager})
	},
}

func writeOverviewNode(sb *strings.Builder, node *types.OverviewNode) {
	indent := strings.Repeat("  ", node.Depth)
	title := node.Title
	if node.Icon != "" {
		title = node.Icon + " " + title
	}
	progress := ""
	if node.BudCount > 0 {
		progress = ui.RenderMuted(fmt.Sprintf("  %d/%d bloomed", node.Bloomed, node.BudCount))
	}
	status := ""
	if node.Status != "" && node.Status != string(types.ContainerActive) {
		status = ui.RenderMuted(" (" + node.Status + ")")
	}
	fmt.Fprintf(sb, "%s%s %s%s%s\n", indent, ui.RenderAccent(displayID(node.ID)), title, status, progress)
	for _, child := range node.Children {
		writeOverviewNode(sb, child)
	}
}

func formatStats(s *types.Statistics) string {
	return fmt.Sprintf(
		"%d buds: %d seed, %d dormant, %d budding, %d bloomed, %d mulched\n%d blocked, %d actionable\n",
		s.TotalBuds, s.SeedBuds, s.DormantBuds, s.BuddingBuds, s.BloomedBuds, s.MulchedBuds,
		s.BlockedBuds, s.ActionableBuds)
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: "views",
	Short:   "Show global bud statistics",
	Run: func(cmd *cobra.Command, args []string) {
		stats, err := store.Statistics(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(stats)
			return
		}
		fmt.Print(formatStats(stats))
	},
}

var reviewCmd = &cobra.Command{
	Use:     "review",
	GroupID: "views",
	Short:   "Weekly review: seeds, stale work, blocks, recent blooms",
	Run: func(cmd *cobra.Command, args []string) {
		staleDays, _ := cmd.Flags().GetInt("stale-days")
		now := time.Now()
		report, err := store.Review(rootCtx, now.AddDate(0, 0, -staleDays), now.AddDate(0, 0, -7))
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(report)
			return
		}

		fmt.Println(ui.RenderHeader("seeds to process"))
		if len(report.Seeds) == 0 {
			fmt.Println(ui.RenderGood("  inbox zero"))
		}
		for _, bud := range report.Seeds {
			fmt.Println("  " + formatBudLine(bud))
		}

		if len(report.StaleBuds) > 0 {
			fmt.Println(ui.RenderHeader(fmt.Sprintf("stale (budding, untouched %dd+)", staleDays)))
			for _, bud := range report.StaleBuds {
				fmt.Println("  " + formatBudLine(bud))
			}
		}

		if report.BlockedCount > 0 {
			fmt.Printf("\n%s %d %s waiting on blockers (gv blocked)\n",
				ui.RenderWarn("blocked:"), report.BlockedCount, ui.Pluralize(report.BlockedCount, "bud"))
		}

		if len(report.BranchProgress) > 0 {
			fmt.Println(ui.RenderHeader("active branches"))
			for _, bp := range report.BranchProgress {
				fmt.Printf("  %s  %s  %d/%d bloomed, %d budding\n",
					ui.RenderAccent(displayID(bp.Branch.ID)), ui.Truncate(bp.Branch.Title, 40),
					bp.Bloomed, bp.Total, bp.Budding)
			}
		}

		fmt.Println(ui.RenderHeader("bloomed this week"))
		if len(report.RecentBlooms) == 0 {
			fmt.Println(ui.RenderMuted("  nothing yet"))
		}
		for _, bud := range report.RecentBlooms {
			fmt.Println("  " + formatBudLine(bud))
		}
	},
}

var activityCmd = &cobra.Command{
	Use:     "activity",
	GroupID: "views",
	Short:   "Show the activity log",
	Run: func(cmd *cobra.Command, args []string) {
		filter := types.EventFilter{}
		if kind, _ := cmd.Flags().GetString("type"); kind != "" {
			filter.ItemType = types.ItemType(kind)
			id, _ := cmd.Flags().GetInt64("id")
			filter.ItemID = id
		}
		if e, _ := cmd.Flags().GetString("event"); e != "" {
			filter.EventType = types.EventType(e)
		}
		if s, _ := cmd.Flags().GetString("since"); s != "" {
			t, err := parseWhen(s)
			if err != nil {
				FatalError("invalid --since: %v", err)
			}
			filter.Since = &t
		}
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		events, err := store.GetEvents(rootCtx, filter)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(events)
			return
		}
		if len(events) == 0 {
			fmt.Println("No activity.")
			return
		}
		now := time.Now()
		for _, e := range events {
			fmt.Printf("%s  %-14s  %s %s  %s\n",
				ui.RenderMuted(timeparsing.FormatAge(e.CreatedAt, now)),
				e.EventType, e.ItemType, ui.RenderAccent(displayID(e.ItemID)),
				ui.Truncate(e.Content, 60))
		}
	},
}

func init() {
	overviewCmd.Flags().Bool("no-pager", false, "Never pipe output through a pager")
	reviewCmd.Flags().Int("stale-days", 7, "Days of silence before budding work counts as stale")

	activityCmd.Flags().String("type", "", "Filter by item type (grove|trunk|branch|bud)")
	activityCmd.Flags().Int64("id", 0, "Filter by item id (with --type)")
	activityCmd.Flags().String("event", "", "Filter by event type")
	activityCmd.Flags().String("since", "", "Only events after this time (-2d, 2025-01-01)")
	activityCmd.Flags().IntP("limit", "n", 50, "Maximum events")

	rootCmd.AddCommand(overviewCmd, statsCmd, reviewCmd, activityCmd)
}
