package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/deps"
	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

const defaultTreeDepth = 50

var blockCmd = &cobra.Command{
	Use:     "block <id> <blocker>...",
	Aliases: []string{"dep"},
	GroupID: "deps",
	Short:   "Record that a bud is blocked by others",
	Long:    `Adds dependency edges: the first bud depends on each of the rest. Use --type related or --type subtask for non-gating edges.`,
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := parseIDs(args)
		if err != nil {
			FatalError("%v", err)
		}
		depType := types.DepBlocks
		if s, _ := cmd.Flags().GetString("type"); s != "" {
			depType = types.DependencyType(s)
		}
		budID := ids[0]
		for _, blockerID := range ids[1:] {
			dep := &types.Dependency{BudID: budID, DependsOnID: blockerID, Type: depType}
			if err := store.AddDependency(rootCtx, dep); err != nil {
				FatalError("%v", err)
			}
			counters.Edge(rootCtx, string(depType))
			fmt.Printf("%s now depends on %s (%s)\n", displayID(budID), displayID(blockerID), depType)
		}
	},
}

var unblockCmd = &cobra.Command{
	Use:     "unblock <id> <blocker>",
	GroupID: "deps",
	Short:   "Remove a dependency edge",
	Long:    `Removes the edge between two buds. Removing an edge that does not exist succeeds silently.`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := parseIDs(args)
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.RemoveDependency(rootCtx, ids[0], ids[1]); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("%s no longer depends on %s\n", displayID(ids[0]), displayID(ids[1]))
	},
}

var chainCmd = &cobra.Command{
	Use:     "chain <id> <id>...",
	GroupID: "deps",
	Short:   "Chain buds so each blocks the next",
	Long:    `Creates blocks edges left to right: the first bud must finish before the second, the second before the third, and so on. The whole chain is atomic.`,
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := parseIDs(args)
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.Chain(rootCtx, ids); err != nil {
			FatalError("%v", err)
		}
		for range ids[1:] {
			counters.Edge(rootCtx, string(types.DepBlocks))
		}
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = displayID(id)
		}
		fmt.Printf("Chained: %s\n", strings.Join(parts, " → "))
	},
}

var blockedCmd = &cobra.Command{
	Use:     "blocked",
	GroupID: "views",
	Short:   "List buds waiting on unfinished blockers",
	Run: func(cmd *cobra.Command, args []string) {
		blocked, err := store.BlockedBuds(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(blocked)
			return
		}
		if len(blocked) == 0 {
			fmt.Println("Nothing is blocked.")
			return
		}
		for _, b := range blocked {
			fmt.Println(formatBudLine(&b.Bud))
			for _, blocker := range b.BlockedBy {
				fmt.Printf("    %s %s\n", ui.RenderMuted("waiting on"), formatBudLine(blocker))
			}
		}
	},
}

var treeCmd = &cobra.Command{
	Use:     "tree <id>",
	Aliases: []string{"graph"},
	GroupID: "deps",
	Short:   "Show the blocker tree for a bud",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		depth, _ := cmd.Flags().GetInt("depth")
		up, _ := cmd.Flags().GetBool("up")

		var tree []*deps.TreeNode
		if up {
			tree, err = deps.BuildDependentTree(rootCtx, store, id, depth)
		} else {
			tree, err = deps.BuildBlockerTree(rootCtx, store, id, depth)
		}
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(tree)
			return
		}

		r := deps.NewTreeRenderer(depth)
		r.MutedFunc = ui.RenderMuted
		r.WarnFunc = ui.RenderWarn
		r.StyleFunc = func(s types.BudStatus, text string) string { return text }
		r.ActionableBadge = ui.RenderGood
		r.RootActionable = isActionable(id)
		r.RenderTree(os.Stdout, tree)
	},
}

// isActionable reports whether a bud is in the current actionable set.
func isActionable(id int64) bool {
	buds, err := store.ActionableBuds(rootCtx)
	if err != nil {
		return false
	}
	for _, b := range buds {
		if b.ID == id {
			return true
		}
	}
	return false
}

var whyCmd = &cobra.Command{
	Use:     "why <id>",
	GroupID: "views",
	Short:   "Trace a bud upward through branch, trunk, and grove",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		trace, err := store.Why(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(trace)
			return
		}
		fmt.Printf("%s %s\n", ui.RenderAccent(displayID(trace.Bud.ID)), trace.Bud.Title)
		if trace.Branch != nil {
			fmt.Printf("  └─ branch %s %s\n", displayID(trace.Branch.ID), trace.Branch.Title)
		}
		if trace.Trunk != nil {
			via := ""
			if trace.TrunkDirect {
				via = ui.RenderMuted(" (direct link)")
			}
			fmt.Printf("     └─ trunk %s %s%s\n", displayID(trace.Trunk.ID), trace.Trunk.Title, via)
		}
		if trace.Grove != nil {
			via := ""
			if trace.GroveDirect {
				via = ui.RenderMuted(" (direct link)")
			}
			fmt.Printf("        └─ grove %s %s%s\n", displayID(trace.Grove.ID), trace.Grove.Name, via)
		}
		if trace.Branch == nil && trace.Trunk == nil && trace.Grove == nil {
			fmt.Println(ui.RenderMuted("  floating free: no branch, trunk, or grove"))
		}
	},
}

func init() {
	blockCmd.Flags().StringP("type", "t", "", "Edge type (blocks|related|subtask), default blocks")
	treeCmd.Flags().Int("depth", defaultTreeDepth, "Maximum tree depth")
	treeCmd.Flags().Bool("up", false, "Walk dependents instead of blockers")

	rootCmd.AddCommand(blockCmd, unblockCmd, chainCmd, blockedCmd, treeCmd, whyCmd)
}
