package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var branchCmd = &cobra.Command{
	Use:     "branch",
	Aliases: []string{"br"},
	GroupID: "deps",
	Short:   "Manage branches (projects)",
}

var branchNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a branch",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b := &types.Branch{
			Title:    strings.Join(args, " "),
			Status:   types.ContainerActive,
			Priority: types.PriorityMedium,
		}
		b.Description, _ = cmd.Flags().GetString("description")
		b.DoneWhen, _ = cmd.Flags().GetString("done-when")
		b.Labels, _ = cmd.Flags().GetStringSlice("label")
		if p, _ := cmd.Flags().GetString("priority"); p != "" {
			b.Priority = types.Priority(p)
		}
		trunkID, _ := cmd.Flags().GetInt64("trunk")
		groveID, _ := cmd.Flags().GetInt64("grove")
		parentID, _ := cmd.Flags().GetInt64("parent")
		b.TrunkID = optInt64(trunkID)
		b.GroveID = optInt64(groveID)
		b.ParentID = optInt64(parentID)
		if s, _ := cmd.Flags().GetString("target"); s != "" {
			t, err := parseWhen(s)
			if err != nil {
				FatalError("invalid --target: %v", err)
			}
			b.TargetDate = &t
		}
		if err := store.CreateBranch(rootCtx, b); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(b)
			return
		}
		fmt.Printf("Created branch %s: %s\n", ui.RenderAccent(displayID(b.ID)), b.Title)
	},
}

var branchListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List branches",
	Run: func(cmd *cobra.Command, args []string) {
		trunkID, _ := cmd.Flags().GetInt64("trunk")
		all, _ := cmd.Flags().GetBool("all")
		branches, err := store.ListBranches(rootCtx, optInt64(trunkID), all)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(branches)
			return
		}
		if len(branches) == 0 {
			fmt.Println("No branches found.")
			return
		}
		for _, b := range branches {
			line := fmt.Sprintf("%s  %-9s  %s", ui.RenderAccent(displayID(b.ID)), b.Status, ui.Truncate(b.Title, 60))
			if b.BeadsRepo != "" {
				line += ui.RenderMuted("  ⇄ beads")
			}
			fmt.Println(line)
		}
	},
}

var branchShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a branch and its buds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		b, err := store.GetBranch(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		buds, err := store.ListBuds(rootCtx, types.BudFilter{BranchID: &id, IncludeDone: true})
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]interface{}{"branch": b, "buds": buds})
			return
		}
		fmt.Printf("%s  %s\n", ui.RenderAccent(displayID(b.ID)), ui.RenderHeader(b.Title))
		if b.Description != "" {
			fmt.Println(ui.WrapText(b.Description, ui.TerminalWidth(80)))
		}
		fmt.Printf("Status: %s  Priority: %s\n", b.Status, b.Priority)
		if b.DoneWhen != "" {
			fmt.Printf("Done when: %s\n", b.DoneWhen)
		}
		if b.BeadsRepo != "" {
			fmt.Printf("Beads repo: %s\n", b.BeadsRepo)
		}
		if len(buds) > 0 {
			fmt.Println(ui.RenderSeparator())
			for _, bud := range buds {
				fmt.Println(formatBudLine(bud))
			}
		}
	},
}

var branchStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set branch status (active|paused|completed|archived)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		target := types.ContainerStatus(args[1])
		b, err := store.TransitionBranch(rootCtx, id, target)
		if err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Branch %s is now %s\n", displayID(b.ID), b.Status)
	},
}

var branchSplitCmd = &cobra.Command{
	Use:   "split <id> <new-title> <bud-id>...",
	Short: "Move buds to a fresh sibling branch",
	Long:  `Creates a sibling branch under the same trunk and moves the listed buds into it. Use this to thin an overgrown branch flagged by tidy.`,
	Args:  cobra.MinimumNArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		budIDs, err := parseIDs(args[2:])
		if err != nil {
			FatalError("%v", err)
		}
		nb, err := store.SplitBranch(rootCtx, id, args[1], budIDs)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(nb)
			return
		}
		fmt.Printf("Split %d %s from %s into new branch %s: %s\n",
			len(budIDs), ui.Pluralize(len(budIDs), "bud"), displayID(id), ui.RenderAccent(displayID(nb.ID)), nb.Title)
	},
}

var branchGraftCmd = &cobra.Command{
	Use:   "graft <id>",
	Short: "Re-parent a branch onto a different trunk or branch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		trunkID, _ := cmd.Flags().GetInt64("trunk")
		parentID, _ := cmd.Flags().GetInt64("parent")
		if trunkID == 0 && parentID == 0 && !cmd.Flags().Changed("trunk") && !cmd.Flags().Changed("parent") {
			FatalErrorWithHint("nothing to graft onto", "pass --trunk or --parent (0 detaches)")
		}
		var newTrunk, newParent *int64
		if cmd.Flags().Changed("trunk") {
			newTrunk = optInt64(trunkID)
		}
		if cmd.Flags().Changed("parent") {
			newParent = optInt64(parentID)
		}
		if err := store.GraftBranch(rootCtx, id, newTrunk, newParent); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Grafted branch %s\n", displayID(id))
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a branch (buds are detached, not deleted)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.DeleteBranch(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Deleted branch %s\n", displayID(id))
	},
}

func init() {
	branchNewCmd.Flags().StringP("description", "d", "", "Description")
	branchNewCmd.Flags().StringP("priority", "p", "", "Priority")
	branchNewCmd.Flags().Int64("trunk", 0, "Owning trunk")
	branchNewCmd.Flags().Int64("grove", 0, "Owning grove")
	branchNewCmd.Flags().Int64("parent", 0, "Parent branch")
	branchNewCmd.Flags().String("done-when", "", "Completion criterion")
	branchNewCmd.Flags().StringSlice("label", nil, "Labels")
	branchNewCmd.Flags().String("target", "", "Target date")

	branchListCmd.Flags().Int64("trunk", 0, "Filter by trunk")
	branchListCmd.Flags().BoolP("all", "a", false, "Include completed and archived")

	branchGraftCmd.Flags().Int64("trunk", 0, "New trunk (0 detaches)")
	branchGraftCmd.Flags().Int64("parent", 0, "New parent branch (0 detaches)")

	branchCmd.AddCommand(branchNewCmd, branchListCmd, branchShowCmd, branchStatusCmd,
		branchSplitCmd, branchGraftCmd, branchDeleteCmd)
	rootCmd.AddCommand(branchCmd)
}
