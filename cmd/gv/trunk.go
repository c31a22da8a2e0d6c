package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var trunkCmd = &cobra.Command{
	Use:     "trunk",
	GroupID: "deps",
	Short:   "Manage trunks (strategic initiatives)",
}

var trunkNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a trunk",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := &types.Trunk{
			Title:    strings.Join(args, " "),
			Status:   types.ContainerActive,
			Priority: types.PriorityMedium,
		}
		t.Description, _ = cmd.Flags().GetString("description")
		t.Labels, _ = cmd.Flags().GetStringSlice("label")
		if p, _ := cmd.Flags().GetString("priority"); p != "" {
			t.Priority = types.Priority(p)
		}
		groveID, _ := cmd.Flags().GetInt64("grove")
		parentID, _ := cmd.Flags().GetInt64("parent")
		t.GroveID = optInt64(groveID)
		t.ParentID = optInt64(parentID)
		if s, _ := cmd.Flags().GetString("target"); s != "" {
			when, err := parseWhen(s)
			if err != nil {
				FatalError("invalid --target: %v", err)
			}
			t.TargetDate = &when
		}
		if err := store.CreateTrunk(rootCtx, t); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(t)
			return
		}
		fmt.Printf("Created trunk %s: %s\n", ui.RenderAccent(displayID(t.ID)), t.Title)
	},
}

var trunkListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List trunks",
	Run: func(cmd *cobra.Command, args []string) {
		groveID, _ := cmd.Flags().GetInt64("grove")
		all, _ := cmd.Flags().GetBool("all")
		trunks, err := store.ListTrunks(rootCtx, optInt64(groveID), all)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(trunks)
			return
		}
		if len(trunks) == 0 {
			fmt.Println("No trunks found.")
			return
		}
		for _, t := range trunks {
			fmt.Printf("%s  %-9s  %s\n", ui.RenderAccent(displayID(t.ID)), t.Status, ui.Truncate(t.Title, 60))
		}
	},
}

var trunkShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a trunk with its fruits and branches",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		t, err := store.GetTrunk(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		fruits, err := store.ListFruits(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		branches, err := store.ListBranches(rootCtx, &id, true)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]interface{}{"trunk": t, "fruits": fruits, "branches": branches})
			return
		}
		fmt.Printf("%s  %s\n", ui.RenderAccent(displayID(t.ID)), ui.RenderHeader(t.Title))
		if t.Description != "" {
			fmt.Println(ui.WrapText(t.Description, ui.TerminalWidth(80)))
		}
		fmt.Printf("Status: %s  Priority: %s\n", t.Status, t.Priority)
		if len(fruits) > 0 {
			fmt.Println("\nFruits:")
			for _, f := range fruits {
				fmt.Printf("  %s %s\n", ui.RenderAccent(displayID(f.ID)), formatFruitProgress(f))
			}
		}
		if len(branches) > 0 {
			fmt.Println("\nBranches:")
			for _, b := range branches {
				fmt.Printf("  %s  %-9s  %s\n", ui.RenderAccent(displayID(b.ID)), b.Status, ui.Truncate(b.Title, 58))
			}
		}
	},
}

var trunkStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set trunk status (active|paused|completed|archived)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		t, err := store.TransitionTrunk(rootCtx, id, types.ContainerStatus(args[1]))
		if err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Trunk %s is now %s\n", displayID(t.ID), t.Status)
	},
}

var trunkGraftCmd = &cobra.Command{
	Use:   "graft <id>",
	Short: "Re-parent a trunk onto a different grove or trunk",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if !cmd.Flags().Changed("grove") && !cmd.Flags().Changed("parent") {
			FatalErrorWithHint("nothing to graft onto", "pass --grove or --parent (0 detaches)")
		}
		var newGrove, newParent *int64
		if cmd.Flags().Changed("grove") {
			groveID, _ := cmd.Flags().GetInt64("grove")
			newGrove = optInt64(groveID)
		}
		if cmd.Flags().Changed("parent") {
			parentID, _ := cmd.Flags().GetInt64("parent")
			newParent = optInt64(parentID)
		}
		if err := store.GraftTrunk(rootCtx, id, newGrove, newParent); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Grafted trunk %s\n", displayID(id))
	},
}

var trunkDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a trunk (fruits cascade, branches detach)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.DeleteTrunk(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Deleted trunk %s\n", displayID(id))
	},
}

var fruitCmd = &cobra.Command{
	Use:     "fruit",
	GroupID: "deps",
	Short:   "Manage fruits (measurable outcomes on trunks)",
}

var fruitAddCmd = &cobra.Command{
	Use:   "add <trunk-id> <description>",
	Short: "Add a fruit to a trunk",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		trunkID, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		f := &types.Fruit{
			TrunkID:     trunkID,
			Description: strings.Join(args[1:], " "),
			Status:      types.FruitActive,
		}
		if target, _ := cmd.Flags().GetInt("target"); target > 0 {
			f.TargetValue = &target
		}
		f.Unit, _ = cmd.Flags().GetString("unit")
		if err := store.CreateFruit(rootCtx, f); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(f)
			return
		}
		fmt.Printf("Added fruit %s to trunk %s\n", ui.RenderAccent(displayID(f.ID)), displayID(trunkID))
	},
}

var fruitCheckCmd = &cobra.Command{
	Use:   "check <id> <value>",
	Short: "Record progress on a fruit",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		var value int
		if _, err := fmt.Sscanf(args[1], "%d", &value); err != nil {
			FatalError("invalid value %q", args[1])
		}
		f, err := store.UpdateFruitProgress(rootCtx, id, value)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(f)
			return
		}
		fmt.Printf("Fruit %s: %s\n", displayID(f.ID), formatFruitProgress(f))
	},
}

var fruitStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set fruit status (active|completed|missed|abandoned)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		f, err := store.TransitionFruit(rootCtx, id, types.FruitStatus(args[1]))
		if err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Fruit %s is now %s\n", displayID(f.ID), f.Status)
	},
}

var fruitListCmd = &cobra.Command{
	Use:     "list <trunk-id>",
	Aliases: []string{"ls"},
	Short:   "List a trunk's fruits",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		trunkID, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		fruits, err := store.ListFruits(rootCtx, trunkID)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(fruits)
			return
		}
		if len(fruits) == 0 {
			fmt.Println("No fruits on this trunk.")
			return
		}
		for _, f := range fruits {
			fmt.Printf("%s  %-9s  %s\n", ui.RenderAccent(displayID(f.ID)), f.Status, formatFruitProgress(f))
		}
	},
}

func formatFruitProgress(f *types.Fruit) string {
	if f.TargetValue != nil && *f.TargetValue > 0 {
		pct := 100 * f.CurrentValue / *f.TargetValue
		return fmt.Sprintf("%s (%d/%d %s, %d%%)", f.Description, f.CurrentValue, *f.TargetValue, f.Unit, pct)
	}
	if f.CurrentValue > 0 {
		return fmt.Sprintf("%s (%d %s)", f.Description, f.CurrentValue, f.Unit)
	}
	return f.Description
}

func init() {
	trunkNewCmd.Flags().StringP("description", "d", "", "Description")
	trunkNewCmd.Flags().StringP("priority", "p", "", "Priority")
	trunkNewCmd.Flags().Int64("grove", 0, "Owning grove")
	trunkNewCmd.Flags().Int64("parent", 0, "Parent trunk")
	trunkNewCmd.Flags().StringSlice("label", nil, "Labels")
	trunkNewCmd.Flags().String("target", "", "Target date")

	trunkListCmd.Flags().Int64("grove", 0, "Filter by grove")
	trunkListCmd.Flags().BoolP("all", "a", false, "Include completed and archived")

	trunkGraftCmd.Flags().Int64("grove", 0, "New grove (0 detaches)")
	trunkGraftCmd.Flags().Int64("parent", 0, "New parent trunk (0 detaches)")

	fruitAddCmd.Flags().Int("target", 0, "Target value")
	fruitAddCmd.Flags().String("unit", "", "Unit of measure")

	trunkCmd.AddCommand(trunkNewCmd, trunkListCmd, trunkShowCmd, trunkStatusCmd, trunkGraftCmd, trunkDeleteCmd)
	fruitCmd.AddCommand(fruitAddCmd, fruitCheckCmd, fruitStatusCmd, fruitListCmd)
	rootCmd.AddCommand(trunkCmd, fruitCmd)
}
