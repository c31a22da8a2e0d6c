package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/reconcile"
	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var pollenCmd = &cobra.Command{
	Use:     "pollen",
	GroupID: "signals",
	Short:   "Manage pollen (candidate buds from external sources)",
}

var pollenAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Record a pollen candidate",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := &types.Pollen{
			Title:  strings.Join(args, " "),
			Status: types.PollenPending,
		}
		p.Description, _ = cmd.Flags().GetString("description")
		p.Source, _ = cmd.Flags().GetString("source")
		p.Confidence, _ = cmd.Flags().GetFloat64("confidence")
		if err := store.CreatePollen(rootCtx, p); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(p)
			return
		}
		fmt.Printf("Pollen %s recorded (confidence %.2f)\n", ui.RenderAccent(displayID(p.ID)), p.Confidence)
	},
}

var pollenListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List pollen records",
	Run: func(cmd *cobra.Command, args []string) {
		status := types.PollenPending
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			status = types.PollenStatus(s)
		}
		records, err := store.ListPollen(rootCtx, status)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("No pollen found.")
			return
		}
		for _, p := range records {
			line := fmt.Sprintf("%s  %.2f  %-8s  %s", ui.RenderAccent(displayID(p.ID)), p.Confidence, p.Status, ui.Truncate(p.Title, 55))
			if p.Source != "" {
				line += ui.RenderMuted("  from " + p.Source)
			}
			fmt.Println(line)
		}
	},
}

var pollenSeedCmd = &cobra.Command{
	Use:   "seed <id>...",
	Short: "Accept pollen and grow it into a bud",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := parseIDs(args)
		if err != nil {
			FatalError("%v", err)
		}
		branchID, _ := cmd.Flags().GetInt64("branch")
		for _, id := range ids {
			var bud *types.Bud
			if branchID != 0 {
				bud = &types.Bud{BranchID: optInt64(branchID)}
			}
			created, err := store.SeedPollen(rootCtx, id, bud)
			if err != nil {
				FatalError("%v", err)
			}
			counters.PollenSeeded(rootCtx, 1)
			if jsonOutput {
				outputJSON(created)
				continue
			}
			fmt.Printf("Pollen %s → bud %s: %s\n", displayID(id), ui.RenderAccent(displayID(created.ID)), created.Title)
		}
	},
}

var pollenRejectCmd = &cobra.Command{
	Use:   "reject <id> [reason]",
	Short: "Reject pollen",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		reason := strings.Join(args[1:], " ")
		if err := store.RejectPollen(rootCtx, id, reason); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Rejected pollen %s\n", displayID(id))
	},
}

var pollenTriageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Auto-seed pending pollen above a confidence threshold",
	Run: func(cmd *cobra.Command, args []string) {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		seeded, err := reconcile.AutoTriage(rootCtx, store, threshold)
		if err != nil {
			FatalError("%v", err)
		}
		counters.PollenSeeded(rootCtx, int64(len(seeded)))
		if jsonOutput {
			outputJSON(seeded)
			return
		}
		if len(seeded) == 0 {
			fmt.Println("Nothing above the threshold; remaining pollen stays pending.")
			return
		}
		for _, bud := range seeded {
			fmt.Printf("seeded %s: %s\n", ui.RenderAccent(displayID(bud.ID)), bud.Title)
		}
		fmt.Printf("%d seeded\n", len(seeded))
	},
}

func init() {
	pollenAddCmd.Flags().StringP("description", "d", "", "Description")
	pollenAddCmd.Flags().String("source", "", "Where the candidate came from")
	pollenAddCmd.Flags().Float64("confidence", 0.5, "Confidence in [0,1]")

	pollenListCmd.Flags().StringP("status", "s", "", "Filter by status (pending|seeded|rejected), default pending")
	pollenSeedCmd.Flags().Int64("branch", 0, "File the new bud under a branch")
	pollenTriageCmd.Flags().Float64("threshold", 0.8, "Minimum confidence to auto-seed")

	pollenCmd.AddCommand(pollenAddCmd, pollenListCmd, pollenSeedCmd, pollenRejectCmd, pollenTriageCmd)
	rootCmd.AddCommand(pollenCmd)
}
