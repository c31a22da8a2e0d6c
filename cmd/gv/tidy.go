package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/telemetry"
	"github.com/grovecli/grove/internal/tidy"
	"github.com/grovecli/grove/internal/ui"
)

var tidyCmd = &cobra.Command{
	Use:     "tidy",
	GroupID: "views",
	Short:   "Scan the hierarchy for overgrown containers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, span := telemetry.StartSpan(rootCtx, "tidy.scan")
		report, err := tidy.NewScanner(store).Scan(ctx)
		telemetry.EndSpan(span, err)
		if err != nil {
			FatalError("%v", err)
		}
		counters.TidyFindings(ctx, int64(len(report.Findings)))

		if jsonOutput {
			outputJSON(report)
			return
		}
		if len(report.Findings) == 0 {
			fmt.Println(ui.RenderGood("Everything is tidy."))
			return
		}
		for _, f := range report.Findings {
			fmt.Printf("%s %s %s: %s has %d (threshold %d)\n",
				ui.RenderWarn("overgrown"), f.ItemType, ui.RenderAccent(displayID(f.ItemID)),
				ui.Truncate(f.Title, 50), f.Count, f.Threshold)
			if f.Suggestion != "" {
				fmt.Printf("  %s\n", ui.RenderMuted(f.Suggestion))
			}
		}
		fmt.Printf("\n%d %s\n", len(report.Findings), ui.Pluralize(len(report.Findings), "finding"))
	},
}

var tidyConfigCmd = &cobra.Command{
	Use:   "config [option] [value]",
	Short: "Show or set tidy thresholds",
	Long:  `With no arguments, prints the effective thresholds. With an option name (branches_per_trunk, buds_per_branch, fruits_per_trunk) and a value, stores an override in the database.`,
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		switch len(args) {
		case 0:
			cfg, err := store.GetTidyConfig(rootCtx)
			if err != nil {
				FatalError("%v", err)
			}
			thresholds := tidy.FromConfig(cfg)
			if jsonOutput {
				outputJSON(thresholds)
				return
			}
			fmt.Printf("%s = %d\n", tidy.OptionBranchesPerTrunk, thresholds.BranchesPerTrunk)
			fmt.Printf("%s = %d\n", tidy.OptionBudsPerBranch, thresholds.BudsPerBranch)
			fmt.Printf("%s = %d\n", tidy.OptionFruitsPerTrunk, thresholds.FruitsPerTrunk)
		case 1:
			FatalErrorWithHint("missing value", "gv tidy config buds_per_branch 15")
		case 2:
			value, err := strconv.Atoi(args[1])
			if err != nil || value < 1 {
				FatalError("invalid threshold %q (want a positive integer)", args[1])
			}
			if err := store.SetTidyOption(rootCtx, args[0], value); err != nil {
				FatalError("%v", err)
			}
			fmt.Printf("%s = %d\n", args[0], value)
		}
	},
}

func init() {
	tidyCmd.AddCommand(tidyConfigCmd)
	rootCmd.AddCommand(tidyCmd)
}
