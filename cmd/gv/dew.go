package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/reconcile"
	"github.com/grovecli/grove/internal/telemetry"
	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var dewCmd = &cobra.Command{
	Use:     "dew",
	GroupID: "signals",
	Short:   "Manage dew (ambient, time-bounded context notes)",
}

var dewAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Record a dew note",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := &types.Dew{
			Content: strings.Join(args, " "),
			Status:  types.DewFresh,
		}
		d.Source, _ = cmd.Flags().GetString("source")
		if kind, _ := cmd.Flags().GetString("on-type"); kind != "" {
			itemType := types.ItemType(kind)
			itemID, _ := cmd.Flags().GetInt64("on")
			d.ItemType = &itemType
			d.ItemID = optInt64(itemID)
		}
		if s, _ := cmd.Flags().GetString("expires"); s != "" {
			t, err := parseWhen(s)
			if err != nil {
				FatalError("invalid --expires: %v", err)
			}
			d.ExpiresAt = &t
		}
		if err := store.CreateDew(rootCtx, d); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(d)
			return
		}
		fmt.Printf("Dew %s recorded\n", ui.RenderAccent(displayID(d.ID)))
	},
}

var dewListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List dew notes",
	Run: func(cmd *cobra.Command, args []string) {
		status := types.DewFresh
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			status = types.DewStatus(s)
		}
		records, err := store.ListDew(rootCtx, status)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("No dew found.")
			return
		}
		now := time.Now()
		for _, d := range records {
			line := fmt.Sprintf("%s  %-10s  %s", ui.RenderAccent(displayID(d.ID)), d.Status, ui.Truncate(d.Content, 55))
			if d.ExpiresAt != nil {
				if d.ExpiresAt.Before(now) {
					line += ui.RenderBad("  expired")
				} else {
					line += ui.RenderMuted("  expires " + d.ExpiresAt.Format("2006-01-02 15:04"))
				}
			}
			if d.ItemType != nil && d.ItemID != nil {
				line += ui.RenderMuted(fmt.Sprintf("  on %s %s", *d.ItemType, displayID(*d.ItemID)))
			}
			fmt.Println(line)
		}
	},
}

var dewAbsorbCmd = &cobra.Command{
	Use:   "absorb <id> <item-type> <item-id>",
	Short: "Absorb dew into a hierarchy item",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		itemType := types.ItemType(args[1])
		itemID, err := parseID(args[2])
		if err != nil {
			FatalError("%v", err)
		}
		d, err := store.AbsorbDew(rootCtx, id, itemType, itemID)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(d)
			return
		}
		fmt.Printf("Dew %s absorbed into %s %s\n", displayID(d.ID), itemType, displayID(itemID))
	},
}

var dewSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaporate expired dew",
	Long:  `Runs one sweep by default. With --daemon, keeps sweeping on an interval until interrupted; transient store errors are retried with backoff.`,
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		daemon, _ := cmd.Flags().GetBool("daemon")
		sweeper := reconcile.NewSweeper(store, interval)

		if daemon {
			fmt.Printf("Sweeping every %s (Ctrl-C to stop)...\n", interval)
			if err := sweeper.Run(rootCtx); err != nil && rootCtx.Err() == nil {
				FatalError("%v", err)
			}
			return
		}

		ctx, span := telemetry.StartSpan(rootCtx, "reconcile.sweep")
		n, err := sweeper.SweepOnce(ctx)
		telemetry.EndSpan(span, err)
		if err != nil {
			FatalError("%v", err)
		}
		counters.DewEvaporated(ctx, int64(n))
		if jsonOutput {
			outputJSON(map[string]int{"evaporated": n})
			return
		}
		fmt.Printf("Evaporated %d %s\n", n, ui.Pluralize(n, "dew note"))
	},
}

func init() {
	dewAddCmd.Flags().String("source", "", "Where the note came from")
	dewAddCmd.Flags().String("on-type", "", "Attach to item type (grove|trunk|branch|bud)")
	dewAddCmd.Flags().Int64("on", 0, "Attach to item id")
	dewAddCmd.Flags().String("expires", "", "Expiry (+2d, tomorrow); omit for eternal dew")

	dewListCmd.Flags().StringP("status", "s", "", "Filter by status (fresh|absorbed|evaporated), default fresh")

	dewSweepCmd.Flags().Duration("interval", time.Minute, "Sweep interval for --daemon")
	dewSweepCmd.Flags().Bool("daemon", false, "Keep sweeping until interrupted")

	dewCmd.AddCommand(dewAddCmd, dewListCmd, dewAbsorbCmd, dewSweepCmd)
	rootCmd.AddCommand(dewCmd)
}
