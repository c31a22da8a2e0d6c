package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/beads"
	"github.com/grovecli/grove/internal/debug"
	"github.com/grovecli/grove/internal/telemetry"
	"github.com/grovecli/grove/internal/ui"
)

var beadsCmd = &cobra.Command{
	Use:     "beads",
	Aliases: []string{"bd"},
	GroupID: "signals",
	Short:   "Sync branches with external beads repos",
}

// newSyncer builds a Syncer whose runner invokes the configured tracker
// binary (beads.command, default bd).
func newSyncer() *beads.Syncer {
	command := cfg.Beads.Command
	if command == "" {
		command = "bd"
	}
	runner := func(ctx context.Context, dir, name string, args ...string) (string, error) {
		return beads.ExecRunner(ctx, dir, command, args...)
	}
	return beads.NewSyncer(store, runner)
}

var beadsLinkCmd = &cobra.Command{
	Use:   "link <branch-id> [repo-path]",
	Short: "Link a branch to a beads repo",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		repo := cfg.Beads.DefaultRepo
		if len(args) == 2 {
			repo = args[1]
		}
		if repo == "" {
			FatalErrorWithHint("no repo path given", "pass a path or set beads.default-repo in config")
		}
		abs, err := filepath.Abs(repo)
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.LinkBeadsRepo(rootCtx, id, abs); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Linked branch %s to %s\n", displayID(id), abs)
	},
}

var beadsUnlinkCmd = &cobra.Command{
	Use:   "unlink <branch-id>",
	Short: "Unlink a branch from its beads repo",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.UnlinkBeadsRepo(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Unlinked branch %s\n", displayID(id))
	},
}

var beadsPullCmd = &cobra.Command{
	Use:   "pull <branch-id>",
	Short: "Import beads from the linked repo as buds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		all, _ := cmd.Flags().GetBool("all")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		result, err := newSyncer().Pull(rootCtx, id, beads.PullOptions{All: all, DryRun: dryRun})
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(result)
			return
		}
		if dryRun {
			for _, bead := range result.WouldImport {
				fmt.Printf("would import %s: %s\n", bead.ID, bead.Title)
			}
			fmt.Printf("%d to import, %d already linked\n", len(result.WouldImport), result.Skipped)
			return
		}
		for _, bud := range result.Imported {
			fmt.Printf("imported %s ← %s: %s\n", ui.RenderAccent(displayID(bud.ID)), bud.BeadsID, bud.Title)
		}
		fmt.Printf("%d imported, %d already linked\n", len(result.Imported), result.Skipped)
	},
}

var beadsPushCmd = &cobra.Command{
	Use:   "push <branch-id> [bud-id]...",
	Short: "Export unlinked buds to the tracker via bd create",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		budIDs, err := parseIDs(args[1:])
		if err != nil {
			FatalError("%v", err)
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		result, err := newSyncer().Push(rootCtx, id, budIDs, dryRun)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(result)
			return
		}
		if dryRun {
			for _, c := range result.Commands {
				fmt.Println(strings.Join(c, " "))
			}
			return
		}
		for _, budID := range result.Pushed {
			fmt.Printf("pushed %s\n", displayID(budID))
		}
		for budID, pushErr := range result.Errors {
			WarnError("push %s: %v", displayID(budID), pushErr)
		}
		for _, budID := range result.Missing {
			WarnError("%s not found on this branch", displayID(budID))
		}
		fmt.Printf("%d pushed, %d already linked\n", len(result.Pushed), result.Skipped)
	},
}

var beadsSyncCmd = &cobra.Command{
	Use:   "sync <branch-id>",
	Short: "Pull new beads and follow status changes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		ctx, span := telemetry.StartSpan(rootCtx, "beads.sync")
		result, err := newSyncer().Sync(ctx, id, dryRun)
		telemetry.EndSpan(span, err)
		if err != nil {
			FatalError("%v", err)
		}
		printSyncResult(result, dryRun)
	},
}

func printSyncResult(result *beads.SyncResult, dryRun bool) {
	if jsonOutput {
		outputJSON(result)
		return
	}
	if dryRun {
		for _, bead := range result.WouldPull {
			fmt.Printf("would import %s: %s\n", bead.ID, bead.Title)
		}
		for _, u := range result.WouldUpdate {
			fmt.Printf("would update %s: %s → %s\n", displayID(u.BudID), u.From, u.To)
		}
	} else {
		for _, bud := range result.Pulled {
			fmt.Printf("imported %s ← %s: %s\n", ui.RenderAccent(displayID(bud.ID)), bud.BeadsID, bud.Title)
		}
		for _, u := range result.Updated {
			fmt.Printf("%s: %s → %s\n", displayID(u.BudID), ui.RenderStatus(u.From), ui.RenderStatus(u.To))
		}
	}
	if len(result.PushCandidates) > 0 {
		fmt.Printf("\n%d unlinked %s could be pushed:\n", len(result.PushCandidates), ui.Pluralize(len(result.PushCandidates), "bud"))
		for _, bud := range result.PushCandidates {
			fmt.Printf("  %s\n", formatBudLine(bud))
		}
	}
}

var beadsStatusCmd = &cobra.Command{
	Use:   "status <branch-id>",
	Short: "Show sync health for a linked branch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		status, err := newSyncer().Status(rootCtx, id)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(status)
			return
		}
		fmt.Printf("Repo: %s\n", status.Dir)
		fmt.Printf("Beads: %d open / %d total\n", status.OpenBeads, status.TotalBeads)
		fmt.Printf("Buds: %d total, %d linked, %d unlinked workable\n", status.TotalBuds, status.LinkedBuds, status.UnlinkedBuds)
		if len(status.StaleBuds) > 0 {
			fmt.Printf("%s %d linked %s synced more than a day ago\n", ui.RenderWarn("stale:"), len(status.StaleBuds), ui.Pluralize(len(status.StaleBuds), "bud"))
		}
		if len(status.OrphanedBuds) > 0 {
			fmt.Printf("%s %d %s reference beads no longer in the repo\n", ui.RenderBad("orphaned:"), len(status.OrphanedBuds), ui.Pluralize(len(status.OrphanedBuds), "bud"))
		}
		if len(status.Unimported) > 0 {
			fmt.Printf("%d open %s not yet imported (gv beads pull)\n", len(status.Unimported), ui.Pluralize(len(status.Unimported), "bead"))
		}
	},
}

var beadsWatchCmd = &cobra.Command{
	Use:   "watch <branch-id>",
	Short: "Watch the linked repo and sync on changes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		fmt.Println("Watching for changes (Ctrl-C to stop)...")
		err = newSyncer().Watch(rootCtx, id, func(result *beads.SyncResult, err error) {
			if err != nil {
				WarnError("sync: %v", err)
				return
			}
			if len(result.Pulled) == 0 && len(result.Updated) == 0 {
				debug.Logf("sync: nothing changed")
				return
			}
			printSyncResult(result, false)
		})
		if err != nil && rootCtx.Err() == nil {
			FatalError("%v", err)
		}
	},
}

func init() {
	beadsPullCmd.Flags().BoolP("all", "a", false, "Import finished beads too")
	beadsPullCmd.Flags().BoolP("dry-run", "n", false, "Show what would be imported")
	beadsPushCmd.Flags().BoolP("dry-run", "n", false, "Show the commands without running them")
	beadsSyncCmd.Flags().BoolP("dry-run", "n", false, "Show what would change")

	beadsCmd.AddCommand(beadsLinkCmd, beadsUnlinkCmd, beadsPullCmd, beadsPushCmd,
		beadsSyncCmd, beadsStatusCmd, beadsWatchCmd)
	rootCmd.AddCommand(beadsCmd)
}
