package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	GroupID: "buds",
	Short:   "Track recurring practices",
}

var habitAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a habit",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h := &types.Habit{
			Title:     strings.Join(args, " "),
			Frequency: types.FreqDaily,
			IsActive:  true,
		}
		if f, _ := cmd.Flags().GetString("frequency"); f != "" {
			h.Frequency = types.HabitFrequency(f)
		}
		groveID, _ := cmd.Flags().GetInt64("grove")
		h.GroveID = optInt64(groveID)
		if err := store.CreateHabit(rootCtx, h); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(h)
			return
		}
		fmt.Printf("Created habit %s: %s (%s)\n", ui.RenderAccent(displayID(h.ID)), h.Title, h.Frequency)
	},
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits with this week's completions",
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		habits, err := store.ListHabits(rootCtx, all)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(habits)
			return
		}
		if len(habits) == 0 {
			fmt.Println("No habits found.")
			return
		}
		weekAgo := time.Now().AddDate(0, 0, -7)
		for _, h := range habits {
			logs, err := store.GetHabitLog(rootCtx, h.ID, weekAgo)
			if err != nil {
				FatalError("%v", err)
			}
			line := fmt.Sprintf("%s  %-8s  %s  %d this week",
				ui.RenderAccent(displayID(h.ID)), h.Frequency, ui.Truncate(h.Title, 45), len(logs))
			if !h.IsActive {
				line += ui.RenderMuted("  (paused)")
			}
			fmt.Println(line)
		}
	},
}

var habitLogCmd = &cobra.Command{
	Use:     "log <id> [notes]",
	Aliases: []string{"done"},
	Short:   "Record a habit completion",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		entry, err := store.LogHabit(rootCtx, id, strings.Join(args[1:], " "))
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(entry)
			return
		}
		fmt.Printf("Logged habit %s\n", displayID(id))
	},
}

var habitPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a habit",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setHabitActive(args[0], false) },
}

var habitResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused habit",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setHabitActive(args[0], true) },
}

func setHabitActive(arg string, active bool) {
	id, err := parseID(arg)
	if err != nil {
		FatalError("%v", err)
	}
	if err := store.SetHabitActive(rootCtx, id, active); err != nil {
		FatalError("%v", err)
	}
	verb := "Paused"
	if active {
		verb = "Resumed"
	}
	fmt.Printf("%s habit %s\n", verb, displayID(id))
}

func init() {
	habitAddCmd.Flags().StringP("frequency", "f", "", "Frequency (daily|weekly|3x_week), default daily")
	habitAddCmd.Flags().Int64("grove", 0, "Owning grove")
	habitListCmd.Flags().BoolP("all", "a", false, "Include paused habits")

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitLogCmd, habitPauseCmd, habitResumeCmd)
	rootCmd.AddCommand(habitCmd)
}
