package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/types"
	"github.com/grovecli/grove/internal/ui"
)

var groveCmd = &cobra.Command{
	Use:     "grove",
	GroupID: "deps",
	Short:   "Manage groves (life domains)",
}

var groveNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a grove",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g := &types.Grove{
			Name:     strings.Join(args, " "),
			IsActive: true,
		}
		g.Description, _ = cmd.Flags().GetString("description")
		g.Color, _ = cmd.Flags().GetString("color")
		g.Icon, _ = cmd.Flags().GetString("icon")
		g.SortOrder, _ = cmd.Flags().GetInt("sort")
		if err := store.CreateGrove(rootCtx, g); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(g)
			return
		}
		fmt.Printf("Created grove %s: %s\n", ui.RenderAccent(displayID(g.ID)), g.Name)
	},
}

var groveListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groves",
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		groves, err := store.ListGroves(rootCtx, all)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(groves)
			return
		}
		if len(groves) == 0 {
			fmt.Println("No groves found.")
			return
		}
		for _, g := range groves {
			line := fmt.Sprintf("%s  %s", ui.RenderAccent(displayID(g.ID)), g.Name)
			if g.Icon != "" {
				line = g.Icon + " " + line
			}
			if !g.IsActive {
				line += ui.RenderMuted("  (archived)")
			}
			fmt.Println(line)
		}
	},
}

var groveArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a grove (kept, hidden from default lists)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.ArchiveGrove(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Archived grove %s\n", displayID(id))
	},
}

var groveDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a grove (trunks and branches are detached)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		if err := store.DeleteGrove(rootCtx, id); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("Deleted grove %s\n", displayID(id))
	},
}

func init() {
	groveNewCmd.Flags().StringP("description", "d", "", "Description")
	groveNewCmd.Flags().String("color", "", "Hex color, e.g. #86b300")
	groveNewCmd.Flags().String("icon", "", "Icon or emoji")
	groveNewCmd.Flags().Int("sort", 0, "Sort order")

	groveListCmd.Flags().BoolP("all", "a", false, "Include archived groves")

	groveCmd.AddCommand(groveNewCmd, groveListCmd, groveArchiveCmd, groveDeleteCmd)
	rootCmd.AddCommand(groveCmd)
}
