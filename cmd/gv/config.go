package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Print the effective configuration",
	Long:    `Shows the merged configuration: built-in defaults, config.yaml from the grove config directory, and GROVE_* environment overrides.`,
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(cfg)
			return
		}
		out, err := cfg.Dump()
		if err != nil {
			FatalError("%v", err)
		}
		dir, _ := config.Dir()
		fmt.Printf("# config dir: %s\n%s", dir, out)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
