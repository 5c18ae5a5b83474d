package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	fmt.Printf("%-15s %-10s %-6s %-18s %-6s %s\n", "Source", "Kind", "Chunk", "Container", "Format", "Status")
	fmt.Println(strings.Repeat("─", 66))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		fmt.Printf("%-15s %-10s %-6d %-18s %-6s %s\n", s.Name, s.Kind, s.ChunkSize, s.ContainerName, s.Format, status)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	return nil
}
