package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobflow/internal/model"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingest runs from the ledger",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

var failedCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

func runRuns(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	p := newPipeline(cfg, logger)
	defer p.Close()

	ledger, err := p.sqliteStore()
	if err != nil {
		die(p, logger, "failed to open run ledger", err)
	}
	runs, err := ledger.RecentRuns(cmd.Context(), runsLimit)
	if err != nil {
		die(p, logger, "failed to list runs", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Println(runsTable(runs))
	return nil
}

func runsTable(runs []model.TickReport) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("STARTED", "SOURCE", "STATUS", "RANGE", "FETCHED", "DELIVERED", "OBJECT", "ERROR")

	for _, r := range runs {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		t.Row(
			r.StartedAt.Local().Format(time.DateTime),
			r.Source,
			string(r.Status),
			fmt.Sprintf("%d-%d", r.Start, r.Next),
			fmt.Sprint(r.Fetched),
			fmt.Sprint(r.Delivered),
			r.ObjectKey,
			errText,
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row >= 0 && row < len(runs) && runs[row].Status == model.TickFailed && col == 2 {
			return failedCellStyle
		}
		return lipgloss.NewStyle().Padding(0, 1)
	})
	return t.String()
}
