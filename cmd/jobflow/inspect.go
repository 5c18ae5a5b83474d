package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobflow/internal/config"
	"github.com/amishk599/jobflow/internal/inspect"
	"github.com/amishk599/jobflow/internal/transform"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse the next chunk of a source interactively (TUI)",
	Long:  "Shows the source picker, fetches the chunk at the source's cursor, then shows raw and normalized rows side by side. Nothing is stored.",
	RunE:  runInspectCmd,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	// Any log output before the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := newPipeline(cfg, silentLogger)
	defer p.Close()

	runInspect(cmd.Context(), cfg, p)
	return nil
}

func runInspect(ctx context.Context, cfg *config.Config, p *pipeline) {
	var enabled []config.SourceConfig
	for _, s := range cfg.Sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	if len(enabled) == 0 {
		fmt.Println("No enabled sources in config.")
		return
	}

	n, err := p.setupNotifier()
	if err != nil {
		fmt.Printf("Notifier error: %v\n", err)
		return
	}

	for {
		choice, err := inspect.RunSourcePicker(enabled)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		src := enabled[choice]

		sp, err := p.buildPoller(ctx, src, n, pollerOptions{dryRun: true})
		if err != nil {
			fmt.Printf("Setup error: %v\n", err)
			continue
		}
		chunk, err := inspect.RunLoader(src.Name, sp.Peek)
		if err != nil {
			fmt.Printf("Error fetching chunk: %v\n", err)
			continue
		}

		normalizer, err := transform.NewNormalizer(src.Kind, src.DefaultRegion)
		if err != nil {
			fmt.Printf("Setup error: %v\n", err)
			continue
		}
		entries := inspect.BuildEntries(chunk.Records, normalizer, p.recordFilter())

		title := fmt.Sprintf("%s  records %d-%d", src.Name, chunk.Start, chunk.Next-1)
		wantQuit, err := inspect.RunInspectTUI(title, entries)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
	}
}
