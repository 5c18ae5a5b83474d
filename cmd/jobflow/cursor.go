package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobflow/internal/model"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or move a source's pagination cursor",
}

var cursorShowCmd = &cobra.Command{
	Use:   "show <source>",
	Short: "Print the next start index of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCursorShow,
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset <source>",
	Short: "Move a source back to its default start",
	Args:  cobra.ExactArgs(1),
	RunE:  runCursorReset,
}

var cursorSetCmd = &cobra.Command{
	Use:   "set <source> <index>",
	Short: "Set the next start index of a source",
	Args:  cobra.ExactArgs(2),
	RunE:  runCursorSet,
}

func init() {
	rootCmd.AddCommand(cursorCmd)
	cursorCmd.AddCommand(cursorShowCmd, cursorResetCmd, cursorSetCmd)
}

// openCursor resolves a source by name and opens its cursor store.
func openCursor(ctx context.Context, name string) (*pipeline, model.CursorStore) {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	src, ok := cfg.Source(name)
	if !ok {
		die(nil, logger, "unknown source", fmt.Errorf("no source named %q", name))
	}
	p := newPipeline(cfg, logger)
	cur, err := p.cursorFor(ctx, src)
	if err != nil {
		die(p, logger, "failed to open cursor", err, "source", name)
	}
	return p, cur
}

func runCursorShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, cur := openCursor(ctx, args[0])
	defer p.Close()

	c, err := cur.Load(ctx)
	if err != nil {
		die(p, p.logger, "failed to load cursor", err, "source", args[0])
	}
	updated := "never"
	if !c.LastUpdated.IsZero() {
		updated = c.LastUpdated.Format(time.RFC3339)
	}
	fmt.Printf("%s\tnext_start=%d\tlast_updated=%s\n", args[0], c.NextStart, updated)
	return nil
}

func runCursorReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, cur := openCursor(ctx, args[0])
	defer p.Close()

	if err := cur.Reset(ctx); err != nil {
		die(p, p.logger, "failed to reset cursor", err, "source", args[0])
	}
	p.logger.Info("cursor reset", "source", args[0])
	return nil
}

func runCursorSet(cmd *cobra.Command, args []string) error {
	next, err := strconv.Atoi(args[1])
	if err != nil || next < 1 {
		return fmt.Errorf("index must be a positive integer, got %q", args[1])
	}

	ctx := cmd.Context()
	p, cur := openCursor(ctx, args[0])
	defer p.Close()

	if err := cur.Save(ctx, model.Cursor{NextStart: next, LastUpdated: time.Now()}); err != nil {
		die(p, p.logger, "failed to save cursor", err, "source", args[0])
	}
	p.logger.Info("cursor set", "source", args[0], "next_start", next)
	return nil
}
