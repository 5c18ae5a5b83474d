package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobflow/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes tick reports to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each report via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the report. Failed ticks are logged at error level.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, r model.TickReport) error {
	args := []any{
		"source", r.Source,
		"run_id", r.RunID,
		"status", r.Status,
		"start", r.Start,
		"next", r.Next,
		"fetched", r.Fetched,
		"delivered", r.Delivered,
	}
	if r.ObjectKey != "" {
		args = append(args, "key", r.ObjectKey)
	}
	if r.Err != nil {
		n.logger.Error("tick failed", append(args, "error", r.Err)...)
		return nil
	}
	n.logger.Info("tick complete", args...)
	return nil
}
