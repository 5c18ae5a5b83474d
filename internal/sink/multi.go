package sink

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobflow/internal/model"
)

var (
	_ model.Sink = (*MultiSink)(nil)
	_ model.Sink = (*LogSink)(nil)
)

// MultiSink delivers to several sinks in order and stops at the first error.
// The returned key is the first non-empty key reported by a sink.
type MultiSink struct {
	sinks []model.Sink
}

// NewMultiSink combines sinks.
func NewMultiSink(sinks ...model.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Deliver implements model.Sink.
func (m *MultiSink) Deliver(ctx context.Context, b model.Batch) (string, error) {
	var key string
	for _, s := range m.sinks {
		k, err := s.Deliver(ctx, b)
		if err != nil {
			return key, err
		}
		if key == "" {
			key = k
		}
	}
	return key, nil
}

// LogSink only logs a batch summary. Used for dry runs.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver implements model.Sink.
func (s *LogSink) Deliver(_ context.Context, b model.Batch) (string, error) {
	s.logger.Info("dry run batch",
		"source", b.Source,
		"start", b.Start,
		"next", b.Next,
		"records", len(b.Records),
	)
	for _, r := range b.Records {
		s.logger.Debug("record",
			"company", r.Company,
			"title", r.JobTitle,
			"wage_type", r.WageType,
			"region", r.Region,
		)
	}
	return "", nil
}
