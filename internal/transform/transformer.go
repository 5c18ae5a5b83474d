package transform

import (
	"log/slog"

	"github.com/amishk599/jobflow/internal/model"
)

// Transformer applies a source strategy across a chunk and drops records the
// filter rejects. It holds no clock or counters, so the same input always
// produces the same output.
type Transformer struct {
	normalizer model.Normalizer
	filter     model.RecordFilter
	logger     *slog.Logger
}

// New creates a Transformer. A nil filter keeps every record.
func New(normalizer model.Normalizer, filter model.RecordFilter, logger *slog.Logger) *Transformer {
	return &Transformer{
		normalizer: normalizer,
		filter:     filter,
		logger:     logger,
	}
}

// Transform normalizes every raw record in order.
func (t *Transformer) Transform(raw []model.RawRecord) []model.Record {
	out := make([]model.Record, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		rec := t.normalizer.Normalize(r)
		if t.filter != nil && !t.filter.Keep(rec) {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	if dropped > 0 {
		t.logger.Debug("records filtered", "kept", len(out), "dropped", dropped)
	}
	return out
}
