package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.Sink = (*BlobSink)(nil)

// TimestampLayout formats the {timestamp} placeholder (YYYYmmdd_HHMMSS).
const TimestampLayout = "20060102_150405"

// BlobSink writes each batch as one object in a blob store.
type BlobSink struct {
	store    model.BlobStore
	template string
	format   Format
	loc      *time.Location
	logger   *slog.Logger
}

// NewBlobSink creates a sink writing objects named by template. Supported
// placeholders are {source}, {start}, {next}, {timestamp}, {run_id} and {ext}.
// A nil loc means UTC.
func NewBlobSink(store model.BlobStore, template string, format Format, loc *time.Location, logger *slog.Logger) *BlobSink {
	if loc == nil {
		loc = time.UTC
	}
	return &BlobSink{
		store:    store,
		template: template,
		format:   format,
		loc:      loc,
		logger:   logger,
	}
}

// Deliver encodes the batch and stores it, returning the object key.
func (s *BlobSink) Deliver(ctx context.Context, b model.Batch) (string, error) {
	data, err := Encode(s.format, b.Records)
	if err != nil {
		return "", fmt.Errorf("encoding batch for %s: %w", b.Source, err)
	}

	key := ObjectKey(s.template, b, s.format, s.loc)
	if err := s.store.Put(ctx, key, data, s.format.ContentType()); err != nil {
		return "", fmt.Errorf("writing %s: %w", key, err)
	}

	s.logger.Info("batch stored",
		"source", b.Source,
		"key", key,
		"records", len(b.Records),
		"bytes", len(data),
	)
	return key, nil
}

// ObjectKey expands a blob path template for a batch.
func ObjectKey(template string, b model.Batch, f Format, loc *time.Location) string {
	ts := b.FetchedAt
	if loc != nil {
		ts = ts.In(loc)
	}
	r := strings.NewReplacer(
		"{source}", b.Source,
		"{start}", strconv.Itoa(b.Start),
		"{next}", strconv.Itoa(b.Next),
		"{timestamp}", ts.Format(TimestampLayout),
		"{run_id}", b.RunID,
		"{ext}", f.Ext(),
	)
	return r.Replace(template)
}
