package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobflow/internal/model"
	"github.com/amishk599/jobflow/internal/transform"
)

// SourcePoller owns the tick pipeline for a single source:
// load cursor → fetch chunk → transform → deliver → advance cursor.
// The cursor only moves after the sink accepted the batch.
type SourcePoller struct {
	Name      string
	Kind      string
	chunkSize int
	fetcher   model.ChunkFetcher
	transform *transform.Transformer
	cursor    model.CursorStore
	sink      model.Sink
	recorder  model.RunRecorder
	notifier  model.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewSourcePoller creates a poller wired with all its dependencies.
func NewSourcePoller(
	name string,
	kind string,
	chunkSize int,
	fetcher model.ChunkFetcher,
	transformer *transform.Transformer,
	cursor model.CursorStore,
	sink model.Sink,
	recorder model.RunRecorder,
	notifier model.Notifier,
	logger *slog.Logger,
) *SourcePoller {
	return &SourcePoller{
		Name:      name,
		Kind:      kind,
		chunkSize: chunkSize,
		fetcher:   fetcher,
		transform: transformer,
		cursor:    cursor,
		sink:      sink,
		recorder:  recorder,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Poll runs one tick. A source that returns no records is caught up: the
// cursor stays where it is and Poll returns nil. On fetch or sink failure
// the cursor is left untouched and the error is returned.
func (p *SourcePoller) Poll(ctx context.Context) error {
	report := model.TickReport{Source: p.Name, StartedAt: p.now(), Status: model.TickRunning}

	cur, err := p.cursor.Load(ctx)
	if err != nil {
		return p.fail(ctx, report, fmt.Errorf("polling %s: loading cursor: %w", p.Name, err))
	}
	report.Start = cur.NextStart
	report.Next = cur.NextStart
	report.RunID = p.startRun(ctx, cur.NextStart)

	chunk, err := p.fetcher.FetchChunk(ctx, cur.NextStart, p.chunkSize)
	if err != nil {
		return p.fail(ctx, report, fmt.Errorf("polling %s: fetching from %d: %w", p.Name, cur.NextStart, err))
	}
	report.Fetched = len(chunk.Records)

	if len(chunk.Records) == 0 {
		p.logger.Info("source caught up", "source", p.Name, "start", cur.NextStart)
		report.Status = model.TickEmpty
		p.finish(ctx, report)
		return nil
	}

	records := p.transform.Transform(chunk.Records)
	batch := model.Batch{
		RunID:     report.RunID,
		Source:    p.Name,
		Start:     chunk.Start,
		Next:      chunk.Next,
		FetchedAt: p.now(),
		Records:   records,
	}

	if len(records) > 0 {
		key, err := p.sink.Deliver(ctx, batch)
		if err != nil {
			return p.fail(ctx, report, fmt.Errorf("polling %s: delivering batch %d-%d: %w", p.Name, chunk.Start, chunk.Next, err))
		}
		report.ObjectKey = key
		report.Delivered = len(records)
	} else {
		p.logger.Info("all records filtered, nothing to deliver", "source", p.Name, "fetched", len(chunk.Records))
	}

	next := max(cur.NextStart, chunk.Next)
	if err := p.cursor.Save(ctx, model.Cursor{NextStart: next, LastUpdated: p.now()}); err != nil {
		return p.fail(ctx, report, fmt.Errorf("polling %s: saving cursor %d: %w", p.Name, next, err))
	}
	report.Next = next
	report.Status = model.TickSucceeded

	p.logger.Info("polled source",
		"source", p.Name,
		"start", cur.NextStart,
		"next", next,
		"fetched", report.Fetched,
		"delivered", report.Delivered,
	)
	p.finish(ctx, report)
	return nil
}

// Peek fetches the chunk at the current cursor without delivering it or
// moving the cursor.
func (p *SourcePoller) Peek(ctx context.Context) (model.Chunk, error) {
	cur, err := p.cursor.Load(ctx)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("peeking %s: loading cursor: %w", p.Name, err)
	}
	chunk, err := p.fetcher.FetchChunk(ctx, cur.NextStart, p.chunkSize)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("peeking %s: %w", p.Name, err)
	}
	return chunk, nil
}

// Reset moves the cursor back to the source's default start.
func (p *SourcePoller) Reset(ctx context.Context) error {
	if err := p.cursor.Reset(ctx); err != nil {
		return fmt.Errorf("resetting %s: %w", p.Name, err)
	}
	p.logger.Info("cursor reset", "source", p.Name)
	return nil
}

func (p *SourcePoller) startRun(ctx context.Context, start int) string {
	id, err := p.recorder.StartRun(ctx, p.Name, start)
	if err != nil {
		id = uuid.NewString()
		p.logger.Warn("run ledger unavailable", "source", p.Name, "run_id", id, "error", err)
	}
	return id
}

func (p *SourcePoller) fail(ctx context.Context, report model.TickReport, err error) error {
	report.Status = model.TickFailed
	report.Err = err
	p.finish(ctx, report)
	return err
}

// finish records the outcome. Ledger and notifier errors are logged and
// never change the tick result.
func (p *SourcePoller) finish(ctx context.Context, report model.TickReport) {
	report.FinishedAt = p.now()
	if report.RunID != "" {
		if err := p.recorder.FinishRun(ctx, report); err != nil {
			p.logger.Warn("recording run failed", "source", p.Name, "run_id", report.RunID, "error", err)
		}
	}
	if err := p.notifier.Notify(ctx, report); err != nil {
		p.logger.Warn("notification failed", "source", p.Name, "run_id", report.RunID, "error", err)
	}
}
