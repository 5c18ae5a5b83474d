package model

import "context"

// ChunkFetcher fetches one chunk of raw records starting at a 1-based offset.
type ChunkFetcher interface {
	FetchChunk(ctx context.Context, start, size int) (Chunk, error)
}

// Normalizer maps one raw upstream row to a Record. Implementations are
// source specific and must be deterministic.
type Normalizer interface {
	Normalize(raw RawRecord) Record
}

// RecordFilter decides whether a normalized record is kept.
type RecordFilter interface {
	Keep(rec Record) bool
}

// CursorStore persists the pagination position of a single source.
type CursorStore interface {
	Load(ctx context.Context) (Cursor, error)
	Save(ctx context.Context, c Cursor) error
	Reset(ctx context.Context) error
}

// BlobStore is a flat key/value object store scoped to one container.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Publisher sends one message to a topic on an event stream.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Sink durably receives a transformed batch. Deliver returns the object key
// it wrote, if any.
type Sink interface {
	Deliver(ctx context.Context, b Batch) (string, error)
}

// Notifier reports tick outcomes to a human.
type Notifier interface {
	Notify(ctx context.Context, r TickReport) error
}

// RunRecorder keeps a ledger of ticks.
type RunRecorder interface {
	StartRun(ctx context.Context, source string, start int) (string, error)
	FinishRun(ctx context.Context, r TickReport) error
}
