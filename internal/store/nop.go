package store

import (
	"context"

	"github.com/amishk599/jobflow/internal/model"
)

// NopRecorder is a run ledger that records nothing. Used in dry-run mode.
type NopRecorder struct{}

func NewNopRecorder() *NopRecorder { return &NopRecorder{} }

func (NopRecorder) StartRun(context.Context, string, int) (string, error) { return "dry-run", nil }
func (NopRecorder) FinishRun(context.Context, model.TickReport) error      { return nil }

// ReadOnlyCursor reads through to another cursor store but never writes, so a
// dry run fetches the real next chunk without advancing it.
type ReadOnlyCursor struct {
	Inner model.CursorStore
}

func (c ReadOnlyCursor) Load(ctx context.Context) (model.Cursor, error) { return c.Inner.Load(ctx) }
func (ReadOnlyCursor) Save(context.Context, model.Cursor) error         { return nil }
func (ReadOnlyCursor) Reset(context.Context) error                      { return nil }
