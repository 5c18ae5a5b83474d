// Package cursor persists a source's pagination position as a small blob.
package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.CursorStore = (*BlobStore)(nil)

// ErrNoStartIndex is returned by Parse for a JSON body without
// next_start_index.
var ErrNoStartIndex = errors.New("cursor has no next_start_index")

// state is the JSON body written on save.
type state struct {
	NextStartIndex int    `json:"next_start_index"`
	LastUpdated    string `json:"last_updated,omitempty"`
}

// rawState tells an absent next_start_index apart from zero.
type rawState struct {
	NextStartIndex *int   `json:"next_start_index"`
	LastUpdated    string `json:"last_updated"`
}

// BlobStore keeps the cursor at a fixed key of a model.BlobStore. Reads
// accept either a bare integer or the JSON object; writes always use JSON.
type BlobStore struct {
	blobs        model.BlobStore
	key          string
	defaultStart int
	logger       *slog.Logger
	now          func() time.Time
}

// NewBlobStore returns a cursor store at key. defaultStart is used when the
// blob does not exist, when it lacks a start index, and after Reset.
func NewBlobStore(blobs model.BlobStore, key string, defaultStart int, logger *slog.Logger) *BlobStore {
	return &BlobStore{
		blobs:        blobs,
		key:          key,
		defaultStart: defaultStart,
		logger:       logger,
		now:          time.Now,
	}
}

// Load returns the stored cursor, or the default start if none was saved.
func (s *BlobStore) Load(ctx context.Context) (model.Cursor, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, model.ErrNotFound) {
		return model.Cursor{NextStart: s.defaultStart}, nil
	}
	if err != nil {
		return model.Cursor{}, fmt.Errorf("loading cursor %s: %w", s.key, err)
	}
	c, err := Parse(data)
	if errors.Is(err, ErrNoStartIndex) {
		s.logger.Warn("cursor has no start index, using default", "key", s.key, "default_start", s.defaultStart)
		return model.Cursor{NextStart: s.defaultStart}, nil
	}
	if err != nil {
		return model.Cursor{}, fmt.Errorf("loading cursor %s: %w", s.key, err)
	}
	return c, nil
}

// Save writes the cursor. A zero LastUpdated is stamped with the current time.
func (s *BlobStore) Save(ctx context.Context, c model.Cursor) error {
	if c.LastUpdated.IsZero() {
		c.LastUpdated = s.now()
	}
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, s.key, data, "application/json"); err != nil {
		return fmt.Errorf("saving cursor %s: %w", s.key, err)
	}
	return nil
}

// Reset rewinds the cursor to the default start.
func (s *BlobStore) Reset(ctx context.Context) error {
	return s.Save(ctx, model.Cursor{NextStart: s.defaultStart})
}

// Parse decodes a cursor body: either a bare integer ("101") or
// {"next_start_index": 101, "last_updated": "..."}. A JSON body without
// next_start_index yields ErrNoStartIndex.
func Parse(data []byte) (model.Cursor, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return model.Cursor{}, fmt.Errorf("empty cursor body")
	}

	if n, err := strconv.Atoi(string(trimmed)); err == nil {
		return validate(model.Cursor{NextStart: n})
	}

	var st rawState
	if err := json.Unmarshal(trimmed, &st); err != nil {
		return model.Cursor{}, fmt.Errorf("parsing cursor body: %w", err)
	}
	if st.NextStartIndex == nil {
		return model.Cursor{}, ErrNoStartIndex
	}
	c := model.Cursor{NextStart: *st.NextStartIndex}
	if st.LastUpdated != "" {
		if t, err := parseTime(st.LastUpdated); err == nil {
			c.LastUpdated = t
		}
	}
	return validate(c)
}

// Encode renders the JSON form of a cursor.
func Encode(c model.Cursor) ([]byte, error) {
	st := state{NextStartIndex: c.NextStart}
	if !c.LastUpdated.IsZero() {
		st.LastUpdated = c.LastUpdated.Format(time.RFC3339)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding cursor: %w", err)
	}
	return data, nil
}

func validate(c model.Cursor) (model.Cursor, error) {
	if c.NextStart < 1 {
		return model.Cursor{}, fmt.Errorf("cursor start must be >= 1, got %d", c.NextStart)
	}
	return c, nil
}

// parseTime accepts RFC 3339 and the offset-less ISO form written by older
// producers ("2025-10-21T13:04:05.123456").
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.999999999", s)
}
