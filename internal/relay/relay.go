package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/amishk599/jobflow/internal/model"
	"github.com/amishk599/jobflow/internal/stream"
)

// ErrMessageTooLarge is returned by Forward for objects over the size limit.
var ErrMessageTooLarge = stream.ErrMessageTooLarge

// Watcher reports keys of newly created objects until ctx is cancelled.
type Watcher interface {
	WatchCreated(ctx context.Context, prefix, suffix string) (<-chan string, error)
}

// Relay forwards stored CSV objects to an event stream, one message each.
type Relay struct {
	blobs    model.BlobStore
	pub      model.Publisher
	topic    string
	maxBytes int
	logger   *slog.Logger
}

// New creates a Relay. A non-positive maxBytes uses the default limit.
func New(blobs model.BlobStore, pub model.Publisher, topic string, maxBytes int, logger *slog.Logger) *Relay {
	if maxBytes <= 0 {
		maxBytes = stream.DefaultMaxMessageBytes
	}
	return &Relay{
		blobs:    blobs,
		pub:      pub,
		topic:    topic,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Forward publishes the object at key. Keys that do not end in ".csv"
// (any case) are skipped and reported as not forwarded.
func (r *Relay) Forward(ctx context.Context, key string) (bool, error) {
	if !strings.HasSuffix(strings.ToLower(key), ".csv") {
		r.logger.Debug("skipping non-csv object", "key", key)
		return false, nil
	}

	data, err := r.blobs.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	text, err := stripBOM(data)
	if err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	if err := stream.CheckSize(text, r.maxBytes); err != nil {
		return false, fmt.Errorf("forwarding %s: %w", key, err)
	}

	if err := r.pub.Publish(ctx, r.topic, text); err != nil {
		return false, fmt.Errorf("forwarding %s: %w", key, err)
	}
	r.logger.Info("object forwarded", "key", key, "topic", r.topic, "bytes", len(text))
	return true, nil
}

// Watch forwards every newly created object under prefix until ctx is
// cancelled. Failures are logged and the watch continues.
func (r *Relay) Watch(ctx context.Context, w Watcher, prefix string) error {
	keys, err := w.WatchCreated(ctx, prefix, "")
	if err != nil {
		return fmt.Errorf("watching %q: %w", prefix, err)
	}
	r.logger.Info("relay watching", "prefix", prefix, "topic", r.topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watch stream closed")
			}
			if _, err := r.Forward(ctx, key); err != nil {
				r.logger.Error("forward failed", "key", key, "error", err)
			}
		}
	}
}

// stripBOM removes a leading UTF-8 byte order mark, if present.
func stripBOM(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte("\xEF\xBB\xBF")) {
		return data, nil
	}
	return unicode.UTF8BOM.NewDecoder().Bytes(data)
}
