package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobflow/internal/model"
	"github.com/amishk599/jobflow/internal/stream"
)

var _ model.Sink = (*StreamSink)(nil)

// StreamSink publishes each encoded batch as a single event-stream message.
type StreamSink struct {
	pub      model.Publisher
	topic    string
	format   Format
	maxBytes int
	logger   *slog.Logger
}

// NewStreamSink creates a sink publishing to topic. Batches larger than
// maxBytes once encoded fail with stream.ErrMessageTooLarge.
func NewStreamSink(pub model.Publisher, topic string, format Format, maxBytes int, logger *slog.Logger) *StreamSink {
	return &StreamSink{
		pub:      pub,
		topic:    topic,
		format:   format,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Deliver publishes the batch. It writes no object, so the key is empty.
func (s *StreamSink) Deliver(ctx context.Context, b model.Batch) (string, error) {
	data, err := Encode(s.format, b.Records)
	if err != nil {
		return "", fmt.Errorf("encoding batch for %s: %w", b.Source, err)
	}
	if err := stream.CheckSize(data, s.maxBytes); err != nil {
		return "", fmt.Errorf("publishing batch for %s: %w", b.Source, err)
	}
	if err := s.pub.Publish(ctx, s.topic, data); err != nil {
		return "", err
	}
	s.logger.Info("batch published", "source", b.Source, "topic", s.topic, "bytes", len(data))
	return "", nil
}
