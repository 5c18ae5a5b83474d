package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bitleak/lmstfy/client"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.Publisher = (*LmstfyPublisher)(nil)

// LmstfyPublisher enqueues each message as a job on an lmstfy queue.
type LmstfyPublisher struct {
	cli    *client.LmstfyClient
	ttl    uint32 // seconds; 0 keeps the job until consumed
	tries  uint16
	logger *slog.Logger
}

// NewLmstfyPublisher creates a publisher for namespace on host:port.
func NewLmstfyPublisher(host string, port int, namespace, token string, ttl uint32, tries uint16, logger *slog.Logger) *LmstfyPublisher {
	if tries == 0 {
		tries = 3
	}
	return &LmstfyPublisher{
		cli:    client.NewLmstfyClient(host, port, namespace, token),
		ttl:    ttl,
		tries:  tries,
		logger: logger,
	}
}

// Publish enqueues payload on queue topic with no delay. The lmstfy client is
// synchronous, so ctx is only checked before the call.
func (p *LmstfyPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	jobID, err := p.cli.Publish(topic, payload, p.ttl, p.tries, 0)
	if err != nil {
		return fmt.Errorf("publishing to lmstfy queue %s: %w", topic, err)
	}
	p.logger.Debug("published lmstfy job", "queue", topic, "job_id", jobID, "bytes", len(payload))
	return nil
}
