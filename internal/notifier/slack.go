package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobflow/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends tick reports to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each report to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the report as one Block Kit message. A 429 response is
// retried once after the Retry-After delay.
func (s *SlackNotifier) Notify(ctx context.Context, r model.TickReport) error {
	body, err := json.Marshal(buildPayload(r))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}

	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", "source", r.Source, "status", r.Status, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", "source", r.Source, "status", r.Status)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample report to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now()
	return n.Notify(ctx, model.TickReport{
		RunID:      "test-001",
		Source:     "jobflow-test",
		Start:      1,
		Next:       101,
		Fetched:    100,
		Delivered:  100,
		ObjectKey:  "test/integration.csv",
		Status:     model.TickSucceeded,
		StartedAt:  now,
		FinishedAt: now,
	})
}

func buildPayload(r model.TickReport) slackPayload {
	icon := "✅"
	if r.Status == model.TickFailed {
		icon = "❌"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%s %s: %s", icon, r.Source, r.Status)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Range:*\n%d → %d", r.Start, r.Next)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Records:*\n%d fetched, %d delivered", r.Fetched, r.Delivered)},
			},
		},
	}

	if r.ObjectKey != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Object:* `" + r.ObjectKey + "`"},
		})
	}
	if r.Err != nil {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Error:*\n```" + r.Err.Error() + "```"},
		})
	}

	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("run `%s` · %s · %s", r.RunID, finished.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
