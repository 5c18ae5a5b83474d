package notifier

import (
	"context"
	"fmt"

	"github.com/amishk599/jobflow/internal/model"
)

const (
	NotifyOnFailure = "failure"
	NotifyOnAlways  = "always"
)

var _ model.Notifier = (*PolicyNotifier)(nil)

// PolicyNotifier forwards only the reports selected by a notify_on policy.
type PolicyNotifier struct {
	inner  model.Notifier
	always bool
}

// WithPolicy wraps inner. notifyOn is "failure" (the default when empty) or
// "always".
func WithPolicy(inner model.Notifier, notifyOn string) (*PolicyNotifier, error) {
	switch notifyOn {
	case "", NotifyOnFailure:
		return &PolicyNotifier{inner: inner}, nil
	case NotifyOnAlways:
		return &PolicyNotifier{inner: inner, always: true}, nil
	}
	return nil, fmt.Errorf("unknown notify_on %q", notifyOn)
}

// Notify implements model.Notifier. Empty ticks are never reported.
func (p *PolicyNotifier) Notify(ctx context.Context, r model.TickReport) error {
	switch {
	case r.Status == model.TickFailed:
	case p.always && r.Status == model.TickSucceeded:
	default:
		return nil
	}
	return p.inner.Notify(ctx, r)
}
