package notify

import (
	"context"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/sethvargo/go-retry"
)

// RetryingSender decorates a Sender with bounded fibonacci backoff. The whole
// attempt budget is bounded by the caller's context, so a slow backend can
// never hold a request past its deadline.
type RetryingSender struct {
	next        Sender
	maxRetries  uint64
	baseBackoff time.Duration
}

func WithRetry(next Sender, maxRetries uint64, baseBackoff time.Duration) *RetryingSender {
	return &RetryingSender{next: next, maxRetries: maxRetries, baseBackoff: baseBackoff}
}

func (r *RetryingSender) Send(ctx context.Context, id domain.Identity, code string, purpose domain.Purpose, ttl time.Duration) error {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewFibonacci(r.baseBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.next.Send(ctx, id, code, purpose, ttl); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
