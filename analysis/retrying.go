package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xeptore/djmix/errutil"
	"github.com/xeptore/djmix/track"
)

// Retrying retries transient failures of the wrapped provider with
// exponential backoff. ErrNotFound and context errors are final.
type Retrying struct {
	next       Provider
	maxRetries uint64
	maxElapsed time.Duration
}

func NewRetrying(next Provider, maxRetries uint64, maxElapsed time.Duration) *Retrying {
	return &Retrying{next: next, maxRetries: maxRetries, maxElapsed: maxElapsed}
}

func newBackoff(timeout time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.Multiplier = 1.5
	b.MaxElapsedTime = timeout
	b.MaxInterval = 2 * time.Second
	return b
}

func (r *Retrying) Analysis(ctx context.Context, t track.Track) (*track.Analysis, error) {
	var b backoff.BackOff = newBackoff(r.maxElapsed)
	b = backoff.WithMaxRetries(b, r.maxRetries)
	b = backoff.WithContext(b, ctx)

	return backoff.RetryWithData(
		func() (*track.Analysis, error) {
			a, err := r.next.Analysis(ctx, t)
			if nil != err {
				if errors.Is(err, ErrNotFound) || errutil.IsContextErr(err) || errutil.IsContext(ctx) {
					return nil, backoff.Permanent(err)
				}
				return nil, err
			}
			return a, nil
		},
		b,
	)
}
