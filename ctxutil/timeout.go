package ctxutil

import (
	"context"
	"time"
)

// WithOptionalTimeout bounds ctx by timeout when it is positive, otherwise it
// only derives a cancelable child.
func WithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
