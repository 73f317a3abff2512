package errutil

import (
	"context"
	"errors"
	"fmt"
)

func IsAny(err error, target error, targets ...error) (error, bool) {
	if errors.Is(err, target) {
		return target, true
	}
	for _, t := range targets {
		if errors.Is(err, t) {
			return t, true
		}
	}
	return nil, false
}

func IsContext(ctx context.Context) bool {
	err := ctx.Err()
	return nil != err && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

// IsContextErr reports whether err itself stems from a canceled or expired context.
func IsContextErr(err error) bool {
	_, ok := IsAny(err, context.Canceled, context.DeadlineExceeded)
	return ok
}

func UnknownError(err error) string {
	return fmt.Sprintf("unknown error of type %T received: %v", err, err)
}
