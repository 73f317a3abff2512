// Package analysis is the boundary to the external audio feature store.
// Providers return per-track analyses; the mixing core tolerates missing
// ones and degrades to neutral defaults.
package analysis

import (
	"context"
	"errors"

	"github.com/xeptore/djmix/track"
)

var ErrNotFound = errors.New("analysis not found")

type Provider interface {
	Analysis(ctx context.Context, t track.Track) (*track.Analysis, error)
}

type ProviderFunc func(ctx context.Context, t track.Track) (*track.Analysis, error)

func (f ProviderFunc) Analysis(ctx context.Context, t track.Track) (*track.Analysis, error) {
	return f(ctx, t)
}

// Static serves analyses from memory, keyed by track ID.
type Static map[string]*track.Analysis

func (s Static) Analysis(ctx context.Context, t track.Track) (*track.Analysis, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	a, ok := s[t.ID]
	if !ok || nil == a {
		return nil, ErrNotFound
	}
	return a, nil
}

// None never knows any track.
var None Provider = Static(nil)
