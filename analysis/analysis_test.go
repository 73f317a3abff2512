package analysis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/djmix/analysis"
	"github.com/xeptore/djmix/cache"
	"github.com/xeptore/djmix/errutil"
	"github.com/xeptore/djmix/track"
)

const libraryJSON = `{
  "tracks": [
    {"id": "t1", "title": "Opener", "artist": "A", "genre": "house", "duration": 300,
     "analysis": {"bpm": 122, "key": "Am", "energy": 0.4}},
    {"id": "t2", "title": "Lift", "artist": "B", "duration": 280,
     "analysis": {"bpm": 124, "key": 7, "mode": 1, "energy": 0.7, "danceability": 0.8}},
    {"id": "t3", "title": "Unanalyzed", "artist": "C", "duration": 200},
    {"id": "t4", "title": "Camelot", "duration": 240,
     "analysis": {"bpm": 126, "key": "9A"}}
  ]
}`

func TestParseLibrary(t *testing.T) {
	t.Parallel()

	lib, err := analysis.ParseLibrary([]byte(libraryJSON))
	require.NoError(t, err)
	require.Len(t, lib.Tracks(), 4)
	assert.Equal(t, "house", lib.Tracks()[0].Genre)

	ctx := context.Background()

	a, err := lib.Analysis(ctx, lib.Tracks()[0])
	require.NoError(t, err)
	assert.Equal(t, "Am", a.Key)
	assert.InDelta(t, 122.0, a.BPM, 1e-9)

	a, err = lib.Analysis(ctx, lib.Tracks()[1])
	require.NoError(t, err)
	assert.Equal(t, "G", a.Key)
	assert.InDelta(t, 0.8, a.Danceability, 1e-9)

	_, err = lib.Analysis(ctx, lib.Tracks()[2])
	require.ErrorIs(t, err, analysis.ErrNotFound)

	a, err = lib.Analysis(ctx, lib.Tracks()[3])
	require.NoError(t, err)
	assert.Equal(t, "Em", a.Key)
	assert.InDelta(t, track.DefaultEnergy, a.Energy, 1e-9)

	got, ok := lib.Track("t2")
	require.True(t, ok)
	assert.Equal(t, "Lift", got.Title)
}

func TestParseLibraryErrors(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"InvalidJSON":  `{"tracks": [`,
		"NoTracks":     `{"songs": []}`,
		"MissingID":    `{"tracks": [{"title": "x"}]}`,
		"DuplicateID":  `{"tracks": [{"id": "a"}, {"id": "a"}]}`,
		"BadKey":       `{"tracks": [{"id": "a", "analysis": {"key": "H#"}}]}`,
		"KeyNoMode":    `{"tracks": [{"id": "a", "analysis": {"key": 3}}]}`,
		"KeyWrongType": `{"tracks": [{"id": "a", "analysis": {"key": true}}]}`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := analysis.ParseLibrary([]byte(in))
			require.Error(t, err)
			assert.True(t, errutil.IsFlaw(err))
		})
	}
}

func TestLoadLibrary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "library.json")
	require.NoError(t, os.WriteFile(path, []byte(libraryJSON), 0o600))

	lib, err := analysis.LoadLibrary(path)
	require.NoError(t, err)
	assert.Len(t, lib.Tracks(), 4)

	_, err = analysis.LoadLibrary(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errutil.IsFlaw(err))
}

func TestCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	inner := analysis.ProviderFunc(func(_ context.Context, tr track.Track) (*track.Analysis, error) {
		calls.Add(1)
		if tr.ID == "missing" {
			return nil, analysis.ErrNotFound
		}
		return &track.Analysis{BPM: 128, Key: "C", Energy: 0.6}, nil //nolint:exhaustruct
	})

	c := cache.New(100)
	t.Cleanup(c.Analyses.Stop)
	p := analysis.NewCached(inner, c, time.Minute)

	ctx := context.Background()
	for range 3 {
		a, err := p.Analysis(ctx, track.Track{ID: "t1"}) //nolint:exhaustruct
		require.NoError(t, err)
		assert.InDelta(t, 128.0, a.BPM, 1e-9)
	}
	assert.Equal(t, int32(1), calls.Load())

	for range 2 {
		_, err := p.Analysis(ctx, track.Track{ID: "missing"}) //nolint:exhaustruct
		require.ErrorIs(t, err, analysis.ErrNotFound)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetrying(t *testing.T) {
	t.Parallel()

	t.Run("TransientThenSuccess", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		inner := analysis.ProviderFunc(func(context.Context, track.Track) (*track.Analysis, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("connection reset")
			}
			return &track.Analysis{BPM: 100}, nil //nolint:exhaustruct
		})

		a, err := analysis.NewRetrying(inner, 5, 10*time.Second).Analysis(context.Background(), track.Track{ID: "t"}) //nolint:exhaustruct
		require.NoError(t, err)
		assert.InDelta(t, 100.0, a.BPM, 1e-9)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("NotFoundIsPermanent", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		inner := analysis.ProviderFunc(func(context.Context, track.Track) (*track.Analysis, error) {
			calls.Add(1)
			return nil, analysis.ErrNotFound
		})

		_, err := analysis.NewRetrying(inner, 5, 10*time.Second).Analysis(context.Background(), track.Track{ID: "t"}) //nolint:exhaustruct
		require.ErrorIs(t, err, analysis.ErrNotFound)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("GivesUp", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		boom := errors.New("connection reset")
		inner := analysis.ProviderFunc(func(context.Context, track.Track) (*track.Analysis, error) {
			calls.Add(1)
			return nil, boom
		})

		_, err := analysis.NewRetrying(inner, 2, 10*time.Second).Analysis(context.Background(), track.Track{ID: "t"}) //nolint:exhaustruct
		require.ErrorIs(t, err, boom)
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestFetcher(t *testing.T) {
	t.Parallel()

	provider := analysis.ProviderFunc(func(_ context.Context, tr track.Track) (*track.Analysis, error) {
		switch tr.ID {
		case "broken":
			return nil, errors.New("analyzer crashed")
		case "unknown":
			return nil, analysis.ErrNotFound
		default:
			return &track.Analysis{BPM: 120, Energy: 0.5}, nil //nolint:exhaustruct
		}
	})
	f := analysis.NewFetcher(provider, time.Second, zerolog.Nop())

	t.Run("Get", func(t *testing.T) {
		t.Parallel()

		a, err := f.Get(context.Background(), track.Track{ID: "ok"}) //nolint:exhaustruct
		require.NoError(t, err)
		require.NotNil(t, a)

		a, err = f.Get(context.Background(), track.Track{ID: "broken"}) //nolint:exhaustruct
		require.NoError(t, err)
		assert.Nil(t, a)

		a, err = f.Get(context.Background(), track.Track{ID: "unknown"}) //nolint:exhaustruct
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("Prefetch", func(t *testing.T) {
		t.Parallel()

		tracks := []track.Track{{ID: "a"}, {ID: "broken"}, {ID: "b"}, {ID: "unknown"}} //nolint:exhaustruct
		got, err := f.Prefetch(context.Background(), tracks, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Contains(t, got, "a")
		assert.Contains(t, got, "b")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.Prefetch(ctx, []track.Track{{ID: "a"}}, 2) //nolint:exhaustruct
		require.ErrorIs(t, err, context.Canceled)
	})
}
