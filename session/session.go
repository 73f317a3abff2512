package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/djmix/mixerr"
	"github.com/xeptore/djmix/queue"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

type Stats struct {
	SongsPlayed          int     `json:"songs_played"`
	TotalTransitions     int     `json:"total_transitions"`
	AverageCompatibility float64 `json:"average_compatibility"`
	// Histories hold one entry per played track that had an analysis.
	EnergyHistory []float64 `json:"energy_history"`
	BPMHistory    []float64 `json:"bpm_history"`
	KeyHistory    []string  `json:"key_history"`
}

// Session is one DJ set in progress. Its queue is owned by the session; once
// the session ends every operation fails with DJ_NO_SESSION.
type Session struct {
	mux           sync.Mutex
	id            string
	queue         *queue.Manager
	planner       *transition.Planner
	current       *queue.Item
	currentIndex  int
	transitioning bool
	transition    *transition.Transition
	stats         Stats
	compatSum     float64
	startedAt     time.Time
	endedAt       time.Time
	now           func() time.Time
	logger        zerolog.Logger
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// EndedAt reports when the session ended, and whether it has.
func (s *Session) EndedAt() (time.Time, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.endedAt, !s.endedAt.IsZero()
}

func (s *Session) Queue() (*queue.Manager, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if err := s.checkLocked(); nil != err {
		return nil, err
	}
	return s.queue, nil
}

// CurrentIndex counts the tracks played before the current one, -1 before
// the first Play.
func (s *Session) CurrentIndex() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.currentIndex
}

func (s *Session) CurrentSong() (queue.Item, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if nil == s.current {
		return queue.Item{}, false //nolint:exhaustruct
	}
	return *s.current, true
}

// Transitioning returns the in-flight transition, if any.
func (s *Session) Transitioning() (*transition.Transition, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.transition, s.transitioning
}

// Play makes the queue head the current song without a planned transition.
func (s *Session) Play() (queue.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if err := s.checkLocked(); nil != err {
		return queue.Item{}, err //nolint:exhaustruct
	}
	if s.transitioning {
		return queue.Item{}, mixerr.New(mixerr.CodeQueue, "a transition into %q is in progress", s.transition.To.ID) //nolint:exhaustruct
	}

	item, err := s.queue.MarkSongPlayed()
	if nil != err {
		return queue.Item{}, err //nolint:exhaustruct
	}
	s.advanceLocked(item)
	return item, nil
}

// BeginTransition plans the hand-over from the current song to the queue
// head. The queued transition is reused when it already starts from the
// current song.
func (s *Session) BeginTransition() (*transition.Transition, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if err := s.checkLocked(); nil != err {
		return nil, err
	}
	if nil == s.current {
		return nil, mixerr.New(mixerr.CodeNoCurrentSong, "nothing is playing")
	}
	if s.transitioning {
		return nil, mixerr.New(mixerr.CodeQueue, "a transition into %q is already in progress", s.transition.To.ID)
	}

	next, ok := s.queue.GetNextSong()
	if !ok {
		return nil, mixerr.New(mixerr.CodeQueue, "queue is empty")
	}

	tr := next.Transition
	if nil == tr || tr.From.ID != s.current.Track.ID {
		tr = s.planner.Build(s.current.Track, s.current.Analysis, next.Track, next.Analysis)
	}
	s.transitioning, s.transition = true, tr
	s.logger.Debug().
		Str("from", tr.From.ID).
		Str("to", tr.To.ID).
		Str("type", string(tr.Type)).
		Float64("compatibility", tr.Compatibility).
		Msg("Transition started")
	return tr, nil
}

// CompleteTransition plays the queue head and counts the transition into it
// in the session statistics. When the queue changed since BeginTransition
// and the head is no longer the planned target, the transition is planned
// again from the current song to the track actually played.
func (s *Session) CompleteTransition() (queue.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if err := s.checkLocked(); nil != err {
		return queue.Item{}, err //nolint:exhaustruct
	}
	if !s.transitioning {
		return queue.Item{}, mixerr.New(mixerr.CodeQueue, "no transition in progress") //nolint:exhaustruct
	}

	item, err := s.queue.MarkSongPlayed()
	if nil != err {
		return queue.Item{}, err //nolint:exhaustruct
	}

	tr := s.transition
	if item.Track.ID != tr.To.ID {
		s.logger.Warn().
			Str("planned", tr.To.ID).
			Str("played", item.Track.ID).
			Msg("Queue head changed during transition")
		tr = s.planner.Build(s.current.Track, s.current.Analysis, item.Track, item.Analysis)
	}
	item.Transition, item.Compatibility = tr, tr.Compatibility
	s.transitioning, s.transition = false, nil
	s.stats.TotalTransitions++
	s.compatSum += tr.Compatibility
	s.stats.AverageCompatibility = s.compatSum / float64(s.stats.TotalTransitions)
	s.advanceLocked(item)
	return item, nil
}

// Recommendations ranks pool tracks to follow the end of the queue.
func (s *Session) Recommendations(ctx context.Context, pool []track.Track, limit int) ([]queue.Recommendation, error) {
	q, err := s.Queue()
	if nil != err {
		return nil, err
	}
	return q.GetAutoMixRecommendations(ctx, pool, limit)
}

// Refill tops the queue up from pool when auto-refill is enabled.
func (s *Session) Refill(ctx context.Context, pool []track.Track) ([]queue.Item, error) {
	q, err := s.Queue()
	if nil != err {
		return nil, err
	}
	return q.AutoRefillQueue(ctx, pool)
}

func (s *Session) Stats() Stats {
	s.mux.Lock()
	defer s.mux.Unlock()

	out := s.stats
	out.EnergyHistory = slices.Clone(s.stats.EnergyHistory)
	out.BPMHistory = slices.Clone(s.stats.BPMHistory)
	out.KeyHistory = slices.Clone(s.stats.KeyHistory)
	return out
}

func (s *Session) advanceLocked(item queue.Item) {
	s.current = &item
	s.currentIndex++
	s.stats.SongsPlayed++
	if a := item.Analysis; nil != a {
		s.stats.EnergyHistory = append(s.stats.EnergyHistory, a.Energy)
		s.stats.BPMHistory = append(s.stats.BPMHistory, a.BPM)
		s.stats.KeyHistory = append(s.stats.KeyHistory, a.Key)
	}
	s.logger.Info().Func(item.Track.Log).Int("index", s.currentIndex).Msg("Now playing")
}

func (s *Session) checkLocked() error {
	if !s.endedAt.IsZero() {
		return mixerr.New(mixerr.CodeNoSession, "session %s has ended", s.id)
	}
	return nil
}

func (s *Session) end() {
	s.mux.Lock()
	defer s.mux.Unlock()

	if !s.endedAt.IsZero() {
		return
	}
	s.endedAt = s.now()
	s.transitioning, s.transition = false, nil
	s.logger.Info().
		Int("songs_played", s.stats.SongsPlayed).
		Int("transitions", s.stats.TotalTransitions).
		Dur("duration", s.endedAt.Sub(s.startedAt)).
		Msg("Session ended")
}
