// Package queue is the live DJ queue: user picks and auto-mixed picks in
// play order, each carrying its planned transition from the track before it.
// A Manager serializes every operation on a single mutex and hands out copies
// of its items, never the queued items themselves.
package queue

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/djmix/log"
	"github.com/xeptore/djmix/mathutil"
	"github.com/xeptore/djmix/mixerr"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

type Item struct {
	Track      track.Track            `json:"track"`
	Analysis   *track.Analysis        `json:"analysis,omitempty"`
	Transition *transition.Transition `json:"transition,omitempty"`
	// Compatibility is scored against the previous track, 0 without one.
	Compatibility float64   `json:"compatibility"`
	Position      int       `json:"position"`
	IsAutoQueued  bool      `json:"is_auto_queued"`
	QueuedAt      time.Time `json:"queued_at"`
}

type Manager struct {
	mux        sync.Mutex
	cfg        Config
	planner    *transition.Planner
	items      []*Item
	nowPlaying *Item
	played     int
	events     *eventLog
	now        func() time.Time
	logger     zerolog.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now for queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(cfg Config, planner *transition.Planner, logger zerolog.Logger, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); nil != err {
		return nil, mixerr.Wrap(mixerr.CodeQueue, err, "invalid queue config")
	}
	if cfg.AutoMix.Strategy == "" {
		cfg.AutoMix.Strategy = StrategyBalanced
	}

	m := &Manager{
		mux:        sync.Mutex{},
		cfg:        cfg,
		planner:    planner,
		items:      make([]*Item, 0, cfg.MaxQueueSize),
		nowPlaying: nil,
		played:     0,
		events:     newEventLog(cfg.EventHistoryLimit),
		now:        time.Now,
		logger:     log.Module(logger, "queue"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Initialize replaces the queue content with tracks, in order.
func (m *Manager) Initialize(ctx context.Context, tracks []track.Track) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if len(tracks) > m.cfg.MaxQueueSize {
		return mixerr.New(mixerr.CodeQueue, "%d tracks exceed the queue size of %d", len(tracks), m.cfg.MaxQueueSize)
	}

	prev := m.items
	m.items = make([]*Item, 0, m.cfg.MaxQueueSize)
	added := make([]*Item, 0, len(tracks))
	for _, t := range tracks {
		item, err := m.insertLocked(ctx, t, false)
		if nil != err {
			m.items = prev
			return err
		}
		added = append(added, item)
	}
	for _, item := range added {
		m.recordAddedLocked(item)
	}
	m.logger.Info().Int("tracks", len(m.items)).Msg("Queue initialized")
	return nil
}

// AddSong appends t as a user pick.
func (m *Manager) AddSong(ctx context.Context, t track.Track) (Item, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	item, err := m.addLocked(ctx, t, false)
	if nil != err {
		return Item{}, err //nolint:exhaustruct
	}
	return *item, nil
}

func (m *Manager) addLocked(ctx context.Context, t track.Track, auto bool) (*Item, error) {
	item, err := m.insertLocked(ctx, t, auto)
	if nil != err {
		return nil, err
	}
	m.recordAddedLocked(item)
	return item, nil
}

// insertLocked appends t and links it to its predecessor without recording
// an event.
func (m *Manager) insertLocked(ctx context.Context, t track.Track, auto bool) (*Item, error) {
	if t.ID == "" {
		return nil, mixerr.New(mixerr.CodeQueue, "cannot queue a track without id")
	}
	if m.cfg.DuplicatePrevention && m.indexLocked(t.ID) >= 0 {
		return nil, mixerr.New(mixerr.CodeDuplicateSong, "track %q is already queued", t.ID)
	}
	if len(m.items) >= m.cfg.MaxQueueSize {
		return nil, mixerr.New(mixerr.CodeQueue, "queue is full (%d tracks)", m.cfg.MaxQueueSize)
	}

	a, err := m.planner.Fetcher().Get(ctx, t)
	if nil != err {
		return nil, mixerr.Wrap(mixerr.CodeQueue, err, "failed to add track %q", t.ID)
	}

	item := &Item{
		Track:         t,
		Analysis:      a,
		Transition:    nil,
		Compatibility: 0,
		Position:      len(m.items),
		IsAutoQueued:  auto,
		QueuedAt:      m.now(),
	}
	m.items = append(m.items, item)
	m.linkLocked(len(m.items) - 1)
	m.logger.Debug().Func(t.Log).Int("position", item.Position).Bool("auto", auto).Msg("Track queued")
	return item, nil
}

func (m *Manager) recordAddedLocked(item *Item) {
	typ := EventSongAdded
	if item.IsAutoQueued {
		typ = EventAutoMixAdded
	}
	m.recordLocked(typ, item.Track.ID, item.Position)
}

// RemoveSong removes the first queued item with trackID.
func (m *Manager) RemoveSong(trackID string) (Item, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	i := m.indexLocked(trackID)
	if i < 0 {
		return Item{}, mixerr.New(mixerr.CodeQueue, "track %q is not queued", trackID) //nolint:exhaustruct
	}

	removed := m.items[i]
	m.items = slices.Delete(m.items, i, i+1)
	m.renumberLocked()
	m.linkLocked(i)
	m.recordLocked(EventSongRemoved, trackID, i)
	return *removed, nil
}

// ReorderQueue swaps the items at positions i and j.
func (m *Manager) ReorderQueue(i, j int) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if !m.inRangeLocked(i) || !m.inRangeLocked(j) {
		return mixerr.New(mixerr.CodeQueue, "positions %d and %d must be within [0, %d)", i, j, len(m.items))
	}
	if i == j {
		return nil
	}

	m.items[i], m.items[j] = m.items[j], m.items[i]
	m.renumberLocked()
	for _, k := range []int{i, i + 1, j, j + 1} {
		m.linkLocked(k)
	}
	m.recordLocked(EventQueueReordered, m.items[j].Track.ID, j)
	return nil
}

// ChangePriority moves the item with trackID to position, shifting the
// items in between.
func (m *Manager) ChangePriority(trackID string, position int) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	from := m.indexLocked(trackID)
	if from < 0 {
		return mixerr.New(mixerr.CodeQueue, "track %q is not queued", trackID)
	}
	if !m.inRangeLocked(position) {
		return mixerr.New(mixerr.CodeQueue, "position %d must be within [0, %d)", position, len(m.items))
	}
	if from == position {
		return nil
	}

	item := m.items[from]
	m.items = slices.Insert(slices.Delete(m.items, from, from+1), position, item)
	m.renumberLocked()
	for k := min(from, position); k <= max(from, position)+1; k++ {
		m.linkLocked(k)
	}
	m.recordLocked(EventQueueReordered, trackID, position)
	return nil
}

func (m *Manager) ClearQueue() {
	m.mux.Lock()
	defer m.mux.Unlock()

	n := len(m.items)
	m.items = m.items[:0]
	m.recordLocked(EventQueueCleared, "", n)
}

// GetNextSong returns the head of the queue without consuming it.
func (m *Manager) GetNextSong() (Item, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if len(m.items) == 0 {
		return Item{}, false //nolint:exhaustruct
	}
	return *m.items[0], true
}

// MarkSongPlayed consumes the head of the queue and makes it the now
// playing track.
func (m *Manager) MarkSongPlayed() (Item, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if len(m.items) == 0 {
		return Item{}, mixerr.New(mixerr.CodeQueue, "queue is empty") //nolint:exhaustruct
	}

	head := m.items[0]
	m.items = slices.Delete(m.items, 0, 1)
	m.renumberLocked()
	m.nowPlaying = head
	m.played++
	m.recordLocked(EventSongPlayed, head.Track.ID, 0)
	return *head, nil
}

// NowPlaying is the most recently played item.
func (m *Manager) NowPlaying() (Item, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if nil == m.nowPlaying {
		return Item{}, false //nolint:exhaustruct
	}
	return *m.nowPlaying, true
}

// Items returns a snapshot of the queued items.
func (m *Manager) Items() []Item {
	m.mux.Lock()
	defer m.mux.Unlock()
	return lo.Map(m.items, func(it *Item, _ int) Item { return *it })
}

func (m *Manager) Len() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return len(m.items)
}

func (m *Manager) GetEventHistory() []Event {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.events.events()
}

type Stats struct {
	Total                int           `json:"total"`
	UserAdded            int           `json:"user_added"`
	AutoQueued           int           `json:"auto_queued"`
	Played               int           `json:"played"`
	AverageBPM           float64       `json:"average_bpm"`
	AverageEnergy        float64       `json:"average_energy"`
	AverageCompatibility float64       `json:"average_compatibility"`
	TotalDuration        float64       `json:"total_duration"`
	QueueAge             time.Duration `json:"queue_age"`
	EventsRecorded       int           `json:"events_recorded"`
}

// GetQueueStats summarizes the queue. Averages skip items without
// analysis; QueueAge is the wait of the oldest queued item.
func (m *Manager) GetQueueStats() Stats {
	m.mux.Lock()
	defer m.mux.Unlock()

	var (
		analyzed = lo.Filter(m.items, func(it *Item, _ int) bool { return nil != it.Analysis })
		linked   = lo.Filter(m.items, func(it *Item, _ int) bool { return nil != it.Transition })
		auto     = lo.CountBy(m.items, func(it *Item) bool { return it.IsAutoQueued })
		stats    = Stats{
			Total:                len(m.items),
			UserAdded:            len(m.items) - auto,
			AutoQueued:           auto,
			Played:               m.played,
			AverageBPM:           mathutil.Mean(lo.Map(analyzed, func(it *Item, _ int) float64 { return it.Analysis.BPM })),
			AverageEnergy:        mathutil.Mean(lo.Map(analyzed, func(it *Item, _ int) float64 { return it.Analysis.Energy })),
			AverageCompatibility: mathutil.Mean(lo.Map(linked, func(it *Item, _ int) float64 { return it.Compatibility })),
			TotalDuration:        lo.SumBy(m.items, func(it *Item) float64 { return it.Track.Duration }),
			QueueAge:             0,
			EventsRecorded:       m.events.total,
		}
	)

	if len(m.items) > 0 {
		oldest := lo.MinBy(m.items, func(a, b *Item) bool { return a.QueuedAt.Before(b.QueuedAt) })
		stats.QueueAge = m.now().Sub(oldest.QueuedAt)
	}
	return stats
}

func (m *Manager) indexLocked(trackID string) int {
	return slices.IndexFunc(m.items, func(it *Item) bool { return it.Track.ID == trackID })
}

func (m *Manager) inRangeLocked(i int) bool {
	return i >= 0 && i < len(m.items)
}

func (m *Manager) renumberLocked() {
	for i, it := range m.items {
		it.Position = i
	}
}

// anchorLocked is the track the item at i follows: its queue predecessor,
// or the now playing track for the head.
func (m *Manager) anchorLocked(i int) *Item {
	if i > 0 {
		return m.items[i-1]
	}
	return m.nowPlaying
}

// linkLocked rebuilds the transition into the item at i. Out of range
// indexes are ignored.
func (m *Manager) linkLocked(i int) {
	if !m.inRangeLocked(i) {
		return
	}
	it := m.items[i]
	prev := m.anchorLocked(i)
	if nil == prev {
		it.Transition, it.Compatibility = nil, 0
		return
	}
	it.Transition = m.planner.Build(prev.Track, prev.Analysis, it.Track, it.Analysis)
	it.Compatibility = it.Transition.Compatibility
}

func (m *Manager) recordLocked(typ EventType, trackID string, position int) {
	m.events.append(Event{Type: typ, TrackID: trackID, Position: position, At: m.now()})
}
