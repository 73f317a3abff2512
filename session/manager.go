// Package session runs DJ sessions. A Manager holds at most one active
// session at a time and keeps an archive of ended ones; callers hold
// explicit *Session handles instead of reaching for shared state.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xeptore/djmix/log"
	"github.com/xeptore/djmix/mixerr"
	"github.com/xeptore/djmix/queue"
	"github.com/xeptore/djmix/track"
	"github.com/xeptore/djmix/transition"
)

const DefaultHistoryLimit = 20

type Config struct {
	Queue queue.Config `json:"queue" yaml:"queue"`
	// HistoryLimit caps the number of archived sessions kept.
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`
}

func DefaultConfig() Config {
	return Config{
		Queue:        queue.DefaultConfig(),
		HistoryLimit: DefaultHistoryLimit,
	}
}

type Manager struct {
	mux     sync.Mutex
	cfg     Config
	planner *transition.Planner
	active  *Session
	history []*Session
	now     func() time.Time
	logger  zerolog.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now for session and queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(cfg Config, planner *transition.Planner, logger zerolog.Logger, opts ...Option) *Manager {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	m := &Manager{
		mux:     sync.Mutex{},
		cfg:     cfg,
		planner: planner,
		active:  nil,
		history: nil,
		now:     time.Now,
		logger:  log.Module(logger, "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session whose queue is initialized with tracks. A session
// that is still active is ended and archived first. On error the previous
// session stays active.
func (m *Manager) Start(ctx context.Context, tracks []track.Track) (*Session, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	id := uuid.NewString()
	logger := m.logger.With().Str("session_id", id).Logger()
	q, err := queue.New(m.cfg.Queue, m.planner, logger, queue.WithClock(m.now))
	if nil != err {
		return nil, err
	}
	if err := q.Initialize(ctx, tracks); nil != err {
		return nil, err
	}

	if nil != m.active {
		m.logger.Warn().Str("previous_session_id", m.active.id).Msg("Replacing active session")
		m.archiveLocked()
	}

	s := &Session{
		mux:           sync.Mutex{},
		id:            id,
		queue:         q,
		planner:       m.planner,
		current:       nil,
		currentIndex:  -1,
		transitioning: false,
		transition:    nil,
		stats:         Stats{}, //nolint:exhaustruct
		compatSum:     0,
		startedAt:     m.now(),
		endedAt:       time.Time{},
		now:           m.now,
		logger:        logger,
	}
	m.active = s
	logger.Info().Int("queued", len(tracks)).Msg("Session started")
	return s, nil
}

// End ends and archives the active session.
func (m *Manager) End() (*Session, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if nil == m.active {
		return nil, mixerr.New(mixerr.CodeNoSession, "no active session")
	}
	s := m.active
	m.archiveLocked()
	return s, nil
}

func (m *Manager) Active() (*Session, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if nil == m.active {
		return nil, mixerr.New(mixerr.CodeNoSession, "no active session")
	}
	return m.active, nil
}

// History lists archived sessions, most recent last.
func (m *Manager) History() []*Session {
	m.mux.Lock()
	defer m.mux.Unlock()
	return slices.Clone(m.history)
}

func (m *Manager) archiveLocked() {
	m.active.end()
	m.history = append(m.history, m.active)
	if over := len(m.history) - m.cfg.HistoryLimit; over > 0 {
		m.history = slices.Delete(m.history, 0, over)
	}
	m.active = nil
}
