package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/library-console/internal/dialog"
	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/query"
	"github.com/noah-isme/library-console/internal/roster"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// RosterLoader fetches the full roster from the library API.
type RosterLoader interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// Gauge receives the number of live sessions.
type Gauge interface {
	SetActiveSessions(n int)
}

// Options configures the manager and the sessions it creates.
type Options struct {
	PageSize     int
	TTL          time.Duration
	Pipeline     *query.Pipeline
	Mutator      dialog.Mutator
	Resolver     func() dialog.BanDurationResolver
	FormDefaults dialog.StudentForm
	Now          func() time.Time
}

// Manager owns every live session.
type Manager struct {
	loader RosterLoader
	opts   Options
	logger *zap.Logger
	gauge  Gauge
	newID  func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager builds an empty session manager.
func NewManager(loader RosterLoader, opts Options, logger *zap.Logger, gauge Gauge) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pipeline == nil {
		opts.Pipeline = query.NewPipeline(defaultTag)
	}
	return &Manager{
		loader:   loader,
		opts:     opts,
		logger:   logger,
		gauge:    gauge,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
	}
}

// Create loads the roster and registers a new session for it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	students, err := m.loader.ListStudents(ctx)
	if err != nil {
		m.logger.Warn("roster load failed", zap.Error(err))
		return nil, err
	}

	now := m.opts.Now()
	store := roster.NewStore()
	store.Dispatch(roster.Loaded(students))

	s := &Session{
		ID:        m.newID(),
		CreatedAt: now,
		Store:     store,
		Ban:       dialog.NewBanDialog(m.opts.Mutator, m.opts.Resolver, m.opts.Now),
		Notify:    dialog.NewNotifyDialog(m.opts.Mutator),
		Edit:      dialog.NewEditDialog(m.opts.Mutator, m.opts.FormDefaults),
		Filter:    dialog.NewFilterDialog(),
		pipeline:  m.opts.Pipeline,
		pageSize:  m.opts.PageSize,
		view:      ViewState{Filters: models.FilterState{Sort: models.SortName}, Page: 1},
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.report(count)
	m.logger.Info("console session created", zap.String("session_id", s.ID), zap.Int("students", len(students)))
	return s, nil
}

// Get returns the live session with id and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrSessionRequired
	}
	now := m.opts.Now()
	if m.expired(s, now) {
		m.Delete(id)
		return nil, appErrors.Clone(appErrors.ErrSessionRequired, "console session expired")
	}
	s.touch(now)
	return s, nil
}

// Reload replaces the session's roster with a fresh listing, closes every
// dialog and returns to the first page. On failure the old roster is kept.
func (m *Manager) Reload(ctx context.Context, s *Session) error {
	students, err := m.loader.ListStudents(ctx)
	if err != nil {
		m.logger.Warn("roster reload failed", zap.String("session_id", s.ID), zap.Error(err))
		return err
	}
	s.CloseDialogs()
	s.Store.Dispatch(roster.Loaded(students))
	s.resetPage()
	return nil
}

// Delete drops the session with id.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()
	if ok {
		m.report(count)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	now := m.opts.Now()

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.report(count)
		m.logger.Info("expired console sessions removed", zap.Int("removed", removed), zap.Int("remaining", count))
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.opts.TTL > 0 && now.Sub(s.idleSince()) > m.opts.TTL
}

func (m *Manager) report(count int) {
	if m.gauge != nil {
		m.gauge.SetActiveSessions(count)
	}
}
