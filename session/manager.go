// Package session keeps the live wizard state of each conversation and
// evicts it after a period without state changes.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"notula-server/metrics"
	"notula-server/models"
)

// DefaultTimeout is the idle window measured from the latest Set.
const DefaultTimeout = 2 * time.Minute

// ExpireFunc is called once per evicted session, after it has been deleted.
type ExpireFunc func(ownerID string)

type entry struct {
	state models.Session
	timer *time.Timer
	gen   uint64
}

type Manager struct {
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	gen      uint64
	onExpire ExpireFunc
}

func NewManager(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// OnExpire installs the eviction hook.
func (m *Manager) OnExpire(fn ExpireFunc) {
	m.mu.Lock()
	m.onExpire = fn
	m.mu.Unlock()
}

func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

func (m *Manager) Get(ownerID string) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[ownerID]
	if !ok {
		return models.Session{}, false
	}
	return e.state, true
}

// Set replaces the owner's session and restarts its idle timer.
func (m *Manager) Set(ownerID string, state models.Session) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.sessions[ownerID]; ok {
		prev.timer.Stop()
	}

	m.gen++
	gen := m.gen
	state.ExpiresAt = m.now().Add(m.timeout)
	e := &entry{state: state, gen: gen}
	e.timer = time.AfterFunc(m.timeout, func() { m.expire(ownerID, gen) })
	m.sessions[ownerID] = e
	metrics.SessionsActive.Set(float64(len(m.sessions)))

	m.logger.Debug("session set",
		zap.String("owner", ownerID),
		zap.String("mode", string(state.Mode)),
		zap.Int("step", int(state.Step)),
	)
	return state
}

// Clear drops the owner's session without notifying anyone.
func (m *Manager) Clear(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[ownerID]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(m.sessions, ownerID)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.logger.Debug("session cleared", zap.String("owner", ownerID))
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop drops every session and its timer.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		e.timer.Stop()
		delete(m.sessions, id)
	}
	metrics.SessionsActive.Set(0)
}

func (m *Manager) expire(ownerID string, gen uint64) {
	m.mu.Lock()
	e, ok := m.sessions[ownerID]
	if !ok || e.gen != gen {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, ownerID)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	hook := m.onExpire
	m.mu.Unlock()

	metrics.SessionsExpired.Inc()
	m.logger.Info("session expired",
		zap.String("owner", ownerID),
		zap.String("mode", string(e.state.Mode)),
	)
	if hook != nil {
		hook(ownerID)
	}
}
