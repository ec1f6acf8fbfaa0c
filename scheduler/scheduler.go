// Package scheduler keeps at most one armed one-shot timer per reminder.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"notula-server/metrics"
	"notula-server/models"
)

// Func runs when a timer fires. Errors are logged, never retried.
type Func func() error

// Source lists reminders that may still need a timer.
type Source interface {
	PendingReminders() ([]models.Reminder, error)
}

type entry struct {
	timer *time.Timer
	at    time.Time
}

type Scheduler struct {
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	timers map[string]*entry
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		now:    time.Now,
		timers: make(map[string]*entry),
	}
}

// Arm schedules fn for id at at, replacing any timer id already has.
// Times that are not strictly in the future are skipped and Arm returns false.
func (s *Scheduler) Arm(id string, at time.Time, fn Func) bool {
	now := s.now()
	if !at.After(now) {
		s.logger.Debug("skip arming past reminder", zap.String("reminder", id), zap.Time("at", at))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[id]; ok {
		prev.timer.Stop()
		delete(s.timers, id)
	}

	e := &entry{at: at}
	e.timer = time.AfterFunc(at.Sub(now), func() { s.fire(id, e, fn) })
	s.timers[id] = e
	metrics.TimersArmed.Set(float64(len(s.timers)))

	s.logger.Debug("reminder armed", zap.String("reminder", id), zap.Time("at", at))
	return true
}

// Cancel disarms id. Unknown ids are ignored.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timers[id]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(s.timers, id)
	metrics.TimersArmed.Set(float64(len(s.timers)))
	s.logger.Debug("reminder disarmed", zap.String("reminder", id))
}

// Armed returns the fire time of id's timer, if any.
func (s *Scheduler) Armed(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[id]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
	metrics.TimersArmed.Set(0)
}

// Recover arms every pending reminder whose time is still ahead. Reminders
// that came due while the process was down stay unarmed and never fire.
func (s *Scheduler) Recover(src Source, build func(models.Reminder) Func) (int, error) {
	reminders, err := src.PendingReminders()
	if err != nil {
		return 0, fmt.Errorf("load pending reminders: %w", err)
	}

	armed, elapsed := 0, 0
	now := s.now()
	for _, r := range reminders {
		if r.ScheduledAt == nil || r.Fired {
			continue
		}
		if !r.Due(now) {
			elapsed++
			continue
		}
		if s.Arm(r.ID, *r.ScheduledAt, build(r)) {
			armed++
		}
	}

	s.logger.Info("reminder timers recovered",
		zap.Int("armed", armed),
		zap.Int("elapsed", elapsed),
	)
	return armed, nil
}

func (s *Scheduler) fire(id string, e *entry, fn Func) {
	s.mu.Lock()
	if cur, ok := s.timers[id]; !ok || cur != e {
		// Replaced or cancelled after the timer had already expired.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if cur, ok := s.timers[id]; ok && cur == e {
			delete(s.timers, id)
		}
		metrics.TimersArmed.Set(float64(len(s.timers)))
		s.mu.Unlock()
	}()

	s.run(id, fn)
}

func (s *Scheduler) run(id string, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RemindersFired.WithLabelValues(metrics.ResultFailed).Inc()
			s.logger.Error("reminder callback panicked", zap.String("reminder", id), zap.Any("panic", r))
		}
	}()

	if err := fn(); err != nil {
		metrics.RemindersFired.WithLabelValues(metrics.ResultFailed).Inc()
		s.logger.Warn("reminder delivery failed", zap.String("reminder", id), zap.Error(err))
		return
	}
	metrics.RemindersFired.WithLabelValues(metrics.ResultDelivered).Inc()
	s.logger.Info("reminder fired", zap.String("reminder", id))
}
