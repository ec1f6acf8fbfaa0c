package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"notula-server/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type expiries struct {
	mu     sync.Mutex
	owners []string
}

func (e *expiries) hook(owner string) {
	e.mu.Lock()
	e.owners = append(e.owners, owner)
	e.mu.Unlock()
}

func (e *expiries) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.owners...)
}

func TestSetReplacesSession(t *testing.T) {
	m := NewManager(time.Minute, zaptest.NewLogger(t))
	defer m.Stop()

	m.Set("alice", models.Session{Mode: models.ModeCreateReminder, Step: models.StepReminderText})
	m.Set("alice", models.Session{Mode: models.ModeCreateReport, Step: models.StepReportTitle})

	got, ok := m.Get("alice")
	require.True(t, ok)
	assert.Equal(t, models.ModeCreateReport, got.Mode)
	assert.Equal(t, models.StepReportTitle, got.Step)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get("bob")
	assert.False(t, ok)
}

func TestSetStampsDeadline(t *testing.T) {
	m := NewManager(2*time.Minute, zaptest.NewLogger(t))
	defer m.Stop()
	base := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	stored := m.Set("alice", models.Session{Mode: models.ModeCreateReminder, Step: models.StepReminderText})
	assert.True(t, base.Add(2*time.Minute).Equal(stored.ExpiresAt))

	base = base.Add(90 * time.Second)
	stored = m.Set("alice", models.Session{Mode: models.ModeCreateReminder, Step: models.StepReminderTime})
	assert.True(t, base.Add(2*time.Minute).Equal(stored.ExpiresAt))
}

func TestExpiryDeletesAndNotifiesOnce(t *testing.T) {
	var exp expiries
	m := NewManager(30*time.Millisecond, zaptest.NewLogger(t))
	m.OnExpire(exp.hook)

	m.Set("alice", models.Session{Mode: models.ModeCreateReminder, Step: models.StepReminderText})

	require.Eventually(t, func() bool { return len(exp.list()) == 1 }, time.Second, 5*time.Millisecond)
	_, ok := m.Get("alice")
	assert.False(t, ok)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"alice"}, exp.list())
}

func TestSetExtendsDeadline(t *testing.T) {
	var exp expiries
	m := NewManager(80*time.Millisecond, zaptest.NewLogger(t))
	m.OnExpire(exp.hook)

	m.Set("alice", models.Session{Mode: models.ModeCreateReport, Step: models.StepReportTitle})
	time.Sleep(50 * time.Millisecond)
	m.Set("alice", models.Session{Mode: models.ModeCreateReport, Step: models.StepReportCompletion})
	time.Sleep(50 * time.Millisecond)

	// 100ms after the first Set, but only 50ms after the second.
	_, ok := m.Get("alice")
	assert.True(t, ok)
	assert.Empty(t, exp.list())

	require.Eventually(t, func() bool { return len(exp.list()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, exp.list(), 1)
}

func TestClearCancelsTimer(t *testing.T) {
	var exp expiries
	m := NewManager(20*time.Millisecond, zaptest.NewLogger(t))
	m.OnExpire(exp.hook)

	m.Set("alice", models.Session{Mode: models.ModeEditNoteText, Step: models.StepSingle})
	m.Clear("alice")
	m.Clear("alice")

	assert.Equal(t, 0, m.Len())
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, exp.list())
}

func TestOwnersAreIsolated(t *testing.T) {
	var fired atomic.Int32
	m := NewManager(30*time.Millisecond, zaptest.NewLogger(t))
	m.OnExpire(func(string) { fired.Add(1) })

	m.Set("alice", models.Session{Mode: models.ModeCreateReminder, Step: models.StepReminderText})
	m.Set("bob", models.Session{Mode: models.ModeCreateReport, Step: models.StepReportTitle})
	m.Clear("alice")

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, m.Len())
}
