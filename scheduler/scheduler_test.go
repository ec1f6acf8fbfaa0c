package scheduler

import (
	"errors"
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

func counter(n *atomic.Int32) Func {
	return func() error {
		n.Add(1)
		return nil
	}
}

func TestArmFiresOnce(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	var fired atomic.Int32

	require.True(t, s.Arm("r1", time.Now().Add(20*time.Millisecond), counter(&fired)))
	assert.Equal(t, 1, s.Len())

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, fired.Load())
	_, ok := s.Armed("r1")
	assert.False(t, ok)
}

func TestArmTwiceReplaces(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	var first, second atomic.Int32

	require.True(t, s.Arm("r1", time.Now().Add(40*time.Millisecond), counter(&first)))
	later := time.Now().Add(60 * time.Millisecond)
	require.True(t, s.Arm("r1", later, counter(&second)))

	assert.Equal(t, 1, s.Len())
	got, ok := s.Armed("r1")
	require.True(t, ok)
	assert.True(t, later.Equal(got))

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, first.Load())
	assert.EqualValues(t, 1, second.Load())
}

func TestArmSkipsNonFutureTimes(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	fixed := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	var fired atomic.Int32

	assert.False(t, s.Arm("past", fixed.Add(-time.Minute), counter(&fired)))
	assert.False(t, s.Arm("now", fixed, counter(&fired)))
	assert.Equal(t, 0, s.Len())

	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 0, fired.Load())
}

func TestCancel(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	var fired atomic.Int32

	require.True(t, s.Arm("r1", time.Now().Add(30*time.Millisecond), counter(&fired)))
	s.Cancel("r1")
	s.Cancel("r1")
	s.Cancel("unknown")

	assert.Equal(t, 0, s.Len())
	time.Sleep(80 * time.Millisecond)
	assert.EqualValues(t, 0, fired.Load())
}

func TestFailingCallbackStillRemovesEntry(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	var calls atomic.Int32

	s.Arm("err", time.Now().Add(10*time.Millisecond), func() error {
		calls.Add(1)
		return errors.New("gateway down")
	})
	s.Arm("panic", time.Now().Add(10*time.Millisecond), func() error {
		calls.Add(1)
		panic("boom")
	})

	require.Eventually(t, func() bool { return calls.Load() == 2 && s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStopDisarmsEverything(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	var fired atomic.Int32

	for _, id := range []string{"a", "b", "c"} {
		s.Arm(id, time.Now().Add(30*time.Millisecond), counter(&fired))
	}
	s.Stop()

	assert.Equal(t, 0, s.Len())
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 0, fired.Load())
}

type fakeSource struct {
	reminders []models.Reminder
	err       error
}

func (f fakeSource) PendingReminders() ([]models.Reminder, error) {
	return f.reminders, f.err
}

func TestRecover(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	defer s.Stop()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	src := fakeSource{reminders: []models.Reminder{
		{ID: "future", ScheduledAt: &future},
		{ID: "future-2", ScheduledAt: &future},
		{ID: "past", ScheduledAt: &past},
		{ID: "fired", ScheduledAt: &future, Fired: true},
		{ID: "untimed"},
	}}

	var built []string
	armed, err := s.Recover(src, func(r models.Reminder) Func {
		built = append(built, r.ID)
		return func() error { return nil }
	})
	require.NoError(t, err)

	assert.Equal(t, 2, armed)
	assert.Equal(t, 2, s.Len())
	for _, id := range []string{"future", "future-2"} {
		at, ok := s.Armed(id)
		assert.True(t, ok, id)
		assert.True(t, future.Equal(at), id)
	}
	for _, id := range []string{"past", "fired", "untimed"} {
		_, ok := s.Armed(id)
		assert.False(t, ok, id)
	}
	assert.Equal(t, []string{"future", "future-2", "past"}, built)
}

func TestRecoverSourceError(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	armed, err := s.Recover(fakeSource{err: errors.New("db locked")}, nil)
	assert.Error(t, err)
	assert.Zero(t, armed)
}
