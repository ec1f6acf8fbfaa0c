package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"notula-server/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "notula.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notula.db")
	logger := zaptest.NewLogger(t)

	s, err := New(path, logger)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path, logger)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("dina", "Dina", "rahasia123")
	require.NoError(t, err)

	got, err := s.GetUserByUsername("dina")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, s.ValidatePassword(got, "rahasia123"))
	assert.False(t, s.ValidatePassword(got, "wrong"))

	_, err = s.CreateUser("dina", "Other", "whatever1")
	assert.Error(t, err)

	_, err = s.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReminderLifecycle(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

	r, err := s.CreateReminder("owner-1", "bayar listrik", &at)
	require.NoError(t, err)
	note, err := s.CreateReminder("owner-1", "beli kopi", nil)
	require.NoError(t, err)

	got, err := s.GetReminder(r.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "bayar listrik", got.Text)
	require.NotNil(t, got.ScheduledAt)
	assert.True(t, at.Equal(*got.ScheduledAt))
	assert.Equal(t, models.ReminderPending, got.Status)
	assert.False(t, got.Fired)

	got, err = s.GetReminder(note.ID, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, got.ScheduledAt)

	list, err := s.GetRemindersForOwner("owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, r.ID, list[0].ID, "timed reminders sort first")

	require.NoError(t, s.UpdateReminderText(r.ID, "owner-1", "bayar listrik & air"))
	require.NoError(t, s.MarkReminderFired(r.ID))
	got, err = s.GetReminder(r.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "bayar listrik & air", got.Text)
	assert.True(t, got.Fired)

	later := at.Add(24 * time.Hour)
	require.NoError(t, s.RescheduleReminder(r.ID, "owner-1", later))
	got, err = s.GetReminder(r.ID, "owner-1")
	require.NoError(t, err)
	assert.False(t, got.Fired)
	assert.True(t, later.Equal(*got.ScheduledAt))

	require.NoError(t, s.MarkReminderDone(r.ID, "owner-1"))
	got, err = s.GetReminder(r.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReminderDone, got.Status)

	require.NoError(t, s.DeleteReminder(r.ID, "owner-1"))
	_, err = s.GetReminder(r.ID, "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReminderOwnershipIsolation(t *testing.T) {
	s := newTestStore(t)

	r, err := s.CreateReminder("owner-1", "rahasia", nil)
	require.NoError(t, err)

	_, err = s.GetReminder(r.ID, "owner-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateReminderText(r.ID, "owner-2", "x"), ErrNotFound)
	assert.ErrorIs(t, s.RescheduleReminder(r.ID, "owner-2", time.Now()), ErrNotFound)
	assert.ErrorIs(t, s.MarkReminderDone(r.ID, "owner-2"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteReminder(r.ID, "owner-2"), ErrNotFound)

	got, err := s.GetReminder(r.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "rahasia", got.Text)
}

func TestPendingReminders(t *testing.T) {
	s := newTestStore(t)
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	pending, err := s.CreateReminder("a", "future", &future)
	require.NoError(t, err)
	elapsed, err := s.CreateReminder("b", "past", &past)
	require.NoError(t, err)
	fired, err := s.CreateReminder("a", "fired", &future)
	require.NoError(t, err)
	require.NoError(t, s.MarkReminderFired(fired.ID))
	done, err := s.CreateReminder("a", "done", &future)
	require.NoError(t, err)
	require.NoError(t, s.MarkReminderDone(done.ID, "a"))
	_, err = s.CreateReminder("a", "untimed", nil)
	require.NoError(t, err)

	list, err := s.PendingReminders()
	require.NoError(t, err)

	var ids []string
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{pending.ID, elapsed.ID}, ids)
}

func TestReportLifecycle(t *testing.T) {
	s := newTestStore(t)
	reportAt := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	doneAt := time.Date(2026, time.October, 16, 13, 0, 0, 0, time.UTC)

	created, err := s.CreateReport(&models.Report{
		OwnerID:    "owner-1",
		Title:      "Server down",
		Completion: "Restarted nginx",
		ReportTime: &reportAt,
		DoneTime:   &doneAt,
		Notes:      "-",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.GetReport(created.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Server down", got.Title)
	assert.Equal(t, "Restarted nginx", got.Completion)
	assert.True(t, reportAt.Equal(*got.ReportTime))
	assert.Nil(t, got.ReceiveTime)
	assert.True(t, doneAt.Equal(*got.DoneTime))

	got.Title = "Server down (prod)"
	got.ReceiveTime = &reportAt
	require.NoError(t, s.UpdateReport(got))
	got, err = s.GetReport(created.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Server down (prod)", got.Title)
	require.NotNil(t, got.ReceiveTime)

	_, err = s.GetReport(created.ID, "owner-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteReport(created.ID, "owner-2"), ErrNotFound)

	require.NoError(t, s.DeleteReport(created.ID, "owner-1"))
	_, err = s.GetReport(created.ID, "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReportsBetween(t *testing.T) {
	s := newTestStore(t)
	day := func(d int) *time.Time {
		t := time.Date(2026, time.October, d, 9, 0, 0, 0, time.UTC)
		return &t
	}

	for _, r := range []models.Report{
		{OwnerID: "o", Title: "15th", ReportTime: day(15)},
		{OwnerID: "o", Title: "16th", ReportTime: day(16)},
		{OwnerID: "o", Title: "18th", ReportTime: day(18)},
		{OwnerID: "o", Title: "untimed"},
		{OwnerID: "other", Title: "other owner", ReportTime: day(16)},
	} {
		r := r
		_, err := s.CreateReport(&r)
		require.NoError(t, err)
	}

	from := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	list, err := s.GetReportsBetween("o", from, to)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "16th", list[0].Title)
}
