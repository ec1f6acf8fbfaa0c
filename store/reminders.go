package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"notula-server/models"
)

const reminderColumns = `id, owner_id, text, scheduled_at, fired, status, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var r models.Reminder
	var at sql.NullTime
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Text, &at, &r.Fired, &r.Status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.ScheduledAt = timePtr(at)
	return &r, nil
}

func (s *Store) queryReminders(query string, args ...interface{}) ([]models.Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

// CreateReminder stores a pending reminder. at may be nil for a note that
// has no time yet.
func (s *Store) CreateReminder(ownerID, text string, at *time.Time) (*models.Reminder, error) {
	reminder := &models.Reminder{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Text:        text,
		ScheduledAt: at,
		Status:      models.ReminderPending,
		CreatedAt:   time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO reminders (id, owner_id, text, scheduled_at, fired, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, reminder.ID, reminder.OwnerID, reminder.Text, nullTime(reminder.ScheduledAt), reminder.Fired, reminder.Status, reminder.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *Store) GetReminder(id, ownerID string) (*models.Reminder, error) {
	r, err := scanReminder(s.db.QueryRow(`
		SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND owner_id = ?
	`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// GetReminderByID ignores ownership; only timer callbacks use it.
func (s *Store) GetReminderByID(id string) (*models.Reminder, error) {
	r, err := scanReminder(s.db.QueryRow(`
		SELECT `+reminderColumns+` FROM reminders WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) GetRemindersForOwner(ownerID string) ([]models.Reminder, error) {
	return s.queryReminders(`
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE owner_id = ?
		ORDER BY scheduled_at IS NULL, scheduled_at ASC, created_at ASC
	`, ownerID)
}

// PendingReminders lists timed reminders that have neither fired nor been
// marked done, across all owners.
func (s *Store) PendingReminders() ([]models.Reminder, error) {
	return s.queryReminders(`
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE scheduled_at IS NOT NULL AND fired = FALSE AND status = ?
		ORDER BY scheduled_at ASC
	`, models.ReminderPending)
}

func (s *Store) UpdateReminderText(id, ownerID, text string) error {
	return affected(s.db.Exec(
		"UPDATE reminders SET text = ? WHERE id = ? AND owner_id = ?",
		text, id, ownerID,
	))
}

// RescheduleReminder sets a new time and makes the reminder eligible to fire again.
func (s *Store) RescheduleReminder(id, ownerID string, at time.Time) error {
	return affected(s.db.Exec(
		"UPDATE reminders SET scheduled_at = ?, fired = FALSE, status = ? WHERE id = ? AND owner_id = ?",
		at, models.ReminderPending, id, ownerID,
	))
}

func (s *Store) MarkReminderDone(id, ownerID string) error {
	return affected(s.db.Exec(
		"UPDATE reminders SET status = ? WHERE id = ? AND owner_id = ?",
		models.ReminderDone, id, ownerID,
	))
}

func (s *Store) MarkReminderFired(id string) error {
	return affected(s.db.Exec("UPDATE reminders SET fired = TRUE WHERE id = ?", id))
}

func (s *Store) DeleteReminder(id, ownerID string) error {
	return affected(s.db.Exec("DELETE FROM reminders WHERE id = ? AND owner_id = ?", id, ownerID))
}
