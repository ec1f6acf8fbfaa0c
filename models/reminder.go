package models

import "time"

const (
	ReminderPending = "pending"
	ReminderDone    = "done"
)

type Reminder struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Text        string     `json:"text"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Fired       bool       `json:"fired"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Due reports whether the reminder still waits for a future notification.
func (r *Reminder) Due(now time.Time) bool {
	return r.ScheduledAt != nil && !r.Fired && r.Status != ReminderDone && r.ScheduledAt.After(now)
}
