package models

import "time"

type Report struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Completion  string     `json:"completion"`
	ReportTime  *time.Time `json:"report_time,omitempty"`
	ReceiveTime *time.Time `json:"receive_time,omitempty"`
	DoneTime    *time.Time `json:"done_time,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
}
