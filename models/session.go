package models

import "time"

// Mode names a wizard. The set is closed; see Valid.
type Mode string

const (
	ModeCreateReminder         Mode = "create_reminder"
	ModeConfirmNextForReminder Mode = "confirm_next_for_reminder"
	ModeAwaitTimeForNote       Mode = "await_time_for_note"
	ModeEditNoteText           Mode = "edit_note_text"
	ModeEditNoteTime           Mode = "edit_note_time"
	ModeCreateReport           Mode = "create_report"
	ModeEditReport             Mode = "edit_report"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeCreateReminder, ModeConfirmNextForReminder, ModeAwaitTimeForNote,
		ModeEditNoteText, ModeEditNoteTime, ModeCreateReport, ModeEditReport:
		return true
	}
	return false
}

func (m Mode) IsReportWizard() bool {
	return m == ModeCreateReport || m == ModeEditReport
}

// Step is a 1-based position inside a wizard.
type Step int

// Steps of create_reminder.
const (
	StepReminderText Step = 1
	StepReminderTime Step = 2
)

// StepSingle is the only step of confirm_next_for_reminder, await_time_for_note
// and the edit_note_* wizards.
const StepSingle Step = 1

// Steps shared by create_report and edit_report.
const (
	StepReportTitle Step = iota + 1
	StepReportCompletion
	StepReportTime
	StepReceiveTime
	StepDoneTime
	StepReportNotes
	StepReportPreview
)

// Draft is the working record a wizard fills in.
type Draft struct {
	ReminderID string    `json:"reminder_id,omitempty"`
	Text       string    `json:"text,omitempty"`
	Candidate  time.Time `json:"candidate,omitempty"`
	// Origin is the wizard a declined disambiguation returns to.
	Origin   Mode   `json:"origin,omitempty"`
	ReportID string `json:"report_id,omitempty"`
	Report   Report `json:"report"`
}

type Session struct {
	Mode      Mode      `json:"mode"`
	Step      Step      `json:"step"`
	Draft     Draft     `json:"draft"`
	ExpiresAt time.Time `json:"expires_at"`
}
