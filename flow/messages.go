package flow

import (
	"fmt"
	"strings"
	"time"

	"notula-server/models"
	"notula-server/timeparse"
)

const displayLayout = "Mon 02 Jan 2006 15:04"

const (
	msgWelcome         = "👋 Hi! I keep your reminders and work reports. What would you like to do?"
	msgMenu            = "What would you like to do?"
	msgIdle            = "I'm not in the middle of anything. Pick an option below."
	msgSessionExpired  = "⌛ That took a while, so I dropped the unfinished entry."
	msgInternalError   = "Something went wrong on my side. Please try again."
	msgUnknownCommand  = "I don't know that command."
	msgCancelled       = "Cancelled."
	msgNothingToCancel = "Nothing to cancel."

	msgAskReminderText     = "What should I remind you about?"
	msgAskReminderTime     = "When? For example `jam 9 pagi`, `besok 14:30` or `2026-10-20 09:00`."
	msgUnrecognizedTime    = "I couldn't read that time. Try `jam 9 pagi`, `besok 14:30` or `2026-10-20 09:00`."
	msgTimeInPast          = "That time has already passed. Please give a later time."
	msgAskNewText          = "Send the new text for this reminder."
	msgReminderTextUpdated = "✏️ Reminder text updated."
	msgReminderNotFound    = "I can't find that reminder."
	msgReminderDone        = "✅ Marked as done."
	msgReminderDeleted     = "🗑 Reminder deleted."
	msgNoReminders         = "You have no reminders yet."

	msgAskReportTitle         = "Report title?"
	msgAskReportCompletion    = "Completion status? For example `done`, `80%` or `blocked`."
	msgAskReportNotes         = "Any notes? Send `-` for none."
	msgUnrecognizedCustomTime = "Please type the time as `YYYY-MM-DD HH:mm`, for example `2026-10-20 09:00`."
	msgReportCancelled        = "Report discarded."
	msgReportNotFound         = "I can't find that report."
	msgReportDeleted          = "🗑 Report deleted."
	msgNoReports              = "No reports found."

	msgUsageNote       = "Usage: `/note <text>`"
	msgUsageReminderID = "Please give the reminder id, for example `/done <id>`. `/list` shows ids."
	msgUsageReportID   = "Please give the report id. `/reports` shows ids."
	msgUsageReports    = "Usage: `/reports [from] [to]` with days as `YYYY-MM-DD`."
)

// Button acknowledgement texts.
const (
	ackNoSession     = "Nothing in progress"
	ackUnknownOption = "Unknown option"
	ackTypeTime      = "Type the time"
	ackKept          = "Kept"
	ackSaved         = "Saved"
	ackCancelled     = "Cancelled"
)

func mainMenu() [][]models.Button {
	return [][]models.Button{
		{{Label: "⏰ New reminder", Data: "menu:new_reminder"}, {Label: "📝 New report", Data: "menu:new_report"}},
		{{Label: "📋 My reminders", Data: "menu:list_reminders"}, {Label: "📊 My reports", Data: "menu:list_reports"}},
	}
}

func confirmButtons() [][]models.Button {
	return [][]models.Button{
		{{Label: "Yes, tomorrow", Data: "confirm:yes"}, {Label: "No, another time", Data: "confirm:no"}},
	}
}

func reportConfirmButtons() [][]models.Button {
	return [][]models.Button{
		{{Label: "💾 Save", Data: "report:save"}, {Label: "✖️ Cancel", Data: "report:cancel"}},
	}
}

// presetButtons offers every preset for the field tag, two per row.
func presetButtons(tag string) [][]models.Button {
	var rows [][]models.Button
	var row []models.Button
	for _, p := range timeparse.Presets {
		row = append(row, models.Button{Label: p.Label(), Data: "preset:" + tag + ":" + string(p)})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func keepButton(tag string) models.Button {
	return models.Button{Label: "Keep current", Data: "keep:" + tag}
}

func (o *Orchestrator) formatTime(t time.Time) string {
	return t.In(o.resolver.Location()).Format(displayLayout)
}

func (o *Orchestrator) formatTimePtr(t *time.Time) string {
	if t == nil {
		return "not set"
	}
	return o.formatTime(*t)
}

func passedTodayPrompt(at time.Time) string {
	return fmt.Sprintf("%s today has already passed. Remind you tomorrow at %s instead?", at.Format("15:04"), at.Format("15:04"))
}

func reminderSavedText(text, when string) string {
	return fmt.Sprintf("⏰ Got it. I'll remind you about *%s* on %s.", text, when)
}

func reminderFiredText(text string) string {
	return "🔔 *Reminder:* " + text
}

func noteSavedPrompt(text string) string {
	return fmt.Sprintf("📌 Noted *%s*. When should I remind you?", text)
}

func editTextPrompt(current string) string {
	return fmt.Sprintf("Current text: *%s*\n%s", current, msgAskNewText)
}

func editTimePrompt(text, when string) string {
	return fmt.Sprintf("*%s* is set for %s.\n%s", text, when, msgAskReminderTime)
}

func timeFieldPrompt(label string) string {
	return label + "? Pick one or choose Custom to type it."
}

func customTimePrompt(label string) string {
	return fmt.Sprintf("Type the %s as `YYYY-MM-DD HH:mm`.", strings.ToLower(label))
}

func currentValuePrompt(prompt, current string) string {
	if current == "" {
		current = "(empty)"
	}
	return fmt.Sprintf("%s\nCurrent: %s\nSend `-` to keep it.", prompt, current)
}

func reportSavedText(title string) string {
	return fmt.Sprintf("📝 Report *%s* saved.", title)
}

func (o *Orchestrator) reportPreview(r *models.Report) string {
	var b strings.Builder
	b.WriteString("*Report preview*\n")
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Completion: %s\n", r.Completion)
	fmt.Fprintf(&b, "Report time: %s\n", o.formatTimePtr(r.ReportTime))
	fmt.Fprintf(&b, "Receive time: %s\n", o.formatTimePtr(r.ReceiveTime))
	fmt.Fprintf(&b, "Done time: %s\n", o.formatTimePtr(r.DoneTime))
	notes := r.Notes
	if notes == "" {
		notes = "-"
	}
	fmt.Fprintf(&b, "Notes: %s\n", notes)
	b.WriteString("\nSave this report?")
	return b.String()
}

func (o *Orchestrator) reminderList(rems []models.Reminder) string {
	var b strings.Builder
	b.WriteString("*Your reminders*\n")
	for _, r := range rems {
		status := "⏳"
		switch {
		case r.Status == models.ReminderDone:
			status = "✅"
		case r.Fired:
			status = "🔔"
		}
		fmt.Fprintf(&b, "%s %s · %s · `%s`\n", status, r.Text, o.formatTimePtr(r.ScheduledAt), r.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (o *Orchestrator) reportList(reports []models.Report) string {
	var b strings.Builder
	b.WriteString("*Your reports*\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "• %s (%s) · %s · `%s`\n", r.Title, r.Completion, o.formatTimePtr(r.ReportTime), r.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
