package flow

import (
	"errors"
	"strings"
	"time"

	"notula-server/metrics"
	"notula-server/models"
	"notula-server/store"
	"notula-server/timeparse"
)

type stepKey struct {
	mode models.Mode
	step models.Step
}

type stepFunc func(o *Orchestrator, ownerID string, st models.Session, text string) error

// textSteps maps every (mode, step) a session can be in to the handler for
// free text typed at that point.
var textSteps = map[stepKey]stepFunc{
	{models.ModeCreateReminder, models.StepReminderText}:   (*Orchestrator).captureReminderText,
	{models.ModeCreateReminder, models.StepReminderTime}:   (*Orchestrator).captureReminderTime,
	{models.ModeConfirmNextForReminder, models.StepSingle}: (*Orchestrator).confirmNextDay,
	{models.ModeAwaitTimeForNote, models.StepSingle}:       (*Orchestrator).captureReminderTime,
	{models.ModeEditNoteText, models.StepSingle}:           (*Orchestrator).captureNoteText,
	{models.ModeEditNoteTime, models.StepSingle}:           (*Orchestrator).captureReminderTime,

	{models.ModeCreateReport, models.StepReportTitle}:      (*Orchestrator).captureReportTitle,
	{models.ModeCreateReport, models.StepReportCompletion}: (*Orchestrator).captureReportCompletion,
	{models.ModeCreateReport, models.StepReportTime}:       (*Orchestrator).captureReportTime,
	{models.ModeCreateReport, models.StepReceiveTime}:      (*Orchestrator).captureReportTime,
	{models.ModeCreateReport, models.StepDoneTime}:         (*Orchestrator).captureReportTime,
	{models.ModeCreateReport, models.StepReportNotes}:      (*Orchestrator).captureReportNotes,
	{models.ModeCreateReport, models.StepReportPreview}:    (*Orchestrator).confirmReport,

	{models.ModeEditReport, models.StepReportTitle}:      (*Orchestrator).captureReportTitle,
	{models.ModeEditReport, models.StepReportCompletion}: (*Orchestrator).captureReportCompletion,
	{models.ModeEditReport, models.StepReportTime}:       (*Orchestrator).captureReportTime,
	{models.ModeEditReport, models.StepReceiveTime}:      (*Orchestrator).captureReportTime,
	{models.ModeEditReport, models.StepDoneTime}:         (*Orchestrator).captureReportTime,
	{models.ModeEditReport, models.StepReportNotes}:      (*Orchestrator).captureReportNotes,
	{models.ModeEditReport, models.StepReportPreview}:    (*Orchestrator).confirmReport,
}

// stepsOf lists the steps of mode in order.
func stepsOf(mode models.Mode) []models.Step {
	switch mode {
	case models.ModeCreateReminder:
		return []models.Step{models.StepReminderText, models.StepReminderTime}
	case models.ModeConfirmNextForReminder, models.ModeAwaitTimeForNote,
		models.ModeEditNoteText, models.ModeEditNoteTime:
		return []models.Step{models.StepSingle}
	case models.ModeCreateReport, models.ModeEditReport:
		return []models.Step{
			models.StepReportTitle, models.StepReportCompletion,
			models.StepReportTime, models.StepReceiveTime, models.StepDoneTime,
			models.StepReportNotes, models.StepReportPreview,
		}
	}
	return nil
}

// timeStepOf is the step that captures the reminder time in mode.
func timeStepOf(mode models.Mode) models.Step {
	if mode == models.ModeCreateReminder {
		return models.StepReminderTime
	}
	return models.StepSingle
}

var affirmatives = map[string]bool{
	"ya": true, "iya": true, "y": true, "yes": true, "ok": true, "oke": true, "okay": true, "boleh": true,
}

func isAffirmative(text string) bool {
	return affirmatives[strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!"))]
}

// Reminder wizards

func (o *Orchestrator) startReminder(ownerID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		o.sessions.Set(ownerID, models.Session{Mode: models.ModeCreateReminder, Step: models.StepReminderText})
		o.sendText(ownerID, msgAskReminderText)
		return
	}
	o.sessions.Set(ownerID, models.Session{
		Mode:  models.ModeCreateReminder,
		Step:  models.StepReminderTime,
		Draft: models.Draft{Text: text},
	})
	o.sendText(ownerID, msgAskReminderTime)
}

func (o *Orchestrator) captureReminderText(ownerID string, st models.Session, text string) error {
	o.startReminder(ownerID, text)
	return nil
}

// captureReminderTime serves create_reminder step 2, await_time_for_note and
// edit_note_time.
func (o *Orchestrator) captureReminderTime(ownerID string, st models.Session, text string) error {
	now := o.now()
	res, err := o.resolver.Resolve(text, now, timeparse.ModeNatural)
	if err != nil {
		if o.resolveFailed(ownerID, err, msgUnrecognizedTime) {
			return nil
		}
		return err
	}

	if res.Passed {
		o.sessions.Set(ownerID, models.Session{
			Mode: models.ModeConfirmNextForReminder,
			Step: models.StepSingle,
			Draft: models.Draft{
				ReminderID: st.Draft.ReminderID,
				Text:       st.Draft.Text,
				Candidate:  res.At,
				Origin:     st.Mode,
			},
		})
		o.sendButtons(ownerID, passedTodayPrompt(res.At), confirmButtons())
		return nil
	}

	if !res.At.After(now) {
		o.sendText(ownerID, msgTimeInPast)
		return nil
	}
	return o.commitReminderTime(ownerID, st.Draft, res.At, st.Mode)
}

func (o *Orchestrator) confirmNextDay(ownerID string, st models.Session, text string) error {
	if isAffirmative(text) {
		return o.commitReminderTime(ownerID, st.Draft, st.Draft.Candidate.AddDate(0, 0, 1), st.Draft.Origin)
	}

	origin := st.Draft.Origin
	if !origin.Valid() || origin == models.ModeConfirmNextForReminder {
		origin = models.ModeCreateReminder
	}
	o.sessions.Set(ownerID, models.Session{
		Mode: origin,
		Step: timeStepOf(origin),
		Draft: models.Draft{
			ReminderID: st.Draft.ReminderID,
			Text:       st.Draft.Text,
		},
	})
	o.sendText(ownerID, msgAskReminderTime)
	return nil
}

// commitReminderTime persists at for the drafted reminder, arms its timer and
// ends the wizard.
func (o *Orchestrator) commitReminderTime(ownerID string, draft models.Draft, at time.Time, origin models.Mode) error {
	var rem *models.Reminder
	var err error
	if draft.ReminderID == "" {
		rem, err = o.store.CreateReminder(ownerID, draft.Text, &at)
	} else {
		err = o.store.RescheduleReminder(draft.ReminderID, ownerID, at)
		if err == nil {
			rem, err = o.store.GetReminder(draft.ReminderID, ownerID)
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		o.sessions.Clear(ownerID)
		o.showMenu(ownerID, msgReminderNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	o.timers.Arm(rem.ID, at, o.FireReminder(rem.ID))
	o.sessions.Clear(ownerID)
	metrics.WizardsCompleted.WithLabelValues(string(origin)).Inc()
	o.showMenu(ownerID, reminderSavedText(rem.Text, o.formatTime(at)))
	return nil
}

func (o *Orchestrator) captureNoteText(ownerID string, st models.Session, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		o.sendText(ownerID, msgAskNewText)
		return nil
	}

	err := o.store.UpdateReminderText(st.Draft.ReminderID, ownerID, text)
	if errors.Is(err, store.ErrNotFound) {
		o.sessions.Clear(ownerID)
		o.showMenu(ownerID, msgReminderNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	o.sessions.Clear(ownerID)
	metrics.WizardsCompleted.WithLabelValues(string(st.Mode)).Inc()
	o.showMenu(ownerID, msgReminderTextUpdated)
	return nil
}
