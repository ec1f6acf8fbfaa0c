package flow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"notula-server/models"
	"notula-server/scheduler"
	"notula-server/store"
)

// FireReminder builds the timer callback for reminder id. The row is reloaded
// at fire time; a reminder that was completed, already delivered or moved to a
// later time is left alone.
func (o *Orchestrator) FireReminder(id string) scheduler.Func {
	return func() error {
		rem, err := o.store.GetReminderByID(id)
		if errors.Is(err, store.ErrNotFound) {
			o.logger.Debug("reminder gone before fire", zap.String("reminder", id))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load reminder %s: %w", id, err)
		}
		if rem.Status == models.ReminderDone || rem.Fired || rem.ScheduledAt == nil {
			return nil
		}
		if rem.ScheduledAt.After(o.now().Add(time.Second)) {
			return nil
		}

		sendErr := o.gateway.SendText(rem.OwnerID, reminderFiredText(rem.Text))
		if sendErr != nil {
			sendErr = fmt.Errorf("deliver reminder %s: %w", id, sendErr)
		}
		markErr := o.store.MarkReminderFired(id)
		if markErr != nil {
			markErr = fmt.Errorf("mark reminder %s fired: %w", id, markErr)
		}
		return errors.Join(sendErr, markErr)
	}
}

// startNote stores a reminder with no time yet and waits for one.
func (o *Orchestrator) startNote(ownerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		o.sendText(ownerID, msgUsageNote)
		return nil
	}
	rem, err := o.store.CreateReminder(ownerID, text, nil)
	if err != nil {
		return err
	}
	o.sessions.Set(ownerID, models.Session{
		Mode:  models.ModeAwaitTimeForNote,
		Step:  models.StepSingle,
		Draft: models.Draft{ReminderID: rem.ID, Text: rem.Text},
	})
	o.sendText(ownerID, noteSavedPrompt(rem.Text))
	return nil
}

func (o *Orchestrator) startEditText(ownerID, id string) error {
	rem, ok, err := o.ownedReminder(ownerID, id)
	if !ok || err != nil {
		return err
	}
	o.sessions.Set(ownerID, models.Session{
		Mode:  models.ModeEditNoteText,
		Step:  models.StepSingle,
		Draft: models.Draft{ReminderID: rem.ID, Text: rem.Text},
	})
	o.sendText(ownerID, editTextPrompt(rem.Text))
	return nil
}

func (o *Orchestrator) startEditTime(ownerID, id string) error {
	rem, ok, err := o.ownedReminder(ownerID, id)
	if !ok || err != nil {
		return err
	}
	o.sessions.Set(ownerID, models.Session{
		Mode:  models.ModeEditNoteTime,
		Step:  models.StepSingle,
		Draft: models.Draft{ReminderID: rem.ID, Text: rem.Text},
	})
	o.sendText(ownerID, editTimePrompt(rem.Text, o.formatTimePtr(rem.ScheduledAt)))
	return nil
}

// ownedReminder loads id for ownerID, telling the user when it does not exist.
func (o *Orchestrator) ownedReminder(ownerID, id string) (*models.Reminder, bool, error) {
	if id == "" {
		o.sendText(ownerID, msgUsageReminderID)
		return nil, false, nil
	}
	rem, err := o.store.GetReminder(id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		o.sendText(ownerID, msgReminderNotFound)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rem, true, nil
}

func (o *Orchestrator) markReminderDone(ownerID, id string) error {
	if id == "" {
		o.sendText(ownerID, msgUsageReminderID)
		return nil
	}
	err := o.store.MarkReminderDone(id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		o.sendText(ownerID, msgReminderNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	o.timers.Cancel(id)
	o.sendText(ownerID, msgReminderDone)
	return nil
}

func (o *Orchestrator) deleteReminder(ownerID, id string) error {
	if id == "" {
		o.sendText(ownerID, msgUsageReminderID)
		return nil
	}
	err := o.store.DeleteReminder(id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		o.sendText(ownerID, msgReminderNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	o.timers.Cancel(id)
	o.sendText(ownerID, msgReminderDeleted)
	return nil
}

func (o *Orchestrator) listReminders(ownerID string) error {
	rems, err := o.store.GetRemindersForOwner(ownerID)
	if err != nil {
		return err
	}
	if len(rems) == 0 {
		o.showMenu(ownerID, msgNoReminders)
		return nil
	}
	o.sendText(ownerID, o.reminderList(rems))
	return nil
}

// listReports shows every report of ownerID, or those whose report time falls
// in [from, to) when both bounds are given.
func (o *Orchestrator) listReports(ownerID string, from, to *time.Time) error {
	var reports []models.Report
	var err error
	if from != nil && to != nil {
		reports, err = o.store.GetReportsBetween(ownerID, *from, *to)
	} else {
		reports, err = o.store.GetReportsForOwner(ownerID)
	}
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		o.showMenu(ownerID, msgNoReports)
		return nil
	}
	o.sendText(ownerID, o.reportList(reports))
	return nil
}

func (o *Orchestrator) deleteReport(ownerID, id string) error {
	if id == "" {
		o.sendText(ownerID, msgUsageReportID)
		return nil
	}
	err := o.store.DeleteReport(id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		o.sendText(ownerID, msgReportNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	o.sendText(ownerID, msgReportDeleted)
	return nil
}

func (o *Orchestrator) cancelSession(ownerID string) {
	if _, ok := o.sessions.Get(ownerID); !ok {
		o.showMenu(ownerID, msgNothingToCancel)
		return
	}
	o.sessions.Clear(ownerID)
	o.showMenu(ownerID, msgCancelled)
}
