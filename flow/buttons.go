package flow

import (
	"go.uber.org/zap"

	"notula-server/commands"
	"notula-server/models"
	"notula-server/timeparse"
)

// Button payload kinds.
const (
	cbMenu     = "menu"
	cbPreset   = "preset"
	cbKeep     = "keep"
	cbConfirm  = "confirm"
	cbReport   = "report"
	cbReminder = "reminder"
)

// handleButton decodes a button payload and acts on it. The press is always
// acknowledged, whatever happens.
func (o *Orchestrator) handleButton(ownerID, callbackID, data string) (err error) {
	ack := ""
	defer func() {
		if ackErr := o.gateway.AckButton(ownerID, callbackID, ack); ackErr != nil {
			o.logger.Warn("ack button failed", zap.String("owner", ownerID), zap.Error(ackErr))
		}
	}()

	cb := commands.ParseCallback(data)
	switch cb.Kind {
	case cbMenu:
		ack, err = o.pressMenu(ownerID, cb.Field)
	case cbPreset:
		ack, err = o.pressPreset(ownerID, cb.Field, timeparse.Preset(cb.Value))
	case cbKeep:
		ack = o.pressKeep(ownerID, cb.Field)
	case cbConfirm:
		ack, err = o.pressConfirm(ownerID, cb.Field)
	case cbReport:
		ack, err = o.pressReport(ownerID, cb.Field, cb.Value)
	case cbReminder:
		ack, err = o.pressReminder(ownerID, cb.Field, cb.Value)
	default:
		o.logger.Debug("unknown button", zap.String("owner", ownerID), zap.String("data", data))
		ack = ackUnknownOption
	}
	return err
}

func (o *Orchestrator) pressMenu(ownerID, item string) (string, error) {
	switch item {
	case "new_reminder":
		o.startReminder(ownerID, "")
	case "new_report":
		o.startReport(ownerID)
	case "list_reminders":
		return "", o.listReminders(ownerID)
	case "list_reports":
		return "", o.listReports(ownerID, nil, nil)
	case "cancel":
		o.cancelSession(ownerID)
	default:
		return ackUnknownOption, nil
	}
	return "", nil
}

// pressPreset accepts preset:<field>:<preset> only while the live session's
// wizard owns the field.
func (o *Orchestrator) pressPreset(ownerID, tag string, preset timeparse.Preset) (string, error) {
	st, ok := o.sessions.Get(ownerID)
	if !ok {
		return ackNoSession, nil
	}
	f, ok := fieldByTag(st.Mode, tag)
	if !ok {
		return ackUnknownOption, nil
	}
	return o.applyPreset(ownerID, st, f, preset)
}

// pressKeep retains the value of the field on screen. A keep for any other
// field is ignored.
func (o *Orchestrator) pressKeep(ownerID, tag string) string {
	st, ok := o.sessions.Get(ownerID)
	if !ok {
		return ackNoSession
	}
	if st.Mode != models.ModeEditReport || keepTagOf(st.Step) != tag {
		return ackUnknownOption
	}
	o.advance(ownerID, st)
	return ackKept
}

func (o *Orchestrator) pressConfirm(ownerID, answer string) (string, error) {
	st, ok := o.sessions.Get(ownerID)
	if !ok {
		return ackNoSession, nil
	}
	if st.Mode != models.ModeConfirmNextForReminder {
		return ackUnknownOption, nil
	}
	switch answer {
	case "yes":
		return "", o.confirmNextDay(ownerID, st, "yes")
	case "no":
		return "", o.confirmNextDay(ownerID, st, "no")
	}
	return ackUnknownOption, nil
}

// pressReport serves report:save, report:cancel and the per-report actions
// offered in listings.
func (o *Orchestrator) pressReport(ownerID, action, id string) (string, error) {
	switch action {
	case "edit":
		return "", o.startEditReport(ownerID, id)
	case "delete":
		return "", o.deleteReport(ownerID, id)
	}

	st, ok := o.sessions.Get(ownerID)
	if !ok {
		return ackNoSession, nil
	}
	if !st.Mode.IsReportWizard() || st.Step != models.StepReportPreview {
		return ackUnknownOption, nil
	}
	switch action {
	case "save":
		return ackSaved, o.saveReport(ownerID, st)
	case "cancel":
		o.cancelReport(ownerID)
		return ackCancelled, nil
	}
	return ackUnknownOption, nil
}

func (o *Orchestrator) pressReminder(ownerID, action, id string) (string, error) {
	switch action {
	case "done":
		return "", o.markReminderDone(ownerID, id)
	case "delete":
		return "", o.deleteReminder(ownerID, id)
	case "edit_text":
		return "", o.startEditText(ownerID, id)
	case "edit_time":
		return "", o.startEditTime(ownerID, id)
	}
	return ackUnknownOption, nil
}
