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

// keepSentinel retains the current value of a field in edit_report.
const keepSentinel = "-"

// Field tags of the text steps, used by keep:<tag> buttons.
const (
	fieldTitle      = "title"
	fieldCompletion = "completion"
	fieldNotes      = "notes"
)

// timeField binds a report time step to its button tag and its draft slot.
type timeField struct {
	tag   string
	step  models.Step
	label string
	get   func(r *models.Report) *time.Time
	set   func(r *models.Report, t *time.Time)
}

var (
	reportTimeOf  = func(r *models.Report) *time.Time { return r.ReportTime }
	receiveTimeOf = func(r *models.Report) *time.Time { return r.ReceiveTime }
	doneTimeOf    = func(r *models.Report) *time.Time { return r.DoneTime }

	setReportTime  = func(r *models.Report, t *time.Time) { r.ReportTime = t }
	setReceiveTime = func(r *models.Report, t *time.Time) { r.ReceiveTime = t }
	setDoneTime    = func(r *models.Report, t *time.Time) { r.DoneTime = t }
)

// Create and edit field tags are disjoint.
var timeFields = map[models.Mode][]timeField{
	models.ModeCreateReport: {
		{"report_time", models.StepReportTime, "Report time", reportTimeOf, setReportTime},
		{"receive_time", models.StepReceiveTime, "Receive time", receiveTimeOf, setReceiveTime},
		{"done_time", models.StepDoneTime, "Done time", doneTimeOf, setDoneTime},
	},
	models.ModeEditReport: {
		{"edit_report_time", models.StepReportTime, "Report time", reportTimeOf, setReportTime},
		{"edit_receive_time", models.StepReceiveTime, "Receive time", receiveTimeOf, setReceiveTime},
		{"edit_done_time", models.StepDoneTime, "Done time", doneTimeOf, setDoneTime},
	},
}

func fieldByTag(mode models.Mode, tag string) (timeField, bool) {
	for _, f := range timeFields[mode] {
		if f.tag == tag {
			return f, true
		}
	}
	return timeField{}, false
}

func fieldByStep(mode models.Mode, step models.Step) (timeField, bool) {
	for _, f := range timeFields[mode] {
		if f.step == step {
			return f, true
		}
	}
	return timeField{}, false
}

// keepTagOf is the keep:<tag> payload offered at step in edit_report.
func keepTagOf(step models.Step) string {
	switch step {
	case models.StepReportTitle:
		return fieldTitle
	case models.StepReportCompletion:
		return fieldCompletion
	case models.StepReportNotes:
		return fieldNotes
	}
	if f, ok := fieldByStep(models.ModeEditReport, step); ok {
		return f.tag
	}
	return ""
}

func isKeep(st models.Session, text string) bool {
	return st.Mode == models.ModeEditReport && strings.TrimSpace(text) == keepSentinel
}

func (o *Orchestrator) startReport(ownerID string) {
	st := o.sessions.Set(ownerID, models.Session{
		Mode:  models.ModeCreateReport,
		Step:  models.StepReportTitle,
		Draft: models.Draft{Report: models.Report{OwnerID: ownerID}},
	})
	o.promptReportStep(ownerID, st)
}

func (o *Orchestrator) startEditReport(ownerID, id string) error {
	r, err := o.store.GetReport(id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		o.sendText(ownerID, msgReportNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	st := o.sessions.Set(ownerID, models.Session{
		Mode:  models.ModeEditReport,
		Step:  models.StepReportTitle,
		Draft: models.Draft{ReportID: r.ID, Report: *r},
	})
	o.promptReportStep(ownerID, st)
	return nil
}

func (o *Orchestrator) captureReportTitle(ownerID string, st models.Session, text string) error {
	if !isKeep(st, text) {
		text = strings.TrimSpace(text)
		if text == "" {
			o.promptReportStep(ownerID, st)
			return nil
		}
		st.Draft.Report.Title = text
	}
	o.advance(ownerID, st)
	return nil
}

func (o *Orchestrator) captureReportCompletion(ownerID string, st models.Session, text string) error {
	if !isKeep(st, text) {
		text = strings.TrimSpace(text)
		if text == "" {
			o.promptReportStep(ownerID, st)
			return nil
		}
		st.Draft.Report.Completion = text
	}
	o.advance(ownerID, st)
	return nil
}

// captureReportTime handles typed input at any of the three time steps.
// Typed stamps are strict: no forward bias and no disambiguation.
func (o *Orchestrator) captureReportTime(ownerID string, st models.Session, text string) error {
	f, ok := fieldByStep(st.Mode, st.Step)
	if !ok {
		return errors.New("report time step without field")
	}
	if isKeep(st, text) {
		o.advance(ownerID, st)
		return nil
	}

	res, err := o.resolver.Resolve(text, o.now(), timeparse.ModeStrictCustom)
	if err != nil {
		if o.resolveFailed(ownerID, err, msgUnrecognizedCustomTime) {
			return nil
		}
		return err
	}
	at := res.At
	f.set(&st.Draft.Report, &at)
	o.advance(ownerID, st)
	return nil
}

func (o *Orchestrator) captureReportNotes(ownerID string, st models.Session, text string) error {
	switch {
	case isKeep(st, text):
	case strings.TrimSpace(text) == keepSentinel:
		st.Draft.Report.Notes = ""
	default:
		st.Draft.Report.Notes = strings.TrimSpace(text)
	}
	o.advance(ownerID, st)
	return nil
}

var (
	saveWords   = map[string]bool{"save": true, "simpan": true, "ya": true, "yes": true, "ok": true}
	cancelWords = map[string]bool{"cancel": true, "batal": true, "no": true, "tidak": true}
)

// confirmReport handles text typed at the preview. Only an explicit save or
// cancel leaves the step.
func (o *Orchestrator) confirmReport(ownerID string, st models.Session, text string) error {
	word := strings.ToLower(strings.TrimSpace(text))
	switch {
	case saveWords[word]:
		return o.saveReport(ownerID, st)
	case cancelWords[word]:
		o.cancelReport(ownerID)
		return nil
	}
	o.promptReportStep(ownerID, st)
	return nil
}

// applyPreset writes a preset time into the field named by tag. A preset for
// the current step advances the wizard; one pressed on an older prompt only
// updates the draft.
func (o *Orchestrator) applyPreset(ownerID string, st models.Session, f timeField, preset timeparse.Preset) (string, error) {
	at, err := o.resolver.ResolvePreset(preset, o.now())
	switch {
	case errors.Is(err, timeparse.ErrCustomPreset):
		st.Step = f.step
		o.sessions.Set(ownerID, st)
		o.sendText(ownerID, customTimePrompt(f.label))
		return ackTypeTime, nil
	case errors.Is(err, timeparse.ErrUnknownPreset):
		return ackUnknownOption, nil
	case err != nil:
		return "", err
	}

	f.set(&st.Draft.Report, &at)
	if f.step == st.Step {
		o.advance(ownerID, st)
	} else {
		st = o.sessions.Set(ownerID, st)
		o.promptReportStep(ownerID, st)
	}
	return f.label + ": " + o.formatTime(at), nil
}

func (o *Orchestrator) advance(ownerID string, st models.Session) {
	st.Step++
	st = o.sessions.Set(ownerID, st)
	o.promptReportStep(ownerID, st)
}

func (o *Orchestrator) promptReportStep(ownerID string, st models.Session) {
	editing := st.Mode == models.ModeEditReport
	r := &st.Draft.Report

	var text string
	var rows [][]models.Button
	switch st.Step {
	case models.StepReportTitle:
		text = msgAskReportTitle
		if editing {
			text = currentValuePrompt(msgAskReportTitle, r.Title)
		}
	case models.StepReportCompletion:
		text = msgAskReportCompletion
		if editing {
			text = currentValuePrompt(msgAskReportCompletion, r.Completion)
		}
	case models.StepReportTime, models.StepReceiveTime, models.StepDoneTime:
		f, _ := fieldByStep(st.Mode, st.Step)
		text = timeFieldPrompt(f.label)
		if editing {
			text = currentValuePrompt(text, o.formatTimePtr(f.get(r)))
		}
		rows = presetButtons(f.tag)
	case models.StepReportNotes:
		text = msgAskReportNotes
		if editing {
			text = currentValuePrompt(msgAskReportNotes, r.Notes)
		}
	case models.StepReportPreview:
		o.sendButtons(ownerID, o.reportPreview(r), reportConfirmButtons())
		return
	default:
		return
	}

	if editing {
		rows = append(rows, []models.Button{keepButton(keepTagOf(st.Step))})
	}
	if len(rows) == 0 {
		o.sendText(ownerID, text)
		return
	}
	o.sendButtons(ownerID, text, rows)
}

func (o *Orchestrator) saveReport(ownerID string, st models.Session) error {
	r := st.Draft.Report
	r.OwnerID = ownerID

	var err error
	if st.Mode == models.ModeEditReport {
		r.ID = st.Draft.ReportID
		err = o.store.UpdateReport(&r)
	} else {
		_, err = o.store.CreateReport(&r)
	}
	if errors.Is(err, store.ErrNotFound) {
		o.sessions.Clear(ownerID)
		o.showMenu(ownerID, msgReportNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	o.sessions.Clear(ownerID)
	metrics.WizardsCompleted.WithLabelValues(string(st.Mode)).Inc()
	o.showMenu(ownerID, reportSavedText(r.Title))
	return nil
}

func (o *Orchestrator) cancelReport(ownerID string) {
	o.sessions.Clear(ownerID)
	o.showMenu(ownerID, msgReportCancelled)
}
