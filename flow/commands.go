package flow

import (
	"fmt"
	"time"

	"notula-server/commands"
	"notula-server/timeparse"
)

// runCommand executes a slash command. Commands that open a wizard replace
// whatever session was live.
func (o *Orchestrator) runCommand(ownerID string, cmd commands.Command) error {
	switch cmd.Name {
	case "start":
		o.sessions.Clear(ownerID)
		o.showMenu(ownerID, msgWelcome)
	case "menu":
		o.sessions.Clear(ownerID)
		o.showMenu(ownerID, msgMenu)
	case "cancel":
		o.cancelSession(ownerID)
	case "remind":
		o.startReminder(ownerID, cmd.Rest)
	case "note":
		return o.startNote(ownerID, cmd.Rest)
	case "list":
		return o.listReminders(ownerID)
	case "done":
		return o.markReminderDone(ownerID, cmd.Arg(0))
	case "delete":
		return o.deleteReminder(ownerID, cmd.Arg(0))
	case "edittext":
		return o.startEditText(ownerID, cmd.Arg(0))
	case "edittime":
		return o.startEditTime(ownerID, cmd.Arg(0))
	case "report":
		o.startReport(ownerID)
	case "reports":
		return o.runReports(ownerID, cmd)
	case "editreport":
		if cmd.Arg(0) == "" {
			o.sendText(ownerID, msgUsageReportID)
			return nil
		}
		return o.startEditReport(ownerID, cmd.Arg(0))
	case "deletereport":
		return o.deleteReport(ownerID, cmd.Arg(0))
	default:
		o.showMenu(ownerID, msgUnknownCommand)
	}
	return nil
}

// runReports handles "/reports [from] [to]". Both bounds are calendar days and
// inclusive; a single day lists that day only.
func (o *Orchestrator) runReports(ownerID string, cmd commands.Command) error {
	if len(cmd.Args) == 0 {
		return o.listReports(ownerID, nil, nil)
	}

	from, err := o.parseDay(cmd.Arg(0))
	if err != nil {
		o.sendText(ownerID, msgUsageReports)
		return nil
	}
	to := from
	if cmd.Arg(1) != "" {
		if to, err = o.parseDay(cmd.Arg(1)); err != nil {
			o.sendText(ownerID, msgUsageReports)
			return nil
		}
	}
	if to.Before(from) {
		from, to = to, from
	}
	end := to.AddDate(0, 0, 1)
	return o.listReports(ownerID, &from, &end)
}

// parseDay reads a date and returns the start of that day in the bot's zone.
func (o *Orchestrator) parseDay(s string) (time.Time, error) {
	loc := o.resolver.Location()
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	res, err := o.resolver.Resolve(s, o.now(), timeparse.ModeStrictCustom)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	y, m, d := res.At.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}
