// Package flow drives the chat wizards: it consumes inbound text and button
// events, advances the owner's session, resolves times, persists reminders
// and reports, and arms reminder timers.
package flow

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"notula-server/commands"
	"notula-server/models"
	"notula-server/scheduler"
	"notula-server/timeparse"
)

// Store is the persistence the wizards need.
type Store interface {
	CreateReminder(ownerID, text string, at *time.Time) (*models.Reminder, error)
	GetReminder(id, ownerID string) (*models.Reminder, error)
	GetReminderByID(id string) (*models.Reminder, error)
	GetRemindersForOwner(ownerID string) ([]models.Reminder, error)
	UpdateReminderText(id, ownerID, text string) error
	RescheduleReminder(id, ownerID string, at time.Time) error
	MarkReminderDone(id, ownerID string) error
	MarkReminderFired(id string) error
	DeleteReminder(id, ownerID string) error

	CreateReport(r *models.Report) (*models.Report, error)
	GetReport(id, ownerID string) (*models.Report, error)
	GetReportsForOwner(ownerID string) ([]models.Report, error)
	GetReportsBetween(ownerID string, from, to time.Time) ([]models.Report, error)
	UpdateReport(r *models.Report) error
	DeleteReport(id, ownerID string) error
}

type Timers interface {
	Arm(id string, at time.Time, fn scheduler.Func) bool
	Cancel(id string)
}

type Sessions interface {
	Get(ownerID string) (models.Session, bool)
	Set(ownerID string, s models.Session) models.Session
	Clear(ownerID string)
}

// Gateway delivers outbound messages to a conversation.
type Gateway interface {
	SendText(ownerID, text string) error
	SendButtons(ownerID, text string, rows [][]models.Button) error
	AckButton(ownerID, callbackID, text string) error
}

type Orchestrator struct {
	store    Store
	timers   Timers
	sessions Sessions
	gateway  Gateway
	resolver *timeparse.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

func New(store Store, timers Timers, sessions Sessions, gateway Gateway, resolver *timeparse.Resolver, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		timers:   timers,
		sessions: sessions,
		gateway:  gateway,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle processes one inbound event. It is not safe to call concurrently
// for the same owner; the Dispatcher serialises calls.
func (o *Orchestrator) Handle(ev models.Event) {
	var err error
	switch ev.Kind {
	case models.EventText:
		err = o.handleText(ev.OwnerID, ev.Text)
	case models.EventButton:
		err = o.handleButton(ev.OwnerID, ev.CallbackID, ev.Data)
	case models.EventExpired:
		o.handleExpired(ev.OwnerID)
	default:
		o.logger.Warn("unknown event kind", zap.Int("kind", int(ev.Kind)), zap.String("owner", ev.OwnerID))
	}

	if err != nil {
		o.logger.Error("event failed",
			zap.String("owner", ev.OwnerID),
			zap.Int("kind", int(ev.Kind)),
			zap.Error(err),
		)
		o.sendText(ev.OwnerID, msgInternalError)
	}
}

func (o *Orchestrator) handleText(ownerID, text string) error {
	if cmd, ok := commands.Parse(text); ok {
		return o.runCommand(ownerID, cmd)
	}

	st, ok := o.sessions.Get(ownerID)
	if !ok {
		o.showMenu(ownerID, msgIdle)
		return nil
	}

	step, ok := textSteps[stepKey{st.Mode, st.Step}]
	if !ok {
		o.logger.Error("no transition for session",
			zap.String("owner", ownerID),
			zap.String("mode", string(st.Mode)),
			zap.Int("step", int(st.Step)),
		)
		o.sessions.Clear(ownerID)
		o.showMenu(ownerID, msgIdle)
		return nil
	}
	return step(o, ownerID, st, text)
}

// handleExpired runs after the timer already dropped the session. A session
// present now was started by a later event and is left alone.
func (o *Orchestrator) handleExpired(ownerID string) {
	if _, ok := o.sessions.Get(ownerID); ok {
		o.logger.Debug("session restarted before expiry notice", zap.String("owner", ownerID))
		return
	}
	o.sendText(ownerID, msgSessionExpired)
	o.showMenu(ownerID, msgMenu)
}

// resolveFailed reports whether err is a recoverable parse failure, telling
// the user so. The session is left as it was.
func (o *Orchestrator) resolveFailed(ownerID string, err error, prompt string) bool {
	if !errors.Is(err, timeparse.ErrUnrecognizedTime) {
		return false
	}
	o.sendText(ownerID, prompt)
	return true
}

func (o *Orchestrator) sendText(ownerID, text string) {
	if err := o.gateway.SendText(ownerID, text); err != nil {
		o.logger.Warn("send text failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

func (o *Orchestrator) sendButtons(ownerID, text string, rows [][]models.Button) {
	if err := o.gateway.SendButtons(ownerID, text, rows); err != nil {
		o.logger.Warn("send buttons failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

func (o *Orchestrator) showMenu(ownerID, text string) {
	o.sendButtons(ownerID, text, mainMenu())
}
