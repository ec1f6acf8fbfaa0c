// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TimersArmed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notula_timers_armed",
		Help: "Reminder timers currently armed.",
	})

	RemindersFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notula_reminders_fired_total",
		Help: "Reminder timers that fired, by outcome.",
	}, []string{"result"})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notula_sessions_active",
		Help: "Live wizard sessions.",
	})

	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notula_sessions_expired_total",
		Help: "Wizard sessions evicted by the idle timeout.",
	})

	WizardsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notula_wizard_completed_total",
		Help: "Wizards that reached a commit, by mode.",
	}, []string{"mode"})
)

const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)
