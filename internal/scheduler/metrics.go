package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	// timersArmed is the size of the in-memory timer registry.
	timersArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pillmate_reminder_timers_armed",
			Help: "Number of reminders with an armed timer.",
		},
	)

	triggersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pillmate_reminder_triggers_total",
			Help: "Total number of reminder occurrences fired.",
		},
	)

	// triggerErrors counts collaborator failures inside the trigger pipeline,
	// by pipeline step (load_user, save_medication, notify, play_media, ...).
	triggerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillmate_reminder_trigger_errors_total",
			Help: "Failures during reminder trigger processing, by step.",
		},
		[]string{"step"},
	)

	fastForwards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pillmate_reminder_bootstrap_fast_forwards_total",
			Help: "Reminders whose next date was moved forward at start-up.",
		},
	)
)

func init() {
	prometheus.MustRegister(timersArmed, triggersTotal, triggerErrors, fastForwards)
}
