// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeCharged       = "charged"
	OutcomeAlreadyMarked = "already_marked"
	OutcomeWindowClosed  = "window_closed"

	OutcomeSent        = "sent"
	OutcomeNoStudents  = "no_students"
	OutcomeAlreadySent = "already_sent"
	OutcomeLocked      = "locked"
	OutcomeFailed      = "failed"

	OutcomeOK = "ok"
)

// Metrics groups the application collectors.
type Metrics struct {
	AttendanceMarks *prometheus.CounterVec
	MealCharges     *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	Jobs            *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AttendanceMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messmate",
			Name:      "attendance_marks_total",
			Help:      "Mark-attendance requests by meal and outcome.",
		}, []string{"meal", "outcome"}),
		MealCharges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messmate",
			Name:      "meal_charges_rupees_total",
			Help:      "Rupees charged to students for marked meals.",
		}, []string{"meal"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messmate",
			Name:      "kitchen_notifications_total",
			Help:      "Kitchen headcount notification runs by meal and outcome.",
		}, []string{"meal", "outcome"}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messmate",
			Name:      "worker_jobs_total",
			Help:      "Queue jobs processed by the worker.",
		}, []string{"type", "outcome"}),
	}
	reg.MustRegister(m.AttendanceMarks, m.MealCharges, m.Notifications, m.Jobs)
	return m
}

// NewNop returns collectors registered with a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
