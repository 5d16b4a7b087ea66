package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailed  = "failed"
)

// Metrics holds all Prometheus metrics for the registrar
type Metrics struct {
	EnrollmentAttempts *prometheus.CounterVec
	Drops              prometheus.Counter
	AdminActions       *prometheus.CounterVec
	Courses            prometheus.Gauge
	Sections           prometheus.Gauge
	Users              *prometheus.GaugeVec
}

// New creates the metrics and registers them with reg. A nil reg keeps them
// unregistered, which tests and embedders use.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EnrollmentAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollment_attempts_total",
			Help:      "Enrollment attempts by result",
		}, []string{"result"}),
		Drops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drops_total",
			Help:      "Students dropped from sections, including cascades",
		}),
		AdminActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_actions_total",
			Help:      "Gated admin actions by action and outcome",
		}, []string{"action", "outcome"}),
		Courses: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_courses",
			Help:      "Courses currently in the catalog",
		}),
		Sections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_sections",
			Help:      "Sections currently in the catalog",
		}),
		Users: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_users",
			Help:      "Registered identities by role",
		}, []string{"role"}),
	}
}

// ObserveEnrollment records an enrollment attempt under result
func (m *Metrics) ObserveEnrollment(result string) {
	if m == nil {
		return
	}
	m.EnrollmentAttempts.WithLabelValues(result).Inc()
}

// ObserveDrop counts one dropped enrollment
func (m *Metrics) ObserveDrop() {
	if m == nil {
		return
	}
	m.Drops.Inc()
}

// ObserveAdminAction records a gated admin action
func (m *Metrics) ObserveAdminAction(action, outcome string) {
	if m == nil {
		return
	}
	m.AdminActions.WithLabelValues(action, outcome).Inc()
}

// SetCatalogSize publishes the current course and section counts
func (m *Metrics) SetCatalogSize(courses, sections int) {
	if m == nil {
		return
	}
	m.Courses.Set(float64(courses))
	m.Sections.Set(float64(sections))
}

// AddSections adjusts the section gauge by delta
func (m *Metrics) AddSections(delta int) {
	if m == nil {
		return
	}
	m.Sections.Add(float64(delta))
}

// SetUsers publishes the identity count of one role
func (m *Metrics) SetUsers(role string, count int) {
	if m == nil {
		return
	}
	m.Users.WithLabelValues(role).Set(float64(count))
}
