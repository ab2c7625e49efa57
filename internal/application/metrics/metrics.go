package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// Outcome label values for validation counters
const (
	OutcomeValid      = "valid"
	OutcomeStructural = "structural"
	OutcomeGuard      = "guard"
	OutcomeConflict   = "conflict"
)

var (
	transitionValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotflow_transition_validations_total",
		Help: "Transition validations by entity and outcome (valid, structural, guard, conflict)",
	}, []string{"entity", "outcome"})

	transitionsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotflow_transitions_applied_total",
		Help: "Committed status transitions by entity and target status",
	}, []string{"entity", "to"})

	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lotflow_transition_duration_seconds",
		Help:    "Time to validate and commit a status transition by entity",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"entity"})
)

// OutcomeOf maps an engine result to its counter label
func OutcomeOf(r workflow.Result) string {
	switch {
	case r.Valid:
		return OutcomeValid
	case r.Rejection == workflow.RejectionGuard:
		return OutcomeGuard
	default:
		return OutcomeStructural
	}
}

// RecordValidation counts one validation outcome for an entity type
func RecordValidation(entity string, r workflow.Result) {
	transitionValidationsTotal.WithLabelValues(sanitize(entity), OutcomeOf(r)).Inc()
}

// RecordConflict counts a transition lost to a concurrent status change
func RecordConflict(entity string) {
	transitionValidationsTotal.WithLabelValues(sanitize(entity), OutcomeConflict).Inc()
}

// RecordApplied counts a committed transition and observes how long it took
func RecordApplied(entity, to string, started time.Time) {
	entity = sanitize(entity)
	transitionsAppliedTotal.WithLabelValues(entity, to).Inc()
	transitionDuration.WithLabelValues(entity).Observe(time.Since(started).Seconds())
}

func sanitize(entity string) string {
	if entity == "" {
		return "unknown"
	}
	return entity
}
