package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
)

const namespace = "task_review"

const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid_transition"
	OutcomeValidation = "validation_failed"
	OutcomeConflict   = "conflict"
	OutcomeError      = "error"
)

// Recorder collects review pipeline metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	transitions *prometheus.CounterVec
	deliveries  *prometheus.HistogramVec
	queued      prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Workflow actions by action and outcome.",
		}, []string{"action", "outcome"}),
		deliveries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_delivery_ms",
			Help:      "Notification delivery latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		}, []string{"err"}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_queue_length",
			Help:      "Events waiting in the dispatch queue.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{r.transitions, r.deliveries, r.queued} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register metrics: %w", err)
			}
		}
	}
	return r, nil
}

func (r *Recorder) ObserveTransition(action constants.Action, err error) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(string(action), Outcome(err)).Inc()
}

func (r *Recorder) ObserveDelivery(err error, duration time.Duration) {
	if r == nil {
		return
	}
	v := float64(duration) / float64(time.Millisecond)
	r.deliveries.WithLabelValues(fmt.Sprint(err != nil)).Observe(v)
}

func (r *Recorder) SetQueueLength(n int) {
	if r == nil {
		return
	}
	r.queued.Set(float64(n))
}

// Outcome classifies an action result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return OutcomeInvalid
	case errors.Is(err, apperrors.ErrValidationFailed):
		return OutcomeValidation
	case errors.Is(err, apperrors.ErrPersistenceFailed), errors.Is(err, apperrors.ErrOptimisticLock):
		return OutcomeConflict
	}
	return OutcomeError
}
