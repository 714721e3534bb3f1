package observability

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

const (
	metricValidations = "runeforge_blueprint_validations_total"
	metricSelections  = "runeforge_selections_total"
	metricDuration    = "runeforge_selection_duration_milliseconds"
	metricViolations  = "runeforge_constraint_violations_total"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts what one run validated and selected. It is safe for
// concurrent use, and every method is a no-op on a nil receiver so callers
// never have to check whether metrics are enabled.
type Metrics struct {
	registry    *prometheus.Registry
	validations prometheus.Counter
	selections  *prometheus.CounterVec
	duration    prometheus.Summary
	violations  *prometheus.CounterVec
}

// MetricsSnapshot is a point-in-time view of a Metrics recorder.
type MetricsSnapshot struct {
	BlueprintValidations   uint64  `json:"blueprint_validations"`
	SuccessfulSelections   uint64  `json:"successful_selections"`
	FailedSelections       uint64  `json:"failed_selections"`
	AverageSelectionTimeMS float64 `json:"average_selection_time_ms"`
	ConstraintViolations   uint64  `json:"constraint_violations"`
}

// NewMetrics returns a recorder backed by its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricValidations,
			Help: "Total number of blueprint validations.",
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricSelections,
			Help: "Total number of stack selections by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: metricDuration,
			Help: "Duration of stack selections.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricViolations,
			Help: "Total number of candidates rejected by a hard constraint.",
		}, []string{"constraint"}),
	}
	m.registry.MustRegister(m.validations, m.selections, m.duration, m.violations)

	// Both outcomes are exported even before the first selection.
	m.selections.WithLabelValues(outcomeSuccess)
	m.selections.WithLabelValues(outcomeFailure)
	return m
}

func (m *Metrics) RecordValidation() {
	if m == nil {
		return
	}
	m.validations.Inc()
}

// RecordSelection counts one Select call and its wall-clock duration.
func (m *Metrics) RecordSelection(success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if !success {
		outcome = outcomeFailure
	}
	m.selections.WithLabelValues(outcome).Inc()
	m.duration.Observe(float64(d) / float64(time.Millisecond))
}

// RecordConstraintViolation counts one candidate rejection, labelled with
// the constraint that rejected it.
func (m *Metrics) RecordConstraintViolation(constraint string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(constraint).Inc()
}

// Snapshot sums the registered series into a MetricsSnapshot.
func (m *Metrics) Snapshot() (MetricsSnapshot, error) {
	var s MetricsSnapshot
	if m == nil {
		return s, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return s, errors.Wrap(err, "gather metrics")
	}

	var durationSum float64
	var durationCount uint64
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch mf.GetName() {
			case metricValidations:
				s.BlueprintValidations += uint64(metric.GetCounter().GetValue())
			case metricSelections:
				n := uint64(metric.GetCounter().GetValue())
				if labelValue(metric, "outcome") == outcomeSuccess {
					s.SuccessfulSelections += n
				} else {
					s.FailedSelections += n
				}
			case metricDuration:
				durationSum += metric.GetSummary().GetSampleSum()
				durationCount += metric.GetSummary().GetSampleCount()
			case metricViolations:
				s.ConstraintViolations += uint64(metric.GetCounter().GetValue())
			}
		}
	}
	if durationCount > 0 {
		s.AverageSelectionTimeMS = durationSum / float64(durationCount)
	}
	return s, nil
}

// LogSummary writes the snapshot as a single info entry.
func (m *Metrics) LogSummary(l *zap.Logger) {
	if m == nil {
		return
	}
	s, err := m.Snapshot()
	if err != nil {
		l.Warn("Could not summarize metrics", zap.Error(err))
		return
	}
	l.Info("Metrics summary",
		zap.Uint64("blueprint_validations", s.BlueprintValidations),
		zap.Uint64("successful_selections", s.SuccessfulSelections),
		zap.Uint64("failed_selections", s.FailedSelections),
		zap.Float64("average_selection_time_ms", s.AverageSelectionTimeMS),
		zap.Uint64("constraint_violations", s.ConstraintViolations))
}

// WritePrometheus writes every series in the Prometheus text exposition format.
func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "encode metric family %s", mf.GetName())
		}
	}
	return nil
}

// WriteJSON writes the snapshot as a JSON object.
func (m *Metrics) WriteJSON(w io.Writer) error {
	s, err := m.Snapshot()
	if err != nil {
		return err
	}
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "encode metrics")
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
