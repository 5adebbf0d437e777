package revoke

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records batch counters on a private registry so a one-shot run can
// export them through node_exporter's textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	rows        *prometheus.CounterVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewMetrics creates the batch metrics with every outcome label at zero.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credprune_rows_total",
			Help: "Rows processed by the last batch, by outcome",
		}, []string{"outcome"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credprune_batch_duration_seconds",
			Help: "Wall-clock duration of the last batch",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credprune_batch_last_completion_timestamp_seconds",
			Help: "Unix time the last batch ran to completion",
		}),
	}
	for _, kind := range OutcomeKinds {
		m.rows.WithLabelValues(kind.String())
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRow(kind OutcomeKind) {
	m.rows.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) observeBatch(res *BatchResult) {
	m.duration.Set(res.Duration.Seconds())
	if !res.Interrupted {
		m.lastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}
