package sink

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// Metrics exports detection results as Prometheus series.
type Metrics struct {
	samples   prometheus.Counter
	scored    prometheus.Counter
	anomalies prometheus.Counter
	lastValue prometheus.Gauge
	lastScore prometheus.Gauge
	absScore  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamwatch_samples_total",
			Help: "Total number of samples accepted by the detector",
		}),
		scored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamwatch_scored_samples_total",
			Help: "Total number of samples scored against a full window",
		}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamwatch_anomalies_total",
			Help: "Total number of samples flagged as anomalous",
		}),
		lastValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamwatch_last_value",
			Help: "Most recent sample value",
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamwatch_last_zscore",
			Help: "Z-score of the most recent scored sample",
		}),
		absScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamwatch_abs_zscore",
			Help:    "Distribution of absolute z-scores",
			Buckets: []float64{0.5, 1, 1.5, 2, 2.5, 3, 4, 6, 10},
		}),
	}
	reg.MustRegister(
		m.samples,
		m.scored,
		m.anomalies,
		m.lastValue,
		m.lastScore,
		m.absScore,
	)
	return m
}

func (m *Metrics) Update(obs monitor.Observation) error {
	m.samples.Inc()
	m.lastValue.Set(obs.Value)
	if !obs.Scored {
		return nil
	}
	m.scored.Inc()
	m.lastScore.Set(obs.Score)
	m.absScore.Observe(math.Abs(obs.Score))
	if obs.Anomaly {
		m.anomalies.Inc()
	}
	return nil
}

func (m *Metrics) Finalize() error { return nil }
