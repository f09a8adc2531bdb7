// Package metrics exposes Prometheus instruments for validation sessions.
//
// Metrics:
//   - rdapschema_validations_total: sessions by rule set and outcome
//   - rdapschema_validation_duration_seconds: session duration by rule set
//   - rdapschema_findings_total: findings by rule set and code
//   - rdapschema_unmatched_violations_total: schema failures no strategy claimed
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config names the metric family.
type Config struct {
	Namespace string
	Subsystem string
	// Buckets for the duration histogram; nil uses exponential buckets from
	// 100µs to roughly 1.6s.
	Buckets []float64
}

// DefaultConfig returns the namespace used by the CLI.
func DefaultConfig() Config {
	return Config{Namespace: "rdapschema"}
}

// Outcome labels.
const (
	OutcomeConformant    = "conformant"
	OutcomeNonConformant = "nonconformant"
	OutcomeError         = "error"
)

// Collector records validation sessions. A nil *Collector is valid and
// records nothing.
type Collector struct {
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	findingsTotal      *prometheus.CounterVec
	unmatchedTotal     *prometheus.CounterVec
}

// NewCollector creates the instruments and registers them with registry.
func NewCollector(cfg Config, registry prometheus.Registerer) *Collector {
	buckets := cfg.Buckets
	if buckets == nil {
		buckets = prometheus.ExponentialBuckets(0.0001, 2, 15)
	}
	c := &Collector{
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of validation sessions",
			},
			[]string{"ruleset", "outcome"},
		),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Duration of one validation session in seconds",
				Buckets:   buckets,
			},
			[]string{"ruleset"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "findings_total",
				Help:      "Total number of findings reported",
			},
			[]string{"ruleset", "code"},
		),
		unmatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "unmatched_violations_total",
				Help:      "Schema violations that no translation strategy claimed",
			},
			[]string{"ruleset"},
		),
	}
	registry.MustRegister(
		c.validationsTotal,
		c.validationDuration,
		c.findingsTotal,
		c.unmatchedTotal,
	)
	return c
}

// RecordValidation records one finished session.
func (c *Collector) RecordValidation(ruleset, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.validationsTotal.WithLabelValues(ruleset, outcome).Inc()
	c.validationDuration.WithLabelValues(ruleset).Observe(d.Seconds())
}

// RecordFindings counts findings by code.
func (c *Collector) RecordFindings(ruleset string, codes []int) {
	if c == nil {
		return
	}
	for _, code := range codes {
		c.findingsTotal.WithLabelValues(ruleset, strconv.Itoa(code)).Inc()
	}
}

// RecordUnmatched counts untranslated violations.
func (c *Collector) RecordUnmatched(ruleset string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.unmatchedTotal.WithLabelValues(ruleset).Add(float64(n))
}
