package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordValidation(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(Config{Namespace: "test"}, registry)

	c.RecordValidation("domain", OutcomeConformant, 2*time.Millisecond)
	c.RecordValidation("domain", OutcomeNonConformant, 3*time.Millisecond)
	c.RecordValidation("domain", OutcomeNonConformant, time.Millisecond)

	if got := testutil.ToFloat64(c.validationsTotal.WithLabelValues("domain", OutcomeNonConformant)); got != 2 {
		t.Errorf("nonconformant = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(c.validationDuration); got != 1 {
		t.Errorf("histogram series = %d, want 1", got)
	}
}

func TestCollector_RecordFindings(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(Config{Namespace: "test"}, registry)

	c.RecordFindings("entity", []int{-10912, -10912, -11703})
	c.RecordUnmatched("entity", 0)
	c.RecordUnmatched("entity", 2)

	if got := testutil.ToFloat64(c.findingsTotal.WithLabelValues("entity", "-10912")); got != 2 {
		t.Errorf("findings -10912 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.unmatchedTotal.WithLabelValues("entity")); got != 2 {
		t.Errorf("unmatched = %v, want 2", got)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.RecordValidation("domain", OutcomeError, time.Second)
	c.RecordFindings("domain", []int{-1})
	c.RecordUnmatched("domain", 1)
}
