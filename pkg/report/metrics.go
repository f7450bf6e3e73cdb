package report

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter counts reports per label.
type Counter struct {
	vec *prometheus.CounterVec
}

// NewCounter creates the counter and registers it with reg when reg is not nil.
func NewCounter(reg prometheus.Registerer) (*Counter, error) {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourguide_reports_total",
			Help: "Total number of diagnostics reports by label",
		},
		[]string{"label"},
	)
	if reg != nil {
		if err := reg.Register(vec); err != nil {
			return nil, err
		}
	}
	return &Counter{vec: vec}, nil
}

func (c *Counter) Report(ctx context.Context, label string) {
	c.vec.WithLabelValues(label).Inc()
}

// Collector exposes the underlying vector.
func (c *Counter) Collector() prometheus.Collector {
	return c.vec
}
