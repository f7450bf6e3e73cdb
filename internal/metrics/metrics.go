// Package metrics exposes tour and asset events as prometheus collectors.
package metrics

import (
	"context"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	AssetAttempts *prometheus.CounterVec
	AssetDuration *prometheus.HistogramVec
	TourEvents    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		AssetAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tourguide_asset_attempts_total",
				Help: "Total number of asset mirror attempts",
			},
			[]string{"kind", "outcome"},
		),
		AssetDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tourguide_asset_attempt_duration_seconds",
				Help:    "Duration of asset mirror attempts",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5},
			},
			[]string{"kind"},
		),
		TourEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tourguide_tour_events_total",
				Help: "Total number of tour lifecycle events",
			},
			[]string{"page", "event"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.AssetAttempts, m.AssetDuration, m.TourEvents} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m, chained after next.
func (m *Metrics) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	tour := func(prev func(context.Context, *domain.TourEvent)) func(context.Context, *domain.TourEvent) {
		return func(ctx context.Context, e *domain.TourEvent) {
			m.TourEvents.WithLabelValues(string(e.Page), string(e.Type)).Inc()
			if prev != nil {
				prev(ctx, e)
			}
		}
	}

	return domain.LifecycleHooks{
		OnAssetAttempt: func(ctx context.Context, e *domain.AssetEvent) {
			m.AssetAttempts.WithLabelValues(string(e.Kind), string(e.Outcome)).Inc()
			m.AssetDuration.WithLabelValues(string(e.Kind)).Observe(e.Duration.Seconds())
			if next.OnAssetAttempt != nil {
				next.OnAssetAttempt(ctx, e)
			}
		},
		OnTourStart:    tour(next.OnTourStart),
		OnStepAdvance:  tour(next.OnStepAdvance),
		OnTourComplete: tour(next.OnTourComplete),
		OnTourDismiss:  tour(next.OnTourDismiss),
	}
}
