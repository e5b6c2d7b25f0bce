package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initChangefeedMetrics() {
	r.ChangeEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_change_events_total",
			Help: "Graph change events published, by event type",
		},
		[]string{"type"},
	)

	r.ChangeEventsDropped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "wayfinder_change_events_dropped_total",
			Help: "Change events dropped because a subscriber was full",
		},
	)

	r.ChangefeedSubscriptions = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_changefeed_subscriptions",
			Help: "Active in-process change subscriptions",
		},
	)
}
