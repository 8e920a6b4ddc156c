package order

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	redemptions *prometheus.CounterVec
	captures    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	registry    *metrics
)

func defaultMetrics() *metrics {
	metricsOnce.Do(func() {
		registry = &metrics{
			redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "donations",
				Subsystem: "order",
				Name:      "perk_redemptions_total",
				Help:      "Perk redemptions by perk type and result.",
			}, []string{"type", "result"}),
			captures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "donations",
				Subsystem: "order",
				Name:      "captures_total",
				Help:      "Payment captures by provider and result.",
			}, []string{"provider", "result"}),
		}
		prometheus.MustRegister(registry.redemptions, registry.captures)
	})
	return registry
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
