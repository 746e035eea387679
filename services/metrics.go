package services

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders persisted as pending",
	})

	paymentsConfirmed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "orders",
		Name:      "paid_total",
		Help:      "Orders moved to paid",
	})

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "payment_gateway",
			Name:      "requests_total",
			Help:      "Payment gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	BotUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Chat updates handled by kind",
		},
		[]string{"kind"},
	)
)

// Collectors lists the domain metrics for registration next to the HTTP ones
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{ordersCreated, paymentsConfirmed, gatewayRequests, BotUpdates}
}
