package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Orders written, by initial status.",
		},
		[]string{"status"},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Order status changes applied, by source and target status.",
		},
		[]string{"from", "to"},
	)

	CartWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_writes_total",
			Help: "Durable cart write attempts, by outcome (saved, retried, dropped).",
		},
		[]string{"outcome"},
	)

	CartPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_persist_failures_total",
			Help: "Cart writes abandoned after every retry failed.",
		},
	)

	CartWriteQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_write_queue_depth",
			Help: "Cart writes waiting to be persisted.",
		},
	)

	ActiveCartSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_sessions_active",
			Help: "Signed-in users with a cart held in memory.",
		},
	)
)
