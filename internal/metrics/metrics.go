package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oncestock",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	movements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oncestock",
			Name:      "movements_total",
			Help:      "Stock movements by type.",
		},
		[]string{"type"},
	)

	exports = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "oncestock",
			Name:      "exports_total",
			Help:      "Completed inventory exports.",
		},
	)

	lowStockProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oncestock",
			Name:      "low_stock_products",
			Help:      "Products at or below their minimum stock.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, movements, exports, lowStockProducts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncMovement increments the movement counter for IN or OUT.
func IncMovement(movementType string) {
	movements.WithLabelValues(movementType).Inc()
}

// IncExport increments the export counter.
func IncExport() {
	exports.Inc()
}

// SetLowStock records how many products are currently below their minimum.
func SetLowStock(count int) {
	lowStockProducts.Set(float64(count))
}
