package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/cartd/internal/cart"

// InstrumentationName is the tracer and meter scope used by Store.
const InstrumentationName = instrumentationName

// Prometheus gauges describing the current cart, labelled by storage key.
var (
	LinesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cartd",
			Subsystem: "cart",
			Name:      "lines",
			Help:      "Number of distinct items in the cart",
		},
		[]string{"key"},
	)

	ItemsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cartd",
			Subsystem: "cart",
			Name:      "items",
			Help:      "Sum of line quantities in the cart",
		},
		[]string{"key"},
	)

	TotalGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cartd",
			Subsystem: "cart",
			Name:      "total",
			Help:      "Grand total of the cart in whole currency units",
		},
		[]string{"key"},
	)

	// DegradedGauge is 1 while the last persistence write failed.
	DegradedGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cartd",
			Subsystem: "cart",
			Name:      "persistence_degraded",
			Help:      "1 when the most recent write to the storage medium failed",
		},
		[]string{"key"},
	)
)

func (s *Store) initMetrics() {
	var err error

	s.mutationCounter, err = s.meter.Int64Counter(
		"cartd.cart.mutations_total",
		metric.WithDescription("Total number of cart mutation calls"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create mutation counter", zap.Error(err))
	}

	s.persistFailureCounter, err = s.meter.Int64Counter(
		"cartd.cart.persist_failures_total",
		metric.WithDescription("Total number of failed writes to the storage medium"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		s.logger.Warn("failed to create persist failure counter", zap.Error(err))
	}
}

func (s *Store) publishGauges(snap Snapshot) {
	key := s.cfg.Key
	LinesGauge.WithLabelValues(key).Set(float64(len(snap.Lines)))
	ItemsGauge.WithLabelValues(key).Set(float64(snap.ItemCount))
	TotalGauge.WithLabelValues(key).Set(float64(snap.Total))
	degraded := 0.0
	if snap.Degraded {
		degraded = 1
	}
	DegradedGauge.WithLabelValues(key).Set(degraded)
}
