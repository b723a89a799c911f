package exchange

import (
	"sync/atomic"
	"time"

	"github.com/corverroos/predex/matcher"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "predex"

// Metrics instruments the exchange. A nil *Metrics is a valid no-op.
type Metrics struct {
	orders   *prometheus.CounterVec
	rejected prometheus.Counter
	trades   *prometheus.CounterVec
	volume   *prometheus.CounterVec
	resting  *prometheus.GaugeVec
	submit   prometheus.Histogram

	count int64 // Used with atomic
}

// NewMetrics returns metrics registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Accepted orders by submitted outcome and side.",
		}, []string{"outcome", "side"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Orders rejected by validation.",
		}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Trades by taker outcome.",
		}, []string{"outcome"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_volume_total",
			Help:      "Traded shares by taker outcome.",
		}, []string{"outcome"}),
		resting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Resting orders per canonical book.",
		}, []string{"outcome"}),
		submit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_seconds",
			Help:      "Submit latency including matching.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	reg.MustRegister(m.orders, m.rejected, m.trades, m.volume, m.resting, m.submit)

	return m
}

// Count returns the number of submits processed, accepted or not.
func (m *Metrics) Count() int64 {
	if m == nil {
		return 0
	}
	return atomic.LoadInt64(&m.count)
}

func (m *Metrics) incCount() {
	atomic.AddInt64(&m.count, 1)
}

func (m *Metrics) observe(r matcher.Request, res matcher.Result, took time.Duration) {
	if m == nil {
		return
	}
	m.incCount()
	if took > 0 {
		m.submit.Observe(took.Seconds())
	}
	m.orders.WithLabelValues(r.Outcome.String(), r.Side.String()).Inc()

	for _, t := range res.Trades {
		m.trades.WithLabelValues(t.Outcome.String()).Inc()
		m.volume.WithLabelValues(t.Outcome.String()).Add(float64(t.Quantity))
	}
}

func (m *Metrics) reject() {
	if m == nil {
		return
	}
	m.incCount()
	m.rejected.Inc()
}

func (m *Metrics) setResting(yes, no int) {
	if m == nil {
		return
	}
	m.resting.WithLabelValues(matcher.OutcomeYes.String()).Set(float64(yes))
	m.resting.WithLabelValues(matcher.OutcomeNo.String()).Set(float64(no))
}
