package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cdw"

// WalletMetrics groups the metrics of the wallet API and of the state it
// operates on.
type WalletMetrics struct {
	CallsTotal     *prometheus.CounterVec
	CallDuration   *prometheus.HistogramVec
	Sessions       prometheus.Gauge
	StateEvents    *prometheus.CounterVec
	BridgeRequests *prometheus.CounterVec
}

// NewWalletMetrics creates the wallet metrics and registers them to reg.
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	factory := promauto.With(reg)
	return &WalletMetrics{
		CallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_calls_total",
			Help:      "The total number of wallet API calls",
		}, []string{"method", "result"}),
		CallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wallet_call_duration_seconds",
			Help:      "Duration of wallet API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_sessions",
			Help:      "The number of enabled wallet sessions",
		}),
		StateEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_events_total",
			Help:      "The total number of state changes",
		}, []string{"kind"}),
		BridgeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_requests_total",
			Help:      "The total number of bridge requests served",
		}, []string{"method"}),
	}
}

// ObserveCall records a wallet API call. Nil metrics are a no-op.
func (m *WalletMetrics) ObserveCall(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CallsTotal.WithLabelValues(method, result).Inc()
	m.CallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
