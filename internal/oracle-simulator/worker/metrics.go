package worker

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Requests *prometheus.CounterVec // por desfecho: fulfilled, dropped, dlq, invalid
	Attempts prometheus.Counter
	Latency  prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Pedidos de aleatoriedade processados por desfecho",
		}, []string{"outcome"}),
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oracle_fulfill_attempts_total",
			Help: "Chamadas ao /oracle/fulfill, incluindo retries",
		}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "oracle_fulfill_latency_seconds",
			Help:    "Tempo entre o pedido e o callback aceito",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
	}
}

func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.Requests, m.Attempts, m.Latency)
}
