// Package metrics exposes listener counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poolsniper"

type Metrics struct {
	EventsSeen     prometheus.Counter
	Duplicates     prometheus.Counter
	FailedTxs      prometheus.Counter
	FetchRetries   prometheus.Counter
	Dropped        *prometheus.CounterVec
	Throttled      prometheus.Counter
	Verdicts       *prometheus.CounterVec
	BuysPublished  prometheus.Counter
	PublishErrors  prometheus.Counter
	VerifyDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWith(reg, reg)
}

func NewWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsSeen: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "events_total",
			Help: "Log events carrying the pool initialization marker",
		}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "duplicate_signatures_total",
			Help: "Events skipped because their signature was already seen",
		}),
		FailedTxs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "failed_transactions_total",
			Help: "Events skipped because the transaction failed",
		}),
		FetchRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "fetch_retries_total",
			Help: "Transaction fetch retries",
		}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "dropped_candidates_total",
			Help: "Candidates dropped before trust verification, by reason",
		}, []string{"reason"}),
		Throttled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "throttle_pauses_total",
			Help: "Cool-down pauses caused by too many open positions",
		}),
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "trust", Name: "verdicts_total",
			Help: "Trust pipeline verdicts by outcome",
		}, []string{"outcome"}),
		BuysPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "execution", Name: "buys_published_total",
			Help: "Buy commands handed to the execution channel",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "execution", Name: "publish_errors_total",
			Help: "Buy commands that could not be published",
		}),
		VerifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "trust", Name: "verify_duration_seconds",
			Help:    "Time spent in the trust pipeline per candidate",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 240},
		}),
		gatherer: gatherer,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
