// Package observability provides Prometheus metrics for the swap bot.
package observability

import (
	"math/big"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swapPilot/internal/event"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsPublished   *prometheus.CounterVec
	Iterations        *prometheus.CounterVec
	IterationDuration prometheus.Histogram
	Steps             *prometheus.CounterVec
	GasSpentWei       *prometheus.CounterVec
	Flushes           *prometheus.CounterVec
	FlushedEntries    prometheus.Counter
	AccountBalance    *prometheus.GaugeVec
	LastSwap          prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swapbot"
	}

	return &Metrics{
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events published, by type",
		}, []string{"type"}),
		Iterations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "iterations_total",
			Help:      "Bot loop iterations, by outcome",
		}, []string{"outcome"}),
		IterationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "iteration_duration_seconds",
			Help:      "Time spent in one iteration excluding the sleep",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		Steps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "steps_total",
			Help:      "Swap executor steps, by step and status",
		}, []string{"step", "status"}),
		GasSpentWei: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "gas_spent_wei_total",
			Help:      "Gas cost of confirmed transactions in wei, by kind",
		}, []string{"kind"}),
		Flushes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "flushes_total",
			Help:      "Summary file flushes, by status",
		}, []string{"status"}),
		FlushedEntries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "flushed_entries_total",
			Help:      "Summary lines written to disk",
		}),
		AccountBalance: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance",
			Help:      "Last observed token balance in whole units",
		}, []string{"account", "token"}),
		LastSwap: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_swap_timestamp",
			Help:      "Unix timestamp of the last confirmed swap",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvent counts a published event.
func RecordEvent(t event.Type) {
	DefaultMetrics.EventsPublished.WithLabelValues(string(t)).Inc()
}

// RecordIteration records the outcome and duration of one loop iteration.
func RecordIteration(outcome string, seconds float64) {
	DefaultMetrics.Iterations.WithLabelValues(outcome).Inc()
	DefaultMetrics.IterationDuration.Observe(seconds)
}

// RecordStep records an executor step result.
func RecordStep(step string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.Steps.WithLabelValues(step, status).Inc()
}

// RecordGas adds the gas cost of a confirmed transaction.
func RecordGas(kind string, wei *big.Int) {
	if wei == nil {
		return
	}
	f, _ := new(big.Float).SetInt(wei).Float64()
	DefaultMetrics.GasSpentWei.WithLabelValues(kind).Add(f)
}

// RecordSwap marks the time of the last confirmed swap.
func RecordSwap(unix int64) {
	DefaultMetrics.LastSwap.Set(float64(unix))
}

// RecordFlush records a summary flush.
func RecordFlush(entries int, err error) {
	if err != nil {
		DefaultMetrics.Flushes.WithLabelValues("error").Inc()
		return
	}
	DefaultMetrics.Flushes.WithLabelValues("ok").Inc()
	DefaultMetrics.FlushedEntries.Add(float64(entries))
}

// SetBalance updates the balance gauge for an account and token.
func SetBalance(account, token string, value float64) {
	DefaultMetrics.AccountBalance.WithLabelValues(account, token).Set(value)
}

// EventCounter is an event sink that counts events by type.
type EventCounter struct{}

func (EventCounter) Publish(e event.Event) {
	RecordEvent(e.Type)
}
