package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Analysis metrics
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	signalsFired     *prometheus.CounterVec
	backtestTrades   prometheus.Counter
	batchTasksActive prometheus.Gauge
	reportsArchived  *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_analyses_total",
			Help: "Total number of strategy evaluations",
		},
		[]string{"strategy", "mode", "status"},
	)
	r.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_analysis_duration_seconds",
			Help:    "Strategy evaluation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode"},
	)
	r.signalsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_signals_fired_total",
			Help: "Total number of combined entry/exit signals fired",
		},
		[]string{"signal_type"},
	)
	r.backtestTrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_backtest_trades_total",
			Help: "Total number of closed trades across backtests",
		},
	)
	r.batchTasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strata_batch_tasks_active",
			Help: "Number of batch tasks currently running",
		},
	)
	r.reportsArchived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_reports_archived_total",
			Help: "Total number of reports written to the archive",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.analysesTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.signalsFired)
	reg.MustRegister(r.backtestTrades)
	reg.MustRegister(r.batchTasksActive)
	reg.MustRegister(r.reportsArchived)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAnalysis records one strategy evaluation. mode is "analyze" or "backtest".
func (r *Registry) RecordAnalysis(strategy, mode, status string, duration float64) {
	r.analysesTotal.WithLabelValues(strategy, mode, status).Inc()
	r.analysisDuration.WithLabelValues(mode).Observe(duration)
}

// RecordSignals adds fired combined signals of one type.
func (r *Registry) RecordSignals(signalType string, count int) {
	if count <= 0 {
		return
	}
	r.signalsFired.WithLabelValues(signalType).Add(float64(count))
}

// RecordTrades adds closed backtest trades.
func (r *Registry) RecordTrades(count int) {
	if count <= 0 {
		return
	}
	r.backtestTrades.Add(float64(count))
}

// BatchTaskStarted marks a batch task as running.
func (r *Registry) BatchTaskStarted() {
	r.batchTasksActive.Inc()
}

// BatchTaskDone marks a batch task as finished.
func (r *Registry) BatchTaskDone() {
	r.batchTasksActive.Dec()
}

// RecordArchive records a report archive write.
func (r *Registry) RecordArchive(status string) {
	r.reportsArchived.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
