package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the job.
type Metrics struct {
	HoursTotal          *prometheus.CounterVec
	DownloadFailures    prometheus.Counter
	RowsTotal           *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	SinkErrorsTotal     *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the job metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HoursTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pageviews_hours_total",
			Help: "Hours handled by the pipeline.",
		}, []string{"status"}), // completed, skipped, failed
		DownloadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pageviews_download_failures_total",
			Help: "Dump downloads that failed and were logged.",
		}),
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pageviews_rows_total",
			Help: "Rows seen at each stage of the pipeline.",
		}, []string{"stage"}), // loaded, filtered, ranked
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pageviews_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage"}),
		SinkErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pageviews_sink_errors_total",
			Help: "Failures of optional result sinks.",
		}, []string{"sink"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncHours(status string) {
	m.HoursTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncDownloadFailures() {
	m.DownloadFailures.Inc()
}

func (m *Metrics) AddRows(stage string, n int) {
	m.RowsTotal.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) IncSinkErrors(sink string) {
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// Timer starts a timer for stage; call the returned func to observe it.
func (m *Metrics) Timer(stage string) func() {
	t := prometheus.NewTimer(m.StageDuration.WithLabelValues(stage))
	return func() { t.ObserveDuration() }
}
