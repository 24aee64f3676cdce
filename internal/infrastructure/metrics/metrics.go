// Package metrics exposes Doorsense counters and gauges to Prometheus.
//
// Init registers everything with the default registry exactly once. The
// Observe and Inc helpers are safe to call before Init; they do nothing
// until the collectors exist.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "doorsense_"

// UnknownProcedure labels calls to procedures that are not registered.
const UnknownProcedure = "unknown"

// Logger is the logging interface used by the gauge reads.
type Logger interface {
	Warn(msg string, args ...any)
}

var (
	registerOnce sync.Once

	procedureCalls   *prometheus.CounterVec
	procedureLatency *prometheus.HistogramVec

	entranceEvents   *prometheus.CounterVec
	entranceDuration prometheus.Histogram

	sensorRequests *prometheus.CounterVec
)

// Init registers the collectors and the stored-row gauges named in g.
func Init(g Gauges, logger Logger) {
	registerOnce.Do(func() {
		procedureCalls = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "procedure_calls_total",
				Help: "Procedure calls by procedure and result code",
			},
			[]string{"procedure", "code"},
		)
		procedureLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "procedure_latency_seconds",
				Help:    "Procedure latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure"},
		)
		entranceEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "entrance_events_total",
				Help: "Stored entrance events by source",
			},
			[]string{"source"},
		)
		entranceDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "entrance_duration_seconds",
				Help:    "Reported time spent in the doorway",
				Buckets: []float64{5, 10, 15, 30, 60, 120, 300, 600},
			},
		)
		sensorRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_requests_total",
				Help: "POST /sensor requests by HTTP status",
			},
			[]string{"status"},
		)

		prometheus.MustRegister(
			procedureCalls,
			procedureLatency,
			entranceEvents,
			entranceDuration,
			sensorRequests,
		)

		registerGauges(g, logger)
	})
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveProcedure records one procedure call.
func ObserveProcedure(procedure, code string, duration time.Duration) {
	if code == "" {
		code = "OK"
	}
	if procedureCalls != nil {
		procedureCalls.WithLabelValues(procedure, code).Inc()
	}
	if procedureLatency != nil {
		procedureLatency.WithLabelValues(procedure).Observe(duration.Seconds())
	}
}

// ObserveEntrance records one stored entrance event.
func ObserveEntrance(source string, durationSeconds int) {
	if source == "" {
		source = "unknown"
	}
	if entranceEvents != nil {
		entranceEvents.WithLabelValues(source).Inc()
	}
	if entranceDuration != nil {
		entranceDuration.Observe(float64(durationSeconds))
	}
}

// IncSensorRequest counts a POST /sensor response by status code.
func IncSensorRequest(status string) {
	if sensorRequests != nil {
		sensorRequests.WithLabelValues(status).Inc()
	}
}
