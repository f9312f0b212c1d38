package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the counters of one run on its own registry
type Recorder struct {
	registry *prometheus.Registry

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	rateLimitWaits     *prometheus.CounterVec
	rateLimitSeconds   *prometheus.CounterVec
	postsWritten       *prometheus.CounterVec
	lastRunSuccess     prometheus.Gauge
	lastRunTimestamp   prometheus.Gauge
	lastRunPosts       prometheus.Gauge
}

// NewRecorder creates a Recorder with freshly registered metrics
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		apiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twscraper_api_requests_total",
				Help: "Total number of API requests sent",
			},
			[]string{"endpoint", "status"},
		),
		apiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twscraper_api_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		rateLimitWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twscraper_rate_limit_waits_total",
				Help: "Total number of blocking waits on exhausted quota",
			},
			[]string{"endpoint"},
		),
		rateLimitSeconds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twscraper_rate_limit_wait_seconds_total",
				Help: "Total seconds spent waiting on exhausted quota",
			},
			[]string{"endpoint"},
		),
		postsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twscraper_posts_written_total",
				Help: "Total number of store writes by result",
			},
			[]string{"result"},
		),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "twscraper_last_run_success",
			Help: "Whether the last run finished without error (1 = done, 0 = aborted)",
		}),
		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "twscraper_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		lastRunPosts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "twscraper_last_run_posts",
			Help: "Number of posts written by the last run",
		}),
	}
}

// ObserveRequest records one API exchange
func (r *Recorder) ObserveRequest(endpoint string, status int, duration time.Duration) {
	r.apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.apiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RateLimitWait records a blocking wait
func (r *Recorder) RateLimitWait(endpoint string, wait time.Duration) {
	r.rateLimitWaits.WithLabelValues(endpoint).Inc()
	r.rateLimitSeconds.WithLabelValues(endpoint).Add(wait.Seconds())
}

// PostWritten records one store write
func (r *Recorder) PostWritten(inserted bool) {
	result := "skipped"
	if inserted {
		result = "inserted"
	}
	r.postsWritten.WithLabelValues(result).Inc()
}

// RunFinished records the outcome of the run
func (r *Recorder) RunFinished(success bool, written int) {
	if success {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
	r.lastRunPosts.Set(float64(written))
	r.lastRunTimestamp.SetToCurrentTime()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics in the text exposition format for the
// node exporter textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Nop discards everything
type Nop struct{}

func (Nop) ObserveRequest(endpoint string, status int, duration time.Duration) {}
func (Nop) RateLimitWait(endpoint string, wait time.Duration) {}
func (Nop) PostWritten(inserted bool) {}
func (Nop) RunFinished(success bool, written int) {}
