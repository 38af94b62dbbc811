// Package metrics exports run statistics in the Prometheus text format.
//
// Metrics implements model.Reporter, so it can be handed to the pipeline
// and the liveness checker directly. WriteTextfile produces a file for the
// node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/nao1215/bmclean/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bmclean"

// Metrics holds the collectors of one run.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal    *prometheus.CounterVec
	ProbesTotal    *prometheus.CounterVec
	ProbeDuration  prometheus.Histogram
	RemovedTotal   *prometheus.CounterVec
	Bookmarks      prometheus.Gauge
	UniqueURLs     prometheus.Gauge
	RunDuration    prometheus.Gauge
	LastRunSuccess prometheus.Gauge
	LastRunTime    prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Progress events emitted during the run.",
		}, []string{"kind"}),
		ProbesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Liveness probes by classification.",
		}, []string{"status"}),
		ProbeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Time taken by each liveness probe.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		RemovedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removed_urls_total",
			Help:      "URLs whose bookmark entries were removed, by reason.",
		}, []string{"reason"}),
		Bookmarks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bookmarks",
			Help:      "Bookmark entries in the input document.",
		}),
		UniqueURLs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unique_urls",
			Help:      "Distinct bookmark URLs in the input document.",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed, 0 otherwise.",
		}),
		LastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started.",
		}),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Report records e. It is safe for concurrent use.
func (m *Metrics) Report(e model.Event) {
	m.EventsTotal.WithLabelValues(e.Kind.String()).Inc()

	switch e.Kind {
	case model.EventURLClassified:
		if e.Result != nil {
			m.ProbesTotal.WithLabelValues(e.Result.Status.String()).Inc()
			m.ProbeDuration.Observe(e.Result.Elapsed.Seconds())
		}
	case model.EventDuplicateRemoved:
		m.RemovedTotal.WithLabelValues("duplicate").Inc()
	case model.EventOutdatedRemoved:
		m.RemovedTotal.WithLabelValues("outdated").Inc()
	}
}

// ObserveRun records the summary of a finished run. A nil report marks the
// run as failed.
func (m *Metrics) ObserveRun(report *model.CleanReport, err error) {
	if report != nil {
		m.Bookmarks.Set(float64(report.Bookmarks))
		m.UniqueURLs.Set(float64(report.UniqueURLs))
		m.RunDuration.Set(report.Duration.Seconds())
		m.LastRunTime.Set(float64(report.StartedAt.Unix()))
	}
	if err != nil || report == nil {
		m.LastRunSuccess.Set(0)
		return
	}
	m.LastRunSuccess.Set(1)
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
