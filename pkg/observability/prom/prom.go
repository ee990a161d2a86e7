// Package prom records install metrics with Prometheus client_golang.
//
// uvm is a short-lived CLI, so metrics are not scraped: at exit the CLI
// writes them to a node_exporter textfile (--metrics-file).
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/uvm/pkg/observability"
)

// Metrics implements the observability hook interfaces.
type Metrics struct {
	registry *prometheus.Registry

	tasks          *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	extractions    *prometheus.CounterVec
	downloads      *prometheus.CounterVec
	downloadBytes  prometheus.Counter
	resumes        prometheus.Counter
	artifactHits   prometheus.Counter
	checksumErrors prometheus.Counter
	cacheEvents    *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvm_install_tasks_total",
			Help: "Install tasks by component and result.",
		}, []string{"component", "result"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uvm_install_task_duration_seconds",
			Help:    "Wall time per install task.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"component"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvm_extractions_total",
			Help: "Installer extractions by format and result.",
		}, []string{"format", "result"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvm_downloads_total",
			Help: "Artifact downloads by result.",
		}, []string{"result"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uvm_download_bytes_total",
			Help: "Bytes received while downloading artifacts.",
		}),
		resumes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uvm_download_resumes_total",
			Help: "Downloads that resumed a partial file.",
		}),
		artifactHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uvm_artifact_cache_hits_total",
			Help: "Artifacts served from the local cache.",
		}),
		checksumErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uvm_checksum_mismatches_total",
			Help: "Artifacts that failed integrity verification.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvm_catalog_cache_events_total",
			Help: "Catalog cache hits, misses and writes.",
		}, []string{"key_type", "event"}),
	}
	m.registry.MustRegister(
		m.tasks, m.taskDuration, m.extractions,
		m.downloads, m.downloadBytes, m.resumes, m.artifactHits, m.checksumErrors,
		m.cacheEvents,
	)
	return m
}

// Register installs m as the global install, download and cache hooks.
func (m *Metrics) Register() {
	observability.SetInstallHooks(m)
	observability.SetDownloadHooks(m)
	observability.SetCacheHooks(m)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes all metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) OnTaskStart(context.Context, string) {}

func (m *Metrics) OnTaskComplete(_ context.Context, component string, d time.Duration, err error) {
	m.tasks.WithLabelValues(component, result(err)).Inc()
	m.taskDuration.WithLabelValues(component).Observe(d.Seconds())
}

func (m *Metrics) OnExtract(_ context.Context, _ string, format string, _ time.Duration, err error) {
	m.extractions.WithLabelValues(format, result(err)).Inc()
}

func (m *Metrics) OnDownloadStart(_ context.Context, _ string, offset int64) {
	if offset > 0 {
		m.resumes.Inc()
	}
}

func (m *Metrics) OnDownloadComplete(_ context.Context, _ string, bytes int64, _ time.Duration, err error) {
	m.downloads.WithLabelValues(result(err)).Inc()
	if bytes > 0 {
		m.downloadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) OnArtifactCached(context.Context, string) { m.artifactHits.Inc() }

func (m *Metrics) OnChecksumMismatch(context.Context, string) { m.checksumErrors.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

var (
	_ observability.InstallHooks  = (*Metrics)(nil)
	_ observability.DownloadHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)
