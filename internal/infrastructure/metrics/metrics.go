// Package metrics records the outcome of a backup run in Prometheus format.
//
// The command is short lived, so instead of serving /metrics the collector
// writes its registry to a file picked up by node_exporter's textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dumpwarden"

type Collector struct {
	registry *prometheus.Registry

	lastRun      *prometheus.GaugeVec
	lastSuccess  prometheus.Gauge
	backupSize   prometheus.Gauge
	dumpDuration prometheus.Gauge
	deleted      prometheus.Gauge
	failures     *prometheus.GaugeVec
}

// NewCollector registers the backup metrics on registry, or on a fresh
// registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last backup command run, by outcome.",
		}, []string{"status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_backup_success_timestamp_seconds",
			Help:      "Unix time the last backup file was written.",
		}),
		backupSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_backup_size_bytes",
			Help:      "Compressed size of the last backup file.",
		}),
		dumpDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_dump_duration_seconds",
			Help:      "Wall time of the last dump.",
		}),
		deleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_deleted_files",
			Help:      "Backup files deleted by the last retention sweep.",
		}),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed",
			Help:      "1 when the phase failed during the last run.",
		}, []string{"phase"}),
	}

	registry.MustRegister(c.lastRun, c.lastSuccess, c.backupSize, c.dumpDuration, c.deleted, c.failures)
	return c
}

func (c *Collector) RecordSweep(deleted int, err error) {
	c.deleted.Set(float64(deleted))
	c.failures.WithLabelValues("sweep").Set(boolToFloat(err != nil))
}

func (c *Collector) RecordDump(size int64, duration time.Duration, at time.Time, err error) {
	c.failures.WithLabelValues("dump").Set(boolToFloat(err != nil))
	if err != nil {
		return
	}
	c.backupSize.Set(float64(size))
	c.dumpDuration.Set(duration.Seconds())
	c.lastSuccess.Set(float64(at.Unix()))
}

func (c *Collector) RecordRun(at time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.lastRun.WithLabelValues(status).Set(float64(at.Unix()))
}

// WriteTextfile atomically writes the registry to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
