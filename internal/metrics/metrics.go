// Package metrics records the outcome of a run in the Prometheus textfile
// format, for node_exporter's textfile collector or any CI scraper.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"regtest/internal/domain"
)

const (
	MetricsNamespace = "regtest"
	// FileName is the textfile written into the metrics reports dir.
	FileName = "regtest.prom"
)

// Recorder holds the gauges of one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	modules       *prometheus.GaugeVec
	cases         *prometheus.GaugeVec
	moduleSeconds *prometheus.GaugeVec
	duration      prometheus.Gauge
	workers       prometheus.Gauge
	coverage      prometheus.Gauge
	lintFindings  prometheus.Gauge
	lastRun       *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with every metric registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		modules: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "modules",
			Help:      "Test modules run, by kind and result",
		}, []string{"kind", "result"}),
		cases: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "test_cases",
			Help:      "Test cases run, by status",
		}, []string{"status"}),
		moduleSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "module_duration_seconds",
			Help:      "Wall time of each test module",
		}, []string{"module"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the whole run",
		}),
		workers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "workers",
			Help:      "Parallel workers used",
		}),
		coverage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "coverage_ratio",
			Help:      "Covered statements over all statements",
		}),
		lintFindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "lint_findings",
			Help:      "Findings reported by the lint command",
		}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished",
		}, []string{"run_id"}),
	}
}

// RecordRun sets the module and case gauges from a run.
func (r *Recorder) RecordRun(results []domain.TestResult, output *domain.TestResultsOutput) {
	for _, res := range results {
		kind := "parallel"
		if res.Module.Sequential {
			kind = "sequential"
		}
		result := "pass"
		if !res.Success {
			result = "fail"
		}
		r.modules.WithLabelValues(kind, result).Inc()
		r.moduleSeconds.WithLabelValues(res.Module.RelDir).Set(res.Duration.Seconds())
	}

	meta := output.Meta
	r.cases.WithLabelValues(domain.StatusPass).Set(float64(meta.PassedCases))
	r.cases.WithLabelValues(domain.StatusFail).Set(float64(meta.FailedCases))
	r.cases.WithLabelValues(domain.StatusError).Set(float64(meta.ErroredCases))
	r.cases.WithLabelValues(domain.StatusSkip).Set(float64(meta.SkippedCases))
	r.duration.Set(meta.DurationSeconds)
	r.workers.Set(float64(meta.Workers))
	r.lastRun.WithLabelValues(meta.RunID).Set(float64(time.Now().Unix()))
}

// RecordCoverage sets the coverage ratio.
func (r *Recorder) RecordCoverage(ratio float64) {
	r.coverage.Set(ratio)
}

// RecordLint sets the number of lint findings.
func (r *Recorder) RecordLint(findings int) {
	r.lintFindings.Set(float64(findings))
}

// Registry exposes the registry, e.g. for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric to dir/FileName.
func (r *Recorder) WriteTextfile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, FileName)
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

