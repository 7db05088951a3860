// Package metrics defines the Prometheus collectors recorded during a
// preprocessing run and writes them to a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsReadTotal  *prometheus.CounterVec
	TokensTotal         prometheus.Counter
	TypesTotal          prometheus.Gauge
	FeaturesRemoved     *prometheus.GaugeVec
	TableRows           *prometheus.GaugeVec
	StageDuration       *prometheus.HistogramVec
	TokenCacheHitsTotal prometheus.Counter
	TokenCacheMissTotal prometheus.Counter
	ExportsTotal        *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
}

// New creates all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsReadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topicprep_documents_read_total",
				Help: "Documents read, by input format.",
			},
			[]string{"format"},
		),
		TokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "topicprep_tokens_total",
				Help: "Tokens produced across all documents.",
			},
		),
		TypesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "topicprep_types",
				Help: "Distinct token types in the type dictionary.",
			},
		),
		FeaturesRemoved: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "topicprep_features_removed",
				Help: "Features selected for removal, by kind (stopword, hapax, stoplist).",
			},
			[]string{"kind"},
		),
		TableRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "topicprep_table_rows",
				Help: "Rows of the sparse frequency table, before and after filtering.",
			},
			[]string{"stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topicprep_stage_duration_seconds",
				Help:    "Wall time of each pipeline stage in seconds.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"stage"},
		),
		TokenCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "topicprep_token_cache_hits_total",
				Help: "Documents whose tokens came from the Redis cache.",
			},
		),
		TokenCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "topicprep_token_cache_misses_total",
				Help: "Documents tokenized because the cache had no entry.",
			},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topicprep_exports_total",
				Help: "Artifacts written, by kind (matrix_market, mallet, store, event).",
			},
			[]string{"kind"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topicprep_runs_total",
				Help: "Pipeline runs by status.",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		m.DocumentsReadTotal,
		m.TokensTotal,
		m.TypesTotal,
		m.FeaturesRemoved,
		m.TableRows,
		m.StageDuration,
		m.TokenCacheHitsTotal,
		m.TokenCacheMissTotal,
		m.ExportsTotal,
		m.RunsTotal,
	)

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format to
// path, for the node-exporter textfile collector. The file is replaced
// atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
