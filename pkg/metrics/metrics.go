// Package metrics defines the Prometheus collectors for codec operations and
// the indexing pipeline, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	CodecOperationsTotal *prometheus.CounterVec
	CodecInputBytes      *prometheus.HistogramVec
	CodecOutputBytes     *prometheus.HistogramVec
	CodecPostingsTotal   *prometheus.CounterVec
	DocsIndexedTotal     prometheus.Counter
	IndexFlushesTotal    *prometheus.CounterVec
	SegmentTerms         prometheus.Gauge
}

var sizeBuckets = prometheus.ExponentialBuckets(4, 4, 10)

// New creates all collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them through Handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CodecOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codec_operations_total",
				Help: "Total codec operations by codec, operation and result.",
			},
			[]string{"codec", "op", "result"},
		),
		CodecInputBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codec_input_bytes",
				Help:    "Size of codec inputs in bytes (postings count * 8 for encode).",
				Buckets: sizeBuckets,
			},
			[]string{"codec", "op"},
		),
		CodecOutputBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codec_output_bytes",
				Help:    "Size of codec outputs in bytes (postings count * 8 for decode).",
				Buckets: sizeBuckets,
			},
			[]string{"codec", "op"},
		),
		CodecPostingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codec_postings_total",
				Help: "Total postings passed through codecs.",
			},
			[]string{"codec", "op"},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed.",
			},
		),
		IndexFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_flushes_total",
				Help: "Total index flush operations by status.",
			},
			[]string{"status"},
		),
		SegmentTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "segment_terms",
				Help: "Number of terms in the most recently flushed segment.",
			},
		),
	}

	reg.MustRegister(
		m.CodecOperationsTotal,
		m.CodecInputBytes,
		m.CodecOutputBytes,
		m.CodecPostingsTotal,
		m.DocsIndexedTotal,
		m.IndexFlushesTotal,
		m.SegmentTerms,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
