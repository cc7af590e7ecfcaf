// Package metrics exposes Prometheus metrics for the graph, the asset store
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
)

const namespace = "bibweb"

// Collector holds every metric on its own registry.
type Collector struct {
	registry *prometheus.Registry

	Papers        prometheus.Gauge
	References    prometheus.Gauge
	GraphEvents   *prometheus.CounterVec
	AssetsStored  prometheus.Counter
	AssetBytes    prometheus.Counter
	QuotaExceeded prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with Go runtime and process metrics
// registered alongside the application's.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Papers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "papers",
			Help:      "Number of papers in the graph",
		}),
		References: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "references",
			Help:      "Number of references in the graph",
		}),
		GraphEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_events_total",
			Help:      "Graph change notifications by kind and collection",
		}, []string{"kind", "collection"}),
		AssetsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_stored_total",
			Help:      "Assets written to the blob store",
		}),
		AssetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_stored_total",
			Help:      "Bytes of asset content written to the blob store",
		}),
		QuotaExceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_quota_exceeded_total",
			Help:      "Snapshot saves rejected by the storage quota",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.Papers,
		c.References,
		c.GraphEvents,
		c.AssetsStored,
		c.AssetBytes,
		c.QuotaExceeded,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Observe keeps the graph metrics current for store until the returned
// function is called.
func (c *Collector) Observe(store *graph.Store) func() {
	c.setSizes(store)
	return store.Subscribe(graph.ObserverFunc(func(e graph.Event) {
		c.GraphEvents.WithLabelValues(string(e.Kind), string(e.Collection)).Inc()
		c.setSizes(store)
	}))
}

func (c *Collector) setSizes(store *graph.Store) {
	papers, refs := store.Len()
	c.Papers.Set(float64(papers))
	c.References.Set(float64(refs))
}

// AssetStored records a successful asset registration. It matches
// blob.RegistrarConfig.OnStored.
func (c *Collector) AssetStored(info blob.Info) {
	c.AssetsStored.Inc()
	c.AssetBytes.Add(float64(info.Size))
}

// StorageExceeded records a rejected snapshot save.
func (c *Collector) StorageExceeded(error) {
	c.QuotaExceeded.Inc()
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
