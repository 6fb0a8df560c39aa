package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"koox.dev/busrouter/internal/routing"
)

type Collector struct {
	reg *prometheus.Registry

	PlanRequests   *prometheus.CounterVec // outcome label
	SearchDuration prometheus.Histogram
	ExpandedStates prometheus.Histogram

	Reloads         *prometheus.CounterVec // result label: ok|error
	ReloadDuration  prometheus.Histogram
	Stops           prometheus.Gauge
	Routes          prometheus.Gauge
	SnapshotVersion prometheus.Gauge

	HTTPRequests *prometheus.CounterVec // code label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	BusChangePenalty prometheus.Gauge
	RefreshInterval  prometheus.Gauge // seconds
}

func NewCollector(busChangePenalty float64, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PlanRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busrouter_plan_requests_total",
			Help: "Trip plan requests by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busrouter_search_duration_seconds",
			Help:    "Duration of route searches.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		ExpandedStates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busrouter_search_expanded_states",
			Help:    "Search states expanded per route search.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busrouter_reloads_total",
			Help: "Dataset reloads by result.",
		}, []string{"result"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busrouter_reload_duration_seconds",
			Help:    "Time to load the dataset and rebuild the routing graph.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		Stops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrouter_stops",
			Help: "Stops in the live snapshot.",
		}),
		Routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrouter_routes",
			Help: "Routes in the live snapshot.",
		}),
		SnapshotVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrouter_snapshot_version",
			Help: "Version of the live routing snapshot.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busrouter_http_requests_total",
			Help: "HTTP requests by status code.",
		}, []string{"code"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busrouter_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busrouter_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrouter_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busrouter_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		BusChangePenalty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrouter_bus_change_penalty",
			Help: "Cost added to a search edge when the route changes.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busrouter_refresh_interval_seconds",
			Help: "Dataset refresh interval in seconds; 0 when disabled.",
		}),
	}

	reg.MustRegister(
		c.PlanRequests, c.SearchDuration, c.ExpandedStates,
		c.Reloads, c.ReloadDuration, c.Stops, c.Routes, c.SnapshotVersion,
		c.HTTPRequests,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.BusChangePenalty, c.RefreshInterval,
	)

	c.BusChangePenalty.Set(busChangePenalty)
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// PlanOutcome names the outcome label for a PlanTrip result.
func PlanOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, routing.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, routing.ErrNotFound):
		return "not_found"
	case errors.Is(err, routing.ErrNoPath):
		return "no_path"
	case errors.Is(err, routing.ErrSearchAborted):
		return "aborted"
	default:
		return "error"
	}
}

// ObservePlan records one trip plan request.
func (c *Collector) ObservePlan(err error, d time.Duration, stats routing.SearchStats) {
	c.PlanRequests.WithLabelValues(PlanOutcome(err)).Inc()
	c.SearchDuration.Observe(d.Seconds())
	if stats.Expanded > 0 {
		c.ExpandedStates.Observe(float64(stats.Expanded))
	}
}

// ObserveReload matches the routing.Manager OnReload hook.
func (c *Collector) ObserveReload(r routing.ReloadResult) {
	c.ReloadDuration.Observe(r.Duration.Seconds())
	if r.Err != nil {
		c.Reloads.WithLabelValues("error").Inc()
		return
	}
	c.Reloads.WithLabelValues("ok").Inc()
	c.Stops.Set(float64(r.Stops))
	c.Routes.Set(float64(r.Routes))
	c.SnapshotVersion.Set(float64(r.Version))
}

// ObserveHTTP counts a response by status code.
func (c *Collector) ObserveHTTP(code int) {
	c.HTTPRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}
