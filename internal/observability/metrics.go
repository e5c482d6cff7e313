package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Plan outcome labels for the plans_total counter.
const (
	PlanOutcomeOK      = "ok"
	PlanOutcomeNoRoute = "no_route"
	PlanOutcomeInvalid = "invalid"
)

// PlannerCollector bundles the Prometheus metrics for the HTTP surface
// and the route search, and provides the hooks to wire them into a gin
// engine and a /metrics handler.
type PlannerCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Plans              *prometheus.CounterVec
	PlanDurations      *prometheus.HistogramVec
	PlanExpandedStates *prometheus.HistogramVec

	TrafficIntensity   prometheus.Gauge
	BlockedConnections prometheus.Gauge
	VehicleCatalogSize prometheus.Gauge
}

// NewPlannerCollector registers the planner metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil. Registration is idempotent: an already-registered collector
// of the same shape is reused rather than rejected.
func NewPlannerCollector(reg prometheus.Registerer) (*PlannerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "path", "code"})
	requests, err := registerCounterVec(reg, requests, "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path"})
	durations, err = registerHistogramVec(reg, durations, "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plans_total",
		Help: "Total route plan requests, labeled by cost mode and outcome.",
	}, []string{"mode", "outcome"})
	plans, err = registerCounterVec(reg, plans, "plans_total")
	if err != nil {
		return nil, err
	}

	planDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_duration_seconds",
		Help:    "Route search wall time in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"mode"})
	planDurations, err = registerHistogramVec(reg, planDurations, "plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	expanded := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_expanded_states",
		Help:    "Search states expanded per plan request.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"mode"})
	expanded, err = registerHistogramVec(reg, expanded, "plan_expanded_states")
	if err != nil {
		return nil, err
	}

	intensity, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "traffic_intensity",
		Help: "Current global traffic intensity in [0,1].",
	}), "traffic_intensity")
	if err != nil {
		return nil, err
	}
	blocked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "traffic_blocked_connections",
		Help: "Current number of blocked directed connections.",
	}), "traffic_blocked_connections")
	if err != nil {
		return nil, err
	}
	catalogSize, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vehicle_catalog_size",
		Help: "Number of vehicle profiles in the catalog.",
	}), "vehicle_catalog_size")
	if err != nil {
		return nil, err
	}

	return &PlannerCollector{
		gatherer:           gatherer,
		HTTPRequests:       requests,
		HTTPDurations:      durations,
		Plans:              plans,
		PlanDurations:      planDurations,
		PlanExpandedStates: expanded,
		TrafficIntensity:   intensity,
		BlockedConnections: blocked,
		VehicleCatalogSize: catalogSize,
	}, nil
}

// Middleware records request counts and latencies for every route the
// engine serves. Unmatched paths collapse into a single label value so
// path scanners cannot grow the label cardinality.
func (c *PlannerCollector) Middleware() gin.HandlerFunc {
	return func(gc *gin.Context) {
		start := time.Now()
		gc.Next()

		if c == nil {
			return
		}
		path := gc.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := gc.Request.Method
		code := strconv.Itoa(gc.Writer.Status())

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(method, path, code).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		}
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PlannerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObservePlan records one finished plan request.
func (c *PlannerCollector) ObservePlan(mode, outcome string, elapsed time.Duration, expandedStates int) {
	if c == nil {
		return
	}
	if c.Plans != nil {
		c.Plans.WithLabelValues(mode, outcome).Inc()
	}
	if c.PlanDurations != nil {
		c.PlanDurations.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
	if c.PlanExpandedStates != nil && expandedStates >= 0 {
		c.PlanExpandedStates.WithLabelValues(mode).Observe(float64(expandedStates))
	}
}

// SetTrafficState satisfies the traffic gauge surface so the traffic
// model's subscribers can drive values directly from mutations.
func (c *PlannerCollector) SetTrafficState(intensity float64, blockedConnections int) {
	if c == nil {
		return
	}
	if c.TrafficIntensity != nil {
		c.TrafficIntensity.Set(intensity)
	}
	if c.BlockedConnections != nil {
		c.BlockedConnections.Set(float64(blockedConnections))
	}
}

// SetVehicleCount publishes the catalog size once at startup.
func (c *PlannerCollector) SetVehicleCount(n int) {
	if c == nil || c.VehicleCatalogSize == nil {
		return
	}
	c.VehicleCatalogSize.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
