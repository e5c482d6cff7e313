package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DriverCollector exposes traffic pattern driver metrics.
type DriverCollector struct {
	gatherer prometheus.Gatherer

	PatternTicks   prometheus.Counter
	PatternSimTime prometheus.Gauge
	TickDurations  prometheus.Histogram
}

// NewDriverCollector registers pattern driver metrics against the
// provided registerer.
func NewDriverCollector(reg prometheus.Registerer) (*DriverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "traffic_pattern_ticks_total",
		Help: "Cumulative number of intensity updates written by the pattern driver.",
	})
	ticks, err := registerCounter(reg, ticks, "traffic_pattern_ticks_total")
	if err != nil {
		return nil, err
	}

	simTime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "traffic_pattern_sim_time_seconds",
		Help: "Simulated clock of the pattern driver as a Unix timestamp.",
	})
	simTime, err = registerGauge(reg, simTime, "traffic_pattern_sim_time_seconds")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_pattern_tick_duration_seconds",
		Help:    "Duration of one pattern update, including the model write and subscriber fanout.",
		Buckets: []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
	durations, err = registerHistogram(reg, durations, "traffic_pattern_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &DriverCollector{
		gatherer:       gatherer,
		PatternTicks:   ticks,
		PatternSimTime: simTime,
		TickDurations:  durations,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *DriverCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveTick records one pattern driver update.
func (c *DriverCollector) ObserveTick(simTime time.Time, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.PatternTicks != nil {
		c.PatternTicks.Inc()
	}
	if c.PatternSimTime != nil {
		c.PatternSimTime.Set(float64(simTime.Unix()))
	}
	if c.TickDurations != nil {
		c.TickDurations.Observe(elapsed.Seconds())
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
