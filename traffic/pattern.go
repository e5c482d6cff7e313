package traffic

import (
	"sync"
	"time"
)

// DayPattern maps the hour of day to a baseline congestion intensity.
// Intensity between whole hours is linearly interpolated, wrapping from
// 23:00 back to 00:00.
type DayPattern struct {
	Hourly [24]float64
}

// DefaultDayPattern returns a weekday-shaped curve: quiet nights, a
// morning peak around 08:00 and an evening peak around 17:00.
func DefaultDayPattern() DayPattern {
	return DayPattern{Hourly: [24]float64{
		0.05, 0.03, 0.02, 0.02, 0.03, 0.10, // 00:00 - 05:00
		0.35, 0.60, 0.80, 0.55, 0.40, 0.40, // 06:00 - 11:00
		0.45, 0.40, 0.40, 0.45, 0.60, 0.85, // 12:00 - 17:00
		0.70, 0.50, 0.35, 0.25, 0.15, 0.08, // 18:00 - 23:00
	}}
}

// IntensityAt returns the interpolated intensity for the time of day
// of t.
func (p DayPattern) IntensityAt(t time.Time) float64 {
	hour := t.Hour()
	next := (hour + 1) % 24
	frac := (float64(t.Minute()) + float64(t.Second())/60.0) / 60.0
	return p.Hourly[hour]*(1-frac) + p.Hourly[next]*frac
}

// TickObserver receives one callback per pattern update, after the
// intensity write lands. Implementations must be cheap; the driver
// calls them synchronously from its tick loop.
type TickObserver func(simTime time.Time, intensity float64, elapsed time.Duration)

// DriverOption customises a PatternDriver.
type DriverOption func(*PatternDriver)

// WithTickObserver attaches a telemetry sink for driver ticks.
func WithTickObserver(obs TickObserver) DriverOption {
	return func(d *PatternDriver) { d.observer = obs }
}

// PatternDriver advances a simulated clock on a wall-clock ticker and
// writes the pattern's intensity into a Model on every tick. It exists
// for demos: plans shift as the simulated day moves through rush hours
// without anyone touching the intensity endpoint. Manual intensity
// writes still land; the driver simply overwrites them on its next tick.
type PatternDriver struct {
	model    *Model
	pattern  DayPattern
	observer TickObserver

	tick    time.Duration // wall-clock interval between updates
	simStep time.Duration // simulated time advanced per tick

	mu      sync.Mutex
	simTime time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewPatternDriver constructs a driver. tick is the wall-clock interval
// between updates and simStep the simulated time advanced per tick, so
// tick=1s with simStep=10m sweeps a full day in under three minutes.
func NewPatternDriver(model *Model, pattern DayPattern, start time.Time, tick, simStep time.Duration, opts ...DriverOption) *PatternDriver {
	d := &PatternDriver{
		model:   model,
		pattern: pattern,
		tick:    tick,
		simStep: simStep,
		simTime: start,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SimTime returns the current simulated clock time.
func (d *PatternDriver) SimTime() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.simTime
}

// Start launches the driver goroutine. The first intensity write fires
// after one tick. Starting a running driver is a no-op.
func (d *PatternDriver) Start() {
	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	stop, done := d.stop, d.done
	d.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(d.tick)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				started := time.Now()
				d.mu.Lock()
				d.simTime = d.simTime.Add(d.simStep)
				now := d.simTime
				d.mu.Unlock()

				intensity := d.pattern.IntensityAt(now)
				d.model.SetGlobalIntensity(intensity)
				if d.observer != nil {
					d.observer(now, intensity, time.Since(started))
				}
			}
		}
	}()
}

// Stop halts the driver and waits for its goroutine to exit. Stopping a
// driver that was never started is a no-op.
func (d *PatternDriver) Stop() {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
