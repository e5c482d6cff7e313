package model

// RouteStep is one node-visit record in a finished route. Steps are
// produced by the planner as output and never mutated afterwards.
type RouteStep struct {
	// LocationID identifies the visited location.
	LocationID string
	// Soc is the continuous state of charge on arrival, in [0,1].
	// This is the exact value, not the bucketed search key.
	Soc float64
	// CumulativeTimeHours is elapsed travel plus charging time since
	// the start of the route.
	CumulativeTimeHours float64
	// CumulativeEnergyKWh is the total energy drawn since the start of
	// the route. Charging does not reduce it.
	CumulativeEnergyKWh float64
	// IsChargingStop marks steps that represent a charge at this
	// location rather than an arrival by road.
	IsChargingStop bool
}

// ChargingStop summarises one charging transition within a route. Stops are
// derived from a finished step sequence and never persisted independently.
type ChargingStop struct {
	// LocationID identifies the charging facility.
	LocationID string
	// EnergyAddedKWh is the energy put into the battery at this stop.
	EnergyAddedKWh float64
	// TimeAddedHours is the time spent charging.
	TimeAddedHours float64
	// SocAfterCharge is the state of charge when leaving the stop.
	SocAfterCharge float64
}

// RouteResult is a complete plan between two locations.
type RouteResult struct {
	// Steps runs from the start location to the goal inclusive.
	Steps []RouteStep
	// TotalTimeHours is travel plus charging time for the whole route.
	TotalTimeHours float64
	// TotalEnergyKWh is the total energy drawn over the whole route.
	TotalEnergyKWh float64
	// TotalCost is the accumulated g-cost under the weights the route
	// was planned with. Comparable only across identical weights.
	TotalCost float64
	// ChargingStops summarises the charging transitions in Steps.
	ChargingStops []ChargingStop
}
