package core

import (
	"math"

	"github.com/evnavlabs/evnav-simulator/model"
)

// CostWeights weighs the time, energy, and manoeuvre terms of the scalar
// edge cost. Weights are passed per planning call; nothing in the engine
// remembers a "current mode".
type CostWeights struct {
	// AlphaTime scales travel and charging time (hours).
	AlphaTime float64
	// BetaEnergy scales energy drawn (kWh).
	BetaEnergy float64
	// GammaTurn is the flat penalty applied once per turn. It is not
	// distance-scaled.
	GammaTurn float64
}

// The recognised weight presets. Resolution from caller-facing mode names
// to presets is the serving layer's concern.
const (
	PresetTimePriority   = "time-priority"
	PresetBalanced       = "balanced"
	PresetEnergyPriority = "energy-priority"
)

// PresetWeights returns the named weight preset. The second return is
// false for unknown names.
func PresetWeights(name string) (CostWeights, bool) {
	switch name {
	case PresetTimePriority:
		return CostWeights{AlphaTime: 1.0, BetaEnergy: 0.1, GammaTurn: 0.1}, true
	case PresetBalanced:
		return CostWeights{AlphaTime: 1.0, BetaEnergy: 1.0, GammaTurn: 0.1}, true
	case PresetEnergyPriority:
		return CostWeights{AlphaTime: 0.3, BetaEnergy: 1.0, GammaTurn: 0.05}, true
	default:
		return CostWeights{}, false
	}
}

// EdgeContext carries everything needed to price one edge traversal.
type EdgeContext struct {
	DistanceKm     float64
	SpeedLimitKph  float64
	ElevationGainM float64
	// IsTurn marks a direction change beyond the network's turn
	// threshold.
	IsTurn bool
	// TrafficMultiplier stretches travel time: 1 = free flow, +Inf =
	// blocked. Values at or below zero are treated as free flow so a
	// zero-valued context prices like an empty road.
	TrafficMultiplier float64
}

// CostEngine turns edge traversals and charging actions into scalar
// costs. The engine is stateless; one instance may serve any number of
// concurrent searches.
type CostEngine struct {
	weights CostWeights
}

// NewCostEngine constructs an engine with the given weights.
func NewCostEngine(weights CostWeights) *CostEngine {
	return &CostEngine{weights: weights}
}

// Weights returns the engine's weight triple.
func (e *CostEngine) Weights() CostWeights { return e.weights }

// TravelTimeHours returns the congestion-adjusted travel time for the
// edge. A non-positive speed limit yields +Inf rather than a division
// blow-up; networks built through NewRoadNetwork never contain one.
func (e *CostEngine) TravelTimeHours(ectx EdgeContext) float64 {
	if ectx.SpeedLimitKph <= 0 {
		return math.Inf(1)
	}
	mult := ectx.TrafficMultiplier
	if mult <= 0 {
		mult = 1.0
	}
	return ectx.DistanceKm / ectx.SpeedLimitKph * mult
}

// EnergyKWh returns the energy the vehicle draws over the edge.
func (e *CostEngine) EnergyKWh(ectx EdgeContext, vehicle model.Vehicle) (float64, error) {
	return vehicle.EnergyForDistance(ectx.DistanceKm, ectx.ElevationGainM)
}

// TurnPenalty returns the manoeuvre term for the edge.
func (e *CostEngine) TurnPenalty(ectx EdgeContext) float64 {
	if ectx.IsTurn {
		return e.weights.GammaTurn
	}
	return 0
}

// DriveCost combines the weighted time, energy, and manoeuvre terms for
// one edge traversal.
func (e *CostEngine) DriveCost(ectx EdgeContext, vehicle model.Vehicle) (float64, error) {
	energy, err := e.EnergyKWh(ectx, vehicle)
	if err != nil {
		return 0, err
	}
	timeHours := e.TravelTimeHours(ectx)
	return e.weights.AlphaTime*timeHours + e.weights.BetaEnergy*energy + e.TurnPenalty(ectx), nil
}

// ChargeCost prices a charging action. Only the time term applies:
// charging produces energy rather than consuming it and involves no
// manoeuvre.
func (e *CostEngine) ChargeCost(chargeTimeHours float64) float64 {
	return e.weights.AlphaTime * chargeTimeHours
}
