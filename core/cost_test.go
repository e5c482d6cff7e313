package core

import (
	"errors"
	"math"
	"testing"

	"github.com/evnavlabs/evnav-simulator/model"
)

func costTestVehicle() model.Vehicle {
	return model.Vehicle{
		ID:                      "cost_ev",
		Name:                    "Cost EV",
		BatteryCapacityKWh:      60.0,
		BaseConsumptionKWhPerKm: 0.15,
		UphillPenaltyKWhPerM:    0.0005,
		MaxChargingPowerKW:      120.0,
	}
}

func TestPresetWeights(t *testing.T) {
	cases := []struct {
		name string
		want CostWeights
	}{
		{PresetTimePriority, CostWeights{AlphaTime: 1.0, BetaEnergy: 0.1, GammaTurn: 0.1}},
		{PresetBalanced, CostWeights{AlphaTime: 1.0, BetaEnergy: 1.0, GammaTurn: 0.1}},
		{PresetEnergyPriority, CostWeights{AlphaTime: 0.3, BetaEnergy: 1.0, GammaTurn: 0.05}},
	}
	for _, tc := range cases {
		got, ok := PresetWeights(tc.name)
		if !ok {
			t.Fatalf("PresetWeights(%q) not ok", tc.name)
		}
		if got != tc.want {
			t.Fatalf("PresetWeights(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}

	if _, ok := PresetWeights("turbo"); ok {
		t.Fatalf("PresetWeights(turbo) ok, want rejection")
	}
}

func TestTravelTimeHours(t *testing.T) {
	e := NewCostEngine(CostWeights{AlphaTime: 1})

	// 50 km at 100 kph is half an hour.
	got := e.TravelTimeHours(EdgeContext{DistanceKm: 50, SpeedLimitKph: 100, TrafficMultiplier: 1})
	if diff := math.Abs(got - 0.5); diff > 1e-9 {
		t.Fatalf("TravelTimeHours = %v, want 0.5", got)
	}

	// Congestion stretches the same edge.
	congested := e.TravelTimeHours(EdgeContext{DistanceKm: 50, SpeedLimitKph: 100, TrafficMultiplier: 1.8})
	if diff := math.Abs(congested - 0.9); diff > 1e-9 {
		t.Fatalf("TravelTimeHours congested = %v, want 0.9", congested)
	}
}

// TestTravelTimeHoursFreeFlowFallback verifies that a zero-valued or
// negative multiplier prices like an empty road.
func TestTravelTimeHoursFreeFlowFallback(t *testing.T) {
	e := NewCostEngine(CostWeights{})

	base := e.TravelTimeHours(EdgeContext{DistanceKm: 10, SpeedLimitKph: 50, TrafficMultiplier: 1})
	zero := e.TravelTimeHours(EdgeContext{DistanceKm: 10, SpeedLimitKph: 50})
	negative := e.TravelTimeHours(EdgeContext{DistanceKm: 10, SpeedLimitKph: 50, TrafficMultiplier: -3})

	if zero != base || negative != base {
		t.Fatalf("free-flow fallback broken: base=%v zero=%v negative=%v", base, zero, negative)
	}
}

func TestTravelTimeHoursNonPositiveSpeed(t *testing.T) {
	e := NewCostEngine(CostWeights{})

	if got := e.TravelTimeHours(EdgeContext{DistanceKm: 10, SpeedLimitKph: 0}); !math.IsInf(got, 1) {
		t.Fatalf("TravelTimeHours(speed 0) = %v, want +Inf", got)
	}
	if got := e.TravelTimeHours(EdgeContext{DistanceKm: 10, SpeedLimitKph: -20}); !math.IsInf(got, 1) {
		t.Fatalf("TravelTimeHours(speed -20) = %v, want +Inf", got)
	}
}

func TestTravelTimeHoursBlocked(t *testing.T) {
	e := NewCostEngine(CostWeights{})

	got := e.TravelTimeHours(EdgeContext{DistanceKm: 10, SpeedLimitKph: 50, TrafficMultiplier: math.Inf(1)})
	if !math.IsInf(got, 1) {
		t.Fatalf("TravelTimeHours(blocked) = %v, want +Inf", got)
	}
}

func TestTurnPenalty(t *testing.T) {
	e := NewCostEngine(CostWeights{GammaTurn: 0.1})

	if got := e.TurnPenalty(EdgeContext{IsTurn: true}); got != 0.1 {
		t.Fatalf("TurnPenalty(turn) = %v, want 0.1", got)
	}
	if got := e.TurnPenalty(EdgeContext{}); got != 0 {
		t.Fatalf("TurnPenalty(straight) = %v, want 0", got)
	}
}

func TestDriveCost(t *testing.T) {
	weights := CostWeights{AlphaTime: 1.0, BetaEnergy: 1.0, GammaTurn: 0.1}
	e := NewCostEngine(weights)
	v := costTestVehicle()

	ectx := EdgeContext{
		DistanceKm:        10,
		SpeedLimitKph:     50,
		ElevationGainM:    20,
		IsTurn:            true,
		TrafficMultiplier: 1.5,
	}

	got, err := e.DriveCost(ectx, v)
	if err != nil {
		t.Fatalf("DriveCost: %v", err)
	}

	wantTime := 10.0 / 50.0 * 1.5
	wantEnergy := 0.15*10 + 0.0005*20
	want := 1.0*wantTime + 1.0*wantEnergy + 0.1
	if diff := math.Abs(got - want); diff > 1e-9 {
		t.Fatalf("DriveCost = %v, want %v", got, want)
	}
}

// TestDriveCostWeightSensitivity verifies the weights actually reweigh the
// terms rather than being decorative.
func TestDriveCostWeightSensitivity(t *testing.T) {
	v := costTestVehicle()
	ectx := EdgeContext{DistanceKm: 10, SpeedLimitKph: 50, TrafficMultiplier: 1}

	timeHeavy, err := NewCostEngine(CostWeights{AlphaTime: 1.0, BetaEnergy: 0.1}).DriveCost(ectx, v)
	if err != nil {
		t.Fatalf("DriveCost time-heavy: %v", err)
	}
	energyHeavy, err := NewCostEngine(CostWeights{AlphaTime: 0.3, BetaEnergy: 1.0}).DriveCost(ectx, v)
	if err != nil {
		t.Fatalf("DriveCost energy-heavy: %v", err)
	}
	if timeHeavy == energyHeavy {
		t.Fatalf("time-heavy and energy-heavy costs identical (%v), weights are vacuous", timeHeavy)
	}
}

func TestDriveCostNegativeDistance(t *testing.T) {
	e := NewCostEngine(CostWeights{AlphaTime: 1})

	_, err := e.DriveCost(EdgeContext{DistanceKm: -5, SpeedLimitKph: 50}, costTestVehicle())
	if !errors.Is(err, model.ErrNegativeDistance) {
		t.Fatalf("error = %v, want ErrNegativeDistance", err)
	}
}

func TestChargeCost(t *testing.T) {
	e := NewCostEngine(CostWeights{AlphaTime: 0.3, BetaEnergy: 1.0, GammaTurn: 0.05})

	// Only the time term prices a charge.
	got := e.ChargeCost(2.0)
	if diff := math.Abs(got - 0.6); diff > 1e-9 {
		t.Fatalf("ChargeCost(2h) = %v, want 0.6", got)
	}
	if got := e.ChargeCost(0); got != 0 {
		t.Fatalf("ChargeCost(0) = %v, want 0", got)
	}
}
