package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/evnavlabs/evnav-simulator/traffic"
)

// diamondNetwork offers a short path a -> top -> d and a longer fallback
// a -> bottom -> d.
func diamondNetwork(t *testing.T) *RoadNetwork {
	t.Helper()
	n, err := NewRoadNetwork(
		[]Location{{ID: "a"}, {ID: "top"}, {ID: "bottom"}, {ID: "d"}},
		[]Connection{
			{From: "a", To: "top", DistanceKm: 5, SpeedLimitKph: 50},
			{From: "top", To: "d", DistanceKm: 5, SpeedLimitKph: 50},
			{From: "a", To: "bottom", DistanceKm: 8, SpeedLimitKph: 50},
			{From: "bottom", To: "d", DistanceKm: 8, SpeedLimitKph: 50},
		},
	)
	if err != nil {
		t.Fatalf("NewRoadNetwork: %v", err)
	}
	return n
}

// TestTrafficStretchesTimeNotEnergy verifies that congestion slows a route
// down without changing its energy draw.
func TestTrafficStretchesTimeNotEnergy(t *testing.T) {
	p := NewPlanner(lineNetwork(t), nil)
	v := searchTestVehicle()

	free, err := p.PlanRoute(context.Background(), v, "a", "c", 0.9, stubTraffic{mult: 1.0})
	if err != nil {
		t.Fatalf("free-flow plan: %v", err)
	}
	jammed, err := p.PlanRoute(context.Background(), v, "a", "c", 0.9, stubTraffic{mult: 2.0})
	if err != nil {
		t.Fatalf("congested plan: %v", err)
	}

	if diff := math.Abs(jammed.TotalTimeHours - 2*free.TotalTimeHours); diff > 1e-9 {
		t.Fatalf("congested time = %v, want double the free-flow %v", jammed.TotalTimeHours, free.TotalTimeHours)
	}
	if jammed.TotalEnergyKWh != free.TotalEnergyKWh {
		t.Fatalf("congestion changed energy: %v vs %v", jammed.TotalEnergyKWh, free.TotalEnergyKWh)
	}
}

func TestBlockedConnectionForcesDetour(t *testing.T) {
	p := NewPlanner(diamondNetwork(t), nil)
	v := searchTestVehicle()

	tm := traffic.NewModel(0)

	direct, err := p.PlanRoute(context.Background(), v, "a", "d", 0.9, tm)
	if err != nil {
		t.Fatalf("unblocked plan: %v", err)
	}
	if !sameIDs(stepIDs(direct.Steps), "a", "top", "d") {
		t.Fatalf("unblocked steps = %v, want the short path", stepIDs(direct.Steps))
	}

	tm.BlockConnection("a", "top")

	detour, err := p.PlanRoute(context.Background(), v, "a", "d", 0.9, tm)
	if err != nil {
		t.Fatalf("blocked plan: %v", err)
	}
	if !sameIDs(stepIDs(detour.Steps), "a", "bottom", "d") {
		t.Fatalf("blocked steps = %v, want the detour", stepIDs(detour.Steps))
	}
	if detour.TotalCost <= direct.TotalCost {
		t.Fatalf("detour cost %v not above direct cost %v", detour.TotalCost, direct.TotalCost)
	}
}

// TestBlockingEveryExitIsNoRoute verifies that blocking all outgoing
// connections from the start collapses to the same outcome as energy
// infeasibility.
func TestBlockingEveryExitIsNoRoute(t *testing.T) {
	p := NewPlanner(diamondNetwork(t), nil)

	tm := traffic.NewModel(0)
	tm.BlockConnection("a", "top")
	tm.BlockConnection("a", "bottom")

	_, err := p.PlanRoute(context.Background(), searchTestVehicle(), "a", "d", 0.9, tm)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("error = %v, want ErrNoRoute", err)
	}
}

func TestUnblockRestoresRoute(t *testing.T) {
	p := NewPlanner(diamondNetwork(t), nil)
	v := searchTestVehicle()

	tm := traffic.NewModel(0)
	tm.BlockConnection("a", "top")
	tm.BlockConnection("a", "bottom")

	if _, err := p.PlanRoute(context.Background(), v, "a", "d", 0.9, tm); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("fully blocked error = %v, want ErrNoRoute", err)
	}

	tm.UnblockConnection("a", "top")

	result, err := p.PlanRoute(context.Background(), v, "a", "d", 0.9, tm)
	if err != nil {
		t.Fatalf("plan after unblock: %v", err)
	}
	if !sameIDs(stepIDs(result.Steps), "a", "top", "d") {
		t.Fatalf("steps = %v, want the reopened short path", stepIDs(result.Steps))
	}
}

// TestIntensityAppliesThroughModel verifies the planner picks up the
// model's live multiplier rather than a cached value.
func TestIntensityAppliesThroughModel(t *testing.T) {
	p := NewPlanner(lineNetwork(t), nil)
	v := searchTestVehicle()

	tm := traffic.NewModel(0)

	quiet, err := p.PlanRoute(context.Background(), v, "a", "c", 0.9, tm)
	if err != nil {
		t.Fatalf("quiet plan: %v", err)
	}

	tm.SetGlobalIntensity(0.5)

	busy, err := p.PlanRoute(context.Background(), v, "a", "c", 0.9, tm)
	if err != nil {
		t.Fatalf("busy plan: %v", err)
	}
	if diff := math.Abs(busy.TotalTimeHours - 1.5*quiet.TotalTimeHours); diff > 1e-9 {
		t.Fatalf("busy time = %v, want 1.5x the quiet %v", busy.TotalTimeHours, quiet.TotalTimeHours)
	}
}
