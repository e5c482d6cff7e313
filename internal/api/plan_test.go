package api

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestScoreRoute verifies segment pricing with explicit weights: time is
// congestion-stretched, energy includes the uphill penalty, and the turn
// penalty lands once per flagged segment.
func TestScoreRoute(t *testing.T) {
	router := newTestRouter(t)

	alpha, beta, gamma := 1.0, 1.0, 0.1
	req := RouteScoreRequest{
		VehicleID: "test_ev",
		Weights:   CostWeightsIn{AlphaTime: &alpha, BetaEnergy: &beta, GammaTurn: &gamma},
		Segments: []SegmentForScoring{
			{DistanceKm: 10, SpeedLimitKph: 50},
			{DistanceKm: 10, SpeedLimitKph: 50, ElevationGainM: 20, IsTurn: true, TrafficMultiplier: 1.5},
		},
	}

	rr := doRequest(t, router, http.MethodPost, "/api/route/score", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("score status = %d, body %s", rr.Code, rr.Body.String())
	}

	var res RouteScoreResponse
	decodeBody(t, rr, &res)

	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}
	first, second := res.Segments[0], res.Segments[1]
	if !floatEq(first.TimeHours, 0.2) || !floatEq(first.EnergyKWh, 1.5) || !floatEq(first.Cost, 1.7) {
		t.Fatalf("flat segment = %+v, want time 0.2, energy 1.5, cost 1.7", first)
	}
	if !floatEq(second.TimeHours, 0.3) {
		t.Fatalf("congested time = %v, want 0.3", second.TimeHours)
	}
	if !floatEq(second.EnergyKWh, 1.51) {
		t.Fatalf("uphill energy = %v, want 1.51", second.EnergyKWh)
	}
	if !floatEq(second.TurnPenalty, 0.1) {
		t.Fatalf("turn penalty = %v, want 0.1", second.TurnPenalty)
	}
	if !floatEq(second.Cost, 1.91) {
		t.Fatalf("congested segment cost = %v, want 1.91", second.Cost)
	}

	if !floatEq(res.TotalTimeHours, 0.5) || !floatEq(res.TotalEnergyKWh, 3.01) || !floatEq(res.TotalCost, 3.61) {
		t.Fatalf("totals = %v h, %v kWh, cost %v, want 0.5, 3.01, 3.61",
			res.TotalTimeHours, res.TotalEnergyKWh, res.TotalCost)
	}
	if res.Vehicle.ID != "test_ev" {
		t.Fatalf("vehicle echo = %q, want test_ev", res.Vehicle.ID)
	}
}

// TestScoreRouteDefaultWeights verifies absent weights resolve to a pure
// time objective while energy is still reported.
func TestScoreRouteDefaultWeights(t *testing.T) {
	router := newTestRouter(t)

	req := RouteScoreRequest{
		VehicleID: "test_ev",
		Segments:  []SegmentForScoring{{DistanceKm: 10, SpeedLimitKph: 50}},
	}

	rr := doRequest(t, router, http.MethodPost, "/api/route/score", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("score status = %d, body %s", rr.Code, rr.Body.String())
	}

	var res RouteScoreResponse
	decodeBody(t, rr, &res)

	if got := (CostWeightsOut{AlphaTime: 1}); res.Weights != got {
		t.Fatalf("resolved weights = %+v, want %+v", res.Weights, got)
	}
	if !floatEq(res.TotalCost, 0.2) {
		t.Fatalf("cost = %v, want time-only 0.2", res.TotalCost)
	}
	if !floatEq(res.TotalEnergyKWh, 1.5) {
		t.Fatalf("energy = %v, want 1.5", res.TotalEnergyKWh)
	}
}

func TestScoreRouteUnknownVehicle(t *testing.T) {
	router := newTestRouter(t)

	req := RouteScoreRequest{VehicleID: "hoverboard"}
	rr := doRequest(t, router, http.MethodPost, "/api/route/score", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "unknown_vehicle" {
		t.Fatalf("code = %q, want unknown_vehicle", body.Code)
	}
}

// TestScoreRouteNegativeDistance verifies the energy model's distance
// check surfaces as a client error rather than a 500.
func TestScoreRouteNegativeDistance(t *testing.T) {
	router := newTestRouter(t)

	req := RouteScoreRequest{
		VehicleID: "test_ev",
		Segments:  []SegmentForScoring{{DistanceKm: -5, SpeedLimitKph: 50}},
	}
	rr := doRequest(t, router, http.MethodPost, "/api/route/score", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "invalid_request" {
		t.Fatalf("code = %q, want invalid_request", body.Code)
	}
}

// TestPlanRouteEndpoint verifies a successful plan across the corridor:
// endpoints, per-step accounting, and the balanced-mode total cost.
func TestPlanRouteEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := RoutePlanRequest{StartNodeID: "a", EndNodeID: "c", VehicleID: "test_ev"}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("plan status = %d, body %s", rr.Code, rr.Body.String())
	}

	var res RoutePlanResponse
	decodeBody(t, rr, &res)

	if res.Mode != ModeBalanced {
		t.Fatalf("mode = %q, want %q", res.Mode, ModeBalanced)
	}
	if len(res.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(res.Steps))
	}
	if res.Steps[0].NodeID != "a" || res.Steps[2].NodeID != "c" {
		t.Fatalf("route endpoints = %s..%s, want a..c", res.Steps[0].NodeID, res.Steps[2].NodeID)
	}
	if !floatEq(res.TotalTimeHours, 0.4) {
		t.Fatalf("total time = %v, want 0.4", res.TotalTimeHours)
	}
	if !floatEq(res.TotalEnergyKWh, 3.0) {
		t.Fatalf("total energy = %v, want 3.0", res.TotalEnergyKWh)
	}
	if !floatEq(res.TotalCost, 3.4) {
		t.Fatalf("total cost = %v, want 3.4", res.TotalCost)
	}
	if res.ChargingStops == nil || len(res.ChargingStops) != 0 {
		t.Fatalf("charging stops = %v, want empty list", res.ChargingStops)
	}
	if res.Steps[0].Soc != 1.0 {
		t.Fatalf("initial soc = %v, want full battery default", res.Steps[0].Soc)
	}
}

func TestPlanRouteExplicitSocAndMode(t *testing.T) {
	router := newTestRouter(t)

	soc := 0.8
	req := RoutePlanRequest{
		StartNodeID: "a",
		EndNodeID:   "c",
		VehicleID:   "test_ev",
		Mode:        ModeFastest,
		InitialSoc:  &soc,
	}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("plan status = %d, body %s", rr.Code, rr.Body.String())
	}

	var res RoutePlanResponse
	decodeBody(t, rr, &res)
	if res.Mode != ModeFastest {
		t.Fatalf("mode echo = %q, want %q", res.Mode, ModeFastest)
	}
	if !floatEq(res.Steps[0].Soc, 0.8) {
		t.Fatalf("initial soc = %v, want 0.8", res.Steps[0].Soc)
	}
}

func TestPlanRouteUnknownMode(t *testing.T) {
	router := newTestRouter(t)

	req := RoutePlanRequest{StartNodeID: "a", EndNodeID: "c", VehicleID: "test_ev", Mode: "teleport"}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "bad_request" {
		t.Fatalf("code = %q, want bad_request", body.Code)
	}
}

func TestPlanRouteUnknownVehicle(t *testing.T) {
	router := newTestRouter(t)

	req := RoutePlanRequest{StartNodeID: "a", EndNodeID: "c", VehicleID: "hoverboard"}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "unknown_vehicle" {
		t.Fatalf("code = %q, want unknown_vehicle", body.Code)
	}
}

func TestPlanRouteUnknownLocation(t *testing.T) {
	router := newTestRouter(t)

	req := RoutePlanRequest{StartNodeID: "atlantis", EndNodeID: "c", VehicleID: "test_ev"}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "unknown_location" {
		t.Fatalf("code = %q, want unknown_location", body.Code)
	}
}

func TestPlanRouteInvalidSoc(t *testing.T) {
	router := newTestRouter(t)

	soc := 1.5
	req := RoutePlanRequest{StartNodeID: "a", EndNodeID: "c", VehicleID: "test_ev", InitialSoc: &soc}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "invalid_request" {
		t.Fatalf("code = %q, want invalid_request", body.Code)
	}
}

// TestPlanRouteNoRoute verifies an unreachable goal answers 409 with the
// no_feasible_route code. Intersection d exists but no road reaches it.
func TestPlanRouteNoRoute(t *testing.T) {
	router := newTestRouter(t)

	req := RoutePlanRequest{StartNodeID: "a", EndNodeID: "d", VehicleID: "test_ev"}
	rr := doRequest(t, router, http.MethodPost, "/api/route/plan", req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "no_feasible_route" {
		t.Fatalf("code = %q, want no_feasible_route", body.Code)
	}
}

func TestPlanRouteMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/route/plan", strings.NewReader(`{"start_node_id":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "bad_request" {
		t.Fatalf("code = %q, want bad_request", body.Code)
	}
}
