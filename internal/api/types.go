package api

import (
	"github.com/evnavlabs/evnav-simulator/core"
	"github.com/evnavlabs/evnav-simulator/model"
)

// Wire types for the HTTP surface. Payload field names are snake_case
// and stay stable for existing frontends; the domain types never leak
// JSON tags.

// IntersectionOut is one location in the city payload.
type IntersectionOut struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	HasCharger bool     `json:"has_charger"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// RoadSegmentOut is one directed connection in the city payload.
type RoadSegmentOut struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	DistanceKm     float64 `json:"distance_km"`
	SpeedLimitKph  float64 `json:"speed_limit_kph"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	RoadClass      string  `json:"road_class"`
}

// CityOut is the full road network.
type CityOut struct {
	Intersections []IntersectionOut `json:"intersections"`
	Segments      []RoadSegmentOut  `json:"segments"`
}

// VehicleOut is one vehicle profile.
type VehicleOut struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	BatteryCapacityKWh      float64 `json:"battery_capacity_kwh"`
	BaseConsumptionKWhPerKm float64 `json:"base_consumption_kwh_per_km"`
	UphillPenaltyKWhPerM    float64 `json:"uphill_penalty_kwh_per_m"`
	MaxChargingPowerKW      float64 `json:"max_charging_power_kw"`
}

// CostWeightsIn carries explicit cost weights for scoring requests.
// Absent fields keep their defaults: time weight 1, the rest 0.
type CostWeightsIn struct {
	AlphaTime  *float64 `json:"alpha_time"`
	BetaEnergy *float64 `json:"beta_energy"`
	GammaTurn  *float64 `json:"gamma_turn"`
}

// CostWeightsOut echoes the weights a request resolved to.
type CostWeightsOut struct {
	AlphaTime  float64 `json:"alpha_time"`
	BetaEnergy float64 `json:"beta_energy"`
	GammaTurn  float64 `json:"gamma_turn"`
}

// SegmentForScoring is one hypothetical segment in a scoring request.
type SegmentForScoring struct {
	DistanceKm     float64 `json:"distance_km"`
	SpeedLimitKph  float64 `json:"speed_limit_kph"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	IsTurn         bool    `json:"is_turn"`
	// TrafficMultiplier at or below zero scores as free flow.
	TrafficMultiplier float64 `json:"traffic_multiplier"`
}

// RouteScoreRequest prices a client-supplied segment sequence without
// any pathfinding.
type RouteScoreRequest struct {
	VehicleID string              `json:"vehicle_id"`
	Weights   CostWeightsIn       `json:"weights"`
	Segments  []SegmentForScoring `json:"segments"`
}

// SegmentScoreOut is the per-segment breakdown of a scoring response.
type SegmentScoreOut struct {
	Index       int     `json:"index"`
	TimeHours   float64 `json:"time_hours"`
	EnergyKWh   float64 `json:"energy_kwh"`
	TurnPenalty float64 `json:"turn_penalty"`
	Cost        float64 `json:"cost"`
}

// RouteScoreResponse totals and itemises a scoring request.
type RouteScoreResponse struct {
	Vehicle        VehicleOut        `json:"vehicle"`
	Weights        CostWeightsOut    `json:"weights"`
	TotalTimeHours float64           `json:"total_time_hours"`
	TotalEnergyKWh float64           `json:"total_energy_kwh"`
	TotalCost      float64           `json:"total_cost"`
	Segments       []SegmentScoreOut `json:"segments"`
}

// RoutePlanRequest asks for an energy-aware route between two nodes.
// Mode defaults to balanced and initial_soc to a full battery.
type RoutePlanRequest struct {
	StartNodeID string   `json:"start_node_id"`
	EndNodeID   string   `json:"end_node_id"`
	VehicleID   string   `json:"vehicle_id"`
	Mode        string   `json:"mode"`
	InitialSoc  *float64 `json:"initial_soc"`
}

// RouteStepOut is one node visit along a planned route.
type RouteStepOut struct {
	NodeID              string  `json:"node_id"`
	Soc                 float64 `json:"soc"`
	CumulativeTimeHours float64 `json:"cumulative_time_hours"`
	CumulativeEnergyKWh float64 `json:"cumulative_energy_kwh"`
	IsChargingStop      bool    `json:"is_charging_stop"`
}

// ChargingStopOut summarises one charging stop along a planned route.
type ChargingStopOut struct {
	NodeID         string  `json:"node_id"`
	AddedEnergyKWh float64 `json:"added_energy_kwh"`
	AddedTimeHours float64 `json:"added_time_hours"`
	SocAfterCharge float64 `json:"soc_after_charge"`
}

// RoutePlanResponse is a complete planned route.
type RoutePlanResponse struct {
	Mode           string            `json:"mode"`
	Vehicle        VehicleOut        `json:"vehicle"`
	TotalTimeHours float64           `json:"total_time_hours"`
	TotalEnergyKWh float64           `json:"total_energy_kwh"`
	TotalCost      float64           `json:"total_cost"`
	Steps          []RouteStepOut    `json:"steps"`
	ChargingStops  []ChargingStopOut `json:"charging_stops"`
}

// TrafficIntensityIn sets the global traffic intensity.
type TrafficIntensityIn struct {
	Intensity float64 `json:"intensity"`
}

// ConnectionRef identifies a directed connection on the wire. It is
// both the block/unblock request body and the blocked-list element.
type ConnectionRef struct {
	StartNodeID string `json:"start_node_id"`
	EndNodeID   string `json:"end_node_id"`
}

// TrafficStateOut is the current traffic picture.
type TrafficStateOut struct {
	Intensity    float64         `json:"intensity"`
	BlockedEdges []ConnectionRef `json:"blocked_edges"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (w CostWeightsIn) resolve() core.CostWeights {
	out := core.CostWeights{AlphaTime: 1.0}
	if w.AlphaTime != nil {
		out.AlphaTime = *w.AlphaTime
	}
	if w.BetaEnergy != nil {
		out.BetaEnergy = *w.BetaEnergy
	}
	if w.GammaTurn != nil {
		out.GammaTurn = *w.GammaTurn
	}
	return out
}

func weightsOut(w core.CostWeights) CostWeightsOut {
	return CostWeightsOut{AlphaTime: w.AlphaTime, BetaEnergy: w.BetaEnergy, GammaTurn: w.GammaTurn}
}

func vehicleOut(v model.Vehicle) VehicleOut {
	return VehicleOut{
		ID:                      v.ID,
		Name:                    v.Name,
		BatteryCapacityKWh:      v.BatteryCapacityKWh,
		BaseConsumptionKWhPerKm: v.BaseConsumptionKWhPerKm,
		UphillPenaltyKWhPerM:    v.UphillPenaltyKWhPerM,
		MaxChargingPowerKW:      v.MaxChargingPowerKW,
	}
}

func cityOut(network *core.RoadNetwork) CityOut {
	locs := network.Locations()
	intersections := make([]IntersectionOut, 0, len(locs))
	for _, loc := range locs {
		out := IntersectionOut{
			ID:         loc.ID,
			Name:       loc.Name,
			HasCharger: loc.HasCharger,
		}
		if loc.HasCoordinates {
			lat, lng := loc.Lat, loc.Lng
			out.Lat, out.Lng = &lat, &lng
		}
		intersections = append(intersections, out)
	}

	conns := network.Connections()
	segments := make([]RoadSegmentOut, 0, len(conns))
	for _, conn := range conns {
		segments = append(segments, RoadSegmentOut{
			Start:          conn.From,
			End:            conn.To,
			DistanceKm:     conn.DistanceKm,
			SpeedLimitKph:  conn.SpeedLimitKph,
			ElevationGainM: conn.ElevationGainM,
			RoadClass:      string(conn.Class),
		})
	}

	return CityOut{Intersections: intersections, Segments: segments}
}

func planResponse(mode string, vehicle model.Vehicle, result *model.RouteResult) RoutePlanResponse {
	steps := make([]RouteStepOut, 0, len(result.Steps))
	for _, step := range result.Steps {
		steps = append(steps, RouteStepOut{
			NodeID:              step.LocationID,
			Soc:                 step.Soc,
			CumulativeTimeHours: step.CumulativeTimeHours,
			CumulativeEnergyKWh: step.CumulativeEnergyKWh,
			IsChargingStop:      step.IsChargingStop,
		})
	}

	stops := make([]ChargingStopOut, 0, len(result.ChargingStops))
	for _, stop := range result.ChargingStops {
		stops = append(stops, ChargingStopOut{
			NodeID:         stop.LocationID,
			AddedEnergyKWh: stop.EnergyAddedKWh,
			AddedTimeHours: stop.TimeAddedHours,
			SocAfterCharge: stop.SocAfterCharge,
		})
	}

	return RoutePlanResponse{
		Mode:           mode,
		Vehicle:        vehicleOut(vehicle),
		TotalTimeHours: result.TotalTimeHours,
		TotalEnergyKWh: result.TotalEnergyKWh,
		TotalCost:      result.TotalCost,
		Steps:          steps,
		ChargingStops:  stops,
	}
}
