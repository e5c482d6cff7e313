package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evnavlabs/evnav-simulator/core"
	"github.com/evnavlabs/evnav-simulator/internal/logging"
	"github.com/evnavlabs/evnav-simulator/internal/observability"
)

// Wire spellings for the plan modes.
const (
	ModeFastest     = "fastest"
	ModeEnergySaver = "energy_saver"
	ModeBalanced    = "balanced"
)

// presetForMode maps a wire mode onto a cost preset. An empty mode
// means balanced. The second return is the canonical wire spelling
// echoed in responses and metric labels.
func presetForMode(mode string) (preset, wireMode string, ok bool) {
	switch mode {
	case ModeFastest:
		return core.PresetTimePriority, ModeFastest, true
	case ModeEnergySaver:
		return core.PresetEnergyPriority, ModeEnergySaver, true
	case ModeBalanced, "":
		return core.PresetBalanced, ModeBalanced, true
	default:
		return "", "", false
	}
}

// planStats captures search telemetry for one request.
type planStats struct {
	expanded int
	enqueued int
}

func (ps *planStats) PlanExplored(expanded, enqueued int) {
	ps.expanded, ps.enqueued = expanded, enqueued
}

func (s *Server) handleScoreRoute(c *gin.Context) {
	var req RouteScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	vehicle, err := s.lookupVehicle(req.VehicleID)
	if err != nil {
		writeError(c, err)
		return
	}

	weights := req.Weights.resolve()
	engine := core.NewCostEngine(weights)

	scores := make([]SegmentScoreOut, 0, len(req.Segments))
	var totalTime, totalEnergy, totalCost float64
	for idx, seg := range req.Segments {
		ectx := core.EdgeContext{
			DistanceKm:        seg.DistanceKm,
			SpeedLimitKph:     seg.SpeedLimitKph,
			ElevationGainM:    seg.ElevationGainM,
			IsTurn:            seg.IsTurn,
			TrafficMultiplier: seg.TrafficMultiplier,
		}
		timeHours := engine.TravelTimeHours(ectx)
		energy, err := engine.EnergyKWh(ectx, vehicle)
		if err != nil {
			writeError(c, err)
			return
		}
		cost, err := engine.DriveCost(ectx, vehicle)
		if err != nil {
			writeError(c, err)
			return
		}

		scores = append(scores, SegmentScoreOut{
			Index:       idx,
			TimeHours:   timeHours,
			EnergyKWh:   energy,
			TurnPenalty: engine.TurnPenalty(ectx),
			Cost:        cost,
		})
		totalTime += timeHours
		totalEnergy += energy
		totalCost += cost
	}

	c.JSON(http.StatusOK, RouteScoreResponse{
		Vehicle:        vehicleOut(vehicle),
		Weights:        weightsOut(weights),
		TotalTimeHours: totalTime,
		TotalEnergyKWh: totalEnergy,
		TotalCost:      totalCost,
		Segments:       scores,
	})
}

func (s *Server) handlePlanRoute(c *gin.Context) {
	var req RoutePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	log := s.logger(ctx)

	preset, wireMode, ok := presetForMode(req.Mode)
	if !ok {
		writeBadRequest(c, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}
	vehicle, err := s.lookupVehicle(req.VehicleID)
	if err != nil {
		writeError(c, err)
		return
	}

	initialSoc := 1.0
	if req.InitialSoc != nil {
		initialSoc = *req.InitialSoc
	}

	weights, _ := core.PresetWeights(preset)
	stats := &planStats{}
	planner := core.NewPlanner(s.network, core.NewCostEngine(weights), core.WithSearchObserver(stats))

	planCtx := ctx
	if s.planTimeout > 0 {
		var cancel context.CancelFunc
		planCtx, cancel = context.WithTimeout(ctx, s.planTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := planner.PlanRoute(planCtx, vehicle, req.StartNodeID, req.EndNodeID, initialSoc, s.traffic)
	elapsed := time.Since(start)

	if err != nil {
		outcome := observability.PlanOutcomeInvalid
		if errors.Is(err, core.ErrNoRoute) {
			outcome = observability.PlanOutcomeNoRoute
			log.Info(ctx, "no feasible route",
				logging.String("start", req.StartNodeID),
				logging.String("goal", req.EndNodeID),
				logging.String("vehicle", req.VehicleID),
				logging.Int("expanded_states", stats.expanded),
			)
		} else {
			log.Warn(ctx, "plan request rejected", logging.Err(err))
		}
		s.collector.ObservePlan(wireMode, outcome, elapsed, stats.expanded)
		writeError(c, err)
		return
	}

	s.collector.ObservePlan(wireMode, observability.PlanOutcomeOK, elapsed, stats.expanded)
	log.Info(ctx, "route planned",
		logging.String("start", req.StartNodeID),
		logging.String("goal", req.EndNodeID),
		logging.String("vehicle", req.VehicleID),
		logging.String("mode", wireMode),
		logging.Int("steps", len(result.Steps)),
		logging.Int("charging_stops", len(result.ChargingStops)),
		logging.Float64("total_time_hours", result.TotalTimeHours),
		logging.Float64("total_energy_kwh", result.TotalEnergyKWh),
		logging.Int("expanded_states", stats.expanded),
	)

	c.JSON(http.StatusOK, planResponse(wireMode, vehicle, result))
}
