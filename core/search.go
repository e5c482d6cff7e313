package core

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/evnavlabs/evnav-simulator/model"
)

const (
	// SocBucketWidth is the default state-of-charge granularity used for
	// search deduplication: 2% buckets, so ~50 buckets cover [0,1].
	SocBucketWidth = 0.02
	// ChargeTargetSoc is the fixed state of charge a charging transition
	// fills to. Charging above it is excluded: the tail of the charge
	// curve costs more time than it buys range.
	ChargeTargetSoc = 0.95

	// costEpsilon guards float comparisons on costs and energy.
	costEpsilon = 1e-9
)

var (
	// ErrNoRoute reports that no energy-respecting route exists between
	// start and goal under the current battery, network, and traffic
	// constraints. It is an expected outcome, not an internal fault;
	// callers branch on it with errors.Is. Traffic-induced
	// unreachability is indistinguishable from energy infeasibility
	// here: both surface as ErrNoRoute.
	ErrNoRoute = errors.New("no feasible route")
	// ErrInvalidCharge flags an initial state of charge outside [0,1].
	ErrInvalidCharge = errors.New("invalid state of charge")
)

// TrafficReader supplies per-connection congestion multipliers during a
// search. A multiplier of +Inf removes the connection for the current
// request. Implementations must be safe for concurrent readers; the
// planner re-queries per edge expansion and never caches values.
type TrafficReader interface {
	Multiplier(from, to string) float64
}

// HeuristicFunc estimates the remaining cost from a location to the goal.
// Estimates must never exceed the true remaining cost or the first goal
// pop loses its optimality guarantee.
type HeuristicFunc func(locationID, goalID string) float64

// SearchObserver receives telemetry after a plan call finishes.
// Implementations must be cheap; the planner calls them synchronously.
type SearchObserver interface {
	PlanExplored(expandedStates, enqueuedStates int)
}

// PlannerOption customises a Planner.
type PlannerOption func(*Planner)

// WithHeuristic swaps the frontier-ordering estimate. The default
// estimates zero everywhere, which makes the search uniform-cost.
func WithHeuristic(h HeuristicFunc) PlannerOption {
	return func(p *Planner) {
		if h != nil {
			p.heuristic = h
		}
	}
}

// WithBucketWidth overrides the state-of-charge bucket width fixed at
// construction. Non-positive widths are ignored.
func WithBucketWidth(width float64) PlannerOption {
	return func(p *Planner) {
		if width > 0 {
			p.bucketWidth = width
		}
	}
}

// WithSearchObserver attaches a telemetry sink for search statistics.
func WithSearchObserver(obs SearchObserver) PlannerOption {
	return func(p *Planner) { p.observer = obs }
}

// Planner runs energy-constrained route searches over one road network.
// The network is read-only for the planner's lifetime, so a planner may
// serve concurrent PlanRoute calls; each call is single-threaded and
// runs to completion with no internal suspension points.
type Planner struct {
	network     *RoadNetwork
	engine      *CostEngine
	heuristic   HeuristicFunc
	bucketWidth float64
	observer    SearchObserver
}

// NewPlanner constructs a planner for the given network and cost engine.
// A nil engine falls back to balanced weights.
func NewPlanner(network *RoadNetwork, engine *CostEngine, opts ...PlannerOption) *Planner {
	if engine == nil {
		weights, _ := PresetWeights(PresetBalanced)
		engine = NewCostEngine(weights)
	}
	p := &Planner{
		network:     network,
		engine:      engine,
		heuristic:   func(string, string) float64 { return 0 },
		bucketWidth: SocBucketWidth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// searchKey is the deduplication key of one search state. The bucket is
// deliberately lossy: distinct charge levels that floor to the same
// bucket count as the same state, which bounds the state space at
// |locations| x bucket count. The continuous charge rides in the node
// payload, never in the key.
type searchKey struct {
	locationID string
	bucket     int
}

// searchNode is one frontier entry. Nodes are immutable once pushed;
// stale duplicates are resolved on pop against the closed set.
type searchNode struct {
	key searchKey
	// soc is the continuous state of charge, used for edge feasibility
	// and telemetry only.
	soc float64
	// g is the accumulated cost from the start; f adds the heuristic.
	g float64
	f float64

	timeHours float64
	energyKWh float64
	charging  bool

	// via is the connection used to arrive here. Charging carries it
	// forward unchanged so turn detection still sees the road the
	// vehicle actually came in on.
	via    Connection
	hasVia bool

	parent *searchNode
}

// nodeQueue is a min-heap over estimated total cost, ties broken by
// accumulated cost.
type nodeQueue []*searchNode

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].g < q[j].g
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*searchNode)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// PlanRoute searches for the cheapest energy-respecting route from
// startID to goalID under the engine's weights and the supplied traffic
// state. traffic may be nil, in which case every connection prices at
// free flow.
//
// Outcomes: a complete RouteResult; ErrNoRoute when the frontier
// exhausts without reaching the goal; or a precondition error (unknown
// location, invalid vehicle, state of charge outside [0,1]). The
// planner never logs and never retries. ctx is checked between state
// expansions so callers can bound long searches.
func (p *Planner) PlanRoute(ctx context.Context, vehicle model.Vehicle, startID, goalID string, initialSoc float64, traffic TrafficReader) (*model.RouteResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.network == nil {
		return nil, errors.New("planner has no road network")
	}
	if err := vehicle.Validate(); err != nil {
		return nil, err
	}
	if !p.network.HasLocation(startID) {
		return nil, fmt.Errorf("%w: start %q", ErrUnknownLocation, startID)
	}
	if !p.network.HasLocation(goalID) {
		return nil, fmt.Errorf("%w: goal %q", ErrUnknownLocation, goalID)
	}
	if initialSoc < 0 || initialSoc > 1 {
		return nil, fmt.Errorf("%w: initial soc %.3f outside [0,1]", ErrInvalidCharge, initialSoc)
	}

	capacity := vehicle.BatteryCapacityKWh

	start := &searchNode{
		key: searchKey{locationID: startID, bucket: p.bucketFor(initialSoc)},
		soc: initialSoc,
	}
	start.f = p.heuristic(startID, goalID)

	frontier := &nodeQueue{start}
	heap.Init(frontier)
	bestG := map[searchKey]float64{start.key: 0}
	closed := make(map[searchKey]bool)
	expanded, enqueued := 0, 1

	for frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := heap.Pop(frontier).(*searchNode)
		if closed[node.key] {
			continue
		}
		closed[node.key] = true
		expanded++

		// First goal pop is cost-optimal under the bucketed state key.
		if node.key.locationID == goalID {
			p.observe(expanded, enqueued)
			return p.buildResult(vehicle, node), nil
		}

		// Drive transitions.
		for _, conn := range p.network.Outgoing(node.key.locationID) {
			mult := 1.0
			if traffic != nil {
				mult = traffic.Multiplier(conn.From, conn.To)
			}
			if math.IsInf(mult, 1) {
				// Blocked: the connection does not exist for this request.
				continue
			}

			energyRequired, err := vehicle.EnergyForDistance(conn.DistanceKm, conn.ElevationGainM)
			if err != nil {
				return nil, err
			}
			available := node.soc * capacity
			if energyRequired > available+costEpsilon {
				// Infeasible, not merely expensive: never offered to the
				// frontier.
				continue
			}

			ectx := EdgeContext{
				DistanceKm:        conn.DistanceKm,
				SpeedLimitKph:     conn.SpeedLimitKph,
				ElevationGainM:    conn.ElevationGainM,
				IsTurn:            node.hasVia && p.network.IsTurn(node.via, conn),
				TrafficMultiplier: mult,
			}
			stepCost, err := p.engine.DriveCost(ectx, vehicle)
			if err != nil {
				return nil, err
			}

			nextSoc := math.Max(0, math.Min(1, (available-energyRequired)/capacity))
			succ := &searchNode{
				key:       searchKey{locationID: conn.To, bucket: p.bucketFor(nextSoc)},
				soc:       nextSoc,
				g:         node.g + stepCost,
				timeHours: node.timeHours + p.engine.TravelTimeHours(ectx),
				energyKWh: node.energyKWh + energyRequired,
				via:       conn,
				hasVia:    true,
				parent:    node,
			}
			succ.f = succ.g + p.heuristic(succ.key.locationID, goalID)
			if p.push(frontier, bestG, succ) {
				enqueued++
			}
		}

		// Charging transition: opportunistic whenever a charger is present
		// and there is headroom below the target.
		loc, _ := p.network.Location(node.key.locationID)
		if loc.HasCharger && node.soc < ChargeTargetSoc {
			chargeTime := (ChargeTargetSoc - node.soc) * capacity / vehicle.MaxChargingPowerKW
			succ := &searchNode{
				key:       searchKey{locationID: node.key.locationID, bucket: p.bucketFor(ChargeTargetSoc)},
				soc:       ChargeTargetSoc,
				g:         node.g + p.engine.ChargeCost(chargeTime),
				timeHours: node.timeHours + chargeTime,
				energyKWh: node.energyKWh, // charging refills the battery; drawn energy is unchanged
				charging:  true,
				via:       node.via,
				hasVia:    node.hasVia,
				parent:    node,
			}
			succ.f = succ.g + p.heuristic(succ.key.locationID, goalID)
			if p.push(frontier, bestG, succ) {
				enqueued++
			}
		}
	}

	p.observe(expanded, enqueued)
	return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, startID, goalID)
}

// push offers a successor to the frontier unless a cheaper path to its
// state is already known.
func (p *Planner) push(frontier *nodeQueue, bestG map[searchKey]float64, succ *searchNode) bool {
	if prev, ok := bestG[succ.key]; ok && succ.g+costEpsilon >= prev {
		return false
	}
	bestG[succ.key] = succ.g
	heap.Push(frontier, succ)
	return true
}

func (p *Planner) bucketFor(soc float64) int {
	if soc < 0 {
		soc = 0
	} else if soc > 1 {
		soc = 1
	}
	return int(math.Floor(soc / p.bucketWidth))
}

func (p *Planner) observe(expanded, enqueued int) {
	if p.observer != nil {
		p.observer.PlanExplored(expanded, enqueued)
	}
}

func (p *Planner) buildResult(vehicle model.Vehicle, goal *searchNode) *model.RouteResult {
	count := 0
	for n := goal; n != nil; n = n.parent {
		count++
	}

	steps := make([]model.RouteStep, count)
	i := count - 1
	for n := goal; n != nil; n = n.parent {
		steps[i] = model.RouteStep{
			LocationID:          n.key.locationID,
			Soc:                 n.soc,
			CumulativeTimeHours: n.timeHours,
			CumulativeEnergyKWh: n.energyKWh,
			IsChargingStop:      n.charging,
		}
		i--
	}

	return &model.RouteResult{
		Steps:          steps,
		TotalTimeHours: goal.timeHours,
		TotalEnergyKWh: goal.energyKWh,
		TotalCost:      goal.g,
		ChargingStops:  ExtractChargingStops(steps, vehicle.BatteryCapacityKWh),
	}
}

// StraightLineTimeHeuristic returns an admissible frontier-ordering
// estimate: great-circle distance over the network's fastest speed
// limit, scaled by the time weight. Locations without coordinates
// estimate zero. The returned function suits WithHeuristic; the default
// planner stays uniform-cost.
func StraightLineTimeHeuristic(network *RoadNetwork, weights CostWeights) HeuristicFunc {
	maxSpeed := 0.0
	if network != nil {
		for _, conn := range network.Connections() {
			if conn.SpeedLimitKph > maxSpeed {
				maxSpeed = conn.SpeedLimitKph
			}
		}
	}
	if network == nil || maxSpeed <= 0 || weights.AlphaTime <= 0 {
		return func(string, string) float64 { return 0 }
	}

	return func(locationID, goalID string) float64 {
		from, okFrom := network.Location(locationID)
		to, okTo := network.Location(goalID)
		if !okFrom || !okTo || !from.HasCoordinates || !to.HasCoordinates {
			return 0
		}
		distKm := HaversineKm(from.Lat, from.Lng, to.Lat, to.Lng)
		return weights.AlphaTime * distKm / maxSpeed
	}
}
