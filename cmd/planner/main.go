package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/evnavlabs/evnav-simulator/core"
	"github.com/evnavlabs/evnav-simulator/model"
	"github.com/evnavlabs/evnav-simulator/traffic"
)

// Exit codes: 0 route found, 2 no feasible route, 1 everything else.

func main() {
	networkPath := flag.String("network", "", "path to a road network JSON file; empty uses the built-in demo city")
	vehiclesPath := flag.String("vehicles", "", "path to a JSON vehicle catalog overlaying the built-in presets")
	vehicleID := flag.String("vehicle", "model_3_lr", "vehicle ID from the catalog")
	from := flag.String("from", "", "start location ID")
	to := flag.String("to", "", "goal location ID")
	mode := flag.String("mode", "balanced", "cost mode: fastest, energy_saver, or balanced")
	soc := flag.Float64("soc", 1.0, "initial state of charge in [0,1]")
	intensity := flag.Float64("intensity", 0.0, "global traffic intensity in [0,1]")
	timeout := flag.Duration("timeout", 30*time.Second, "search budget")

	var blocks blockFlag
	flag.Var(&blocks, "block", "block a directed connection, written from:to (repeatable)")

	flag.Parse()

	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "both -from and -to are required")
		flag.Usage()
		os.Exit(1)
	}

	weights, ok := weightsForMode(*mode)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown mode %q (want fastest, energy_saver, or balanced)\n", *mode)
		os.Exit(1)
	}

	network := loadNetworkOrDie(*networkPath)
	catalog := loadCatalog(*vehiclesPath)

	vehicle, ok := catalog[*vehicleID]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown vehicle %q; available:\n", *vehicleID)
		ids := make([]string, 0, len(catalog))
		for id := range catalog {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(os.Stderr, "  %s\n", id)
		}
		os.Exit(1)
	}

	trafficModel := traffic.NewModel(*intensity)
	for _, pair := range blocks {
		fromID, toID, _ := strings.Cut(pair, ":")
		if !network.HasLocation(fromID) || !network.HasLocation(toID) {
			fmt.Fprintf(os.Stderr, "warning: skipping block %q: unknown location\n", pair)
			continue
		}
		trafficModel.BlockConnection(fromID, toID)
		fmt.Printf("Blocked connection %s -> %s\n", fromID, toID)
	}

	planner := core.NewPlanner(network, core.NewCostEngine(weights))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Planning %s -> %s (mode=%s, vehicle=%s, soc=%.0f%%, intensity=%.2f)\n",
		*from, *to, *mode, vehicle.Name, *soc*100, trafficModel.Intensity())

	result, err := planner.PlanRoute(ctx, vehicle, *from, *to, *soc, trafficModel)
	if err != nil {
		if errors.Is(err, core.ErrNoRoute) {
			fmt.Printf("No feasible route: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "route planning failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Route found: %d steps, %.2f h, %.2f kWh, cost %.3f\n",
		len(result.Steps), result.TotalTimeHours, result.TotalEnergyKWh, result.TotalCost)
	for i, step := range result.Steps {
		marker := ""
		if step.IsChargingStop {
			marker = "  [charge]"
		}
		fmt.Printf("↳ %3d  %-22s soc=%5.1f%%  t=%6.2f h  e=%6.2f kWh%s\n",
			i, step.LocationID, step.Soc*100, step.CumulativeTimeHours, step.CumulativeEnergyKWh, marker)
	}

	if len(result.ChargingStops) > 0 {
		fmt.Println("Charging stops:")
		for _, stop := range result.ChargingStops {
			fmt.Printf("↳ %-22s +%.1f kWh in %.0f min (to %.0f%%)\n",
				stop.LocationID, stop.EnergyAddedKWh, stop.TimeAddedHours*60, stop.SocAfterCharge*100)
		}
	}
}

// blockFlag collects repeated -block values.
type blockFlag []string

func (b *blockFlag) String() string { return strings.Join(*b, ",") }

func (b *blockFlag) Set(v string) error {
	fromID, toID, ok := strings.Cut(v, ":")
	if !ok || fromID == "" || toID == "" {
		return fmt.Errorf("expected from:to, got %q", v)
	}
	*b = append(*b, v)
	return nil
}

func weightsForMode(mode string) (core.CostWeights, bool) {
	var preset string
	switch mode {
	case "fastest":
		preset = core.PresetTimePriority
	case "energy_saver":
		preset = core.PresetEnergyPriority
	case "balanced", "":
		preset = core.PresetBalanced
	default:
		return core.CostWeights{}, false
	}
	w, _ := core.PresetWeights(preset)
	return w, true
}

// loadNetworkOrDie exits with status 1 on load failure; a panic would
// exit with status 2, which is reserved for the no-route outcome.
func loadNetworkOrDie(path string) *core.RoadNetwork {
	if path == "" {
		return core.DemoCity()
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open road network %q: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	network, summary, err := core.LoadRoadNetwork(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load road network: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded road network %q: %d locations, %d connections, %d chargers\n",
		summary.Name, summary.Locations, summary.Connections, summary.Chargers)
	return network
}

// loadCatalog returns the built-in presets, overlaid with the given
// catalog file when one is configured.
func loadCatalog(path string) map[string]model.Vehicle {
	catalog := model.VehiclePresets()
	if path == "" {
		return catalog
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open vehicle catalog %q: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	vehicles, err := model.LoadVehicles(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load vehicle catalog: %v\n", err)
		os.Exit(1)
	}
	for _, v := range vehicles {
		catalog[v.ID] = v
	}
	return catalog
}
