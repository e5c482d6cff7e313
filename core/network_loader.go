package core

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// roadNetworkJSON mirrors the on-disk network format. The wire structs
// stay unexported; callers only ever see the materialised RoadNetwork.
type roadNetworkJSON struct {
	Name        string           `json:"name"`
	Locations   []locationJSON   `json:"locations"`
	Connections []connectionJSON `json:"connections"`
}

type locationJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	HasCharger bool     `json:"has_charger"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

type connectionJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
	// DistanceKm may be omitted when both endpoints carry coordinates;
	// the loader then derives it from the great-circle distance.
	DistanceKm     *float64 `json:"distance_km"`
	SpeedLimitKph  float64  `json:"speed_limit_kph"`
	ElevationGainM float64  `json:"elevation_gain_m"`
	RoadClass      string   `json:"road_class"`
}

// NetworkSummary reports what a load produced, for logging at startup.
type NetworkSummary struct {
	Name             string
	Locations        int
	Connections      int
	Chargers         int
	DerivedDistances int
}

// LoadRoadNetwork reads a road network definition from r and
// materialises it. Connections missing an explicit distance derive one
// from endpoint coordinates; it is an error if those are absent.
// Structural validation (duplicate IDs, dangling endpoints, positive
// distances and speeds) happens in NewRoadNetwork.
func LoadRoadNetwork(r io.Reader) (*RoadNetwork, *NetworkSummary, error) {
	var doc roadNetworkJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("LoadRoadNetwork: decode: %w", err)
	}

	locations := make([]Location, 0, len(doc.Locations))
	byID := make(map[string]Location, len(doc.Locations))
	for _, lj := range doc.Locations {
		if lj.ID == "" {
			return nil, nil, fmt.Errorf("LoadRoadNetwork: location missing id")
		}
		if (lj.Lat == nil) != (lj.Lng == nil) {
			return nil, nil, fmt.Errorf("LoadRoadNetwork: location %s: lat and lng must be set together", lj.ID)
		}
		loc := Location{
			ID:         lj.ID,
			Name:       lj.Name,
			HasCharger: lj.HasCharger,
		}
		if lj.Lat != nil {
			loc.Lat = *lj.Lat
			loc.Lng = *lj.Lng
			loc.HasCoordinates = true
		}
		locations = append(locations, loc)
		byID[loc.ID] = loc
	}

	derived := 0
	connections := make([]Connection, 0, len(doc.Connections))
	for _, cj := range doc.Connections {
		if cj.From == "" || cj.To == "" {
			return nil, nil, fmt.Errorf("LoadRoadNetwork: connection missing from or to")
		}
		conn := Connection{
			From:           cj.From,
			To:             cj.To,
			SpeedLimitKph:  cj.SpeedLimitKph,
			ElevationGainM: cj.ElevationGainM,
			Class:          roadClassFromString(cj.RoadClass),
		}
		if cj.DistanceKm != nil {
			conn.DistanceKm = *cj.DistanceKm
		} else {
			from, okFrom := byID[cj.From]
			to, okTo := byID[cj.To]
			if !okFrom || !okTo || !from.HasCoordinates || !to.HasCoordinates {
				return nil, nil, fmt.Errorf("LoadRoadNetwork: connection %s -> %s: no distance and no coordinates to derive one", cj.From, cj.To)
			}
			conn.DistanceKm = HaversineKm(from.Lat, from.Lng, to.Lat, to.Lng)
			if conn.DistanceKm <= 0 {
				return nil, nil, fmt.Errorf("LoadRoadNetwork: connection %s -> %s: endpoints share coordinates, derived distance is zero", cj.From, cj.To)
			}
			derived++
		}
		connections = append(connections, conn)
	}

	network, err := NewRoadNetwork(locations, connections)
	if err != nil {
		return nil, nil, fmt.Errorf("LoadRoadNetwork: %w", err)
	}

	summary := &NetworkSummary{
		Name:             doc.Name,
		Locations:        network.NumLocations(),
		Connections:      network.NumConnections(),
		Chargers:         len(network.ChargerIDs()),
		DerivedDistances: derived,
	}
	return network, summary, nil
}

// roadClassFromString maps the wire spelling to a RoadClass. Unknown or
// empty spellings fall back to local roads rather than failing the load.
func roadClassFromString(s string) RoadClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highway":
		return RoadHighway
	case "arterial":
		return RoadArterial
	case "local", "":
		return RoadLocal
	default:
		return RoadLocal
	}
}
