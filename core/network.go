package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownLocation   = errors.New("unknown location")
	ErrDuplicateLocation = errors.New("duplicate location")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrInvalidConnection = errors.New("invalid connection")
)

// RoadClass tags a connection with the kind of road it follows. The tag
// feeds no computation directly; cost and display layers may inspect it.
type RoadClass string

const (
	RoadHighway  RoadClass = "highway"
	RoadArterial RoadClass = "arterial"
	RoadLocal    RoadClass = "local"
)

// Location is a node in the road network.
type Location struct {
	// ID is the unique identifier, e.g. "madison_lasalle".
	ID string
	// Name is an optional display name, e.g. "Madison & LaSalle".
	Name string
	// HasCharger marks locations with a charging facility.
	HasCharger bool

	// Lat/Lng are optional WGS84 coordinates. They are meaningful only
	// when HasCoordinates is set; turn detection and derived distances
	// need them, plain planning does not.
	Lat            float64
	Lng            float64
	HasCoordinates bool
}

// Connection is a directed edge between two locations.
type Connection struct {
	// From and To reference Location IDs. Both must exist in the network.
	From string
	To   string
	// DistanceKm is the driven length of the segment. Must be > 0.
	DistanceKm float64
	// SpeedLimitKph is the posted limit used for travel-time estimates.
	SpeedLimitKph float64
	// ElevationGainM is the signed elevation change from From to To.
	ElevationGainM float64
	// Class is the road-class tag.
	Class RoadClass
}

// RoadNetwork owns the locations and directed connections of one map.
// It is built once through NewRoadNetwork and read-only afterwards, so a
// single network may be shared across concurrently running searches
// without locking.
type RoadNetwork struct {
	locations map[string]Location
	outgoing  map[string][]Connection
	connCount int
}

// NewRoadNetwork validates and assembles a network. Every connection
// endpoint must reference a declared location, distances and speed limits
// must be positive, and location IDs must be unique.
func NewRoadNetwork(locations []Location, connections []Connection) (*RoadNetwork, error) {
	n := &RoadNetwork{
		locations: make(map[string]Location, len(locations)),
		outgoing:  make(map[string][]Connection, len(locations)),
	}

	for _, loc := range locations {
		if strings.TrimSpace(loc.ID) == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidLocation)
		}
		if _, exists := n.locations[loc.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLocation, loc.ID)
		}
		n.locations[loc.ID] = loc
	}

	for _, conn := range connections {
		if err := n.validateConnection(conn); err != nil {
			return nil, err
		}
		n.outgoing[conn.From] = append(n.outgoing[conn.From], conn)
		n.connCount++
	}

	return n, nil
}

func (n *RoadNetwork) validateConnection(conn Connection) error {
	if _, ok := n.locations[conn.From]; !ok {
		return fmt.Errorf("%w: connection references unknown location %q", ErrInvalidConnection, conn.From)
	}
	if _, ok := n.locations[conn.To]; !ok {
		return fmt.Errorf("%w: connection references unknown location %q", ErrInvalidConnection, conn.To)
	}
	if conn.DistanceKm <= 0 {
		return fmt.Errorf("%w: %s -> %s distance must be positive, got %.3f", ErrInvalidConnection, conn.From, conn.To, conn.DistanceKm)
	}
	if conn.SpeedLimitKph <= 0 {
		return fmt.Errorf("%w: %s -> %s speed limit must be positive, got %.1f", ErrInvalidConnection, conn.From, conn.To, conn.SpeedLimitKph)
	}
	return nil
}

// Location returns the location with the given ID.
func (n *RoadNetwork) Location(id string) (Location, bool) {
	loc, ok := n.locations[id]
	return loc, ok
}

// HasLocation reports whether the ID is part of the network.
func (n *RoadNetwork) HasLocation(id string) bool {
	_, ok := n.locations[id]
	return ok
}

// Outgoing returns the outgoing connections of a location. This is the
// network's sole traversal primitive. The returned slice is shared and
// must not be mutated.
func (n *RoadNetwork) Outgoing(id string) []Connection {
	return n.outgoing[id]
}

// Locations returns all locations sorted by ID.
func (n *RoadNetwork) Locations() []Location {
	out := make([]Location, 0, len(n.locations))
	for _, loc := range n.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connections returns all directed connections, grouped by origin and
// sorted for deterministic iteration.
func (n *RoadNetwork) Connections() []Connection {
	out := make([]Connection, 0, n.connCount)
	ids := make([]string, 0, len(n.outgoing))
	for id := range n.outgoing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, n.outgoing[id]...)
	}
	return out
}

// NumLocations returns the number of locations in the network.
func (n *RoadNetwork) NumLocations() int { return len(n.locations) }

// NumConnections returns the number of directed connections.
func (n *RoadNetwork) NumConnections() int { return n.connCount }

// ChargerIDs returns the IDs of all locations with a charging facility,
// sorted.
func (n *RoadNetwork) ChargerIDs() []string {
	var out []string
	for id, loc := range n.locations {
		if loc.HasCharger {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
