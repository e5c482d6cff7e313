package core

import "math"

// EarthRadiusKm is the mean Earth radius used for all simple geometry
// calculations in the road-network layer (kilometres).
const EarthRadiusKm = 6371.0

// TurnThresholdDeg is the bearing change between an incoming and an
// outgoing connection beyond which the transition counts as a manoeuvre.
// Grid networks put right-angle turns at ~90°, so anything well above
// GPS jitter works; 30° keeps gentle curves free of the penalty.
const TurnThresholdDeg = 30.0

// HaversineKm returns the great-circle distance in kilometres between two
// WGS84 coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKm * c
}

// BearingDeg returns the initial great-circle bearing from point 1 to
// point 2, in degrees normalised to [0, 360). 0° = north, 90° = east.
func BearingDeg(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	y := math.Sin(dLng) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLng)

	deg := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(deg+360.0, 360.0)
}

// bearingDeltaDeg returns the absolute angular difference between two
// bearings, in [0, 180].
func bearingDeltaDeg(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}

// IsTurn reports whether continuing from prev onto next changes travel
// direction by more than TurnThresholdDeg. Direction comes from the
// endpoint coordinates; if any endpoint lacks coordinates the transition
// never counts as a turn.
func (n *RoadNetwork) IsTurn(prev, next Connection) bool {
	a, okA := n.locations[prev.From]
	b, okB := n.locations[prev.To]
	c, okC := n.locations[next.To]
	if !okA || !okB || !okC {
		return false
	}
	if !a.HasCoordinates || !b.HasCoordinates || !c.HasCoordinates {
		return false
	}

	incoming := BearingDeg(a.Lat, a.Lng, b.Lat, b.Lng)
	outgoing := BearingDeg(b.Lat, b.Lng, c.Lat, c.Lng)
	return bearingDeltaDeg(incoming, outgoing) > TurnThresholdDeg
}
