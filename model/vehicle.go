package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrNegativeDistance flags a negative segment length passed into the
	// energy model. This is a caller bug, not a recoverable condition.
	ErrNegativeDistance = errors.New("negative distance")
	// ErrInvalidVehicle flags a vehicle whose physical parameters cannot
	// drive a planning request.
	ErrInvalidVehicle = errors.New("invalid vehicle")
	// ErrUnknownVehicle flags a catalog lookup for an ID that does not
	// exist.
	ErrUnknownVehicle = errors.New("unknown vehicle")
)

// Vehicle describes the battery and consumption characteristics of one EV.
// A Vehicle is immutable for the duration of a planning request and may be
// shared read-only across any number of concurrent requests.
type Vehicle struct {
	// ID is the stable catalog identifier, e.g. "model_3_lr".
	ID string
	// Name is the display name shown to callers.
	Name string
	// BatteryCapacityKWh is the usable battery capacity. Must be > 0.
	BatteryCapacityKWh float64
	// BaseConsumptionKWhPerKm is the flat-ground draw per kilometre.
	BaseConsumptionKWhPerKm float64
	// UphillPenaltyKWhPerM is the extra draw per metre of elevation gain.
	UphillPenaltyKWhPerM float64
	// MaxChargingPowerKW caps the charge rate at any charging facility.
	MaxChargingPowerKW float64
}

// EnergyForDistance returns the estimated draw in kWh for a segment of the
// given length and elevation profile. Elevation loss is never credited back:
// downhill segments cost the same as flat ones.
func (v Vehicle) EnergyForDistance(distanceKm, elevationGainM float64) (float64, error) {
	if distanceKm < 0 {
		return 0, fmt.Errorf("%w: %.3f km", ErrNegativeDistance, distanceKm)
	}
	base := v.BaseConsumptionKWhPerKm * distanceKm
	uphill := v.UphillPenaltyKWhPerM * math.Max(0, elevationGainM)
	return base + uphill, nil
}

// Validate checks the physical parameters a planning request relies on.
func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidVehicle)
	}
	if v.BatteryCapacityKWh <= 0 {
		return fmt.Errorf("%w: %q battery capacity must be positive", ErrInvalidVehicle, v.ID)
	}
	if v.BaseConsumptionKWhPerKm <= 0 {
		return fmt.Errorf("%w: %q base consumption must be positive", ErrInvalidVehicle, v.ID)
	}
	if v.UphillPenaltyKWhPerM < 0 {
		return fmt.Errorf("%w: %q uphill penalty must not be negative", ErrInvalidVehicle, v.ID)
	}
	if v.MaxChargingPowerKW <= 0 {
		return fmt.Errorf("%w: %q max charging power must be positive", ErrInvalidVehicle, v.ID)
	}
	return nil
}

// VehiclePresets returns the built-in EV catalog, keyed by vehicle ID.
// Figures approximate published Tesla specifications; callers may overlay
// additional vehicles loaded from a JSON catalog file.
func VehiclePresets() map[string]Vehicle {
	presets := []Vehicle{
		{
			ID:                      "model_3_lr",
			Name:                    "Model 3 Long Range",
			BatteryCapacityKWh:      75.0,
			BaseConsumptionKWhPerKm: 0.16, // ~160 Wh/km
			UphillPenaltyKWhPerM:    0.0004,
			MaxChargingPowerKW:      250.0, // Supercharger V3
		},
		{
			ID:                      "model_s",
			Name:                    "Model S",
			BatteryCapacityKWh:      100.0,
			BaseConsumptionKWhPerKm: 0.18,
			UphillPenaltyKWhPerM:    0.0005,
			MaxChargingPowerKW:      250.0,
		},
		{
			ID:                      "model_x",
			Name:                    "Model X",
			BatteryCapacityKWh:      100.0,
			BaseConsumptionKWhPerKm: 0.21, // heavier SUV
			UphillPenaltyKWhPerM:    0.0006,
			MaxChargingPowerKW:      250.0,
		},
		{
			ID:                      "model_y",
			Name:                    "Model Y",
			BatteryCapacityKWh:      75.0,
			BaseConsumptionKWhPerKm: 0.17,
			UphillPenaltyKWhPerM:    0.0005,
			MaxChargingPowerKW:      250.0,
		},
	}

	out := make(map[string]Vehicle, len(presets))
	for _, v := range presets {
		out[v.ID] = v
	}
	return out
}
