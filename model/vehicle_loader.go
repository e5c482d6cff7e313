package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// vehicleJSON mirrors the on-disk catalog format.
type vehicleJSON struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	BatteryCapacityKWh      float64 `json:"battery_capacity_kwh"`
	BaseConsumptionKWhPerKm float64 `json:"base_consumption_kwh_per_km"`
	UphillPenaltyKWhPerM    float64 `json:"uphill_penalty_kwh_per_m"`
	MaxChargingPowerKW      float64 `json:"max_charging_power_kw"`
}

// LoadVehicles reads a JSON vehicle catalog from r. Every entry must
// validate; the first invalid one fails the whole load so a catalog
// file is either usable or rejected, never half-applied.
func LoadVehicles(r io.Reader) ([]Vehicle, error) {
	var docs []vehicleJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("LoadVehicles: decode: %w", err)
	}

	out := make([]Vehicle, 0, len(docs))
	for _, d := range docs {
		v := Vehicle{
			ID:                      d.ID,
			Name:                    d.Name,
			BatteryCapacityKWh:      d.BatteryCapacityKWh,
			BaseConsumptionKWhPerKm: d.BaseConsumptionKWhPerKm,
			UphillPenaltyKWhPerM:    d.UphillPenaltyKWhPerM,
			MaxChargingPowerKW:      d.MaxChargingPowerKW,
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("LoadVehicles: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
