package core

import "github.com/evnavlabs/evnav-simulator/model"

// ExtractChargingStops derives the charging summary from a finished
// route. It is a pure post-pass over the steps: the search already
// priced every charge, so this only reads off where they happened and
// what each one added. Battery capacity converts the state-of-charge
// delta into kWh. Routes without charging steps yield an empty,
// non-nil slice.
func ExtractChargingStops(steps []model.RouteStep, batteryCapacityKWh float64) []model.ChargingStop {
	stops := make([]model.ChargingStop, 0)
	for i, step := range steps {
		if !step.IsChargingStop || i == 0 {
			continue
		}
		prev := steps[i-1]

		addedTime := step.CumulativeTimeHours - prev.CumulativeTimeHours
		if addedTime < 0 {
			addedTime = 0
		}
		addedEnergy := (step.Soc - prev.Soc) * batteryCapacityKWh
		if addedEnergy < 0 {
			addedEnergy = 0
		}

		stops = append(stops, model.ChargingStop{
			LocationID:     step.LocationID,
			EnergyAddedKWh: addedEnergy,
			TimeAddedHours: addedTime,
			SocAfterCharge: step.Soc,
		})
	}
	return stops
}
