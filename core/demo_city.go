package core

// DemoCity builds the built-in Chicago Loop network: nine east-west
// streets crossing six north-south avenues, 54 intersections in all,
// five of them with charging stations. Coordinates are real and every
// distance derives from them, so the grid exercises turn detection and
// the elevation term without any external data file.
func DemoCity() *RoadNetwork {
	type street struct {
		id, name string
		lat      float64
	}
	type avenue struct {
		id, name string
		lng      float64
	}

	// North to south.
	streets := []street{
		{"wacker", "Wacker", 41.8869},
		{"lake", "Lake", 41.8858},
		{"randolph", "Randolph", 41.8846},
		{"washington", "Washington", 41.8836},
		{"madison", "Madison", 41.8819},
		{"monroe", "Monroe", 41.8807},
		{"adams", "Adams", 41.8795},
		{"jackson", "Jackson", 41.8783},
		{"vanburen", "Van Buren", 41.8771},
	}
	// East to west.
	avenues := []avenue{
		{"michigan", "Michigan", -87.6246},
		{"state", "State", -87.6279},
		{"dearborn", "Dearborn", -87.6298},
		{"clark", "Clark", -87.6312},
		{"lasalle", "LaSalle", -87.6328},
		{"wells", "Wells", -87.6343},
	}

	chargers := map[string]bool{
		"wacker_clark":     true,
		"washington_state": true,
		"madison_lasalle":  true,
		"adams_wells":      true,
		"vanburen_state":   true,
	}

	locations := make([]Location, 0, len(streets)*len(avenues))
	for _, s := range streets {
		for _, a := range avenues {
			id := s.id + "_" + a.id
			locations = append(locations, Location{
				ID:             id,
				Name:           s.name + " & " + a.name,
				HasCharger:     chargers[id],
				Lat:            s.lat,
				Lng:            a.lng,
				HasCoordinates: true,
			})
		}
	}

	byID := make(map[string]Location, len(locations))
	for _, loc := range locations {
		byID[loc.ID] = loc
	}

	var connections []Connection
	addBothWays := func(id1, id2 string, speedKph, elevGainM float64) {
		from, to := byID[id1], byID[id2]
		dist := HaversineKm(from.Lat, from.Lng, to.Lat, to.Lng)
		connections = append(connections,
			Connection{From: id1, To: id2, DistanceKm: dist, SpeedLimitKph: speedKph, ElevationGainM: elevGainM, Class: RoadArterial},
			Connection{From: id2, To: id1, DistanceKm: dist, SpeedLimitKph: speedKph, ElevationGainM: -elevGainM, Class: RoadArterial},
		)
	}

	// East-west streets are flat.
	for _, s := range streets {
		for i := 0; i+1 < len(avenues); i++ {
			addBothWays(s.id+"_"+avenues[i].id, s.id+"_"+avenues[i+1].id, 48, 0)
		}
	}

	// North-south avenues alternate gentle rises and dips going south;
	// Michigan carries the higher speed limit.
	for _, a := range avenues {
		speed := 48.0
		if a.id == "michigan" {
			speed = 56.0
		}
		for i := 0; i+1 < len(streets); i++ {
			elev := 2.0
			if i%2 == 1 {
				elev = -2.0
			}
			addBothWays(streets[i].id+"_"+a.id, streets[i+1].id+"_"+a.id, speed, elev)
		}
	}

	network, err := NewRoadNetwork(locations, connections)
	if err != nil {
		// The tables above are static; a failure here is a programming
		// error, not an input error.
		panic("core: demo city: " + err.Error())
	}
	return network
}
