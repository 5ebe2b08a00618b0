package coldroom

// Miscellaneous are the internal gains inside the room, kW.
type Miscellaneous struct {
	Occupancy float64 `json:"occupancy"`
	Lighting  float64 `json:"lighting"`
	Equipment float64 `json:"equipment"`
	Total     float64 `json:"total"`
}

// Heaters are the electric heaters that dump their heat into the room, kW.
type Heaters struct {
	Peripheral float64 `json:"peripheral"`
	Door       float64 `json:"door"`
	Steam      float64 `json:"steam"`
	Total      float64 `json:"total"`
}

// productLoad is the sensible heat to pull the daily intake down to
// storage temperature within the pull-down time, kW.
func productLoad(n Normalized) float64 {
	kJ := n.DailyLoad * n.SpecificHeat * (n.IncomingTemp - n.OutgoingTemp)
	return kJ / (n.PullDownTime * SecondsPerHour)
}

// respirationLoad is the heat of respiration of the stored product, kW.
func respirationLoad(n Normalized) float64 {
	return n.DailyLoad / 1000 * n.RespirationRate / 1000
}

// workingShare spreads gains that happen during working hours over the
// hours the plant runs.
func workingShare(n Normalized) float64 {
	return n.WorkingHours / n.OperatingHours
}

func miscellaneousLoad(n Normalized, ref Reference) Miscellaneous {
	share := workingShare(n)
	m := Miscellaneous{
		Occupancy: float64(n.NumberOfPeople) * ref.PersonHeatGainKW * share,
		Lighting:  n.LightingWattage / 1000 * share,
		Equipment: n.EquipmentLoad / 1000 * share,
	}
	m.Total = m.Occupancy + m.Lighting + m.Equipment
	return m
}

// heaterLoad returns the heater gains. Steam is only non-zero when the room
// is humidified and the incoming air is drier than the room.
func heaterLoad(n Normalized, ref Reference, volume float64, dh enthalpyDifference) Heaters {
	h := Heaters{
		Peripheral: float64(n.NumberOfHeaters) * ref.PeripheralHeaterKW,
		Door:       float64(n.NumberOfDoors) * ref.DoorHeaterKW,
	}
	if n.SteamHumidification && dh.Deficit > 0 {
		h.Steam = exchangedAirMassFlow(n, volume) * dh.Deficit * SteamEnthalpy
	}
	h.Total = h.Peripheral + h.Door + h.Steam
	return h
}
