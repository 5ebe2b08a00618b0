package coldroom

// Transmission is the conduction gain through each envelope surface, kW.
type Transmission struct {
	Walls   float64 `json:"walls"`
	Ceiling float64 `json:"ceiling"`
	Floor   float64 `json:"floor"`
	Total   float64 `json:"total"`
}

// UFactor returns the overall transmission coefficient in W/m²K of a panel
// with the given core material and thickness in mm, including both still-air
// surface films. It decreases strictly with thickness.
func UFactor(ins Insulation, thicknessMM float64) float64 {
	k := ins.Conductivity()
	if k <= 0 || thicknessMM <= 0 {
		return 0
	}
	resistance := 1/InsideFilmCoefficient + (thicknessMM/1000)/k + 1/OutsideFilmCoefficient
	return 1 / resistance
}

func transmissionLoad(n Normalized, a Areas) Transmission {
	dt := n.TemperatureDifference()
	t := Transmission{
		Walls:   UFactor(n.Insulation, n.WallThickness) * a.Wall * dt / 1000,
		Ceiling: UFactor(n.Insulation, n.CeilingThickness) * a.Ceiling * dt / 1000,
		Floor:   UFactor(n.Insulation, n.FloorThickness) * a.Floor * dt / 1000,
	}
	t.Total = t.Walls + t.Ceiling + t.Floor
	return t
}
