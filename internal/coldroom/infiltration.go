package coldroom

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// Average air changes per 24 h from door openings and infiltration for
// storage rooms above 0 °C, by room volume in ft³ (ASHRAE).
var airChangeTableFt3 = [][2]float64{
	{200, 44.0}, {300, 34.5}, {400, 29.5}, {500, 26.0}, {600, 23.0},
	{800, 20.0}, {1000, 17.5}, {1500, 14.0}, {2000, 12.0}, {3000, 9.5},
	{4000, 8.2}, {5000, 7.2}, {6000, 6.5}, {8000, 5.5}, {10000, 4.9},
	{15000, 3.9}, {20000, 3.5}, {25000, 3.0}, {30000, 2.7}, {40000, 2.3},
	{50000, 2.0}, {75000, 1.6}, {100000, 1.4},
}

// airChangeCurve interpolates the table linearly in log-log space.
var airChangeCurve = func() *interp.PiecewiseLinear {
	xs := make([]float64, len(airChangeTableFt3))
	ys := make([]float64, len(airChangeTableFt3))
	for i, row := range airChangeTableFt3 {
		xs[i] = math.Log(row[0])
		ys[i] = math.Log(row[1])
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		panic(err)
	}
	return &pl
}()

// AirChangesPerDay returns the average air changes per 24 h for a room of
// the given volume in m³. Volumes outside the table use the nearest row.
func AirChangesPerDay(volume float64) float64 {
	ft3 := volume * CubicFeetPerCubicMetre
	first, last := airChangeTableFt3[0], airChangeTableFt3[len(airChangeTableFt3)-1]
	switch {
	case ft3 <= first[0]:
		return first[1]
	case ft3 >= last[0]:
		return last[1]
	}
	return math.Exp(airChangeCurve.Predict(math.Log(ft3)))
}

// usageFactor scales the table to the actual door traffic: half the table
// value is envelope leakage that happens with the door shut.
func usageFactor(doorOpenings float64) float64 {
	return 0.5 + 0.5*doorOpenings/ReferenceDoorOpenings
}

// exchangedAirMassFlow is the mass of room air replaced per second, kg/s,
// averaged over the day.
func exchangedAirMassFlow(n Normalized, volume float64) float64 {
	perDay := volume * AirChangesPerDay(volume) * usageFactor(n.DoorOpenings) * n.OperatingHours / 24
	return perDay / SecondsPerDay * AirDensity(n.InternalTemp)
}

type airLoad struct {
	Sensible float64
	Latent   float64
}

func (a airLoad) Total() float64 { return a.Sensible + a.Latent }

func airChangeLoad(n Normalized, volume float64, dh enthalpyDifference) airLoad {
	m := exchangedAirMassFlow(n, volume)
	return airLoad{Sensible: m * dh.Sensible, Latent: m * dh.Latent}
}

// doorOpeningLoad is the ASHRAE (Gosney–Olama) infiltration through an open
// doorway, scaled by the fraction of the day the door stands open.
func doorOpeningLoad(n Normalized, ref Reference, doorArea float64, dh enthalpyDifference) airLoad {
	if n.DoorOpenings == 0 || n.TemperatureDifference() == 0 {
		return airLoad{}
	}
	rhoRoom := AirDensity(n.InternalTemp)
	rhoOut := AirDensity(n.ExternalTemp)
	h := n.DoorClearOpening / 1000
	fm := math.Pow(2/(1+math.Cbrt(rhoRoom/rhoOut)), 1.5)
	// kW per kJ/kg of enthalpy difference with the door fully open
	open := 0.221 * doorArea * rhoRoom * math.Sqrt(1-rhoOut/rhoRoom) * math.Sqrt(GravityAcceleration*h) * fm
	timeFraction := n.DoorOpenings * ref.DoorOpenSeconds / SecondsPerDay
	scale := open * timeFraction * ref.DoorFlowFactor * (1 - ref.DoorProtection)
	return airLoad{Sensible: scale * dh.Sensible, Latent: scale * dh.Latent}
}
