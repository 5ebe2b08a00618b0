package coldroom

import "math"

// SaturationPressure returns the saturation vapour pressure over water in
// kPa at t °C (Magnus form, Alduchov–Eskridge coefficients).
func SaturationPressure(t float64) float64 {
	return 0.61094 * math.Exp(17.625*t/(t+243.04))
}

// HumidityRatio returns kg water per kg dry air at t °C and relative
// humidity rh in percent, at standard atmospheric pressure.
func HumidityRatio(t, rh float64) float64 {
	pw := rh / 100 * SaturationPressure(t)
	return 0.621945 * pw / (AtmosphericPressureKPa - pw)
}

// AirDensity returns dry-air density in kg/m³ at t °C.
func AirDensity(t float64) float64 {
	return AtmosphericPressureKPa / (GasConstantDryAir * (t + celsiusToKelvin))
}

// enthalpyDifference is the heat, per kg of dry air, removed when outside
// air is brought down to room conditions. Latent heat only counts when the
// outside air carries more moisture than the room air; a moisture deficit
// is returned separately so a humidifier can be sized from it.
type enthalpyDifference struct {
	Sensible float64 // kJ/kg
	Latent   float64 // kJ/kg
	Deficit  float64 // kg water / kg dry air the room must gain
}

func (d enthalpyDifference) Total() float64 { return d.Sensible + d.Latent }

func airEnthalpyDifference(n Normalized) enthalpyDifference {
	wOut := HumidityRatio(n.ExternalTemp, n.ExternalHumidity)
	wIn := HumidityRatio(n.InternalTemp, n.Humidity)
	d := enthalpyDifference{
		Sensible: (SpecificHeatDryAir + SpecificHeatVapour*wIn) * n.TemperatureDifference(),
	}
	if wOut > wIn {
		d.Latent = (wOut - wIn) * LatentHeatVaporization
	} else {
		d.Deficit = wIn - wOut
	}
	return d
}
