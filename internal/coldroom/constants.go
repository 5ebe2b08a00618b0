package coldroom

// Fixed ratios. These are not configurable: the reported TR and BTU figures
// must always be exact transforms of FinalLoad.
const (
	SafetyFactor    = 0.10
	KWPerTR         = 3.517
	BTUPerHourPerKW = 3412.142
	SecondsPerHour  = 3600.0
	SecondsPerDay   = 86400.0
)

// Surface film coefficients for still air, W/m²K.
const (
	InsideFilmCoefficient  = 8.29
	OutsideFilmCoefficient = 9.37
)

// Psychrometric constants.
const (
	AtmosphericPressureKPa = 101.325
	GasConstantDryAir      = 0.287 // kJ/kg·K
	SpecificHeatDryAir     = 1.006 // kJ/kg·K
	SpecificHeatVapour     = 1.86  // kJ/kg·K
	LatentHeatVaporization = 2501.0
	SteamEnthalpy          = 2676.0 // kJ/kg, saturated steam at 100 °C
	GravityAcceleration    = 9.81
	CubicFeetPerCubicMetre = 35.3147
	celsiusToKelvin        = 273.15
)

// ReferenceDoorOpenings is the daily door-opening count the air-change table
// assumes ("average usage").
const ReferenceDoorOpenings = 30.0
