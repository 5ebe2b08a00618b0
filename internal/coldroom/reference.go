package coldroom

// Reference holds the rating and policy values that come from reference
// tables rather than from the room being designed. Defaults follow the
// ASHRAE Refrigeration Handbook load-calculation chapter.
type Reference struct {
	PersonHeatGainKW       float64 // per occupant, at about 4 °C room temperature
	PeripheralHeaterKW     float64 // per drain-line / pressure-port heater
	DoorHeaterKW           float64 // per door frame heater
	DoorOpenSeconds        float64 // open-close time per passage
	DoorFlowFactor         float64 // D_f
	DoorProtection         float64 // E, 0 without strip curtain or air curtain
	CirculationAirChanges  float64 // evaporator air changes per hour
	RecommendedAirflowMult float64 // recommended / required airflow
}

func DefaultReference() Reference {
	return Reference{
		PersonHeatGainKW:       0.24,
		PeripheralHeaterKW:     0.15,
		DoorHeaterKW:           0.25,
		DoorOpenSeconds:        15,
		DoorFlowFactor:         0.8,
		DoorProtection:         0,
		CirculationAirChanges:  30,
		RecommendedAirflowMult: 1.2,
	}
}

func (ref *Reference) Validate() error {
	nonNegative := []struct {
		field string
		v     float64
	}{
		{"personHeatGainKW", ref.PersonHeatGainKW},
		{"peripheralHeaterKW", ref.PeripheralHeaterKW},
		{"doorHeaterKW", ref.DoorHeaterKW},
		{"doorOpenSeconds", ref.DoorOpenSeconds},
		{"doorFlowFactor", ref.DoorFlowFactor},
	}
	for _, c := range nonNegative {
		if c.v < 0 {
			return &FieldError{Field: c.field, Value: c.v, Reason: "must not be negative", Err: ErrInvalidReference}
		}
	}
	if ref.DoorProtection < 0 || ref.DoorProtection >= 1 {
		return &FieldError{Field: "doorProtection", Value: ref.DoorProtection, Reason: "must be in [0, 1)", Err: ErrInvalidReference}
	}
	if ref.CirculationAirChanges <= 0 {
		return &FieldError{Field: "circulationAirChanges", Value: ref.CirculationAirChanges, Reason: "must be greater than zero", Err: ErrInvalidReference}
	}
	if ref.RecommendedAirflowMult < 1 {
		return &FieldError{Field: "recommendedAirflowMult", Value: ref.RecommendedAirflowMult, Reason: "must be at least 1", Err: ErrInvalidReference}
	}
	return nil
}
