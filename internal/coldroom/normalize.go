package coldroom

import (
	"fmt"
	"math"
)

// Source names one of the three input records.
type Source int

const (
	SourceUnknown Source = iota
	SourceRoom
	SourceConditions
	SourceProduct
)

func (s Source) String() string {
	switch s {
	case SourceRoom:
		return "room"
	case SourceConditions:
		return "conditions"
	case SourceProduct:
		return "product"
	default:
		return "unknown"
	}
}

// Key is one candidate location of a logical field.
type Key struct {
	Source Source
	Name   string
}

func (k Key) String() string { return k.Source.String() + "." + k.Name }

// Kind is the type a field resolves to.
type Kind int

const (
	KindNumber Kind = iota + 1
	KindCount
	KindLabel
	KindFlag
)

// FieldSpec is one row of the precedence table: the logical field, the keys
// tried in order, and the default used when none of them holds a value.
type FieldSpec struct {
	Field   string
	Kind    Kind
	Sources []Key
	Default any

	target func(n *Normalized) any
}

// Normalized is the flat, fully typed input every formula consumes.
type Normalized struct {
	Length     float64
	Width      float64
	Height     float64
	DoorWidth  float64
	DoorHeight float64

	Insulation       Insulation
	WallThickness    float64 // mm
	CeilingThickness float64 // mm
	FloorThickness   float64 // mm
	NumberOfHeaters  int
	NumberOfDoors    int

	ExternalTemp        float64
	InternalTemp        float64
	OperatingHours      float64
	PullDownTime        float64
	DoorOpenings        float64
	DoorClearOpening    float64 // mm
	Humidity            float64 // room RH, %
	ExternalHumidity    float64 // ambient RH, %
	SteamHumidification bool
	StorageDensity      float64

	ProductType     string
	DailyLoad       float64
	IncomingTemp    float64
	OutgoingTemp    float64
	SpecificHeat    float64
	RespirationRate float64
	StorageType     string

	NumberOfPeople  int
	WorkingHours    float64
	LightingWattage float64
	EquipmentLoad   float64

	FanMotorRating float64 // kW per evaporator fan
	NumberOfFans   int
	AirFlowPerFan  float64 // cfm

	insulationLabel string
}

func room(name string) Key       { return Key{SourceRoom, name} }
func conditions(name string) Key { return Key{SourceConditions, name} }
func product(name string) Key    { return Key{SourceProduct, name} }

// FieldTable is the precedence and default table. Its order is also the
// order in which validation errors are reported.
var FieldTable = []FieldSpec{
	{"length", KindNumber, []Key{room("length")}, 6.0, func(n *Normalized) any { return &n.Length }},
	{"width", KindNumber, []Key{room("width")}, 4.0, func(n *Normalized) any { return &n.Width }},
	{"height", KindNumber, []Key{room("height")}, 3.0, func(n *Normalized) any { return &n.Height }},
	{"doorWidth", KindNumber, []Key{room("doorWidth")}, 1.2, func(n *Normalized) any { return &n.DoorWidth }},
	{"doorHeight", KindNumber, []Key{room("doorHeight")}, 2.1, func(n *Normalized) any { return &n.DoorHeight }},

	{"insulationType", KindLabel, []Key{room("insulationType"), room("type")}, "PUF",
		func(n *Normalized) any { return &n.insulationLabel }},
	{"wallThickness", KindNumber, []Key{room("wallThickness"), room("insulationThickness"), room("thickness")}, 100.0,
		func(n *Normalized) any { return &n.WallThickness }},
	{"ceilingThickness", KindNumber, []Key{room("ceilingThickness"), room("insulationThickness"), room("thickness")}, 100.0,
		func(n *Normalized) any { return &n.CeilingThickness }},
	{"floorThickness", KindNumber, []Key{room("floorThickness"), room("insulationThickness"), room("thickness")}, 100.0,
		func(n *Normalized) any { return &n.FloorThickness }},
	{"numberOfHeaters", KindCount, []Key{room("numberOfHeaters"), conditions("numberOfHeaters")}, 1,
		func(n *Normalized) any { return &n.NumberOfHeaters }},
	{"numberOfDoors", KindCount, []Key{room("numberOfDoors"), conditions("numberOfDoors")}, 1,
		func(n *Normalized) any { return &n.NumberOfDoors }},

	{"externalTemp", KindNumber, []Key{conditions("externalTemp"), room("externalTemp")}, 35.0,
		func(n *Normalized) any { return &n.ExternalTemp }},
	{"internalTemp", KindNumber, []Key{conditions("internalTemp"), room("internalTemp")}, 4.0,
		func(n *Normalized) any { return &n.InternalTemp }},
	{"operatingHours", KindNumber, []Key{conditions("operatingHours"), room("operatingHours")}, 24.0,
		func(n *Normalized) any { return &n.OperatingHours }},
	{"pullDownTime", KindNumber, []Key{conditions("pullDownTime"), room("pullDownTime"), product("pullDownTime")}, 8.0,
		func(n *Normalized) any { return &n.PullDownTime }},
	{"doorOpenings", KindNumber, []Key{conditions("doorOpenings"), room("doorOpenings")}, 30.0,
		func(n *Normalized) any { return &n.DoorOpenings }},
	{"doorClearOpening", KindNumber, []Key{conditions("doorClearOpening"), room("doorClearOpening")}, 2000.0,
		func(n *Normalized) any { return &n.DoorClearOpening }},
	{"humidity", KindNumber, []Key{conditions("humidity"), room("humidity")}, 85.0,
		func(n *Normalized) any { return &n.Humidity }},
	{"externalHumidity", KindNumber, []Key{conditions("externalHumidity"), room("externalHumidity")}, 50.0,
		func(n *Normalized) any { return &n.ExternalHumidity }},
	{"steamHumidification", KindFlag, []Key{conditions("steamHumidification"), room("steamHumidification")}, false,
		func(n *Normalized) any { return &n.SteamHumidification }},
	{"storageDensity", KindNumber, []Key{conditions("storageDensity"), product("storageDensity"), product("storageCapacity")}, 8.0,
		func(n *Normalized) any { return &n.StorageDensity }},

	{"productType", KindLabel, []Key{product("productType"), product("type")}, "General Food Items",
		func(n *Normalized) any { return &n.ProductType }},
	{"dailyLoad", KindNumber, []Key{product("dailyLoad"), product("mass")}, 3000.0,
		func(n *Normalized) any { return &n.DailyLoad }},
	{"incomingTemp", KindNumber, []Key{product("incomingTemp")}, 25.0,
		func(n *Normalized) any { return &n.IncomingTemp }},
	{"outgoingTemp", KindNumber, []Key{product("outgoingTemp")}, 4.0,
		func(n *Normalized) any { return &n.OutgoingTemp }},
	{"specificHeat", KindNumber, []Key{product("specificHeat")}, 4.1,
		func(n *Normalized) any { return &n.SpecificHeat }},
	{"respirationRate", KindNumber, []Key{product("respirationRate")}, 50.0,
		func(n *Normalized) any { return &n.RespirationRate }},
	{"storageType", KindLabel, []Key{product("storageType")}, "Palletized",
		func(n *Normalized) any { return &n.StorageType }},

	{"numberOfPeople", KindCount, []Key{conditions("numberOfPeople"), room("numberOfPeople"), product("numberOfPeople")}, 3,
		func(n *Normalized) any { return &n.NumberOfPeople }},
	{"workingHours", KindNumber, []Key{conditions("workingHours"), room("workingHours"), product("workingHours")}, 8.0,
		func(n *Normalized) any { return &n.WorkingHours }},
	{"lightingWattage", KindNumber,
		[]Key{conditions("lightingWattage"), room("lightingWattage"), product("lightingWattage"), product("lightLoad")}, 300.0,
		func(n *Normalized) any { return &n.LightingWattage }},
	{"equipmentLoad", KindNumber, []Key{conditions("equipmentLoad"), room("equipmentLoad"), product("equipmentLoad")}, 750.0,
		func(n *Normalized) any { return &n.EquipmentLoad }},

	{"fanMotorRating", KindNumber, []Key{room("fanMotorRating"), product("fanMotorRating")}, 0.37,
		func(n *Normalized) any { return &n.FanMotorRating }},
	{"numberOfFans", KindCount, []Key{room("numberOfFans"), product("numberOfFans")}, 1,
		func(n *Normalized) any { return &n.NumberOfFans }},
	{"airFlowPerFan", KindNumber, []Key{conditions("airFlowPerFan"), room("airFlowPerFan")}, 4163.0,
		func(n *Normalized) any { return &n.AirFlowPerFan }},
}

// Resolve returns the raw value for spec from in, and the key it came from.
// ok is false when the default applies.
func (spec FieldSpec) Resolve(in Inputs) (v any, from Key, ok bool) {
	for _, k := range spec.Sources {
		if v, ok := in.record(k.Source).lookup(k.Name); ok {
			return v, k, true
		}
	}
	return spec.Default, Key{}, false
}

// FieldByName returns the FieldTable row for a logical field.
func FieldByName(field string) (FieldSpec, bool) {
	for _, spec := range FieldTable {
		if spec.Field == field {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Number resolves a single numeric field from in, falling back to its
// default. Range rules are not applied.
func (in Inputs) Number(field string) (float64, error) {
	spec, ok := FieldByName(field)
	if !ok || (spec.Kind != KindNumber && spec.Kind != KindCount) {
		return 0, invalid(field, nil, "not a numeric field")
	}
	raw, from, _ := spec.Resolve(in)
	f, err := toFloat(raw)
	if err != nil {
		return 0, invalid(sourceName(spec, from), raw, err.Error())
	}
	return f, nil
}

// Flag resolves a single boolean field from in, falling back to its default.
func (in Inputs) Flag(field string) (bool, error) {
	spec, ok := FieldByName(field)
	if !ok || spec.Kind != KindFlag {
		return false, invalid(field, nil, "not a flag field")
	}
	raw, from, _ := spec.Resolve(in)
	b, err := toBool(raw)
	if err != nil {
		return false, invalid(sourceName(spec, from), raw, err.Error())
	}
	return b, nil
}

func sourceName(spec FieldSpec, from Key) string {
	if from.Source != SourceUnknown {
		return from.String()
	}
	return spec.Field
}

// Normalize resolves every field of FieldTable, then validates the result.
// No arithmetic happens on unresolved input.
func Normalize(in Inputs) (Normalized, error) {
	var n Normalized
	for _, spec := range FieldTable {
		raw, from, _ := spec.Resolve(in)
		if err := spec.assign(&n, raw); err != nil {
			return Normalized{}, invalid(sourceName(spec, from), raw, err.Error())
		}
	}

	ins, err := ParseInsulation(n.insulationLabel)
	if err != nil {
		return Normalized{}, &FieldError{Field: "insulationType", Value: n.insulationLabel, Reason: "unsupported material", Err: ErrInvalidInput}
	}
	n.Insulation = ins
	n.insulationLabel = ins.String()

	if err := n.Validate(); err != nil {
		return Normalized{}, err
	}
	return n, nil
}

func (spec FieldSpec) assign(n *Normalized, raw any) error {
	switch p := spec.target(n).(type) {
	case *float64:
		f, err := toFloat(raw)
		if err != nil {
			return err
		}
		*p = f
	case *int:
		f, err := toFloat(raw)
		if err != nil {
			return err
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("not a whole number: %v", f)
		}
		if f < 0 {
			return fmt.Errorf("must not be negative")
		}
		if f > math.MaxInt32 {
			return fmt.Errorf("too large: %v", f)
		}
		*p = int(f)
	case *string:
		s, err := toString(raw)
		if err != nil {
			return err
		}
		*p = s
	case *bool:
		b, err := toBool(raw)
		if err != nil {
			return err
		}
		*p = b
	default:
		return fmt.Errorf("unsupported target %T", p)
	}
	return nil
}

// Validate applies the range and consistency rules. Normalize calls it; it
// is exported for callers that build a Normalized by hand.
func (n Normalized) Validate() error {
	positive := []struct {
		field string
		v     float64
	}{
		{"length", n.Length},
		{"width", n.Width},
		{"height", n.Height},
		{"doorWidth", n.DoorWidth},
		{"doorHeight", n.DoorHeight},
		{"wallThickness", n.WallThickness},
		{"ceilingThickness", n.CeilingThickness},
		{"floorThickness", n.FloorThickness},
		{"pullDownTime", n.PullDownTime},
		{"doorClearOpening", n.DoorClearOpening},
		{"storageDensity", n.StorageDensity},
		{"specificHeat", n.SpecificHeat},
		{"airFlowPerFan", n.AirFlowPerFan},
	}
	for _, c := range positive {
		if c.v <= 0 {
			return invalid(c.field, c.v, "must be greater than zero")
		}
	}

	nonNegative := []struct {
		field string
		v     float64
	}{
		{"doorOpenings", n.DoorOpenings},
		{"dailyLoad", n.DailyLoad},
		{"respirationRate", n.RespirationRate},
		{"lightingWattage", n.LightingWattage},
		{"equipmentLoad", n.EquipmentLoad},
		{"fanMotorRating", n.FanMotorRating},
	}
	for _, c := range nonNegative {
		if c.v < 0 {
			return invalid(c.field, c.v, "must not be negative")
		}
	}
	if n.NumberOfHeaters < 0 {
		return invalid("numberOfHeaters", n.NumberOfHeaters, "must not be negative")
	}
	if n.NumberOfDoors < 0 {
		return invalid("numberOfDoors", n.NumberOfDoors, "must not be negative")
	}
	if n.NumberOfPeople < 0 {
		return invalid("numberOfPeople", n.NumberOfPeople, "must not be negative")
	}
	if n.NumberOfFans < 0 {
		return invalid("numberOfFans", n.NumberOfFans, "must not be negative")
	}

	if n.OperatingHours <= 0 || n.OperatingHours > 24 {
		return invalid("operatingHours", n.OperatingHours, "must be in (0, 24]")
	}
	if n.WorkingHours < 0 || n.WorkingHours > 24 {
		return invalid("workingHours", n.WorkingHours, "must be in [0, 24]")
	}
	if n.Humidity < 0 || n.Humidity > 100 {
		return invalid("humidity", n.Humidity, "must be in [0, 100]")
	}
	if n.ExternalHumidity < 0 || n.ExternalHumidity > 100 {
		return invalid("externalHumidity", n.ExternalHumidity, "must be in [0, 100]")
	}

	temps := []struct {
		field string
		v     float64
	}{
		{"externalTemp", n.ExternalTemp},
		{"internalTemp", n.InternalTemp},
		{"incomingTemp", n.IncomingTemp},
		{"outgoingTemp", n.OutgoingTemp},
	}
	for _, c := range temps {
		if c.v < MinTemperature || c.v > MaxTemperature {
			return invalid(c.field, c.v, fmt.Sprintf("must be in [%g, %g] °C", MinTemperature, MaxTemperature))
		}
	}

	if !n.Insulation.Valid() {
		return invalid("insulationType", n.Insulation.String(), "unsupported material")
	}

	if n.ExternalTemp < n.InternalTemp {
		return inconsistent("temperatureDifference", n.ExternalTemp-n.InternalTemp,
			"external temperature is below internal temperature")
	}
	if n.OutgoingTemp > n.IncomingTemp {
		return inconsistent("outgoingTemp", n.OutgoingTemp,
			"outgoing temperature is above incoming temperature")
	}
	if n.WorkingHours > n.OperatingHours {
		return inconsistent("workingHours", n.WorkingHours,
			"working hours exceed operating hours")
	}
	return nil
}

// Temperature bounds accepted by the psychrometric model.
const (
	MinTemperature = -60.0
	MaxTemperature = 70.0
)

// Records renders n as explicit input records, each value stored under the
// first (current-schema) key of its field. Calculating from Records gives
// the same result as calculating from the inputs n was normalized from.
func (n Normalized) Records() Inputs {
	in := Inputs{Room: Record{}, Conditions: Record{}, Product: Record{}}
	n.insulationLabel = n.Insulation.String()
	for _, spec := range FieldTable {
		var v any
		switch p := spec.target(&n).(type) {
		case *float64:
			v = *p
		case *int:
			v = *p
		case *string:
			v = *p
		case *bool:
			v = *p
		}
		k := spec.Sources[0]
		in.record(k.Source)[k.Name] = v
	}
	return in
}

// TemperatureDifference is externalTemp − internalTemp.
func (n Normalized) TemperatureDifference() float64 {
	return n.ExternalTemp - n.InternalTemp
}
