package coldroom

import (
	"math"
	"reflect"
	"strings"
)

// Engine turns input records into a LoadResult. It holds only immutable
// reference data and is safe for concurrent use.
type Engine struct {
	ref Reference
}

func New(ref Reference) (*Engine, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return &Engine{ref: ref}, nil
}

var defaultEngine = &Engine{ref: DefaultReference()}

// Calculate runs the default engine.
func Calculate(in Inputs) (LoadResult, error) {
	return defaultEngine.Calculate(in)
}

func (e *Engine) Reference() Reference { return e.ref }

func (e *Engine) Calculate(in Inputs) (LoadResult, error) {
	n, err := Normalize(in)
	if err != nil {
		return LoadResult{}, err
	}
	return e.CalculateNormalized(n)
}

// CalculateNormalized computes from an already normalized input. n is
// validated again so hand-built values get the same checks.
func (e *Engine) CalculateNormalized(n Normalized) (LoadResult, error) {
	if err := n.Validate(); err != nil {
		return LoadResult{}, err
	}

	volume := roomVolume(n)
	areas := envelopeAreas(n)
	dh := airEnthalpyDifference(n)
	air := airChangeLoad(n, volume, dh)
	door := doorOpeningLoad(n, e.ref, areas.Door, dh)

	b := LoadBreakdown{
		Transmission:  transmissionLoad(n, areas),
		Product:       productLoad(n),
		Respiration:   respirationLoad(n),
		AirChange:     air.Total(),
		DoorOpening:   door.Total(),
		Miscellaneous: miscellaneousLoad(n, e.ref),
		Heaters:       heaterLoad(n, e.ref, volume, dh),
	}

	total := b.Total()
	safety := total * SafetyFactor
	final := total + safety

	r := LoadResult{
		Dimensions: Dimensions{
			Length: n.Length, Width: n.Width, Height: n.Height,
			DoorWidth: n.DoorWidth, DoorHeight: n.DoorHeight,
		},
		DoorDimensions: DoorDimensions{Width: n.DoorWidth, Height: n.DoorHeight},
		Volume:         volume,
		Areas:          areas,
		Construction:   constructionInfo(n),
		ProductInfo: ProductInfo{
			Type:            n.ProductType,
			Mass:            n.DailyLoad,
			IncomingTemp:    n.IncomingTemp,
			OutgoingTemp:    n.OutgoingTemp,
			SpecificHeat:    n.SpecificHeat,
			RespirationRate: n.RespirationRate,
			StorageType:     n.StorageType,
		},
		Conditions: ConditionsInfo{
			ExternalTemp:        n.ExternalTemp,
			InternalTemp:        n.InternalTemp,
			OperatingHours:      n.OperatingHours,
			PullDownTime:        n.PullDownTime,
			DoorOpenings:        n.DoorOpenings,
			DoorClearOpening:    n.DoorClearOpening,
			Humidity:            n.Humidity,
			ExternalHumidity:    n.ExternalHumidity,
			SteamHumidification: n.SteamHumidification,
			StorageDensity:      n.StorageDensity,
			NumberOfPeople:      n.NumberOfPeople,
			WorkingHours:        n.WorkingHours,
			LightingWattage:     n.LightingWattage,
			EquipmentLoad:       n.EquipmentLoad,
			FanMotorRating:      n.FanMotorRating,
			NumberOfFans:        n.NumberOfFans,
			AirFlowPerFan:       n.AirFlowPerFan,
		},
		TemperatureDifference: n.TemperatureDifference(),
		PullDownTime:          n.PullDownTime,

		Breakdown:         b,
		TotalBeforeSafety: total,
		SafetyFactorLoad:  safety,
		FinalLoad:         final,

		TotalTR:  ToTR(final),
		TotalBTU: ToBTU(final),
		DailyKJ:  final * n.OperatingHours * SecondsPerHour,
		DailyKWh: final * n.OperatingHours,

		StorageInfo: storageInfo(n, volume),
		AirFlowInfo: airFlowInfo(n, e.ref, volume),
	}
	r.DailyLoads = dailyLoads(total, air.Latent+door.Latent)
	r.SHR = r.DailyLoads.SHR

	if err := checkFinite(r); err != nil {
		return LoadResult{}, err
	}
	return r, nil
}

func constructionInfo(n Normalized) ConstructionInfo {
	return ConstructionInfo{
		InsulationType:   n.Insulation.String(),
		Type:             n.Insulation.String(),
		Thickness:        n.WallThickness,
		WallThickness:    n.WallThickness,
		CeilingThickness: n.CeilingThickness,
		FloorThickness:   n.FloorThickness,
		UFactor:          UFactor(n.Insulation, n.WallThickness),
		CeilingUFactor:   UFactor(n.Insulation, n.CeilingThickness),
		FloorUFactor:     UFactor(n.Insulation, n.FloorThickness),
		NumberOfHeaters:  n.NumberOfHeaters,
		NumberOfDoors:    n.NumberOfDoors,
	}
}

// dailyLoads reports SHR as 1 when there is no load at all.
func dailyLoads(total, latent float64) DailyLoads {
	d := DailyLoads{Sensible: total - latent, Latent: latent, SHR: 1}
	if total > 0 {
		d.SHR = d.Sensible / total
	}
	return d
}

func storageInfo(n Normalized, volume float64) StorageInfo {
	maxStorage := volume * n.StorageDensity
	return StorageInfo{
		MaxStorage:        maxStorage,
		CurrentLoad:       n.DailyLoad,
		Utilization:       n.DailyLoad / maxStorage * 100,
		AvailableCapacity: maxStorage - n.DailyLoad,
		Density:           n.StorageDensity,
	}
}

// airFlowInfo reports fan sizing only. Fan motor heat is not added to the
// breakdown; equipmentLoad is the place for it.
func airFlowInfo(n Normalized, ref Reference, volume float64) AirFlowInfo {
	required := volume * CubicFeetPerCubicMetre * ref.CirculationAirChanges / 60
	recommended := required * ref.RecommendedAirflowMult
	return AirFlowInfo{
		AirChangesPerHour: ref.CirculationAirChanges,
		RequiredCfm:       required,
		RecommendedCfm:    recommended,
		AirFlowPerFan:     n.AirFlowPerFan,
		FansRequired:      math.Ceil(recommended / n.AirFlowPerFan),
		InstalledCfm:      float64(n.NumberOfFans) * n.AirFlowPerFan,
		FanMotorLoad:      float64(n.NumberOfFans) * n.FanMotorRating,
	}
}

// checkFinite walks every float field of r and reports the first one that
// is NaN or infinite, named by its JSON path.
func checkFinite(r LoadResult) error {
	if field, v, ok := firstNonFinite(reflect.ValueOf(r), ""); ok {
		return &FieldError{Field: field, Value: v, Reason: "computation produced a non-finite value", Err: ErrNonFinite}
	}
	return nil
}

func firstNonFinite(v reflect.Value, path string) (string, float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return path, f, true
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if name == "" {
				name = sf.Name
			}
			if path != "" {
				name = path + "." + name
			}
			if field, f, ok := firstNonFinite(v.Field(i), name); ok {
				return field, f, true
			}
		}
	}
	return "", 0, false
}
