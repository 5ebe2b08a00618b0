package coldroom

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
)

func assertErrorIs(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func assertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func relEqual(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}

// newTestInputs is the reference scenario: a 6×4×3 m room at 35/4 °C taking
// 3000 kg/day from 25 °C down to 4 °C, everything else defaulted.
func newTestInputs(opts ...func(*Inputs)) Inputs {
	in := Inputs{
		Room:       Record{"length": 6.0, "width": 4.0, "height": 3.0},
		Conditions: Record{"externalTemp": 35.0, "internalTemp": 4.0, "operatingHours": 24.0},
		Product:    Record{"dailyLoad": 3000.0, "incomingTemp": 25.0, "outgoingTemp": 4.0},
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

func mustCalculate(t *testing.T, in Inputs) LoadResult {
	t.Helper()
	r, err := Calculate(in)
	if err != nil {
		t.Fatalf("Calculate() failed: %v", err)
	}
	return r
}

func TestCalculateDefaultScenario(t *testing.T) {
	r := mustCalculate(t, newTestInputs())

	assertEqual(t, r.Volume, 72.0)
	assertEqual(t, r.Areas.Wall, 60.0)
	assertEqual(t, r.Areas.Ceiling, 24.0)
	assertEqual(t, r.Areas.Floor, 24.0)
	assertEqual(t, r.TemperatureDifference, 31.0)
	assertEqual(t, r.PullDownTime, 8.0)
	assertEqual(t, r.Construction.InsulationType, "PUF")
	assertEqual(t, r.ProductInfo.Type, "General Food Items")
	assertEqual(t, r.DoorDimensions.Width, 1.2)

	if r.FinalLoad <= 0 {
		t.Fatalf("finalLoad=%v want > 0", r.FinalLoad)
	}
	if r.FinalLoad < 11 || r.FinalLoad > 15 {
		t.Fatalf("finalLoad=%v outside the expected 11..15 kW band", r.FinalLoad)
	}
	if !almostEqual(r.TotalTR, r.FinalLoad/3.517, 1e-12) {
		t.Fatalf("totalTR=%v want %v", r.TotalTR, r.FinalLoad/3.517)
	}

	// product = 3000 × 4.1 × 21 / (8 × 3600)
	if !almostEqual(r.Breakdown.Product, 8.96875, 1e-9) {
		t.Fatalf("product=%v want 8.96875", r.Breakdown.Product)
	}
	if !almostEqual(r.Breakdown.Respiration, 0.15, 1e-12) {
		t.Fatalf("respiration=%v want 0.15", r.Breakdown.Respiration)
	}
	if !almostEqual(r.Breakdown.Miscellaneous.Total, 0.59, 1e-12) {
		t.Fatalf("miscellaneous=%v want 0.59", r.Breakdown.Miscellaneous.Total)
	}
	if !almostEqual(r.Breakdown.Heaters.Total, 0.4, 1e-12) {
		t.Fatalf("heaters=%v want 0.4", r.Breakdown.Heaters.Total)
	}
}

func TestCalculateResultIsFinite(t *testing.T) {
	r := mustCalculate(t, Inputs{})
	if err := checkFinite(r); err != nil {
		t.Fatalf("result not finite: %v", err)
	}
	if r.FinalLoad <= 0 {
		t.Fatalf("finalLoad=%v want > 0", r.FinalLoad)
	}
}

func TestCalculateOverflowIsNonFinite_Table(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
	}{
		{
			"storage capacity overflows",
			Inputs{
				Room:       Record{"length": 1e150, "width": 1e150, "height": 1.0},
				Conditions: Record{"storageDensity": 1e10, "doorOpenings": 0.0},
			},
		},
		{
			"door area overflows",
			Inputs{
				Room:       Record{"doorWidth": 1e200, "doorHeight": 1e200},
				Conditions: Record{"doorOpenings": 0.0},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Calculate(tc.in)
			assertErrorIs(t, err, ErrNonFinite)
			assertEqual(t, r, LoadResult{})

			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field == "" {
				t.Fatalf("expected a named field, got %v", err)
			}
		})
	}
}

func TestCheckFiniteCoversNestedFields_Table(t *testing.T) {
	cases := []struct {
		field string
		set   func(*LoadResult)
	}{
		{"areas.door", func(r *LoadResult) { r.Areas.Door = math.Inf(1) }},
		{"storageInfo.maxStorage", func(r *LoadResult) { r.StorageInfo.MaxStorage = math.Inf(1) }},
		{"storageInfo.availableCapacity", func(r *LoadResult) { r.StorageInfo.AvailableCapacity = math.Inf(-1) }},
		{"airFlowInfo.recommendedCfm", func(r *LoadResult) { r.AirFlowInfo.RecommendedCfm = math.NaN() }},
		{"safetyFactorLoad", func(r *LoadResult) { r.SafetyFactorLoad = math.Inf(1) }},
		{"dailyKWh", func(r *LoadResult) { r.DailyKWh = math.Inf(1) }},
		{"dailyLoads.latent", func(r *LoadResult) { r.DailyLoads.Latent = math.NaN() }},
		{"breakdown.miscellaneous.occupancy", func(r *LoadResult) { r.Breakdown.Miscellaneous.Occupancy = math.Inf(1) }},
		{"breakdown.heaters.peripheral", func(r *LoadResult) { r.Breakdown.Heaters.Peripheral = math.Inf(1) }},
	}

	base := mustCalculate(t, Inputs{})
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			r := base
			tc.set(&r)
			err := checkFinite(r)
			assertErrorIs(t, err, ErrNonFinite)

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %T", err)
			}
			assertEqual(t, fe.Field, tc.field)
		})
	}
}

func TestSafetyMarginAndConversions_Table(t *testing.T) {
	cases := []struct {
		name string
		opt  func(*Inputs)
	}{
		{"default", func(*Inputs) {}},
		{"cold store", func(in *Inputs) {
			in.Conditions["internalTemp"] = -25.0
			in.Product["outgoingTemp"] = -20.0
		}},
		{"no product", func(in *Inputs) { in.Product["dailyLoad"] = 0.0 }},
		{"big room", func(in *Inputs) {
			in.Room["length"] = 40.0
			in.Room["width"] = 25.0
			in.Room["height"] = 10.0
		}},
		{"short day", func(in *Inputs) { in.Conditions["operatingHours"] = 10.0 }},
		{"zero delta", func(in *Inputs) { in.Conditions["externalTemp"] = 4.0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := mustCalculate(t, newTestInputs(tc.opt))
			if !relEqual(r.FinalLoad, r.TotalBeforeSafety*1.10, 1e-9) {
				t.Fatalf("finalLoad=%v totalBeforeSafety×1.10=%v", r.FinalLoad, r.TotalBeforeSafety*1.10)
			}
			if !relEqual(r.TotalBeforeSafety, r.Breakdown.Total(), 1e-12) {
				t.Fatalf("totalBeforeSafety=%v breakdown=%v", r.TotalBeforeSafety, r.Breakdown.Total())
			}
			if !relEqual(r.TotalTR, r.FinalLoad/3.517, 1e-12) {
				t.Fatalf("totalTR=%v want %v", r.TotalTR, r.FinalLoad/3.517)
			}
			if !relEqual(r.TotalBTU, r.FinalLoad*BTUPerHourPerKW, 1e-12) {
				t.Fatalf("totalBTU=%v want %v", r.TotalBTU, r.FinalLoad*BTUPerHourPerKW)
			}
			if !relEqual(r.DailyKWh, r.DailyKJ/3600, 1e-12) {
				t.Fatalf("dailyKWh=%v dailyKJ/3600=%v", r.DailyKWh, r.DailyKJ/3600)
			}
			if r.SHR < 0 || r.SHR > 1 {
				t.Fatalf("shr=%v outside [0, 1]", r.SHR)
			}
		})
	}
}

func TestLoadsIncreaseWithTemperatureDifference(t *testing.T) {
	externals := []float64{4, 10, 15, 20, 30, 35, 40, 45}

	var prev LoadResult
	for i, ext := range externals {
		r := mustCalculate(t, newTestInputs(func(in *Inputs) {
			in.Conditions["externalTemp"] = ext
		}))
		if i > 0 {
			b, p := r.Breakdown, prev.Breakdown
			if b.Transmission.Total <= p.Transmission.Total {
				t.Fatalf("ext=%v transmission %v not above %v", ext, b.Transmission.Total, p.Transmission.Total)
			}
			if b.AirChange <= p.AirChange {
				t.Fatalf("ext=%v air change %v not above %v", ext, b.AirChange, p.AirChange)
			}
			if b.DoorOpening <= p.DoorOpening {
				t.Fatalf("ext=%v door opening %v not above %v", ext, b.DoorOpening, p.DoorOpening)
			}
		}
		prev = r
	}
}

func TestDoublingDailyLoadDoublesProductTerms(t *testing.T) {
	base := mustCalculate(t, newTestInputs())
	doubled := mustCalculate(t, newTestInputs(func(in *Inputs) {
		in.Product["dailyLoad"] = 6000.0
	}))

	if !relEqual(doubled.Breakdown.Product, 2*base.Breakdown.Product, 1e-12) {
		t.Fatalf("product %v not double of %v", doubled.Breakdown.Product, base.Breakdown.Product)
	}
	if !relEqual(doubled.Breakdown.Respiration, 2*base.Breakdown.Respiration, 1e-12) {
		t.Fatalf("respiration %v not double of %v", doubled.Breakdown.Respiration, base.Breakdown.Respiration)
	}
}

func TestZeroHeaters(t *testing.T) {
	r := mustCalculate(t, newTestInputs(func(in *Inputs) {
		in.Room["numberOfHeaters"] = 0
		in.Room["numberOfDoors"] = 0
	}))

	assertEqual(t, r.Breakdown.Heaters, Heaters{})
	assertEqual(t, r.Construction.NumberOfHeaters, 0)
	assertEqual(t, r.Construction.NumberOfDoors, 0)
}

func TestSteamOnlyWhenHumidifying(t *testing.T) {
	dry := func(in *Inputs) {
		in.Conditions["externalTemp"] = 10.0
		in.Conditions["externalHumidity"] = 30.0
	}

	off := mustCalculate(t, newTestInputs(dry))
	assertEqual(t, off.Breakdown.Heaters.Steam, 0.0)

	on := mustCalculate(t, newTestInputs(dry, func(in *Inputs) {
		in.Conditions["steamHumidification"] = true
	}))
	if on.Breakdown.Heaters.Steam <= 0 {
		t.Fatalf("steam=%v want > 0 for dry ambient air", on.Breakdown.Heaters.Steam)
	}

	// Humid ambient air brings its own moisture.
	humid := mustCalculate(t, newTestInputs(func(in *Inputs) {
		in.Conditions["steamHumidification"] = "yes"
	}))
	assertEqual(t, humid.Breakdown.Heaters.Steam, 0.0)
}

func TestNormalizedRecordsRoundTrip(t *testing.T) {
	for _, in := range []Inputs{
		{},
		newTestInputs(),
		newTestInputs(func(in *Inputs) {
			in.Room["type"] = "eps"
			in.Room["thickness"] = "150"
			in.Product["mass"] = "1200"
			in.Conditions["steamHumidification"] = "on"
		}),
	} {
		n, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize() failed: %v", err)
		}
		first := mustCalculate(t, in)
		second := mustCalculate(t, n.Records())
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("round trip changed the result:\n first %+v\nsecond %+v", first, second)
		}
	}
}

func TestOutgoingAboveIncomingIsInconsistent(t *testing.T) {
	_, err := Calculate(newTestInputs(func(in *Inputs) {
		in.Product["outgoingTemp"] = 10.0
		in.Product["incomingTemp"] = 4.0
	}))
	assertErrorIs(t, err, ErrInconsistentInput)

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	assertEqual(t, fe.Field, "outgoingTemp")
}

func TestWorkingHoursBeyondOperatingHoursIsInconsistent(t *testing.T) {
	_, err := Calculate(newTestInputs(func(in *Inputs) {
		in.Conditions["operatingHours"] = 4.0
	}))
	assertErrorIs(t, err, ErrInconsistentInput)

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	assertEqual(t, fe.Field, "workingHours")

	r := mustCalculate(t, newTestInputs(func(in *Inputs) {
		in.Conditions["operatingHours"] = 8.0
	}))
	if r.FinalLoad <= 0 {
		t.Fatalf("finalLoad=%v", r.FinalLoad)
	}
}

func TestNegativeTemperatureDifferenceIsInconsistent(t *testing.T) {
	_, err := Calculate(newTestInputs(func(in *Inputs) {
		in.Conditions["externalTemp"] = 2.0
	}))
	assertErrorIs(t, err, ErrInconsistentInput)
}

func TestCalculateInvalidInput_Table(t *testing.T) {
	cases := []struct {
		name  string
		opt   func(*Inputs)
		field string
	}{
		{"non-numeric length", func(in *Inputs) { in.Room["length"] = "six" }, "room.length"},
		{"zero length", func(in *Inputs) { in.Room["length"] = 0 }, "length"},
		{"negative mass", func(in *Inputs) { in.Product["dailyLoad"] = -1 }, "dailyLoad"},
		{"zero pull-down", func(in *Inputs) { in.Conditions["pullDownTime"] = 0 }, "pullDownTime"},
		{"zero operating hours", func(in *Inputs) { in.Conditions["operatingHours"] = 0 }, "operatingHours"},
		{"too many operating hours", func(in *Inputs) { in.Conditions["operatingHours"] = 25 }, "operatingHours"},
		{"humidity above 100", func(in *Inputs) { in.Conditions["humidity"] = 120 }, "humidity"},
		{"unknown insulation", func(in *Inputs) { in.Room["insulationType"] = "straw" }, "insulationType"},
		{"fractional heaters", func(in *Inputs) { in.Room["numberOfHeaters"] = 1.5 }, "room.numberOfHeaters"},
		{"boolean dimension", func(in *Inputs) { in.Room["width"] = true }, "room.width"},
		{"infinite height", func(in *Inputs) { in.Room["height"] = math.Inf(1) }, "room.height"},
		{"bad flag", func(in *Inputs) { in.Conditions["steamHumidification"] = "maybe" }, "conditions.steamHumidification"},
		{"temperature out of range", func(in *Inputs) { in.Conditions["externalTemp"] = 90 }, "externalTemp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate(newTestInputs(tc.opt))
			assertErrorIs(t, err, ErrInvalidInput)

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %T", err)
			}
			assertEqual(t, fe.Field, tc.field)
		})
	}
}

func TestNewRejectsInvalidReference(t *testing.T) {
	ref := DefaultReference()
	ref.DoorProtection = 1

	_, err := New(ref)
	assertErrorIs(t, err, ErrInvalidReference)
}

func TestEngineUsesReference(t *testing.T) {
	ref := DefaultReference()
	ref.PeripheralHeaterKW = 0.3
	ref.DoorProtection = 0.5
	e, err := New(ref)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	base := mustCalculate(t, newTestInputs())
	r, err := e.Calculate(newTestInputs())
	if err != nil {
		t.Fatalf("Calculate() failed: %v", err)
	}

	if !almostEqual(r.Breakdown.Heaters.Peripheral, 0.3, 1e-12) {
		t.Fatalf("peripheral=%v want 0.3", r.Breakdown.Heaters.Peripheral)
	}
	if !relEqual(r.Breakdown.DoorOpening, base.Breakdown.DoorOpening/2, 1e-12) {
		t.Fatalf("doorOpening=%v want half of %v", r.Breakdown.DoorOpening, base.Breakdown.DoorOpening)
	}
}

func TestCalculateNormalizedValidates(t *testing.T) {
	n, err := Normalize(newTestInputs())
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	n.PullDownTime = 0

	_, err = defaultEngine.CalculateNormalized(n)
	assertErrorIs(t, err, ErrInvalidInput)
}

func TestStorageAndAirflow(t *testing.T) {
	r := mustCalculate(t, newTestInputs())

	assertEqual(t, r.StorageInfo.MaxStorage, 576.0)
	assertEqual(t, r.StorageInfo.CurrentLoad, 3000.0)
	assertEqual(t, r.StorageInfo.AvailableCapacity, -2424.0)
	if !almostEqual(r.StorageInfo.Utilization, 3000.0/576*100, 1e-9) {
		t.Fatalf("utilization=%v", r.StorageInfo.Utilization)
	}

	wantCfm := 72 * CubicFeetPerCubicMetre * 30 / 60
	if !almostEqual(r.AirFlowInfo.RequiredCfm, wantCfm, 1e-9) {
		t.Fatalf("requiredCfm=%v want %v", r.AirFlowInfo.RequiredCfm, wantCfm)
	}
	if !almostEqual(r.AirFlowInfo.RecommendedCfm, wantCfm*1.2, 1e-9) {
		t.Fatalf("recommendedCfm=%v want %v", r.AirFlowInfo.RecommendedCfm, wantCfm*1.2)
	}
}

func TestEvaporatorFans(t *testing.T) {
	r := mustCalculate(t, newTestInputs())
	assertEqual(t, r.Conditions.FanMotorRating, 0.37)
	assertEqual(t, r.Conditions.NumberOfFans, 1)
	assertEqual(t, r.AirFlowInfo.AirFlowPerFan, 4163.0)
	assertEqual(t, r.AirFlowInfo.FansRequired, 1.0)
	assertEqual(t, r.AirFlowInfo.InstalledCfm, 4163.0)
	assertEqual(t, r.AirFlowInfo.FanMotorLoad, 0.37)

	r = mustCalculate(t, newTestInputs(func(in *Inputs) {
		in.Room["numberOfFans"] = 3
		in.Room["fanMotorRating"] = 0.5
		in.Conditions["airFlowPerFan"] = 500.0
	}))
	assertEqual(t, r.AirFlowInfo.FansRequired, math.Ceil(r.AirFlowInfo.RecommendedCfm/500))
	assertEqual(t, r.AirFlowInfo.InstalledCfm, 1500.0)
	assertEqual(t, r.AirFlowInfo.FanMotorLoad, 1.5)

	base := mustCalculate(t, newTestInputs())
	if r.FinalLoad != base.FinalLoad {
		t.Fatalf("fans must not change the load: %v vs %v", r.FinalLoad, base.FinalLoad)
	}

	_, err := Calculate(newTestInputs(func(in *Inputs) { in.Conditions["airFlowPerFan"] = 0.0 }))
	assertErrorIs(t, err, ErrInvalidInput)
}

func TestSensibleHeatRatio(t *testing.T) {
	assertEqual(t, dailyLoads(0, 0).SHR, 1.0)

	d := dailyLoads(10, 2)
	assertEqual(t, d.Sensible, 8.0)
	assertEqual(t, d.SHR, 0.8)
}

func TestCalculateIsDeterministicAcrossGoroutines(t *testing.T) {
	in := newTestInputs()
	want := mustCalculate(t, in)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Calculate(in)
			if err != nil {
				errs <- err.Error()
				return
			}
			if !reflect.DeepEqual(got, want) {
				errs <- "result differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}
