package coldroom

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustNormalize(t *testing.T, in Inputs) Normalized {
	t.Helper()
	n, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	return n
}

func TestNormalizeDefaults(t *testing.T) {
	n := mustNormalize(t, Inputs{})

	want := Normalized{
		Length: 6, Width: 4, Height: 3, DoorWidth: 1.2, DoorHeight: 2.1,
		Insulation: InsulationPUF, WallThickness: 100, CeilingThickness: 100, FloorThickness: 100,
		NumberOfHeaters: 1, NumberOfDoors: 1,
		ExternalTemp: 35, InternalTemp: 4, OperatingHours: 24, PullDownTime: 8,
		DoorOpenings: 30, DoorClearOpening: 2000, Humidity: 85, ExternalHumidity: 50,
		StorageDensity: 8,
		ProductType:    "General Food Items", DailyLoad: 3000, IncomingTemp: 25, OutgoingTemp: 4,
		SpecificHeat: 4.1, RespirationRate: 50, StorageType: "Palletized",
		NumberOfPeople: 3, WorkingHours: 8, LightingWattage: 300, EquipmentLoad: 750,
		FanMotorRating: 0.37, NumberOfFans: 1, AirFlowPerFan: 4163,
		insulationLabel: "PUF",
	}
	assertEqual(t, n, want)
}

func TestFieldTablePrecedence_Table(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		get  func(Normalized) float64
		want float64
	}{
		{
			"wall thickness prefers wallThickness",
			Inputs{Room: Record{"wallThickness": 120, "insulationThickness": 80, "thickness": 60}},
			func(n Normalized) float64 { return n.WallThickness }, 120,
		},
		{
			"wall thickness falls back to insulationThickness",
			Inputs{Room: Record{"insulationThickness": 80, "thickness": 60}},
			func(n Normalized) float64 { return n.WallThickness }, 80,
		},
		{
			"ceiling thickness falls back to legacy thickness",
			Inputs{Room: Record{"thickness": 60}},
			func(n Normalized) float64 { return n.CeilingThickness }, 60,
		},
		{
			"pull-down time prefers conditions",
			Inputs{
				Room:       Record{"pullDownTime": 10},
				Conditions: Record{"pullDownTime": 12},
				Product:    Record{"pullDownTime": 14},
			},
			func(n Normalized) float64 { return n.PullDownTime }, 12,
		},
		{
			"pull-down time from room before product",
			Inputs{Room: Record{"pullDownTime": 10}, Product: Record{"pullDownTime": 14}},
			func(n Normalized) float64 { return n.PullDownTime }, 10,
		},
		{
			"pull-down time from product",
			Inputs{Product: Record{"pullDownTime": 14}},
			func(n Normalized) float64 { return n.PullDownTime }, 14,
		},
		{
			"external temperature from room when conditions lack it",
			Inputs{Room: Record{"externalTemp": 40}},
			func(n Normalized) float64 { return n.ExternalTemp }, 40,
		},
		{
			"daily load from legacy mass",
			Inputs{Product: Record{"mass": "1500"}},
			func(n Normalized) float64 { return n.DailyLoad }, 1500,
		},
		{
			"storage density from legacy storageCapacity",
			Inputs{Product: Record{"storageCapacity": 12}},
			func(n Normalized) float64 { return n.StorageDensity }, 12,
		},
		{
			"lighting from product lightLoad",
			Inputs{Product: Record{"lightLoad": 500}},
			func(n Normalized) float64 { return n.LightingWattage }, 500,
		},
		{
			"heaters from conditions",
			Inputs{Conditions: Record{"numberOfHeaters": 4}},
			func(n Normalized) float64 { return float64(n.NumberOfHeaters) }, 4,
		},
		{
			"blank string falls through to next key",
			Inputs{Room: Record{"wallThickness": "  ", "insulationThickness": 90}},
			func(n Normalized) float64 { return n.WallThickness }, 90,
		},
		{
			"nil falls back to default",
			Inputs{Room: Record{"length": nil}},
			func(n Normalized) float64 { return n.Length }, 6,
		},
		{
			"zero is a value, not missing",
			Inputs{Conditions: Record{"doorOpenings": 0}},
			func(n Normalized) float64 { return n.DoorOpenings }, 0,
		},
		{
			"numeric string",
			Inputs{Room: Record{"height": " 3.5 "}},
			func(n Normalized) float64 { return n.Height }, 3.5,
		},
		{
			"json number",
			Inputs{Room: Record{"length": json.Number("7.25")}},
			func(n Normalized) float64 { return n.Length }, 7.25,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := mustNormalize(t, tc.in)
			if got := tc.get(n); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestFieldTablePrecedence_EveryKey(t *testing.T) {
	for _, spec := range FieldTable {
		for i, k := range spec.Sources {
			t.Run(spec.Field+"/"+k.String(), func(t *testing.T) {
				in := Inputs{Room: Record{}, Conditions: Record{}, Product: Record{}}
				for _, later := range spec.Sources[i:] {
					in.record(later.Source)[later.Name] = later.String()
				}

				v, from, ok := spec.Resolve(in)
				assertEqual(t, ok, true)
				assertEqual(t, from, k)
				assertEqual(t, v, any(k.String()))

				delete(in.record(k.Source), k.Name)
				v, from, ok = spec.Resolve(in)
				if i+1 < len(spec.Sources) {
					next := spec.Sources[i+1]
					assertEqual(t, ok, true)
					assertEqual(t, from, next)
					assertEqual(t, v, any(next.String()))
				} else {
					assertEqual(t, ok, false)
					assertEqual(t, v, spec.Default)
				}
			})
		}
	}
}

// nonDefault returns a valid value for spec that differs from its default.
func nonDefault(spec FieldSpec) any {
	switch spec.Kind {
	case KindNumber:
		return spec.Default.(float64) / 2
	case KindCount:
		return spec.Default.(int) + 1
	case KindFlag:
		return !spec.Default.(bool)
	}
	if spec.Field == "insulationType" {
		return "EPS"
	}
	return "Label " + spec.Field
}

func TestNormalizeEveryKeyReachesField(t *testing.T) {
	for _, spec := range FieldTable {
		for _, k := range spec.Sources {
			t.Run(spec.Field+"/"+k.String(), func(t *testing.T) {
				want := nonDefault(spec)
				in := Inputs{Room: Record{}, Conditions: Record{}, Product: Record{}}
				in.record(k.Source)[k.Name] = want

				n := mustNormalize(t, in)
				var got any
				switch p := spec.target(&n).(type) {
				case *float64:
					got = *p
				case *int:
					got = *p
				case *string:
					got = *p
				case *bool:
					got = *p
				}
				assertEqual(t, got, want)
			})
		}
	}
}

func TestFieldSpecResolveReportsSource(t *testing.T) {
	var spec FieldSpec
	for _, s := range FieldTable {
		if s.Field == "pullDownTime" {
			spec = s
		}
	}

	v, from, ok := spec.Resolve(Inputs{Product: Record{"pullDownTime": 6}})
	assertEqual(t, ok, true)
	assertEqual(t, from, Key{SourceProduct, "pullDownTime"})
	assertEqual(t, v, any(6))

	v, from, ok = spec.Resolve(Inputs{})
	assertEqual(t, ok, false)
	assertEqual(t, from, Key{})
	assertEqual(t, v, any(8.0))
}

func TestFieldTableIsComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, spec := range FieldTable {
		if seen[spec.Field] {
			t.Fatalf("duplicate field %q", spec.Field)
		}
		seen[spec.Field] = true
		if len(spec.Sources) == 0 {
			t.Fatalf("field %q has no source keys", spec.Field)
		}
		if spec.Default == nil {
			t.Fatalf("field %q has no default", spec.Field)
		}
	}
}

func TestNormalizeInsulationAliases_Table(t *testing.T) {
	cases := []struct {
		label string
		want  Insulation
	}{
		{"puf", InsulationPUF},
		{"Polyurethane", InsulationPUF},
		{"PIR", InsulationPIR},
		{"thermocol", InsulationEPS},
		{"Rockwool", InsulationRockwool},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			n := mustNormalize(t, Inputs{Room: Record{"insulationType": tc.label}})
			assertEqual(t, n.Insulation, tc.want)
		})
	}
}

func TestNormalizeLegacyInsulationKey(t *testing.T) {
	n := mustNormalize(t, Inputs{Room: Record{"type": "XPS"}})
	assertEqual(t, n.Insulation, InsulationXPS)

	n = mustNormalize(t, Inputs{Room: Record{"insulationType": "cork", "type": "XPS"}})
	assertEqual(t, n.Insulation, InsulationCork)
}

func TestNormalizeErrorNamesSourceKey(t *testing.T) {
	_, err := Normalize(Inputs{Product: Record{"mass": "lots"}})
	assertErrorIs(t, err, ErrInvalidInput)

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	assertEqual(t, fe.Field, "product.mass")
}

func TestRecordsUseCurrentKeys(t *testing.T) {
	n := mustNormalize(t, Inputs{Room: Record{"thickness": 75, "type": "EPS"}})
	in := n.Records()

	assertEqual(t, in.Room["wallThickness"], any(75.0))
	assertEqual(t, in.Room["insulationType"], any("EPS"))
	if _, ok := in.Room["thickness"]; ok {
		t.Fatalf("legacy key written back: %v", in.Room)
	}
	assertEqual(t, in.Conditions["numberOfPeople"], any(3))
	assertEqual(t, in.Product["dailyLoad"], any(3000.0))
}

func TestMergeRecords(t *testing.T) {
	room := Record{"length": 6, "insulationType": "EPS"}
	construction := Record{"insulationType": "PUF", "wallThickness": 120}

	got := MergeRecords(room, nil, construction)

	assertEqual(t, len(got), 3)
	assertEqual(t, got["insulationType"], any("PUF"))
	assertEqual(t, got["length"], any(6))
	assertEqual(t, room["insulationType"], any("EPS"))
}

func TestToBool_Table(t *testing.T) {
	cases := []struct {
		in      any
		want    bool
		wantErr bool
	}{
		{true, true, false},
		{"yes", true, false},
		{"OFF", false, false},
		{"true", true, false},
		{"0", false, false},
		{1, true, false},
		{0.0, false, false},
		{"perhaps", false, true},
		{[]any{}, false, true},
	}

	for _, tc := range cases {
		got, err := toBool(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("toBool(%v) err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("toBool(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestToString_Table(t *testing.T) {
	cases := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{" Apples ", "Apples", false},
		{42, "42", false},
		{InsulationEPS, "EPS", false},
		{true, "", true},
		{map[string]any{}, "", true},
	}

	for _, tc := range cases {
		got, err := toString(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("toString(%v) err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("toString(%v)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestInputsNumberAndFlag(t *testing.T) {
	in := Inputs{
		Room:       Record{"externalTemp": 30.0},
		Conditions: Record{"humidity": "90", "steamHumidification": "yes"},
		Product:    Record{"mass": json.Number("1200")},
	}

	cases := []struct {
		field string
		want  float64
	}{
		{"externalTemp", 30},
		{"humidity", 90},
		{"dailyLoad", 1200},
		{"internalTemp", 4},
		{"numberOfPeople", 3},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			got, err := in.Number(tc.field)
			if err != nil {
				t.Fatalf("Number(%q): %v", tc.field, err)
			}
			if got != tc.want {
				t.Fatalf("Number(%q)=%v want %v", tc.field, got, tc.want)
			}
		})
	}

	on, err := in.Flag("steamHumidification")
	if err != nil || !on {
		t.Fatalf("Flag(steamHumidification)=%v, %v", on, err)
	}

	for _, field := range []string{"productType", "steamHumidification", "nope"} {
		if _, err := in.Number(field); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Number(%q): expected ErrInvalidInput, got %v", field, err)
		}
	}
	if _, err := in.Flag("humidity"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Flag(humidity): expected ErrInvalidInput, got %v", err)
	}

	bad := Inputs{Conditions: Record{"externalTemp": "hot"}}
	_, err = bad.Number("externalTemp")
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "conditions.externalTemp" {
		t.Fatalf("expected field error on conditions.externalTemp, got %v", err)
	}
}
