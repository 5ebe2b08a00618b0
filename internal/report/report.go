package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

const Title = "Cold Room Cooling Load Calculation Report"

// Report is a calculation result stamped for delivery. The stamp (ID and
// GeneratedAt) never feeds back into the calculation.
type Report struct {
	ID          string              `json:"id"`
	ProjectID   string              `json:"projectId"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Inputs      coldroom.Inputs     `json:"inputs"`
	Result      coldroom.LoadResult `json:"result"`
}

func New(projectID string, in coldroom.Inputs, r coldroom.LoadResult, now time.Time) Report {
	return Report{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		GeneratedAt: now.UTC(),
		Inputs:      in,
		Result:      r,
	}
}

// BaseLoad is the load before the safety margin.
func (rep Report) BaseLoad() float64 { return rep.Result.TotalBeforeSafety }

// LoadLine is one row of the capacity summary.
type LoadLine struct {
	Label string
	KW    float64
	TR    float64
}

// LoadLines lists each load term, then the total, margin and final capacity.
func (rep Report) LoadLines() []LoadLine {
	r := rep.Result
	b := r.Breakdown
	line := func(label string, kw float64) LoadLine {
		return LoadLine{Label: label, KW: kw, TR: coldroom.ToTR(kw)}
	}
	return []LoadLine{
		line("Transmission Load", b.Transmission.Total),
		line("Product Load", b.Product),
		line("Respiration Load", b.Respiration),
		line("Air Change Load", b.AirChange),
		line("Door Opening Load", b.DoorOpening),
		line("Internal Loads", b.Miscellaneous.Total),
		line("Heater Loads", b.Heaters.Total),
		line("Total Calculated", r.TotalBeforeSafety),
		line(fmt.Sprintf("Safety Factor (%g%%)", coldroom.SafetyFactor*100), r.SafetyFactorLoad),
		line("FINAL CAPACITY REQUIRED", r.FinalLoad),
	}
}

// Row is a labelled value in a report section.
type Row struct {
	Label string
	Value string
	Unit  string
}

type Section struct {
	Title string
	Rows  []Row
}

func f0(v float64) string { return fmt.Sprintf("%.0f", v) }
func f1(v float64) string { return fmt.Sprintf("%.1f", v) }
func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
func f3(v float64) string { return fmt.Sprintf("%.3f", v) }
func g(v float64) string  { return fmt.Sprintf("%g", v) }

// Sections renders the result as the descriptive sections shared by every
// output format.
func (rep Report) Sections() []Section {
	r := rep.Result
	c := r.Conditions
	humidification := "off"
	if c.SteamHumidification {
		humidification = "on"
	}

	return []Section{
		{"Final Results", []Row{
			{"Required Capacity", f2(r.FinalLoad), "kW"},
			{"Refrigeration", f2(r.TotalTR), "TR"},
			{"Base Load", f2(rep.BaseLoad()), "kW"},
			{"Daily Energy", f0(r.DailyKJ), "kJ/24h"},
			{"Daily Energy", f1(r.DailyKWh), "kWh"},
			{"Heat Removal", f0(r.TotalBTU), "BTU/h"},
			{"Safety Factor", g(coldroom.SafetyFactor * 100), "%"},
			{"Sensible Heat Ratio", f3(r.SHR), ""},
		}},
		{"Storage Information", []Row{
			{"Maximum Storage", f0(r.StorageInfo.MaxStorage), "kg"},
			{"Current Load", f0(r.StorageInfo.CurrentLoad), "kg"},
			{"Utilization", f1(r.StorageInfo.Utilization), "%"},
			{"Available Capacity", f0(r.StorageInfo.AvailableCapacity), "kg"},
			{"Storage Density", g(r.StorageInfo.Density), "kg/m³"},
		}},
		{"Air Flow Requirements", []Row{
			{"Air Changes", g(r.AirFlowInfo.AirChangesPerHour), "1/h"},
			{"Required Airflow", f0(r.AirFlowInfo.RequiredCfm), "cfm"},
			{"Recommended Airflow", f0(r.AirFlowInfo.RecommendedCfm), "cfm"},
			{"Air Flow per Fan", g(r.AirFlowInfo.AirFlowPerFan), "cfm"},
			{"Fans Required", f0(r.AirFlowInfo.FansRequired), ""},
			{"Installed Airflow", f0(r.AirFlowInfo.InstalledCfm), "cfm"},
		}},
		{"Room Construction", []Row{
			{"Dimensions", fmt.Sprintf("%g × %g × %g", r.Dimensions.Length, r.Dimensions.Width, r.Dimensions.Height), "m"},
			{"Volume", f1(r.Volume), "m³"},
			{"Wall Area", f1(r.Areas.Wall), "m²"},
			{"Ceiling Area", f1(r.Areas.Ceiling), "m²"},
			{"Floor Area", f1(r.Areas.Floor), "m²"},
			{"Door Size", fmt.Sprintf("%g × %g", r.DoorDimensions.Width, r.DoorDimensions.Height), "m"},
			{"Door Openings", g(c.DoorOpenings), "per day"},
			{"Door Clear Opening", g(c.DoorClearOpening), "mm"},
			{"Insulation", r.Construction.InsulationType, ""},
			{"Wall Thickness", g(r.Construction.WallThickness), "mm"},
			{"Ceiling Thickness", g(r.Construction.CeilingThickness), "mm"},
			{"Floor Thickness", g(r.Construction.FloorThickness), "mm"},
			{"Wall U-Factor", f3(r.Construction.UFactor), "W/m²K"},
			{"Number of Heaters", fmt.Sprint(r.Construction.NumberOfHeaters), ""},
			{"Number of Doors", fmt.Sprint(r.Construction.NumberOfDoors), ""},
		}},
		{"Operating Conditions", []Row{
			{"External Temperature", g(c.ExternalTemp), "°C"},
			{"Internal Temperature", g(c.InternalTemp), "°C"},
			{"Temperature Difference", f0(r.TemperatureDifference), "°C"},
			{"Room Humidity", g(c.Humidity), "%"},
			{"Ambient Humidity", g(c.ExternalHumidity), "%"},
			{"Steam Humidification", humidification, ""},
			{"Operating Hours", g(c.OperatingHours), "h/day"},
			{"Pull-down Time", g(r.PullDownTime), "h"},
		}},
		{"Product Information", []Row{
			{"Product Type", r.ProductInfo.Type, ""},
			{"Daily Load", g(r.ProductInfo.Mass), "kg"},
			{"Incoming Temperature", g(r.ProductInfo.IncomingTemp), "°C"},
			{"Outgoing Temperature", g(r.ProductInfo.OutgoingTemp), "°C"},
			{"Specific Heat", g(r.ProductInfo.SpecificHeat), "kJ/kg·K"},
			{"Respiration Rate", g(r.ProductInfo.RespirationRate), "W/tonne"},
			{"Storage Type", r.ProductInfo.StorageType, ""},
		}},
		{"Personnel & Equipment", []Row{
			{"Number of People", fmt.Sprint(c.NumberOfPeople), ""},
			{"Working Hours", g(c.WorkingHours), "h/day"},
			{"Lighting Load", g(c.LightingWattage), "W"},
			{"Equipment Load", g(c.EquipmentLoad), "W"},
			{"Fan Motor", g(c.FanMotorRating), "kW"},
			{"Number of Fans", fmt.Sprint(c.NumberOfFans), ""},
			{"Fan Motor Load", f2(r.AirFlowInfo.FanMotorLoad), "kW"},
		}},
	}
}
