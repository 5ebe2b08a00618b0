package coldroom

import (
	"fmt"
	"strings"
)

// Insulation is an integer enum of panel core materials.
type Insulation int

const (
	InsulationUnknown Insulation = iota
	InsulationPUF
	InsulationPIR
	InsulationEPS
	InsulationXPS
	InsulationRockwool
	InsulationGlasswool
	InsulationCork
)

// Thermal conductivity of each core material, W/m·K.
var conductivity = map[Insulation]float64{
	InsulationPUF:       0.023,
	InsulationPIR:       0.022,
	InsulationEPS:       0.035,
	InsulationXPS:       0.030,
	InsulationRockwool:  0.040,
	InsulationGlasswool: 0.040,
	InsulationCork:      0.043,
}

func (i Insulation) Valid() bool {
	_, ok := conductivity[i]
	return ok
}

func (i Insulation) String() string {
	switch i {
	case InsulationPUF:
		return "PUF"
	case InsulationPIR:
		return "PIR"
	case InsulationEPS:
		return "EPS"
	case InsulationXPS:
		return "XPS"
	case InsulationRockwool:
		return "ROCKWOOL"
	case InsulationGlasswool:
		return "GLASSWOOL"
	case InsulationCork:
		return "CORK"
	default:
		return "unknown"
	}
}

// Conductivity returns k in W/m·K, or 0 for an unknown material.
func (i Insulation) Conductivity() float64 {
	return conductivity[i]
}

// ParseInsulation accepts the material code in any case plus a few common
// spellings found in older form data.
func ParseInsulation(s string) (Insulation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PUF", "PU", "PUR", "POLYURETHANE":
		return InsulationPUF, nil
	case "PIR", "POLYISOCYANURATE":
		return InsulationPIR, nil
	case "EPS", "THERMOCOL", "EXPANDED POLYSTYRENE":
		return InsulationEPS, nil
	case "XPS", "EXTRUDED POLYSTYRENE":
		return InsulationXPS, nil
	case "ROCKWOOL", "ROCK WOOL", "MINERAL WOOL":
		return InsulationRockwool, nil
	case "GLASSWOOL", "GLASS WOOL":
		return InsulationGlasswool, nil
	case "CORK":
		return InsulationCork, nil
	default:
		return InsulationUnknown, fmt.Errorf("%w: %q", ErrUnknownInsulation, s)
	}
}
