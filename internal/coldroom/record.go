package coldroom

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one stored form record as the host keeps it: loosely typed,
// possibly with numbers encoded as strings.
type Record map[string]any

// Inputs are the three records the engine consumes. Room carries the
// construction fields too (see MergeRecords).
type Inputs struct {
	Room       Record `json:"room" yaml:"room"`
	Conditions Record `json:"conditions" yaml:"conditions"`
	Product    Record `json:"product" yaml:"product"`
}

// MergeRecords shallow-merges records left to right; later keys win.
// Nil records are skipped.
func MergeRecords(records ...Record) Record {
	out := Record{}
	for _, r := range records {
		for k, v := range r {
			out[k] = v
		}
	}
	return out
}

func (in Inputs) record(s Source) Record {
	switch s {
	case SourceRoom:
		return in.Room
	case SourceConditions:
		return in.Conditions
	case SourceProduct:
		return in.Product
	default:
		return nil
	}
}

// lookup reports whether key holds a usable value. Absent keys, nil and
// blank strings all count as missing.
func (r Record) lookup(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func toFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x.String())
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		f = p
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", f)
	}
	return f, nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", x)
		}
		return b, nil
	default:
		f, err := toFloat(v)
		if err != nil {
			return false, fmt.Errorf("not a boolean: %T", v)
		}
		return f != 0, nil
	}
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case fmt.Stringer:
		return x.String(), nil
	case bool, map[string]any, []any:
		return "", fmt.Errorf("not a label: %T", v)
	default:
		if _, err := toFloat(v); err != nil {
			return "", fmt.Errorf("not a label: %T", v)
		}
		return fmt.Sprint(v), nil
	}
}
