package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// incrementKey is the JSON marker of an atomic increment inside a patch.
const incrementKey = "$increment"

// Increment is a patch value that asks the remote store to add Delta to the
// numeric field atomically instead of overwriting it.
type Increment struct {
	Delta float64 `json:"$increment"`
}

// Patch is a partial field set. Values are either plain JSON values or
// [Increment].
type Patch map[string]any

// IncrementPatch returns a patch incrementing field by delta.
func IncrementPatch(field string, delta float64) Patch {
	return Patch{field: Increment{Delta: delta}}
}

// Split separates plain field values from increments.
func (p Patch) Split() (plain map[string]any, increments map[string]float64) {
	plain = make(map[string]any, len(p))
	increments = make(map[string]float64)
	for k, v := range p {
		if inc, ok := AsIncrement(v); ok {
			increments[k] = inc.Delta
			continue
		}
		plain[k] = v
	}
	return plain, increments
}

// AsIncrement recognises both the typed [Increment] and its decoded JSON form
// {"$increment": n}.
func AsIncrement(v any) (Increment, bool) {
	switch value := v.(type) {
	case Increment:
		return value, true
	case *Increment:
		if value == nil {
			return Increment{}, false
		}
		return *value, true
	case map[string]any:
		if len(value) != 1 {
			return Increment{}, false
		}
		raw, ok := value[incrementKey]
		if !ok {
			return Increment{}, false
		}
		delta, ok := ToFloat(raw)
		if !ok {
			return Increment{}, false
		}
		return Increment{Delta: delta}, true
	}
	return Increment{}, false
}

// ParsePatch converts a decoded JSON object into a Patch with typed increments.
func ParsePatch(raw map[string]any) Patch {
	p := make(Patch, len(raw))
	for k, v := range raw {
		if inc, ok := AsIncrement(v); ok {
			p[k] = inc
			continue
		}
		p[k] = v
	}
	return p
}

// ToFloat converts JSON and Go numeric values to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// Sanitize drops values the remote store rejects: nils, non-finite numbers and
// nested objects left empty after cleaning. The input is not modified.
func Sanitize(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "" {
			continue
		}
		if clean, keep := sanitizeValue(v); keep {
			out[k] = clean
		}
	}
	return out
}

func sanitizeValue(v any) (any, bool) {
	switch value := v.(type) {
	case nil:
		return nil, false
	case float64:
		return value, !math.IsNaN(value) && !math.IsInf(value, 0)
	case float32:
		f := float64(value)
		return value, !math.IsNaN(f) && !math.IsInf(f, 0)
	case Increment:
		return value, !math.IsNaN(value.Delta) && !math.IsInf(value.Delta, 0) && value.Delta != 0
	case map[string]any:
		if _, ok := AsIncrement(value); ok {
			return value, true
		}
		clean := Sanitize(value)
		return clean, len(clean) > 0
	case []any:
		clean := make([]any, 0, len(value))
		for _, item := range value {
			if c, keep := sanitizeValue(item); keep {
				clean = append(clean, c)
			}
		}
		return clean, true
	}
	return v, true
}
