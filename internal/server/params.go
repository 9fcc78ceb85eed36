package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Parameter extraction helpers for tool argument maps. JSON numbers arrive
// as float64 over the wire but as ints from in-process callers.

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func floatParam(params map[string]interface{}, key string, defaultVal float64) float64 {
	v, ok := params[key]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if _, ok := params[key]; !ok {
		return defaultVal
	}
	return int(floatParam(params, key, float64(defaultVal)))
}

var errBadWindowID = errors.New("window-id must be a positive window ID")

// windowIDParam reads "window-id" as a CGWindowID. Anything that would not
// survive the conversion to uint32 unchanged is rejected.
func windowIDParam(params map[string]interface{}) (uint32, error) {
	f := floatParam(params, "window-id", 0)
	if f < 1 || f > math.MaxUint32 || math.Trunc(f) != f {
		return 0, errBadWindowID
	}
	return uint32(f), nil
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}
	}
	return defaultVal
}
