package model

import "fmt"

// CoerceProperty normalizes v into the value shapes the store accepts:
// string, int64, float64, bool, nil, and sequences or string-keyed maps of
// the same, recursively. Narrower numeric widths are widened; anything else
// is rejected.
func CoerceProperty(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, bool, string, int64, float64:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			c, err := CoerceProperty(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			c, err := CoerceProperty(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported property value type %T", v)
	}
}

// CoerceProperties applies CoerceProperty to every value of props. A nil map
// coerces to an empty one so callers can pass it straight to the store.
func CoerceProperties(props map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		c, err := CoerceProperty(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}
