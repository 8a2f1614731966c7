package transport

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number accepts a JSON number or a numeric string. Decoding never fails:
// whatever the client sent is kept in Raw so validation can report it.
type Number struct {
	Raw     any
	Value   float64
	Present bool
	Valid   bool
}

func Num(v float64) Number {
	return Number{Raw: v, Value: v, Present: true, Valid: true}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		return nil
	}

	n.Raw = v
	n.Present = true
	switch t := v.(type) {
	case float64:
		n.Value, n.Valid = t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n.Value, n.Valid = f, true
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.Valid {
		return json.Marshal(n.Value)
	}
	return json.Marshal(n.Raw)
}

// Int reports the value as an int when it is a whole number.
func (n Number) Int() (int, bool) {
	if !n.Valid || n.Value != math.Trunc(n.Value) || math.Abs(n.Value) > math.MaxInt32 {
		return 0, false
	}
	return int(n.Value), true
}
