package protocol

import (
	"encoding/json"
	"math"
	"strconv"
)

// Record is one record as returned by the persistence service.
type Record map[string]any

// PK returns the record's primary key.
func (r Record) PK() (int64, bool) {
	return r.Int("pk")
}

// Int reads key as a whole number.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// String reads key as text; missing and non-string values read as "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}
