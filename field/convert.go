package field

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Trim converts to trimmed text.
func Trim(raw any) any {
	return strings.TrimSpace(Text(raw))
}

// Upper converts to trimmed upper-case text.
func Upper(raw any) any {
	return strings.ToUpper(strings.TrimSpace(Text(raw)))
}

// ToInt converts to an int64. Values that are not whole numbers convert to 0; pair it
// with the Integer validator.
func ToInt(raw any) any {
	n, _ := asInt(raw)
	return n
}

// ToOptionalInt converts blank values to nil and everything else like ToInt.
func ToOptionalInt(raw any) any {
	if IsEmpty(raw) {
		return nil
	}
	return ToInt(raw)
}

// ToSeconds converts a swim time written as "m:ss.hh" or "ss.hh" to seconds. Blank
// values convert to nil.
func ToSeconds(raw any) any {
	if IsEmpty(raw) {
		return nil
	}
	secs, ok := parseSwimTime(Text(raw))
	if !ok {
		return nil
	}
	return secs
}

// Text renders a raw value as the string a user would have typed.
func Text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// IsEmpty reports whether raw is nil or blank text.
func IsEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func asInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// swimTimeShape matches "m:ss.hh" or "ss.hh" with optional hundredths.
var swimTimeShape = regexp.MustCompile(`^(?:(\d+):(\d{2}(?:\.\d{1,2})?)|(\d+(?:\.\d{1,2})?))$`)

func parseSwimTime(s string) (float64, bool) {
	m := swimTimeShape.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	if m[3] != "" {
		secs, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, false
		}
		return math.Round(secs*100) / 100, true
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[2], 64)
	if err != nil || secs >= 60 {
		return 0, false
	}
	return math.Round((float64(minutes)*60+secs)*100) / 100, true
}
