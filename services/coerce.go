package services

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"credit-dashboard/models"
)

// CoerceNumber converts a raw cell to a number on a best-effort basis.
// Blank and null cells are Missing without counting as a failure; a present
// value that does not parse is Missing with ok=false.
func CoerceNumber(v any) (n models.Number, ok bool) {
	switch x := v.(type) {
	case nil:
		return models.Missing, true
	case []byte:
		return coerceText(string(x))
	case string:
		return coerceText(x)
	case bool:
		return models.Missing, false
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Missing, false
	}
	return models.Num(f), true
}

func coerceText(s string) (models.Number, bool) {
	s = strings.TrimSpace(s)
	if isNullText(s) {
		return models.Missing, true
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Missing, false
	}
	return models.Num(f), true
}

// ParseCreditHistoryAge turns "22 Years and 1 Months" into 22. Numeric cells
// pass through and anything unparseable becomes Missing.
func ParseCreditHistoryAge(v any) (n models.Number, ok bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return CoerceNumber(v)
	}

	fields := strings.Fields(s)
	if len(fields) == 0 || isNullText(fields[0]) {
		return models.Missing, true
	}
	return coerceText(fields[0])
}

func isNullText(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na", "n/a":
		return true
	}
	return false
}

// CellText renders any raw cell as text for attribute columns and exports.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	}
	return cast.ToString(v)
}
