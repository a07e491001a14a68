package exporter

import (
	"math"
	"strconv"
)

// formatFloat formats a value for CSV output. Missing values are empty.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatCell renders a preview cell for CSV output
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(val)
	case string:
		return val
	default:
		return ""
	}
}

// cellValue converts a float for a spreadsheet cell. Missing values stay
// blank.
func cellValue(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
