package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseSymbol splits an Antelope symbol string such as "8,WAX" into its precision and code.
// A string without exactly one comma is treated as a bare symbol with precision 0.
// An unparsable precision becomes 0.
func ParseSymbol(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ""
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, raw
	}

	precision, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		precision = 0
	}
	return precision, strings.TrimSpace(parts[1])
}

// FormatSymbol is the inverse of ParseSymbol for well-formed input.
func FormatSymbol(precision int, symbol string) string {
	return strconv.Itoa(precision) + "," + symbol
}

// ParseAsset splits an asset string such as "100.00000000 WAX" into amount and symbol.
// A single token is read as a bare amount when numeric, otherwise as a bare symbol.
func ParseAsset(raw string) (float64, string) {
	parts := strings.Fields(raw)
	switch len(parts) {
	case 2:
		amount, ok := parseFiniteFloat(parts[0])
		if !ok {
			amount = 0
		}
		return amount, parts[1]
	case 1:
		if amount, ok := parseFiniteFloat(parts[0]); ok {
			return amount, ""
		}
		return 0, parts[0]
	default:
		return 0, ""
	}
}

// parseFiniteFloat rejects NaN and infinities, which strconv would otherwise
// accept for symbols such as "INF" or "NAN".
func parseFiniteFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
