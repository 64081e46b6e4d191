package calculator

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a raw form value, returning 0 for empty, unparsable
// or non-finite input
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// percentOf returns part/whole as a percentage, or 0 when whole is not positive
func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
