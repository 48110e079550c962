package escrow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// unitsPerDollar reflects the chain's integer unit: 100 units = one dollar.
const unitsPerDollar = 100

// ToUnits converts a decimal dollar string to the chain's integer minor
// unit, rounding half-to-even to the nearest unit. Negative and malformed
// inputs convert to zero; rejecting them is the operation layer's job.
func ToUnits(decimal string) int64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(decimal), 64)
	if err != nil || value < 0 {
		return 0
	}
	return int64(roundHalfToEven(value * unitsPerDollar))
}

// FromUnits converts the chain's integer minor unit back to a two-decimal
// dollar string.
func FromUnits(units int64) string {
	return fmt.Sprintf("%.2f", float64(units)/unitsPerDollar)
}

// roundHalfToEven implements banker's rounding for the nearest integer,
// since math.Round always rounds half away from zero.
func roundHalfToEven(v float64) float64 {
	floor := math.Floor(v)
	diff := v - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if math.Mod(floor, 2) == 0 {
			return floor
		}
		return floor + 1
	}
}
