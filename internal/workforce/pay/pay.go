// Package pay derives monetary totals for the shift ledger. Everything in
// here is pure: no state, no network, safe to call from any goroutine.
package pay

import "math"

const (
	// MinShiftCount and MaxShiftCount bound a day's loggable work.
	MinShiftCount = 0.0
	MaxShiftCount = 3.0
	// ShiftStep is the granularity of a shift count (half shifts).
	ShiftStep = 0.5
)

// ClampShiftCount snaps a raw value to the nearest half shift and clamps
// it to [MinShiftCount, MaxShiftCount].
func ClampShiftCount(v float64) float64 {
	snapped := math.Round(v/ShiftStep) * ShiftStep
	if snapped < MinShiftCount {
		return MinShiftCount
	}
	if snapped > MaxShiftCount {
		return MaxShiftCount
	}
	return snapped
}

// ValidShiftCount reports whether v is already an in-range half-shift
// multiple. Out-of-range input from a caller is a validation error, not
// something to silently clamp.
func ValidShiftCount(v float64) bool {
	if v < MinShiftCount || v > MaxShiftCount {
		return false
	}
	return v == ClampShiftCount(v)
}

// ComputeTotal returns shiftCount * perShiftRate rounded to 2 decimals.
func ComputeTotal(shiftCount, perShiftRate float64) float64 {
	return RoundCurrency(shiftCount * perShiftRate)
}

// RoundCurrency rounds a monetary value to 2 decimal places.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}

// ConsistentTotal reports whether a persisted total matches the value
// derived from its inputs. Reconciled entries are re-checked with this
// before being trusted; a mismatch is a data-integrity signal.
func ConsistentTotal(shiftCount, perShiftRate, totalPay float64) bool {
	return ComputeTotal(shiftCount, perShiftRate) == RoundCurrency(totalPay)
}
