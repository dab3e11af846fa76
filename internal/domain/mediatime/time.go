// Package mediatime converts engine time values to labels and seek-bar geometry.
//
// Media time is carried as time.Duration. Live items report an indefinite
// duration, represented by the Indefinite sentinel.
package mediatime

import (
	"fmt"
	"math"
	"time"
)

// Indefinite is the duration reported for items without a known end (live streams).
const Indefinite = time.Duration(math.MaxInt64)

// IndefiniteLabel is the label rendered for an indefinite time.
const IndefiniteLabel = "∞"

// IsIndefinite reports whether d is the indefinite sentinel.
func IsIndefinite(d time.Duration) bool {
	return d == Indefinite
}

// Seconds returns d in seconds. Indefinite maps to +Inf.
func Seconds(d time.Duration) float64 {
	if IsIndefinite(d) {
		return math.Inf(1)
	}
	return d.Seconds()
}

// FromSeconds converts fractional seconds to a duration. NaN and -Inf map to
// zero; values too large for a duration saturate at Indefinite, or at the
// most negative duration below zero.
func FromSeconds(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, -1) {
		return 0
	}
	ns := s * float64(time.Second)
	switch {
	case ns >= math.MaxInt64:
		return Indefinite
	case ns <= math.MinInt64:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ns)
}

// Add returns a+b, saturating at the duration range instead of wrapping.
func Add(a, b time.Duration) time.Duration {
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return Indefinite
	case b < 0 && sum > a:
		return time.Duration(math.MinInt64)
	}
	return sum
}

// WholeSeconds truncates d to a whole number of seconds.
func WholeSeconds(d time.Duration) time.Duration {
	if IsIndefinite(d) {
		return d
	}
	return d.Truncate(time.Second)
}

// Readable formats d as "MM:SS", or "H:MM:SS" once it reaches an hour.
// Sub-second precision is truncated.
func Readable(d time.Duration) string {
	if IsIndefinite(d) {
		return IndefiniteLabel
	}

	total := int64(d / time.Second)
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}

	hours := total / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, hours, minutes, seconds)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes, seconds)
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// Fraction returns part/whole in seconds, using a floor of one second for
// whole so that zero or unknown durations never divide by zero.
func Fraction(part, whole time.Duration) float64 {
	return part.Seconds() / math.Max(whole.Seconds(), 1)
}
