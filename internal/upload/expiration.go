package upload

import (
	"fmt"
	"math"
	"strings"

	"github.com/Project-Sylos/Harbor/internal/api"
)

// Unit is the unit of a user-entered expiration value
type Unit int

const (
	UnitMinutes Unit = iota
	UnitHours
	UnitDays
)

// Minutes returns how many minutes one unit spans
func (u Unit) Minutes() int64 {
	switch u {
	case UnitHours:
		return 60
	case UnitDays:
		return 1440
	default:
		return 1
	}
}

func (u Unit) String() string {
	switch u {
	case UnitHours:
		return "hours"
	case UnitDays:
		return "days"
	default:
		return "minutes"
	}
}

// ParseUnit accepts m|min|minutes, h|hours, d|days (case-insensitive, singular or plural)
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "min", "mins", "minute", "minutes":
		return UnitMinutes, nil
	case "h", "hr", "hour", "hours":
		return UnitHours, nil
	case "d", "day", "days":
		return UnitDays, nil
	}
	return UnitMinutes, &api.ValidationError{Field: "expiration", Reason: fmt.Sprintf("unknown unit %q", s)}
}

// ComputeExpirationMinutes converts value in unit to minutes. The value is
// truncated toward zero before it is multiplied. Values that are not finite
// or whose product does not fit in an int64 are rejected.
func ComputeExpirationMinutes(value float64, unit Unit) (int64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &api.ValidationError{Field: "expiration", Reason: "must be a finite number"}
	}
	n := math.Trunc(value)
	limit := float64(math.MaxInt64 / unit.Minutes())
	if n >= limit || n <= -limit {
		return 0, &api.ValidationError{
			Field:  "expiration",
			Reason: fmt.Sprintf("%g %s is out of range", value, unit),
		}
	}
	return int64(n) * unit.Minutes(), nil
}

// ValidateExpiration rejects negative counts and counts above max
func ValidateExpiration(minutes, max int64) error {
	if minutes < 0 {
		return &api.ValidationError{Field: "expiration", Reason: "must not be negative"}
	}
	if minutes > max {
		return &api.ValidationError{
			Field:  "expiration",
			Reason: fmt.Sprintf("%d minutes exceeds the maximum of %d", minutes, max),
		}
	}
	return nil
}
