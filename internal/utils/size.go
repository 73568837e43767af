package utils

import (
	"fmt"
	"math"
)

// HumanSize formats a byte count with 1024-based units, e.g. "12.0 MB".
// The service precomputes the same string as size_human; this is used when
// only size_bytes is present.
func HumanSize(n int64) string {
	v := float64(n)
	for _, unit := range []string{"", "k", "M", "G", "T"} {
		if math.Abs(v) < 1024.0 {
			return fmt.Sprintf("%3.1f %sB", v, unit)
		}
		v /= 1024.0
	}
	return fmt.Sprintf("%.1f YB", v)
}
