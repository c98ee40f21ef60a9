package systems

import (
	"math"
	"math/rand"
)

// clamp clamps v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// distance returns the Euclidean distance between two points.
func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// RandomHeading returns an angle uniform in [0, 2*Pi).
func RandomHeading(rng *rand.Rand) float64 {
	return rng.Float64() * 2 * math.Pi
}
