package dynamo

import "math"

// WrapAngle maps x onto [-pi, pi). Theta is integrated unwrapped; this is
// for reporting and phase comparisons only.
func WrapAngle(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return x - math.Pi
}

// PhaseDistance is the absolute angular separation of a and b in [0, pi].
func PhaseDistance(a, b float64) float64 {
	return math.Abs(WrapAngle(a - b))
}
