package geom

import "math"

// AngleModulus wraps an angle in radians to (-pi, pi].
func AngleModulus(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
