package gamemath

import "math"

// ApplyFriction reduces speed toward zero by friction amount.
func ApplyFriction(speed, friction float64) float64 {
	if speed > friction {
		return speed - friction
	}
	if speed < -friction {
		return speed + friction
	}
	return 0
}

// ClampSpeed clamps a value to [-max, max].
func ClampSpeed(speed, max float64) float64 {
	if speed > max {
		return max
	}
	if speed < -max {
		return -max
	}
	return speed
}

// ClampVelocity scales (vx, vy) down so its length is at most max.
func ClampVelocity(vx, vy, max float64) (float64, float64) {
	l := math.Hypot(vx, vy)
	if l <= max || l == 0 {
		return vx, vy
	}
	s := max / l
	return vx * s, vy * s
}
