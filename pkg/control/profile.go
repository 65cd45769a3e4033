// Package control provides the closed-loop building blocks for the crane
// axes: trapezoidal motion profiles, PID feedback, a profiled position
// controller with optional wrapping input, and an elevator feedforward
// model.
package control

import "math"

// State is a position/velocity pair on a motion profile.
type State struct {
	Position float64
	Velocity float64
}

// Constraints bound a profile's cruise velocity and acceleration.
type Constraints struct {
	MaxVelocity     float64
	MaxAcceleration float64
}

// Profile is a trapezoidal motion profile: accelerate at the limit, cruise
// at the velocity limit, decelerate to the goal velocity. Profiles that
// cannot reach cruise speed degenerate to a triangle.
type Profile struct {
	Constraints Constraints
}

// Calculate advances the profile by dt seconds from current toward goal
// and returns the next profile state. With degenerate constraints the
// current state is held.
func (p Profile) Calculate(dt float64, current, goal State) State {
	maxV := p.Constraints.MaxVelocity
	maxA := p.Constraints.MaxAcceleration
	if maxV <= 0 || maxA <= 0 {
		return current
	}

	// Mirror the problem so the profile always travels in +position.
	direction := 1.0
	if current.Position > goal.Position {
		direction = -1.0
	}
	current = current.mirror(direction)
	goal = goal.mirror(direction)

	if current.Velocity > maxV {
		current.Velocity = maxV
	}

	// Extend the profile backward/forward past the endpoints so nonzero
	// endpoint velocities become a truncated trapezoid.
	cutoffBegin := current.Velocity / maxA
	cutoffDistBegin := cutoffBegin * cutoffBegin * maxA / 2
	cutoffEnd := goal.Velocity / maxA
	cutoffDistEnd := cutoffEnd * cutoffEnd * maxA / 2

	fullTrapezoidDist := cutoffDistBegin + (goal.Position - current.Position) + cutoffDistEnd
	accelerationTime := maxV / maxA
	fullSpeedDist := fullTrapezoidDist - accelerationTime*accelerationTime*maxA
	if fullSpeedDist < 0 {
		accelerationTime = math.Sqrt(math.Max(fullTrapezoidDist/maxA, 0))
		fullSpeedDist = 0
	}

	endAccel := accelerationTime - cutoffBegin
	endFullSpeed := endAccel + fullSpeedDist/maxV
	endDecel := endFullSpeed + accelerationTime - cutoffEnd

	result := current
	switch {
	case dt < endAccel:
		result.Velocity += dt * maxA
		result.Position += (current.Velocity + dt*maxA/2) * dt
	case dt < endFullSpeed:
		result.Velocity = maxV
		result.Position += (current.Velocity+endAccel*maxA/2)*endAccel + maxV*(dt-endAccel)
	case dt <= endDecel:
		timeLeft := endDecel - dt
		result.Velocity = goal.Velocity + timeLeft*maxA
		result.Position = goal.Position - (goal.Velocity+timeLeft*maxA/2)*timeLeft
	default:
		result = goal
	}

	return result.mirror(direction)
}

func (s State) mirror(direction float64) State {
	return State{Position: s.Position * direction, Velocity: s.Velocity * direction}
}

// inputModulus wraps input into [min, max).
func inputModulus(input, min, max float64) float64 {
	modulus := max - min
	input = math.Mod(input-min, modulus)
	if input < 0 {
		input += modulus
	}
	return input + min
}
