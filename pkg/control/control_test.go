package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 0.02

func TestProfileReachesGoal(t *testing.T) {
	p := Profile{Constraints: Constraints{MaxVelocity: 1.0, MaxAcceleration: 2.0}}
	state := State{}
	goal := State{Position: 1.5}

	peak := 0.0
	for i := 0; i < 1500; i++ {
		state = p.Calculate(dt, state, goal)
		peak = math.Max(peak, state.Velocity)
		if state == goal {
			break
		}
	}
	assert.Equal(t, goal, state, "profile should settle exactly at the goal")
	assert.LessOrEqual(t, peak, 1.0+1e-9, "cruise velocity must respect the constraint")
	assert.Greater(t, peak, 0.9, "a 1.5 unit move should reach cruise speed")
}

func TestProfileNegativeDirection(t *testing.T) {
	p := Profile{Constraints: Constraints{MaxVelocity: 1.0, MaxAcceleration: 2.0}}
	state := State{Position: 1.0}
	goal := State{Position: -1.0}

	state = p.Calculate(dt, state, goal)
	assert.Negative(t, state.Velocity)
	assert.Less(t, state.Position, 1.0)
}

func TestProfileTriangleMove(t *testing.T) {
	// Short move: cannot reach cruise speed, profile degenerates to a
	// triangle but still lands on the goal.
	p := Profile{Constraints: Constraints{MaxVelocity: 10.0, MaxAcceleration: 1.0}}
	state := State{}
	goal := State{Position: 0.25}

	peak := 0.0
	for i := 0; i < 5000; i++ {
		state = p.Calculate(dt, state, goal)
		peak = math.Max(peak, state.Velocity)
		if state == goal {
			break
		}
	}
	assert.Equal(t, goal, state)
	assert.Less(t, peak, 1.0, "triangle profile should stay well below cruise limit")
}

func TestProfileDegenerateConstraintsHold(t *testing.T) {
	p := Profile{}
	state := State{Position: 0.4, Velocity: 0.1}
	assert.Equal(t, state, p.Calculate(dt, state, State{Position: 2.0}))
}

func TestPIDContinuousErrorWrap(t *testing.T) {
	// An error across the +/-pi seam must compute as a small deviation,
	// not nearly a full turn.
	c := NewPID(1.0, 0, 0)
	c.EnableContinuousInput(-math.Pi, math.Pi)

	eps := 0.01
	out := c.Calculate(math.Pi-eps, -math.Pi+eps)
	assert.InDelta(t, 2*eps, out, 1e-9, "wrap-through error should be 2*eps")
}

func TestPIDAtSetpointTolerance(t *testing.T) {
	c := NewPID(1.0, 0, 0)
	c.SetTolerance(0.05, 0.01)

	assert.False(t, c.AtSetpoint(), "never at setpoint before first Calculate")

	c.Calculate(0.96, 1.0)
	assert.False(t, c.AtSetpoint(), "first tick has a full error delta")

	c.Calculate(0.96, 1.0)
	assert.True(t, c.AtSetpoint(), "within position tolerance, zero drift")

	c.Calculate(0.90, 1.0)
	assert.False(t, c.AtSetpoint(), "outside position tolerance")
}

func TestProfiledPIDShortestPath(t *testing.T) {
	c := NewProfiledPID(1.0, 0, 0, Constraints{MaxVelocity: 4.0, MaxAcceleration: 8.0}, dt)
	c.EnableContinuousInput(-math.Pi, math.Pi)

	start := math.Pi - 0.05
	c.Reset(start, 0)
	c.SetGoal(-math.Pi + 0.05)

	out := c.Calculate(start)
	assert.Positive(t, out, "controller should wrap forward through pi, not swing back")
}

func TestProfiledPIDSetConstraintsKeepsSetpoint(t *testing.T) {
	c := NewProfiledPID(1.0, 0, 0, Constraints{MaxVelocity: 1.0, MaxAcceleration: 2.0}, dt)
	c.Reset(0, 0)
	c.SetGoal(1.0)

	for i := 0; i < 10; i++ {
		c.Calculate(c.Setpoint().Position)
	}
	before := c.Setpoint()
	require.Positive(t, before.Velocity)

	c.SetConstraints(Constraints{MaxVelocity: 0.5, MaxAcceleration: 1.0})
	c.Calculate(before.Position)
	after := c.Setpoint()
	assert.Greater(t, after.Position, before.Position, "profile keeps advancing after rescale")
}

func TestProfiledPIDAtGoal(t *testing.T) {
	c := NewProfiledPID(2.0, 0, 0, Constraints{MaxVelocity: 2.0, MaxAcceleration: 4.0}, dt)
	c.SetTolerance(0.02, 0.01)
	c.Reset(0, 0)
	c.SetGoal(0.5)

	pos := 0.0
	for i := 0; i < 2000 && !c.AtGoal(); i++ {
		// Ideal plant: track the profile setpoint exactly.
		c.Calculate(pos)
		pos = c.Setpoint().Position
	}
	assert.True(t, c.AtGoal())

	// A new goal supersedes a satisfied one immediately.
	c.SetGoal(1.0)
	c.Calculate(pos)
	assert.False(t, c.AtGoal())
}

func TestElevatorFeedforward(t *testing.T) {
	ff := NewElevatorFeedforward(0.2, 0.8, 1.5)

	assert.InDelta(t, 0.8, ff.CalculateWithVelocities(0, 0), 1e-9, "at rest only gravity holds")
	assert.InDelta(t, 0.2+0.8+1.5*0.4, ff.CalculateWithVelocities(0.4, 0.4), 1e-9)
	assert.InDelta(t, -0.2+0.8+1.5*-0.4, ff.CalculateWithVelocities(-0.4, -0.4), 1e-9)

	ff.SetKg(1.0)
	assert.InDelta(t, 1.0, ff.CalculateWithVelocities(0, 0), 1e-9)
}
