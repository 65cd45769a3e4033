package control

import "math"

// PID is a discrete PID controller stepped once per control tick. The
// derivative term and the velocity tolerance operate on the per-tick
// error delta.
type PID struct {
	kp, ki, kd float64

	continuous         bool
	minInput, maxInput float64

	posTolerance float64
	velTolerance float64

	totalError float64
	prevError  float64
	err        float64
	errDelta   float64
	primed     bool
}

// NewPID returns a PID controller with the given gains and unlimited
// tolerances.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		kp:           kp,
		ki:           ki,
		kd:           kd,
		posTolerance: math.Inf(1),
		velTolerance: math.Inf(1),
	}
}

// SetPID replaces the gains without disturbing accumulated state.
func (c *PID) SetPID(kp, ki, kd float64) {
	c.kp, c.ki, c.kd = kp, ki, kd
}

// EnableContinuousInput treats the input range as circular, wrapping the
// error through the shortest direction across the min/max boundary.
func (c *PID) EnableContinuousInput(min, max float64) {
	c.continuous = true
	c.minInput = min
	c.maxInput = max
}

// SetTolerance sets the acceptance window for AtSetpoint. velocity is the
// allowed per-tick error delta.
func (c *PID) SetTolerance(position, velocity float64) {
	c.posTolerance = position
	c.velTolerance = velocity
}

// Calculate steps the controller and returns the control output.
func (c *PID) Calculate(measurement, setpoint float64) float64 {
	e := setpoint - measurement
	if c.continuous {
		errBound := (c.maxInput - c.minInput) / 2
		e = inputModulus(e, -errBound, errBound)
	}
	c.errDelta = e - c.prevError
	c.prevError = e
	c.err = e
	c.totalError += e
	c.primed = true
	return c.kp*e + c.ki*c.totalError + c.kd*c.errDelta
}

// AtSetpoint reports whether the last measurement was within tolerance of
// the setpoint. Never true before the first Calculate.
func (c *PID) AtSetpoint() bool {
	return c.primed &&
		math.Abs(c.err) <= c.posTolerance &&
		math.Abs(c.errDelta) <= c.velTolerance
}

// Reset clears accumulated integral and derivative state.
func (c *PID) Reset() {
	c.totalError = 0
	c.prevError = 0
	c.err = 0
	c.errDelta = 0
	c.primed = false
}

// ProfiledPID is a position controller whose setpoint follows a
// trapezoidal profile toward the goal, with PID feedback against the
// evolving setpoint.
type ProfiledPID struct {
	pid         *PID
	constraints Constraints
	period      float64

	goal     State
	setpoint State

	continuous         bool
	minInput, maxInput float64
}

// NewProfiledPID returns a profiled controller stepped every period
// seconds. Constraints are typically rescaled every tick via
// SetConstraints.
func NewProfiledPID(kp, ki, kd float64, constraints Constraints, period float64) *ProfiledPID {
	return &ProfiledPID{
		pid:         NewPID(kp, ki, kd),
		constraints: constraints,
		period:      period,
	}
}

// SetPID replaces the feedback gains in place.
func (c *ProfiledPID) SetPID(kp, ki, kd float64) {
	c.pid.SetPID(kp, ki, kd)
}

// EnableContinuousInput makes the position domain circular over
// [min, max], e.g. (-pi, pi] for an angle axis.
func (c *ProfiledPID) EnableContinuousInput(min, max float64) {
	c.continuous = true
	c.minInput = min
	c.maxInput = max
	c.pid.EnableContinuousInput(min, max)
}

// SetGoal sets the profile's target position with zero target velocity.
func (c *ProfiledPID) SetGoal(position float64) {
	c.goal = State{Position: position}
}

// Goal returns the current profile goal.
func (c *ProfiledPID) Goal() State { return c.goal }

// Setpoint returns the profile's current intermediate setpoint.
func (c *ProfiledPID) Setpoint() State { return c.setpoint }

// SetTolerance sets the AtGoal acceptance window. velocity is the allowed
// per-tick position drift.
func (c *ProfiledPID) SetTolerance(position, velocity float64) {
	c.pid.SetTolerance(position, velocity)
}

// SetConstraints replaces the profile limits. Safe to call every tick;
// in-flight profile state is preserved.
func (c *ProfiledPID) SetConstraints(constraints Constraints) {
	c.constraints = constraints
}

// Reset re-seeds the profile at the given position and velocity. Call
// whenever the axis is re-homed or control is freshly engaged.
func (c *ProfiledPID) Reset(position, velocity float64) {
	c.setpoint = State{Position: position, Velocity: velocity}
	c.pid.Reset()
}

// Calculate advances the profile one tick and returns the commanded
// velocity for the axis.
func (c *ProfiledPID) Calculate(measurement float64) float64 {
	if c.continuous {
		// Relabel goal and setpoint into the half-turn around the
		// measurement so the profile takes the shortest direction.
		errBound := (c.maxInput - c.minInput) / 2
		goalMin := inputModulus(c.goal.Position-measurement, -errBound, errBound)
		setpointMin := inputModulus(c.setpoint.Position-measurement, -errBound, errBound)
		c.goal.Position = goalMin + measurement
		c.setpoint.Position = setpointMin + measurement
	}
	profile := Profile{Constraints: c.constraints}
	c.setpoint = profile.Calculate(c.period, c.setpoint, c.goal)
	return c.setpoint.Velocity + c.pid.Calculate(measurement, c.setpoint.Position)
}

// AtGoal reports whether the profile has arrived and the live measurement
// is within tolerance of the goal.
func (c *ProfiledPID) AtGoal() bool {
	return c.pid.AtSetpoint() && c.setpoint == c.goal
}
