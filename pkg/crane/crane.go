// Package crane implements the two-axis crane subsystem: a synchronized
// trapezoidal motion controller over the (pivot angle, elevator height)
// configuration plane, plus the startup homing state machine that
// bootstraps absolute position from slow sensors and drives each axis
// into its hard stop.
package crane

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/gwillem/crane/pkg/cache"
	"github.com/gwillem/crane/pkg/control"
	"github.com/gwillem/crane/pkg/geom"
	"github.com/gwillem/crane/pkg/tunable"
)

// HomingState identifies the phase of the startup calibration sequence.
// Craning is the steady operational state.
type HomingState int

const (
	StateEstimateAH    HomingState = iota // wait out sensor settle, estimate (a,h)
	StatePivot0                           // rapid pivot to 0 (straight out)
	StateElevatorRapid                    // rapid elevator down near home
	StateElevatorHome                     // stall-home the elevator
	StatePivotRapid                       // rapid pivot up near home
	StatePivotHome                        // stall-home the pivot
	StateCraning                          // normal operation
)

func (s HomingState) String() string {
	switch s {
	case StateEstimateAH:
		return "estimate-ah"
	case StatePivot0:
		return "pivot-0"
	case StateElevatorRapid:
		return "elevator-rapid"
	case StateElevatorHome:
		return "elevator-home"
	case StatePivotRapid:
		return "pivot-rapid"
	case StatePivotHome:
		return "pivot-home"
	case StateCraning:
		return "craning"
	default:
		return fmt.Sprintf("homing-state(%d)", int(s))
	}
}

type deferredMove struct {
	goal           r2.Point
	pivotTol       Tolerance
	elevatorTol    Tolerance
	pivotFactor    float64
	elevatorFactor float64
	serialNum      int
}

// Crane owns the goal protocol, the homing state machine, and the
// per-tick control loop. It is single-threaded: Periodic and every
// command method must be called from the same goroutine as the tick
// scheduler.
type Crane struct {
	cfg Config
	hw  Hardware
	log *zap.Logger
	now func() time.Time

	aController *control.ProfiledPID
	hController *control.ProfiledPID
	elevatorFF  *control.ElevatorFeedforward

	pivotPos    *cache.Cache[float64]
	pivotVel    *cache.Cache[float64]
	elevatorPos *cache.Cache[float64]
	elevatorVel *cache.Cache[float64]

	goal                  r2.Point
	pivotControlFactor    float64 // 1.0 for position-based control
	elevatorControlFactor float64

	currentSerialNum   int
	velocityControlled bool

	state      HomingState
	deferred   *deferredMove
	initTime   time.Time
	stallStart time.Time // zero while no stall candidate is being timed

	pivotVelocityPIDF    *tunable.PIDF
	pivotVoltagePIDF     *tunable.PIDF
	elevatorVelocityPIDF *tunable.PIDF
	elevatorVoltagePIDF  *tunable.PIDF
	pivotPIDF            *tunable.PIDF
	elevatorPIDF         *tunable.PIDF
	kS, kG, kV           *tunable.Float64
}

// Option customizes a Crane.
type Option func(*Crane)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Crane) { c.log = log }
}

// WithClock replaces the time source, for tests and simulated runs.
func WithClock(now func() time.Time) Option {
	return func(c *Crane) { c.now = now }
}

// New wires a crane subsystem over the given hardware. Gains are
// registered in the tunable store under the "crane." prefix and polled
// once per tick.
func New(cfg Config, hw Hardware, store *tunable.Store, opts ...Option) (*Crane, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Crane{
		cfg: cfg,
		hw:  hw,
		log: zap.NewNop(),
		now: time.Now,

		pivotControlFactor:    1.0,
		elevatorControlFactor: 1.0,
		state:                 StateEstimateAH,

		pivotVelocityPIDF:    store.PIDF("crane.pivotVelocityPIDF", cfg.PivotVelocityPIDF),
		pivotVoltagePIDF:     store.PIDF("crane.pivotVoltagePIDF", cfg.PivotVoltagePIDF),
		elevatorVelocityPIDF: store.PIDF("crane.elevatorVelocityPIDF", cfg.ElevatorVelocityPIDF),
		elevatorVoltagePIDF:  store.PIDF("crane.elevatorVoltagePIDF", cfg.ElevatorVoltagePIDF),
		pivotPIDF:            store.PIDF("crane.pivotPIDF", cfg.PivotPID),
		elevatorPIDF:         store.PIDF("crane.elevatorPIDF", cfg.ElevatorPID),
		kS:                   store.Float64("crane.kS", cfg.FeedforwardKs),
		kG:                   store.Float64("crane.kG", cfg.FeedforwardKg),
		kV:                   store.Float64("crane.kV", cfg.FeedforwardKv),
	}
	for _, opt := range opts {
		opt(c)
	}

	pivotGains := c.pivotPIDF.Get()
	elevatorGains := c.elevatorPIDF.Get()
	// Constraints start zero; they are dynamically scaled every tick.
	c.aController = control.NewProfiledPID(
		pivotGains.P, pivotGains.I, pivotGains.D, control.Constraints{}, cfg.TickPeriod)
	c.hController = control.NewProfiledPID(
		elevatorGains.P, elevatorGains.I, elevatorGains.D, control.Constraints{}, cfg.TickPeriod)
	c.aController.EnableContinuousInput(-math.Pi, math.Pi)

	c.elevatorFF = control.NewElevatorFeedforward(c.kS.Get(), c.kG.Get(), c.kV.Get())

	c.pivotPos = cache.New(func() (float64, error) {
		p, err := hw.Pivot.Position()
		if err != nil {
			return 0, err
		}
		return geom.AngleModulus(p), nil
	}, cfg.CacheTTL).WithClock(func() time.Time { return c.now() })
	c.pivotVel = cache.New(hw.Pivot.Velocity, cfg.CacheTTL).
		WithClock(func() time.Time { return c.now() })
	c.elevatorPos = cache.New(hw.Elevator.Position, cfg.CacheTTL).
		WithClock(func() time.Time { return c.now() })
	c.elevatorVel = cache.New(hw.Elevator.Velocity, cfg.CacheTTL).
		WithClock(func() time.Time { return c.now() })

	// Push the initial gain sets to the motor controllers; afterwards
	// only retuned values are re-sent.
	if err := hw.Pivot.SetVelocityGains(c.pivotVelocityPIDF.Get()); err != nil {
		return nil, fmt.Errorf("configure pivot velocity gains: %w", err)
	}
	if err := hw.Pivot.SetVoltageGains(c.pivotVoltagePIDF.Get()); err != nil {
		return nil, fmt.Errorf("configure pivot voltage gains: %w", err)
	}
	if err := hw.Elevator.SetVelocityGains(c.elevatorVelocityPIDF.Get()); err != nil {
		return nil, fmt.Errorf("configure elevator velocity gains: %w", err)
	}
	if err := hw.Elevator.SetVoltageGains(c.elevatorVoltagePIDF.Get()); err != nil {
		return nil, fmt.Errorf("configure elevator voltage gains: %w", err)
	}

	c.initTime = c.now()
	return c, nil
}

// State returns the homing state machine's current state.
func (c *Crane) State() HomingState { return c.state }

// Goal returns the current target configuration point.
func (c *Crane) Goal() r2.Point { return c.goal }

// Position returns the cached (pivot angle, elevator height) pose.
func (c *Crane) Position() (r2.Point, error) {
	a, err := c.pivotPos.Get()
	if err != nil {
		return r2.Point{}, fmt.Errorf("read pivot position: %w", err)
	}
	h, err := c.elevatorPos.Get()
	if err != nil {
		return r2.Point{}, fmt.Errorf("read elevator position: %w", err)
	}
	return r2.Point{X: a, Y: h}, nil
}

func (c *Crane) velocity() (r2.Point, error) {
	av, err := c.pivotVel.Get()
	if err != nil {
		return r2.Point{}, fmt.Errorf("read pivot velocity: %w", err)
	}
	hv, err := c.elevatorVel.Get()
	if err != nil {
		return r2.Point{}, fmt.Errorf("read elevator velocity: %w", err)
	}
	return r2.Point{X: av, Y: hv}, nil
}

// moveOptions collects the optional MoveTo parameters.
type moveOptions struct {
	pivotTol       Tolerance
	elevatorTol    Tolerance
	pivotFactor    float64
	elevatorFactor float64
}

// MoveOption customizes a MoveTo request.
type MoveOption func(*moveOptions)

// WithTolerances overrides the default per-axis acceptance windows.
func WithTolerances(pivot, elevator Tolerance) MoveOption {
	return func(o *moveOptions) {
		o.pivotTol = pivot
		o.elevatorTol = elevator
	}
}

// WithVelocityFactors marks the request as velocity-style manual control.
// Factors scale each axis's speed and acceleration limits; a unity factor
// on both axes means pure position control.
func WithVelocityFactors(pivot, elevator float64) MoveOption {
	return func(o *moveOptions) {
		o.pivotFactor = pivot
		o.elevatorFactor = elevator
	}
}

// MoveTo requests a move to the goal point and returns the serial number
// identifying the accepted command. While homing is in progress the
// request is parked as the deferred move (replacing any earlier one) and
// applied on entry to the operational state.
func (c *Crane) MoveTo(goal r2.Point, opts ...MoveOption) int {
	o := moveOptions{
		pivotTol:       c.cfg.DefaultPivotTolerance,
		elevatorTol:    c.cfg.DefaultElevatorTolerance,
		pivotFactor:    1.0,
		elevatorFactor: 1.0,
	}
	for _, opt := range opts {
		opt(&o)
	}

	serialNum := c.allocateSerialNum(o.pivotFactor, o.elevatorFactor)
	if c.state != StateCraning {
		c.deferred = &deferredMove{
			goal:           goal,
			pivotTol:       o.pivotTol,
			elevatorTol:    o.elevatorTol,
			pivotFactor:    o.pivotFactor,
			elevatorFactor: o.elevatorFactor,
			serialNum:      serialNum,
		}
		return serialNum
	}
	return c.moveToNow(goal, o.pivotTol, o.elevatorTol, o.pivotFactor, o.elevatorFactor, serialNum)
}

// MovePivotTo moves only the pivot, holding the elevator's commanded
// height.
func (c *Crane) MovePivotTo(pivotAngle float64) int {
	return c.MoveTo(r2.Point{X: pivotAngle, Y: c.goal.Y})
}

// MoveElevatorTo moves only the elevator, holding the pivot's commanded
// angle.
func (c *Crane) MoveElevatorTo(elevatorHeight float64) int {
	return c.MoveTo(r2.Point{X: c.goal.X, Y: elevatorHeight})
}

// Move translates a manual velocity command into a goal at the operating
// envelope boundary. Factors are in [-1, 1]; both zero means hold the
// current position. A velocity ray that misses every boundary segment is
// a configuration inconsistency: it is logged and degraded to a position
// hold.
func (c *Crane) Move(pivotFactor, elevatorFactor float64) error {
	position, err := c.Position()
	if err != nil {
		return err
	}

	if pivotFactor != 0 || elevatorFactor != 0 {
		velocity := r2.Point{
			X: pivotFactor * c.cfg.PivotMaxSpeed,
			Y: elevatorFactor * c.cfg.ElevatorMaxSpeed,
		}
		ray := geom.NewRay(position, velocity)
		for _, boundary := range c.cfg.Boundaries {
			if goal, ok := boundary.Intersect(ray); ok {
				c.MoveTo(goal, WithVelocityFactors(pivotFactor, elevatorFactor))
				return nil
			}
		}
		c.log.Warn("manual move missed all envelope boundaries",
			zap.Float64("pivotFactor", pivotFactor),
			zap.Float64("elevatorFactor", elevatorFactor),
			zap.Float64("a", position.X),
			zap.Float64("h", position.Y))
	}

	// Zero velocity, or outside the envelope; stay at the current position.
	c.MoveTo(position)
	return nil
}

// MovePivot manually drives the pivot axis alone.
func (c *Crane) MovePivot(pivotFactor float64) error {
	return c.Move(pivotFactor, 0)
}

// MoveElevator manually drives the elevator axis alone.
func (c *Crane) MoveElevator(elevatorFactor float64) error {
	return c.Move(0, elevatorFactor)
}

// AtGoal reports whether both axes are within tolerance of the current
// goal, returning the serial number of the satisfied command.
func (c *Crane) AtGoal() (int, bool) {
	if c.aController.AtGoal() && c.hController.AtGoal() {
		return c.currentSerialNum, true
	}
	return 0, false
}

// allocateSerialNum mints the identifier for an accepted command. A run
// of velocity-style requests shares one serial so a held joystick does
// not churn the counter; any position-style request increments it.
func (c *Crane) allocateSerialNum(pivotFactor, elevatorFactor float64) int {
	velocityControl := pivotFactor != 1.0 || elevatorFactor != 1.0
	if velocityControl {
		if !c.velocityControlled {
			c.velocityControlled = true
			c.currentSerialNum++
		}
	} else {
		c.velocityControlled = false
		c.currentSerialNum++
	}
	return c.currentSerialNum
}

// moveToNow applies a goal to the controllers immediately. Factors are
// stored as magnitudes: direction lives in the goal point.
func (c *Crane) moveToNow(goal r2.Point,
	pivotTol, elevatorTol Tolerance,
	pivotFactor, elevatorFactor float64,
	serialNum int) int {
	c.goal = goal
	c.aController.SetGoal(goal.X)
	c.hController.SetGoal(goal.Y)
	c.aController.SetTolerance(pivotTol.Position, c.cfg.TickPeriod*pivotTol.Velocity)
	c.hController.SetTolerance(elevatorTol.Position, c.cfg.TickPeriod*elevatorTol.Velocity)
	c.pivotControlFactor = controlFactor(pivotFactor)
	c.elevatorControlFactor = controlFactor(elevatorFactor)
	return serialNum
}

func controlFactor(f float64) float64 {
	f = math.Abs(f)
	if f == 0 || f > 1 {
		return 1.0
	}
	return f
}

func (c *Crane) movePivotToNow(pivotAngle float64) {
	c.moveToNow(r2.Point{X: pivotAngle, Y: c.goal.Y},
		c.cfg.DefaultPivotTolerance, c.cfg.DefaultElevatorTolerance, 1.0, 1.0, 0)
}

func (c *Crane) moveElevatorToNow(elevatorHeight float64) {
	c.moveToNow(r2.Point{X: c.goal.X, Y: elevatorHeight},
		c.cfg.DefaultPivotTolerance, c.cfg.DefaultElevatorTolerance, 1.0, 1.0, 0)
}

// scaleConstraints rescales both axis profiles so their movements are
// predicted to complete simultaneously, tracing a straight line in the
// configuration plane. Travel time is estimated as distance over scaled
// max speed; current velocity and acceleration are ignored since the
// acceleration limits scale proportionally and do not bias the ratio.
func (c *Crane) scaleConstraints(deviation r2.Point) {
	pivotTime := axisTime(deviation.X, c.cfg.PivotMaxSpeed, c.pivotControlFactor)
	elevatorTime := axisTime(deviation.Y, c.cfg.ElevatorMaxSpeed, c.elevatorControlFactor)
	maxTime := math.Max(pivotTime, elevatorTime)

	// Zero travel on an axis (or on both) must not zero its constraints.
	aFactor, hFactor := 1.0, 1.0
	if maxTime > 0 {
		if pivotTime > 0 {
			aFactor = pivotTime / maxTime
		}
		if elevatorTime > 0 {
			hFactor = elevatorTime / maxTime
		}
	}

	c.aController.SetConstraints(control.Constraints{
		MaxVelocity:     aFactor * c.cfg.PivotMaxSpeed * c.pivotControlFactor,
		MaxAcceleration: aFactor * c.cfg.PivotMaxAccel * c.pivotControlFactor,
	})
	c.hController.SetConstraints(control.Constraints{
		MaxVelocity:     hFactor * c.cfg.ElevatorMaxSpeed * c.elevatorControlFactor,
		MaxAcceleration: hFactor * c.cfg.ElevatorMaxAccel * c.elevatorControlFactor,
	})
}

func axisTime(distance, maxSpeed, factor float64) float64 {
	if distance == 0 || factor == 0 {
		return 0
	}
	return math.Abs(distance) / (maxSpeed * factor)
}

// resetCrane re-seeds both profile controllers at the live position and
// velocity.
func (c *Crane) resetCrane() error {
	position, err := c.Position()
	if err != nil {
		return err
	}
	velocity, err := c.velocity()
	if err != nil {
		return err
	}
	c.scaleConstraints(c.goal.Sub(position))
	c.aController.Reset(position.X, velocity.X)
	c.hController.Reset(position.Y, velocity.Y)
	return nil
}

// crane runs one tick of the synchronized closed-loop motion.
func (c *Crane) crane() error {
	position, err := c.Position()
	if err != nil {
		return err
	}
	c.scaleConstraints(c.goal.Sub(position))

	aVelocity := c.aController.Calculate(position.X)
	hVelocity := c.hController.Calculate(position.Y)

	elevatorVelocity, err := c.elevatorVel.Get()
	if err != nil {
		return fmt.Errorf("read elevator velocity: %w", err)
	}
	feedforward := c.elevatorFF.CalculateWithVelocities(
		elevatorVelocity, c.hController.Setpoint().Velocity)

	if err := c.hw.Pivot.SetVelocitySetpoint(aVelocity, 0); err != nil {
		return fmt.Errorf("command pivot velocity: %w", err)
	}
	if err := c.hw.Elevator.SetVelocitySetpoint(hVelocity, feedforward); err != nil {
		return fmt.Errorf("command elevator velocity: %w", err)
	}
	return nil
}

// initPivotPosition re-zeros the pivot encoder, flushes the stale cached
// reading, and re-seeds the controllers.
func (c *Crane) initPivotPosition(a float64) error {
	if err := c.hw.Pivot.SetEncoderPosition(a); err != nil {
		return fmt.Errorf("zero pivot encoder: %w", err)
	}
	c.pivotPos.Flush()
	c.goal.X = a
	return c.resetCrane()
}

func (c *Crane) initElevatorPosition(h float64) error {
	if err := c.hw.Elevator.SetEncoderPosition(h); err != nil {
		return fmt.Errorf("zero elevator encoder: %w", err)
	}
	c.elevatorPos.Flush()
	c.goal.Y = h
	return c.resetCrane()
}

func (c *Crane) pivotAbsRadians() (float64, error) {
	a, err := c.hw.PivotAbsEncoder.Radians()
	if err != nil {
		return 0, fmt.Errorf("read pivot absolute encoder: %w", err)
	}
	return geom.AngleModulus(a), nil
}

func (c *Crane) elevatorLidarHeight() (float64, error) {
	d, err := c.hw.ElevatorDistance.DistanceMeters()
	if err != nil {
		return 0, fmt.Errorf("read elevator distance sensor: %w", err)
	}
	return c.cfg.DistanceSensorBase + d, nil
}

func (c *Crane) setState(s HomingState) {
	if s != c.state {
		c.log.Info("crane state transition",
			zap.Stringer("from", c.state), zap.Stringer("to", s))
	}
	c.state = s
}

func (c *Crane) toStateCraning() {
	if c.deferred != nil {
		d := c.deferred
		c.moveToNow(d.goal, d.pivotTol, d.elevatorTol,
			d.pivotFactor, d.elevatorFactor, d.serialNum)
		c.deferred = nil
	}
	c.setState(StateCraning)
}

func (c *Crane) toStatePivot0() error {
	a, err := c.pivotPos.Get()
	if err != nil {
		return fmt.Errorf("read pivot position: %w", err)
	}
	if a < 0 {
		c.movePivotToNow(0)
		c.setState(StatePivot0)
		return nil
	}
	return c.toStateElevatorRapid()
}

func (c *Crane) toStateElevatorRapid() error {
	h, err := c.elevatorPos.Get()
	if err != nil {
		return fmt.Errorf("read elevator position: %w", err)
	}
	if h > c.cfg.ElevatorHomeRapid {
		c.moveElevatorToNow(c.cfg.ElevatorHomeRapid)
		c.setState(StateElevatorRapid)
		return nil
	}
	return c.toStateElevatorHome()
}

func (c *Crane) toStateElevatorHome() error {
	// Low voltage, downward, open loop.
	if err := c.hw.Elevator.SetVoltage(c.cfg.ElevatorHomingVoltage); err != nil {
		return fmt.Errorf("command elevator homing voltage: %w", err)
	}
	c.setState(StateElevatorHome)
	return nil
}

func (c *Crane) toStatePivotRapid() error {
	a, err := c.pivotPos.Get()
	if err != nil {
		return fmt.Errorf("read pivot position: %w", err)
	}
	if a < c.cfg.PivotHomeRapid {
		c.movePivotToNow(c.cfg.PivotHomeRapid)
		c.setState(StatePivotRapid)
		return nil
	}
	return c.toStatePivotHome()
}

func (c *Crane) toStatePivotHome() error {
	if err := c.hw.Pivot.SetVoltage(c.cfg.PivotHomingVoltage); err != nil {
		return fmt.Errorf("command pivot homing voltage: %w", err)
	}
	c.setState(StatePivotHome)
	return nil
}

// superviseStall watches the motor's output current for a debounced
// stall. Any reading below the threshold restarts the debounce, so
// transient spikes from static friction breakaway are rejected while
// genuine contact with the hard stop still triggers.
func (c *Crane) superviseStall(m Motor, threshold float64, debounce time.Duration, onStall func() error) error {
	current, err := m.OutputCurrent()
	if err != nil {
		return fmt.Errorf("read motor output current: %w", err)
	}
	if current < threshold {
		c.stallStart = time.Time{}
		return nil
	}
	now := c.now()
	if c.stallStart.IsZero() {
		c.stallStart = now
		return nil
	}
	if now.Sub(c.stallStart) >= debounce {
		c.stallStart = time.Time{}
		return onStall()
	}
	return nil
}

// Periodic is the fixed-rate tick entry point. Exactly one invocation
// runs per control period; gains are polled and applied before any
// control math so a gain never changes mid-computation.
func (c *Crane) Periodic() error {
	if err := c.updateGains(); err != nil {
		return err
	}

	switch c.state {
	case StateCraning:
		return c.crane()

	case StateEstimateAH:
		// Give the absolute encoder time to settle before trusting it.
		if c.now().Sub(c.initTime) < c.cfg.SettleDelay {
			return nil
		}
		a, err := c.pivotAbsRadians()
		if err != nil {
			return err
		}
		if err := c.initPivotPosition(a); err != nil {
			return err
		}
		h, err := c.elevatorLidarHeight()
		if err != nil {
			return err
		}
		if err := c.initElevatorPosition(h); err != nil {
			return err
		}
		return c.toStatePivot0()

	case StatePivot0:
		if err := c.crane(); err != nil {
			return err
		}
		if c.aController.AtGoal() {
			return c.toStateElevatorRapid()
		}
		return nil

	case StateElevatorRapid:
		if err := c.crane(); err != nil {
			return err
		}
		if c.hController.AtGoal() {
			return c.toStateElevatorHome()
		}
		return nil

	case StateElevatorHome:
		return c.superviseStall(c.hw.Elevator,
			c.cfg.ElevatorStallCurrent, c.cfg.ElevatorStallDebounce,
			func() error {
				if err := c.hw.Elevator.Stop(); err != nil {
					return fmt.Errorf("stop elevator motor: %w", err)
				}
				if err := c.initElevatorPosition(c.cfg.ElevatorHardMin); err != nil {
					return err
				}
				c.moveElevatorToNow(c.cfg.ElevatorHome)
				return c.toStatePivotRapid()
			})

	case StatePivotRapid:
		if err := c.crane(); err != nil {
			return err
		}
		if c.aController.AtGoal() {
			return c.toStatePivotHome()
		}
		return nil

	case StatePivotHome:
		return c.superviseStall(c.hw.Pivot,
			c.cfg.PivotStallCurrent, c.cfg.PivotStallDebounce,
			func() error {
				a, err := c.pivotAbsRadians()
				if err != nil {
					return err
				}
				// The arm flexes against the stop; compensate before
				// trusting the absolute reading.
				if err := c.initPivotPosition(a + c.cfg.PivotFlexOffset); err != nil {
					return err
				}
				if err := c.hw.Pivot.Stop(); err != nil {
					return fmt.Errorf("stop pivot motor: %w", err)
				}
				c.movePivotToNow(c.cfg.PivotHome)
				c.toStateCraning()
				return nil
			})
	}
	return nil
}

// updateGains applies any parameters retuned since the previous tick.
func (c *Crane) updateGains() error {
	if c.pivotVelocityPIDF.HasChanged() {
		if err := c.hw.Pivot.SetVelocityGains(c.pivotVelocityPIDF.Get()); err != nil {
			return fmt.Errorf("configure pivot velocity gains: %w", err)
		}
	}
	if c.pivotVoltagePIDF.HasChanged() {
		if err := c.hw.Pivot.SetVoltageGains(c.pivotVoltagePIDF.Get()); err != nil {
			return fmt.Errorf("configure pivot voltage gains: %w", err)
		}
	}
	if c.elevatorVelocityPIDF.HasChanged() {
		if err := c.hw.Elevator.SetVelocityGains(c.elevatorVelocityPIDF.Get()); err != nil {
			return fmt.Errorf("configure elevator velocity gains: %w", err)
		}
	}
	if c.elevatorVoltagePIDF.HasChanged() {
		if err := c.hw.Elevator.SetVoltageGains(c.elevatorVoltagePIDF.Get()); err != nil {
			return fmt.Errorf("configure elevator voltage gains: %w", err)
		}
	}
	if c.kS.HasChanged() {
		c.elevatorFF.SetKs(c.kS.Get())
	}
	if c.kG.HasChanged() {
		c.elevatorFF.SetKg(c.kG.Get())
	}
	if c.kV.HasChanged() {
		c.elevatorFF.SetKv(c.kV.Get())
	}
	if c.pivotPIDF.HasChanged() {
		g := c.pivotPIDF.Get()
		c.aController.SetPID(g.P, g.I, g.D)
	}
	if c.elevatorPIDF.HasChanged() {
		g := c.elevatorPIDF.Get()
		c.hController.SetPID(g.P, g.I, g.D)
	}
	return nil
}
