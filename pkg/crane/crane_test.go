package crane_test

import (
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/crane/pkg/crane"
	"github.com/gwillem/crane/pkg/geom"
	"github.com/gwillem/crane/pkg/tunable"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

// stubMotor is a hand-steered motor: tests set sensor values directly
// and optionally integrate commanded velocities.
type stubMotor struct {
	pos, vel, current float64

	mode    string // "", "velocity", "voltage", "stopped"
	velCmd  float64
	ff      float64
	volts   float64
	stopped int
}

func (m *stubMotor) Position() (float64, error)      { return m.pos, nil }
func (m *stubMotor) Velocity() (float64, error)      { return m.vel, nil }
func (m *stubMotor) OutputCurrent() (float64, error) { return m.current, nil }

func (m *stubMotor) SetVelocitySetpoint(velocity, feedforward float64) error {
	m.mode = "velocity"
	m.velCmd = velocity
	m.ff = feedforward
	return nil
}

func (m *stubMotor) SetVoltage(volts float64) error {
	m.mode = "voltage"
	m.volts = volts
	return nil
}

func (m *stubMotor) Stop() error {
	m.mode = "stopped"
	m.velCmd = 0
	m.volts = 0
	m.stopped++
	return nil
}

func (m *stubMotor) SetEncoderPosition(position float64) error {
	m.pos = position
	return nil
}

func (m *stubMotor) SetVelocityGains(g tunable.Gains) error { return nil }
func (m *stubMotor) SetVoltageGains(g tunable.Gains) error  { return nil }

// step integrates the last commanded velocity, emulating an ideal
// closed-loop velocity drive.
func (m *stubMotor) step(dt float64) {
	if m.mode == "velocity" {
		m.pos += m.velCmd * dt
		m.vel = m.velCmd
	}
}

type stubAbs struct{ a float64 }

func (s *stubAbs) Radians() (float64, error) { return s.a, nil }

type stubDist struct{ d float64 }

func (s *stubDist) DistanceMeters() (float64, error) { return s.d, nil }

type rig struct {
	crane    *crane.Crane
	pivot    *stubMotor
	elevator *stubMotor
	abs      *stubAbs
	dist     *stubDist
	clock    *fakeClock
	cfg      crane.Config
}

func newRig(t *testing.T, cfg crane.Config) *rig {
	t.Helper()
	r := &rig{
		pivot:    &stubMotor{pos: 1.3},
		elevator: &stubMotor{pos: 0.1},
		abs:      &stubAbs{a: 1.3},
		dist:     &stubDist{d: 0.1},
		clock:    newFakeClock(),
		cfg:      cfg,
	}
	hw := crane.Hardware{
		Pivot:            r.pivot,
		Elevator:         r.elevator,
		PivotAbsEncoder:  r.abs,
		ElevatorDistance: r.dist,
	}
	c, err := crane.New(cfg, hw, tunable.NewStore(), crane.WithClock(r.clock.now))
	require.NoError(t, err)
	r.crane = c
	return r
}

// tick advances the clock one period and runs Periodic.
func (r *rig) tick(t *testing.T) {
	t.Helper()
	r.clock.advance(time.Duration(r.cfg.TickPeriod * float64(time.Second)))
	require.NoError(t, r.crane.Periodic())
	r.pivot.step(r.cfg.TickPeriod)
	r.elevator.step(r.cfg.TickPeriod)
}

// home drives the stub rig through the whole homing sequence. The stub
// starts at a=1.3, h=0.1 so the rapid states skip and only the two
// stall-homed states need simulating.
func (r *rig) home(t *testing.T) {
	t.Helper()

	r.clock.advance(r.cfg.SettleDelay)
	require.NoError(t, r.crane.Periodic())
	require.Equal(t, crane.StateElevatorHome, r.crane.State(),
		"a=1.3 and h=0.1 should skip both rapid states")

	r.elevator.current = r.cfg.ElevatorStallCurrent + 5
	require.NoError(t, r.crane.Periodic()) // debounce starts
	r.clock.advance(r.cfg.ElevatorStallDebounce + 20*time.Millisecond)
	require.NoError(t, r.crane.Periodic())
	require.Equal(t, crane.StatePivotHome, r.crane.State(),
		"a=1.3 >= rapid threshold skips PivotRapid")
	r.elevator.current = 0

	r.pivot.current = r.cfg.PivotStallCurrent + 5
	require.NoError(t, r.crane.Periodic())
	r.clock.advance(r.cfg.PivotStallDebounce + 20*time.Millisecond)
	require.NoError(t, r.crane.Periodic())
	require.Equal(t, crane.StateCraning, r.crane.State())
	r.pivot.current = 0
}

func TestHomingDeferredMoveLatestWins(t *testing.T) {
	r := newRig(t, crane.DefaultConfig())

	first := r.crane.MoveTo(r2.Point{X: 0.5, Y: 0.5})
	second := r.crane.MoveTo(r2.Point{X: 1.2, Y: 0.2})
	assert.Equal(t, first+1, second)

	r.home(t)

	// Only the most recent deferred request is applied.
	assert.Equal(t, r2.Point{X: 1.2, Y: 0.2}, r.crane.Goal())

	// Track the deferred goal to completion and confirm its serial.
	var serial int
	var done bool
	for i := 0; i < 2000 && !done; i++ {
		r.tick(t)
		serial, done = r.crane.AtGoal()
	}
	require.True(t, done, "crane never settled on the deferred goal")
	assert.Equal(t, second, serial)
}

func TestHomingWithoutCommandsHoldsHome(t *testing.T) {
	cfg := crane.DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)

	assert.InDelta(t, cfg.PivotHome, r.crane.Goal().X, 1e-9)
	assert.InDelta(t, cfg.ElevatorHome, r.crane.Goal().Y, 1e-9)

	// Homing stopped each motor exactly once at its hard stop.
	assert.Equal(t, 1, r.pivot.stopped)
	assert.Equal(t, 1, r.elevator.stopped)
}

func TestSerialNumberCoalescing(t *testing.T) {
	r := newRig(t, crane.DefaultConfig())
	goal := r2.Point{X: 0.5, Y: 0.5}

	s1 := r.crane.MoveTo(goal, crane.WithVelocityFactors(0.5, 0.5))
	s2 := r.crane.MoveTo(goal, crane.WithVelocityFactors(0.5, 0.5))
	s3 := r.crane.MoveTo(goal, crane.WithVelocityFactors(0.4, 0.1))
	assert.Equal(t, s1, s2, "held joystick must not churn serials")
	assert.Equal(t, s1, s3, "changing factors stays within the velocity run")

	s4 := r.crane.MoveTo(goal)
	assert.Equal(t, s1+1, s4, "discrete move ends the velocity run")

	s5 := r.crane.MoveTo(goal, crane.WithVelocityFactors(0.5, 0.5))
	assert.Equal(t, s4+1, s5, "a new velocity run mints one serial")
	s6 := r.crane.MoveTo(goal, crane.WithVelocityFactors(0.5, 0.5))
	assert.Equal(t, s5, s6)
}

func TestStallDebounceRestartsOnDrop(t *testing.T) {
	cfg := crane.DefaultConfig()
	r := newRig(t, cfg)

	r.clock.advance(cfg.SettleDelay)
	require.NoError(t, r.crane.Periodic())
	require.Equal(t, crane.StateElevatorHome, r.crane.State())

	// Exactly at threshold counts as stalled, but not yet for long enough.
	r.elevator.current = cfg.ElevatorStallCurrent
	require.NoError(t, r.crane.Periodic())
	r.clock.advance(60 * time.Millisecond)
	require.NoError(t, r.crane.Periodic())
	assert.Equal(t, crane.StateElevatorHome, r.crane.State())

	// A dip below threshold restarts the debounce.
	r.elevator.current = cfg.ElevatorStallCurrent - 10
	r.clock.advance(10 * time.Millisecond)
	require.NoError(t, r.crane.Periodic())

	r.elevator.current = cfg.ElevatorStallCurrent
	r.clock.advance(10 * time.Millisecond)
	require.NoError(t, r.crane.Periodic())
	r.clock.advance(60 * time.Millisecond)
	require.NoError(t, r.crane.Periodic())
	assert.Equal(t, crane.StateElevatorHome, r.crane.State(),
		"only 60ms continuous after the dip; spikes must not accumulate")

	r.clock.advance(60 * time.Millisecond)
	require.NoError(t, r.crane.Periodic())
	assert.Equal(t, crane.StatePivotHome, r.crane.State(),
		"sustained stall past the debounce triggers exactly one transition")
}

func TestSynchronizedAxesFinishTogether(t *testing.T) {
	cfg := crane.DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)

	goal := r2.Point{X: -0.2, Y: 0.9}
	r.crane.MoveTo(goal)

	// Unscaled travel times differ by ~2x (pivot 1.485/2.0 s, elevator
	// 0.8/0.5 s); after scaling both should land at about the same tick.
	pivotDone, elevatorDone := -1, -1
	for i := 0; i < 3000 && (pivotDone < 0 || elevatorDone < 0); i++ {
		r.tick(t)
		if pivotDone < 0 && math.Abs(r.pivot.pos-goal.X) < 0.01 {
			pivotDone = i
		}
		if elevatorDone < 0 && math.Abs(r.elevator.pos-goal.Y) < 0.01 {
			elevatorDone = i
		}
	}
	require.GreaterOrEqual(t, pivotDone, 0, "pivot never arrived")
	require.GreaterOrEqual(t, elevatorDone, 0, "elevator never arrived")

	slowest := math.Max(float64(pivotDone), float64(elevatorDone))
	gap := math.Abs(float64(pivotDone - elevatorDone))
	assert.LessOrEqual(t, gap, 0.3*slowest,
		"axes should complete nearly simultaneously (pivot %d, elevator %d ticks)",
		pivotDone, elevatorDone)
}

func TestAtGoalSupersededImmediately(t *testing.T) {
	r := newRig(t, crane.DefaultConfig())
	r.home(t)

	goal := r2.Point{X: 1.2, Y: 0.2}
	serial := r.crane.MoveTo(goal)

	var got int
	var done bool
	for i := 0; i < 2000 && !done; i++ {
		r.tick(t)
		got, done = r.crane.AtGoal()
	}
	require.True(t, done)
	assert.Equal(t, serial, got)

	// A new goal supersedes the satisfied one on the spot.
	r.crane.MoveTo(r2.Point{X: 0.4, Y: 0.8})
	_, done = r.crane.AtGoal()
	assert.False(t, done)
}

func TestManualDriveMapsToBoundary(t *testing.T) {
	cfg := crane.DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	settle(t, r)

	pos, err := r.crane.Position()
	require.NoError(t, err)

	// Pure negative pivot drive: the goal is the left wall at the
	// current height.
	require.NoError(t, r.crane.Move(-1, 0))
	assert.InDelta(t, -0.4, r.crane.Goal().X, 1e-9)
	assert.InDelta(t, pos.Y, r.crane.Goal().Y, 1e-9)

	// Pure upward drive: the top wall at the current angle.
	require.NoError(t, r.crane.Move(0, 1))
	pos, err = r.crane.Position()
	require.NoError(t, err)
	assert.InDelta(t, pos.X, r.crane.Goal().X, 1e-9)
	assert.InDelta(t, 1.15, r.crane.Goal().Y, 1e-9)
}

func TestManualDriveZeroHoldsPosition(t *testing.T) {
	r := newRig(t, crane.DefaultConfig())
	r.home(t)
	settle(t, r)

	pos, err := r.crane.Position()
	require.NoError(t, err)
	require.NoError(t, r.crane.Move(0, 0))
	assert.Equal(t, pos, r.crane.Goal())
}

func TestManualDriveEnvelopeMissHoldsPosition(t *testing.T) {
	cfg := crane.DefaultConfig()
	// A broken envelope nowhere near the crane's pose.
	cfg.Boundaries = geom.Box(r2.Point{X: -3, Y: -3}, r2.Point{X: -2, Y: -2})
	r := newRig(t, cfg)
	r.home(t)
	settle(t, r)

	pos, err := r.crane.Position()
	require.NoError(t, err)
	require.NoError(t, r.crane.Move(1, 0))
	assert.Equal(t, pos, r.crane.Goal(),
		"an envelope miss degrades to a position hold")
}

func TestManualDriveSerialStableAcrossTicks(t *testing.T) {
	r := newRig(t, crane.DefaultConfig())
	r.home(t)

	before := r.crane.MoveTo(r2.Point{X: 1.2, Y: 0.3})
	settle(t, r)

	// Joystick held across consecutive ticks re-issues the move every
	// tick; the whole run must consume a single serial.
	for i := 0; i < 5; i++ {
		require.NoError(t, r.crane.Move(0, 0.5))
		r.tick(t)
	}
	after := r.crane.MoveTo(r2.Point{X: 1.2, Y: 0.3})
	assert.Equal(t, before+2, after,
		"five manual ticks must mint exactly one serial")
}

// settle runs ticks until the crane reports AtGoal, so tests start from
// a quiescent pose.
func settle(t *testing.T, r *rig) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		r.tick(t)
		if _, done := r.crane.AtGoal(); done {
			return
		}
	}
	t.Fatal("crane never settled")
}
