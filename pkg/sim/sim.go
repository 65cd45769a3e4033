// Package sim provides a simulated two-axis crane plant implementing the
// subsystem's hardware interfaces. Axes integrate commanded motion
// between hard stops, and a voltage drive pressed into a stop draws a
// stall current, so the homing sequence runs end to end without
// hardware.
package sim

import (
	"math"

	"github.com/gwillem/crane/pkg/crane"
	"github.com/gwillem/crane/pkg/tunable"
)

// AxisConfig describes one simulated axis.
type AxisConfig struct {
	Min, Max        float64 // hard stop positions
	VelocityPerVolt float64 // open-loop speed per volt
	StallCurrent    float64 // current drawn against a hard stop
	RunningCurrent  float64 // nominal current while moving
	EncoderOffset   float64 // initial relative-encoder error
}

// Config describes the simulated crane.
type Config struct {
	Pivot              AxisConfig
	Elevator           AxisConfig
	DistanceSensorBase float64
	PivotStartAngle    float64
	ElevatorStartHeight float64
}

// DefaultConfig returns a plant matched to crane.DefaultConfig: pivot
// stops just past the operating envelope, elevator bottoming out at the
// hard minimum.
func DefaultConfig() Config {
	return Config{
		Pivot: AxisConfig{
			Min:             -0.45,
			Max:             1.47,
			VelocityPerVolt: 0.5,
			StallCurrent:    40,
			RunningCurrent:  5,
			EncoderOffset:   0.1,
		},
		Elevator: AxisConfig{
			Min:             0.02,
			Max:             1.2,
			VelocityPerVolt: 0.1,
			StallCurrent:    40,
			RunningCurrent:  5,
			EncoderOffset:   -0.05,
		},
		PivotStartAngle:     0.3,
		ElevatorStartHeight: 0.5,
	}
}

type driveMode int

const (
	driveStopped driveMode = iota
	driveVelocity
	driveVoltage
)

// Motor simulates one axis motor with its relative encoder.
type Motor struct {
	cfg AxisConfig

	truePos       float64
	vel           float64
	encoderOffset float64

	mode        driveMode
	commandVel  float64
	commandVolt float64
	atStop      bool
}

var _ crane.Motor = (*Motor)(nil)

// Position returns the relative encoder reading, which drifts from the
// true position until re-zeroed.
func (m *Motor) Position() (float64, error) { return m.truePos + m.encoderOffset, nil }

// Velocity returns the axis velocity.
func (m *Motor) Velocity() (float64, error) { return m.vel, nil }

// OutputCurrent models the motor current: stall level against a hard
// stop under voltage drive, nominal running current otherwise.
func (m *Motor) OutputCurrent() (float64, error) {
	switch m.mode {
	case driveVoltage:
		if m.atStop {
			return m.cfg.StallCurrent, nil
		}
		return m.cfg.RunningCurrent, nil
	case driveVelocity:
		if m.commandVel == 0 {
			return 0, nil
		}
		return m.cfg.RunningCurrent, nil
	default:
		return 0, nil
	}
}

// SetVelocitySetpoint engages an ideal closed-loop velocity drive; the
// feedforward term is absorbed by the modeled loop.
func (m *Motor) SetVelocitySetpoint(velocity, feedforward float64) error {
	m.mode = driveVelocity
	m.commandVel = velocity
	return nil
}

// SetVoltage engages an open-loop drive proportional to volts.
func (m *Motor) SetVoltage(volts float64) error {
	m.mode = driveVoltage
	m.commandVolt = volts
	return nil
}

// Stop cuts output.
func (m *Motor) Stop() error {
	m.mode = driveStopped
	m.commandVel = 0
	m.commandVolt = 0
	return nil
}

// SetEncoderPosition re-zeros the relative encoder without moving the
// axis.
func (m *Motor) SetEncoderPosition(position float64) error {
	m.encoderOffset = position - m.truePos
	return nil
}

// SetVelocityGains is accepted and ignored; the simulated loop is ideal.
func (m *Motor) SetVelocityGains(g tunable.Gains) error { return nil }

// SetVoltageGains is accepted and ignored.
func (m *Motor) SetVoltageGains(g tunable.Gains) error { return nil }

// TruePosition returns the physical axis position, bypassing the
// encoder.
func (m *Motor) TruePosition() float64 { return m.truePos }

func (m *Motor) step(dt float64) {
	switch m.mode {
	case driveVelocity:
		m.vel = m.commandVel
	case driveVoltage:
		m.vel = m.commandVolt * m.cfg.VelocityPerVolt
	default:
		m.vel = 0
	}

	m.truePos += m.vel * dt
	m.atStop = false
	if m.truePos <= m.cfg.Min {
		m.truePos = m.cfg.Min
		if m.vel < 0 {
			m.atStop = true
		}
		m.vel = 0
	} else if m.truePos >= m.cfg.Max {
		m.truePos = m.cfg.Max
		if m.vel > 0 {
			m.atStop = true
		}
		m.vel = 0
	}
}

// AbsoluteEncoder reads the pivot's true angle, as the physical absolute
// sensor would.
type AbsoluteEncoder struct{ m *Motor }

var _ crane.AbsoluteEncoder = (*AbsoluteEncoder)(nil)

// Radians returns the true pivot angle.
func (e *AbsoluteEncoder) Radians() (float64, error) { return e.m.truePos, nil }

// DistanceSensor reads the elevator's true height relative to the sensor
// base.
type DistanceSensor struct {
	m    *Motor
	base float64
}

var _ crane.DistanceSensor = (*DistanceSensor)(nil)

// DistanceMeters returns the measured carriage distance.
func (s *DistanceSensor) DistanceMeters() (float64, error) {
	return s.m.truePos - s.base, nil
}

// Crane is the simulated plant: both axes plus the absolute sensors.
type Crane struct {
	Pivot    *Motor
	Elevator *Motor
	abs      *AbsoluteEncoder
	dist     *DistanceSensor
}

// NewCrane builds a plant from the given configuration.
func NewCrane(cfg Config) *Crane {
	pivot := &Motor{
		cfg:           cfg.Pivot,
		truePos:       clamp(cfg.PivotStartAngle, cfg.Pivot.Min, cfg.Pivot.Max),
		encoderOffset: cfg.Pivot.EncoderOffset,
	}
	elevator := &Motor{
		cfg:           cfg.Elevator,
		truePos:       clamp(cfg.ElevatorStartHeight, cfg.Elevator.Min, cfg.Elevator.Max),
		encoderOffset: cfg.Elevator.EncoderOffset,
	}
	return &Crane{
		Pivot:    pivot,
		Elevator: elevator,
		abs:      &AbsoluteEncoder{m: pivot},
		dist:     &DistanceSensor{m: elevator, base: cfg.DistanceSensorBase},
	}
}

// Hardware returns the plant wired as the subsystem's hardware bundle.
func (s *Crane) Hardware() crane.Hardware {
	return crane.Hardware{
		Pivot:            s.Pivot,
		Elevator:         s.Elevator,
		PivotAbsEncoder:  s.abs,
		ElevatorDistance: s.dist,
	}
}

// Step advances the plant physics by dt seconds.
func (s *Crane) Step(dt float64) {
	s.Pivot.step(dt)
	s.Elevator.step(dt)
}

func clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}
