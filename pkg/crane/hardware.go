package crane

import "github.com/gwillem/crane/pkg/tunable"

// Motor is the actuation and sensing surface of one axis motor. Positions
// and velocities are in mechanism units (radians or meters); the
// closed-loop velocity and voltage control modes run on the motor
// controller itself.
type Motor interface {
	// Position returns the relative encoder position.
	Position() (float64, error)
	// Velocity returns the encoder velocity in units per second.
	Velocity() (float64, error)
	// OutputCurrent returns the motor output current in amps.
	OutputCurrent() (float64, error)

	// SetVelocitySetpoint engages closed-loop velocity control with an
	// additional open-loop feedforward effort.
	SetVelocitySetpoint(velocity, feedforward float64) error
	// SetVoltage drives the motor open loop.
	SetVoltage(volts float64) error
	// Stop cuts motor output.
	Stop() error

	// SetEncoderPosition re-zeros the relative encoder to the given
	// mechanism position.
	SetEncoderPosition(position float64) error

	// SetVelocityGains and SetVoltageGains reconfigure the onboard
	// closed-loop controllers.
	SetVelocityGains(g tunable.Gains) error
	SetVoltageGains(g tunable.Gains) error
}

// AbsoluteEncoder is a slow absolute angle sensor used to bootstrap the
// pivot position at startup.
type AbsoluteEncoder interface {
	Radians() (float64, error)
}

// DistanceSensor measures the elevator carriage height independently of
// the motor encoder.
type DistanceSensor interface {
	DistanceMeters() (float64, error)
}

// Hardware bundles the devices the subsystem drives and reads.
type Hardware struct {
	Pivot            Motor
	Elevator         Motor
	PivotAbsEncoder  AbsoluteEncoder
	ElevatorDistance DistanceSensor
}
