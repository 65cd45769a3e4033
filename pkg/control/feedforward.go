package control

// ElevatorFeedforward models the open-loop effort needed to move an
// elevator: static friction, gravity, and a viscous velocity term.
type ElevatorFeedforward struct {
	ks float64 // static friction, sign follows motion
	kg float64 // gravity hold
	kv float64 // viscous, per unit velocity
}

// NewElevatorFeedforward returns a feedforward model with the given
// coefficients.
func NewElevatorFeedforward(ks, kg, kv float64) *ElevatorFeedforward {
	return &ElevatorFeedforward{ks: ks, kg: kg, kv: kv}
}

// SetKs updates the static friction coefficient.
func (f *ElevatorFeedforward) SetKs(ks float64) { f.ks = ks }

// SetKg updates the gravity coefficient.
func (f *ElevatorFeedforward) SetKg(kg float64) { f.kg = kg }

// SetKv updates the velocity coefficient.
func (f *ElevatorFeedforward) SetKv(kv float64) { f.kv = kv }

// CalculateWithVelocities returns the feedforward effort given the
// current velocity and the velocity the profile wants next.
func (f *ElevatorFeedforward) CalculateWithVelocities(current, next float64) float64 {
	return f.ks*sign(current) + f.kg + f.kv*next
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
