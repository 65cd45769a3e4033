// Package crane provides coordinated two-axis motion control for a
// pivot+elevator manipulator.
//
// The mechanism is modeled as a plane: the pivot angle in radians is the
// x axis and the elevator height in meters is the y axis, so a pose is a
// single (angle, height) configuration point. The subsystem drives both
// axes to a commanded point along a synchronized trapezoidal profile,
// homes each axis against its hard stop at startup using stall detection,
// and maps free-form joystick velocities onto the legal operating
// envelope.
//
// # Usage
//
// Run the simulated crane with the bundled TUI:
//
//	go run ./cmd/crane teleop
//
// Or watch a headless homing sequence:
//
//	go run ./cmd/crane home
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/crane: CLI with teleop and home commands
//   - pkg/crane: the subsystem: goal protocol, homing state machine, control loop
//   - pkg/control: trapezoidal profiles, PID, elevator feedforward
//   - pkg/geom: configuration-plane rays, segments and the operating envelope
//   - pkg/cache: TTL memoization of sensor reads
//   - pkg/tunable: live-tunable gain store
//   - pkg/sim: simulated two-axis plant with hard stops and stall currents
//   - pkg/teleop: fixed-rate tick runner feeding the TUI
package crane
