package crane

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/golang/geo/r2"

	"github.com/gwillem/crane/pkg/geom"
	"github.com/gwillem/crane/pkg/tunable"
)

// Tolerance is a per-axis acceptance window. Position is in radians or
// meters; Velocity is in units per second and is interpreted as allowed
// position drift per tick by scaling with the tick period.
type Tolerance struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
}

// Config holds the mechanism constants. Positions on the pivot axis are
// radians wrapped to (-pi, pi], elevator positions are meters above the
// floor.
type Config struct {
	TickPeriod  float64       `json:"tick_period_seconds"`
	CacheTTL    time.Duration `json:"cache_ttl"`
	SettleDelay time.Duration `json:"settle_delay"`

	PivotMaxSpeed    float64 `json:"pivot_max_speed"`
	PivotMaxAccel    float64 `json:"pivot_max_accel"`
	ElevatorMaxSpeed float64 `json:"elevator_max_speed"`
	ElevatorMaxAccel float64 `json:"elevator_max_accel"`

	PivotHome          float64       `json:"pivot_home"`
	PivotHomeRapid     float64       `json:"pivot_home_rapid"`
	PivotHomingVoltage float64       `json:"pivot_homing_voltage"`
	PivotStallCurrent  float64       `json:"pivot_stall_current"`
	PivotStallDebounce time.Duration `json:"pivot_stall_debounce"`
	PivotFlexOffset    float64       `json:"pivot_flex_offset"`

	ElevatorHome          float64       `json:"elevator_home"`
	ElevatorHomeRapid     float64       `json:"elevator_home_rapid"`
	ElevatorHardMin       float64       `json:"elevator_hard_min"`
	ElevatorHomingVoltage float64       `json:"elevator_homing_voltage"`
	ElevatorStallCurrent  float64       `json:"elevator_stall_current"`
	ElevatorStallDebounce time.Duration `json:"elevator_stall_debounce"`

	DistanceSensorBase float64 `json:"distance_sensor_base"`

	DefaultPivotTolerance    Tolerance `json:"default_pivot_tolerance"`
	DefaultElevatorTolerance Tolerance `json:"default_elevator_tolerance"`

	PivotPID    tunable.Gains `json:"pivot_pid"`
	ElevatorPID tunable.Gains `json:"elevator_pid"`

	PivotVelocityPIDF    tunable.Gains `json:"pivot_velocity_pidf"`
	PivotVoltagePIDF     tunable.Gains `json:"pivot_voltage_pidf"`
	ElevatorVelocityPIDF tunable.Gains `json:"elevator_velocity_pidf"`
	ElevatorVoltagePIDF  tunable.Gains `json:"elevator_voltage_pidf"`

	FeedforwardKs float64 `json:"feedforward_ks"`
	FeedforwardKg float64 `json:"feedforward_kg"`
	FeedforwardKv float64 `json:"feedforward_kv"`

	// Boundaries define the legal operating envelope in the
	// configuration plane, tested in order during manual driving.
	Boundaries []geom.Segment `json:"boundaries"`
}

// DefaultConfig returns constants for the reference mechanism.
func DefaultConfig() Config {
	return Config{
		TickPeriod:  0.02,
		CacheTTL:    10 * time.Millisecond,
		SettleDelay: 1500 * time.Millisecond,

		PivotMaxSpeed:    2.0,
		PivotMaxAccel:    4.0,
		ElevatorMaxSpeed: 0.5,
		ElevatorMaxAccel: 1.5,

		PivotHome:          1.35,
		PivotHomeRapid:     1.2,
		PivotHomingVoltage: 1.0,
		PivotStallCurrent:  20.0,
		PivotStallDebounce: 100 * time.Millisecond,
		PivotFlexOffset:    -0.015,

		ElevatorHome:          0.10,
		ElevatorHomeRapid:     0.15,
		ElevatorHardMin:       0.02,
		ElevatorHomingVoltage: -1.0,
		ElevatorStallCurrent:  25.0,
		ElevatorStallDebounce: 100 * time.Millisecond,

		DistanceSensorBase: 0.0,

		DefaultPivotTolerance:    Tolerance{Position: 0.02, Velocity: 0.05},
		DefaultElevatorTolerance: Tolerance{Position: 0.01, Velocity: 0.02},

		PivotPID:    tunable.Gains{P: 4.0},
		ElevatorPID: tunable.Gains{P: 6.0},

		PivotVelocityPIDF:    tunable.Gains{P: 0.1, F: 0.5},
		PivotVoltagePIDF:     tunable.Gains{P: 0.05},
		ElevatorVelocityPIDF: tunable.Gains{P: 0.2, F: 2.0},
		ElevatorVoltagePIDF:  tunable.Gains{P: 0.05},

		FeedforwardKs: 0.15,
		FeedforwardKg: 0.55,
		FeedforwardKv: 1.2,

		Boundaries: geom.Box(
			r2.Point{X: -0.4, Y: 0.03},
			r2.Point{X: 1.45, Y: 1.15},
		),
	}
}

// Validate rejects configurations the control math cannot work with.
func (c *Config) Validate() error {
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %f", c.TickPeriod)
	}
	if c.PivotMaxSpeed <= 0 || c.PivotMaxAccel <= 0 ||
		c.ElevatorMaxSpeed <= 0 || c.ElevatorMaxAccel <= 0 {
		return fmt.Errorf("axis speed and acceleration limits must be positive")
	}
	if math.Abs(c.PivotHome) > math.Pi {
		return fmt.Errorf("pivot home %f outside (-pi, pi]", c.PivotHome)
	}
	if len(c.Boundaries) == 0 {
		return fmt.Errorf("operating envelope has no boundary segments")
	}
	return nil
}

// LoadConfig loads a configuration from a JSON file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read crane config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse crane config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate crane config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
