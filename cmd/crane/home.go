package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gwillem/crane/pkg/crane"
	"github.com/gwillem/crane/pkg/sim"
	"github.com/gwillem/crane/pkg/tunable"
)

type HomeCommand struct {
	Hz      int           `long:"hz" default:"50" description:"Control loop frequency"`
	Config  string        `long:"config" description:"Path to crane config JSON (defaults built in)"`
	Timeout time.Duration `long:"timeout" default:"60s" description:"Give up if homing has not settled by then"`
}

// Execute runs the homing state machine against the simulated plant,
// headless, and exits once the crane holds the home pose.
func (c *HomeCommand) Execute(args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	cfg := crane.DefaultConfig()
	if c.Config != "" {
		cfg, err = crane.LoadConfig(c.Config)
		if err != nil {
			return err
		}
	}

	plant := sim.NewCrane(sim.DefaultConfig())
	sub, err := crane.New(cfg, plant.Hardware(), tunable.NewStore(),
		crane.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create crane subsystem: %w", err)
	}

	period := 1.0 / float64(c.Hz)
	ticker := time.NewTicker(time.Second / time.Duration(c.Hz))
	defer ticker.Stop()
	deadline := time.After(c.Timeout)

	logger.Info("homing started",
		zap.Float64("startAngle", plant.Pivot.TruePosition()),
		zap.Float64("startHeight", plant.Elevator.TruePosition()))

	for {
		select {
		case <-deadline:
			return fmt.Errorf("homing did not settle within %s, stuck in %s",
				c.Timeout, sub.State())
		case <-ticker.C:
			plant.Step(period)
			if err := sub.Periodic(); err != nil {
				return fmt.Errorf("control tick: %w", err)
			}
			if sub.State() != crane.StateCraning {
				continue
			}
			if _, done := sub.AtGoal(); !done {
				continue
			}
			position, err := sub.Position()
			if err != nil {
				return err
			}
			logger.Info("homed and holding",
				zap.Float64("a", position.X),
				zap.Float64("h", position.Y))
			return nil
		}
	}
}
