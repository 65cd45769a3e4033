// Package teleop runs the crane control loop at a fixed rate and
// bridges joystick-style commands and preset goals to the subsystem.
package teleop

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gwillem/crane/pkg/crane"
	"github.com/gwillem/crane/pkg/sim"
	"github.com/gwillem/crane/pkg/tunable"
)

// State is one tick's snapshot of the subsystem.
type State struct {
	Position    r2.Point
	Goal        r2.Point
	HomingState crane.HomingState
	Serial      int
	AtGoal      bool
	Timestamp   time.Time
	Error       error
}

// Config holds configuration for the controller.
type Config struct {
	Crane crane.Config
	Sim   sim.Config
	Hz    int
}

// Controller owns the simulated plant and the crane subsystem and ticks
// both at a fixed rate. Joystick factors and preset goals may be set
// from other goroutines; they are applied at the top of the next tick so
// the subsystem itself stays single-threaded.
type Controller struct {
	plant  *sim.Crane
	crane  *crane.Crane
	store  *tunable.Store
	hz     int
	period float64

	mu             sync.Mutex
	running        bool
	pivotFactor    float64
	elevatorFactor float64
	pendingGoal    *r2.Point

	// wasDriving is loop-local: a released joystick issues one final
	// position hold.
	wasDriving bool

	stateCh chan State
	logCh   chan string
}

// NewController creates a controller over a fresh simulated plant.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 50
		if cfg.Crane.TickPeriod > 0 {
			cfg.Hz = int(math.Round(1 / cfg.Crane.TickPeriod))
		}
	}
	// The subsystem's tick period must match the loop rate.
	cfg.Crane.TickPeriod = 1.0 / float64(cfg.Hz)

	c := &Controller{
		plant:   sim.NewCrane(cfg.Sim),
		store:   tunable.NewStore(),
		hz:      cfg.Hz,
		period:  1.0 / float64(cfg.Hz),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}

	sub, err := crane.New(cfg.Crane, c.plant.Hardware(), c.store,
		crane.WithLogger(c.logger()))
	if err != nil {
		return nil, fmt.Errorf("create crane subsystem: %w", err)
	}
	c.crane = sub
	return c, nil
}

// Close stops both motors and releases the controller.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	var errs []error
	if err := c.plant.Pivot.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := c.plant.Elevator.Stop(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Store exposes the tunable-parameter store for live gain adjustment.
func (c *Controller) Store() *tunable.Store {
	return c.store
}

// SetFactors updates the joystick drive factors, in [-1, 1] per axis.
// Zero on both axes releases the stick.
func (c *Controller) SetFactors(pivot, elevator float64) {
	c.mu.Lock()
	c.pivotFactor = pivot
	c.elevatorFactor = elevator
	c.mu.Unlock()
}

// MoveTo queues a preset goal; it is issued on the next tick.
func (c *Controller) MoveTo(goal r2.Point) {
	c.mu.Lock()
	g := goal
	c.pendingGoal = &g
	c.pivotFactor = 0
	c.elevatorFactor = 0
	c.mu.Unlock()
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// logger routes the subsystem's structured logs into the log channel so
// state transitions show up alongside the controller's own messages.
func (c *Controller) logger() *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = zapcore.OmitKey
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(logWriter{c}), zapcore.InfoLevel)
	return zap.New(core)
}

type logWriter struct{ c *Controller }

func (w logWriter) Write(p []byte) (int, error) {
	w.c.log("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Start begins the control loop. Homing runs automatically; commands
// issued before it completes are deferred by the subsystem.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.log("Crane control loop started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step()
		}
	}
}

func (c *Controller) step() {
	c.mu.Lock()
	pf, ef := c.pivotFactor, c.elevatorFactor
	goal := c.pendingGoal
	c.pendingGoal = nil
	c.mu.Unlock()

	switch {
	case goal != nil:
		c.crane.MoveTo(*goal)
		c.wasDriving = false
	case pf != 0 || ef != 0:
		if err := c.crane.Move(pf, ef); err != nil {
			c.log("Manual move error: %v", err)
		}
		c.wasDriving = true
	case c.wasDriving:
		// Stick released: one final hold at the current position.
		if err := c.crane.Move(0, 0); err != nil {
			c.log("Hold error: %v", err)
		}
		c.wasDriving = false
	}

	c.plant.Step(c.period)

	if err := c.crane.Periodic(); err != nil {
		c.log("Tick error: %v", err)
		c.sendState(State{
			HomingState: c.crane.State(),
			Timestamp:   time.Now(),
			Error:       err,
		})
		return
	}

	position, err := c.crane.Position()
	if err != nil {
		c.sendState(State{
			HomingState: c.crane.State(),
			Timestamp:   time.Now(),
			Error:       err,
		})
		return
	}
	serial, atGoal := c.crane.AtGoal()
	c.sendState(State{
		Position:    position,
		Goal:        c.crane.Goal(),
		HomingState: c.crane.State(),
		Serial:      serial,
		AtGoal:      atGoal,
		Timestamp:   time.Now(),
	})
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if err := c.plant.Pivot.Stop(); err != nil {
		c.log("Warning: failed to stop pivot: %v", err)
	}
	if err := c.plant.Elevator.Stop(); err != nil {
		c.log("Warning: failed to stop elevator: %v", err)
	}
	c.log("Crane control loop stopped")
}
