package effect

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

// LEDWriter writes a device's complete LED buffer.
type LEDWriter interface {
	UpdateLEDs(ctx context.Context, idx uint32, colors []color.Color) error
}

// State is the lifecycle state of an Effect.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// errorDelay is the step delay used after a failed or panicking step.
const errorDelay = 100 * time.Millisecond

// Effect is one registered definition together with its run state.
type Effect struct {
	def    Definition
	writer LEDWriter
	cfg    Config

	state atomic.Int32

	// lifeMu serializes Start and Stop.
	lifeMu sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// writeMu is held for every write so that a write never races a
	// cancellation check.
	writeMu    sync.Mutex
	ctx        context.Context
	brightness color.Brightness

	colorMu sync.RWMutex
	color   color.Color
}

func newEffect(def Definition, w LEDWriter, cfg Config) *Effect {
	return &Effect{
		def:    def,
		writer: w,
		cfg:    cfg,
		color:  def.DefaultColor,
	}
}

// Name returns the registry key.
func (e *Effect) Name() string {
	return e.def.Name
}

// SupportsColor reports whether the caller's color drives the effect.
func (e *Effect) SupportsColor() bool {
	return e.def.SupportsColor
}

// State returns the lifecycle state.
func (e *Effect) State() State {
	return State(e.state.Load())
}

// Color returns the effect's current base color.
func (e *Effect) Color() color.Color {
	e.colorMu.RLock()
	defer e.colorMu.RUnlock()
	return e.color
}

// Start runs the effect on devices. A running effect is stopped first.
// At brightness Off every LED is set to black and no worker is started.
// c is ignored for effects that do not support color.
func (e *Effect) Start(ctx context.Context, devices []*model.Device, brightness color.Brightness, c color.Color) error {
	if !brightness.Valid() {
		return fmt.Errorf("%w: %d", color.ErrInvalidBrightness, brightness)
	}

	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.stopLocked()

	if e.def.SupportsColor {
		e.colorMu.Lock()
		e.color = c
		e.colorMu.Unlock()
	}

	if brightness == color.Off {
		return e.blackout(ctx, devices)
	}

	e.setState(StateStarting, "")

	runCtx, cancel := context.WithCancel(context.Background())
	e.writeMu.Lock()
	e.ctx = runCtx
	e.brightness = brightness
	e.writeMu.Unlock()
	e.cancel = cancel

	base := e.Color()
	if e.def.PerDevice {
		for _, d := range devices {
			e.spawn(runCtx, newFrame([]*model.Device{d}, base, e.newRand()))
		}
	} else {
		e.spawn(runCtx, newFrame(devices, base, e.newRand()))
	}

	e.setState(StateRunning, fmt.Sprintf("brightness %s", brightness))
	return nil
}

// Stop cancels the workers and waits for all of them to exit.
func (e *Effect) Stop() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	e.stopLocked()
}

func (e *Effect) stopLocked() {
	if e.State() == StateStopped {
		return
	}
	e.setState(StateStopping, "")
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.wg.Wait()
	e.setState(StateStopped, "")
}

// blackout pushes black to every enabled device, undimmed.
func (e *Effect) blackout(ctx context.Context, devices []*model.Device) error {
	var firstErr error
	for _, d := range devices {
		if !d.Enabled() {
			continue
		}
		black := make([]color.Color, d.LEDCount())
		if err := e.writer.UpdateLEDs(ctx, d.Index, black); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("blackout %s: %w", d, err)
			}
			continue
		}
		_ = d.SetColors(black)
	}
	return firstErr
}

func (e *Effect) spawn(ctx context.Context, f *Frame) {
	anim := e.def.New()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, anim, f)
	}()
}

// run is the worker loop.
func (e *Effect) run(ctx context.Context, anim Animation, f *Frame) {
	var lastErr string
	for ctx.Err() == nil {
		delay, err := e.step(anim, f)
		if err != nil {
			e.reportError("step", err)
			delay = errorDelay
		} else {
			failed := false
			for i, d := range f.Devices {
				werr := e.setColors(d, f.Colors[i])
				if werr == nil {
					continue
				}
				failed = true
				// Repeated identical failures (a dead session) are logged once.
				if msg := werr.Error(); msg != lastErr {
					lastErr = msg
					e.reportError("write", werr)
				}
			}
			if !failed {
				lastErr = ""
			}
		}
		f.Tick++
		sleep(ctx, delay)
	}
}

// step calls anim.Step, converting a panic into an error.
func (e *Effect) step(anim Animation, f *Frame) (delay time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", e.def.Name, r)
			if e.cfg.Logger != nil {
				e.cfg.Logger.Debug("effect panic stack", "effect", e.def.Name, "stack", string(debug.Stack()))
			}
		}
	}()
	return anim.Step(f)
}

// setColors dims colors and writes them to d. It writes nothing once the
// effect is cancelled or while d is disabled.
func (e *Effect) setColors(d *model.Device, colors []color.Color) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.ctx == nil || e.ctx.Err() != nil || !d.Enabled() {
		return nil
	}
	dimmed := color.DimAll(colors, e.brightness.Factor())
	if err := e.writer.UpdateLEDs(e.ctx, d.Index, dimmed); err != nil {
		return fmt.Errorf("%s: %w", d, err)
	}
	return d.SetColors(dimmed)
}

// sleep waits for d or until ctx is done. It returns immediately if ctx
// is already done.
func sleep(ctx context.Context, d time.Duration) {
	if ctx.Err() != nil || d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (e *Effect) newRand() *rand.Rand {
	if e.cfg.Seed != 0 {
		return rand.New(rand.NewPCG(e.cfg.Seed, uint64(e.cfg.seq.Add(1))))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (e *Effect) setState(next State, reason string) {
	old := State(e.state.Swap(int32(next)))
	if old == next {
		return
	}
	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug("effect state", "effect", e.def.Name, "from", old, "to", next)
	}
	if e.cfg.ProtocolLogger != nil {
		e.cfg.ProtocolLogger.Log(log.Event{
			Timestamp: time.Now(),
			Direction: log.DirectionNone,
			Layer:     log.LayerEngine,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityEffect,
				Name:     e.def.Name,
				OldState: old.String(),
				NewState: next.String(),
				Reason:   reason,
			},
		})
	}
}

func (e *Effect) reportError(op string, err error) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Warn("effect "+op+" failed", "effect", e.def.Name, "error", err)
	}
	if e.cfg.ProtocolLogger != nil {
		e.cfg.ProtocolLogger.Log(log.Event{
			Timestamp: time.Now(),
			Direction: log.DirectionNone,
			Layer:     log.LayerEngine,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerEngine,
				Message: err.Error(),
				Context: e.def.Name + " " + op,
			},
		})
	}
}

// Config configures an Engine and its effects.
type Config struct {
	Logger         *slog.Logger
	ProtocolLogger log.Logger

	// Seed makes animations deterministic when non-zero.
	Seed uint64

	seq *atomic.Uint64
}
