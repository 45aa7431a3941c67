package effect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

// Engine is the effect registry. At most one of its effects runs at a time.
type Engine struct {
	writer LEDWriter
	cfg    Config

	// applyMu serializes Apply and StopAll.
	applyMu sync.Mutex

	mu      sync.RWMutex
	effects map[string]*Effect
	order   []string
}

// NewEngine creates an engine that writes through w and registers the
// built-in effects.
func NewEngine(w LEDWriter, cfg Config) *Engine {
	cfg.seq = new(atomic.Uint64)
	e := &Engine{
		writer:  w,
		cfg:     cfg,
		effects: make(map[string]*Effect),
	}
	for _, def := range Builtins() {
		if err := e.Register(def); err != nil {
			panic(err)
		}
	}
	return e
}

// Register adds a definition to the registry.
func (e *Engine) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.effects[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEffect, def.Name)
	}
	e.effects[def.Name] = newEffect(def, e.writer, e.cfg)
	e.order = append(e.order, def.Name)
	return nil
}

// RegisterProvider registers every definition of p, stopping at the first
// error.
func (e *Engine) RegisterProvider(p Provider) error {
	for _, def := range p.Definitions() {
		if err := e.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Effect returns the named effect.
func (e *Engine) Effect(name string) (*Effect, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	eff, ok := e.effects[name]
	return eff, ok
}

// Names returns the registered effect names in registration order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// SupportsColor reports whether the named effect takes a color. Unknown
// names report false.
func (e *Engine) SupportsColor(name string) bool {
	eff, ok := e.Effect(name)
	return ok && eff.SupportsColor()
}

// Color returns the current color of a color-capable effect.
func (e *Engine) Color(name string) (color.Color, bool) {
	eff, ok := e.Effect(name)
	if !ok || !eff.SupportsColor() {
		return color.Black, false
	}
	return eff.Color(), true
}

// Apply stops every other effect, waiting for their workers, then starts
// the named one. It returns whether the effect supports color.
func (e *Engine) Apply(ctx context.Context, name string, devices []*model.Device, brightness color.Brightness, c color.Color) (bool, error) {
	target, ok := e.Effect(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEffect, name)
	}

	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	for _, eff := range e.all() {
		if eff != target {
			eff.Stop()
		}
	}
	if err := target.Start(ctx, devices, brightness, c); err != nil {
		return target.SupportsColor(), err
	}
	return target.SupportsColor(), nil
}

// StopAll stops every effect.
func (e *Engine) StopAll() {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	for _, eff := range e.all() {
		eff.Stop()
	}
}

// Active returns the name of the running effect, if any.
func (e *Engine) Active() (string, bool) {
	for _, eff := range e.all() {
		if eff.State() != StateStopped {
			return eff.Name(), true
		}
	}
	return "", false
}

func (e *Engine) all() []*Effect {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Effect, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.effects[name])
	}
	return out
}
