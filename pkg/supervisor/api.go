package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/usb"
)

// ApplyEffect runs the named effect on every device, stopping whichever
// effect was running. A nil c keeps the effect's current color. It returns
// whether the effect takes a color.
func (s *Supervisor) ApplyEffect(ctx context.Context, name string, brightness color.Brightness, c *color.Color) (bool, error) {
	if !brightness.Valid() {
		return false, fmt.Errorf("%w: %d", color.ErrInvalidBrightness, brightness)
	}
	eff, ok := s.engine.Effect(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEffect, name)
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	col := eff.Color()
	if c != nil {
		col = *c
	}
	s.mu.Lock()
	s.active = &activeEffect{name: name, brightness: brightness, color: col}
	s.mu.Unlock()

	if !s.Running() {
		return eff.SupportsColor(), ErrNotStarted
	}
	return s.engine.Apply(ctx, name, s.Devices(), brightness, col)
}

// reapplyLocked restarts the last applied effect on the current devices.
func (s *Supervisor) reapplyLocked(ctx context.Context) error {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active == nil {
		return nil
	}
	_, err := s.engine.Apply(ctx, active.name, s.Devices(), active.brightness, active.color)
	if err != nil {
		return fmt.Errorf("re-apply %s: %w", active.name, err)
	}
	s.debugLog("effect re-applied", "effect", active.name, "brightness", active.brightness)
	return nil
}

// ActiveEffect returns the last applied effect and its brightness.
func (s *Supervisor) ActiveEffect() (string, color.Brightness, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return "", color.Off, false
	}
	return s.active.name, s.active.brightness, true
}

// AvailableEffects returns the effect names in registration order.
func (s *Supervisor) AvailableEffects() []string {
	return s.engine.Names()
}

// SupportsColor reports whether the named effect takes a color. Unknown
// names report false.
func (s *Supervisor) SupportsColor(name string) bool {
	return s.engine.SupportsColor(name)
}

// Color returns the named effect's current color, or false for effects
// that do not take one.
func (s *Supervisor) Color(name string) (color.Color, bool) {
	return s.engine.Color(name)
}

// AppendCustomEffect registers an additional effect.
func (s *Supervisor) AppendCustomEffect(def effect.Definition) error {
	return s.engine.Register(def)
}

// DisableDevice stops writes to every device whose name matches name,
// ignoring case. It reports whether any device matched.
func (s *Supervisor) DisableDevice(name string) bool {
	found := false
	for _, d := range s.Devices() {
		if strings.EqualFold(d.Name, name) {
			d.SetEnabled(false)
			found = true
			s.infoLog("device disabled", "device", d.String())
		}
	}
	return found
}

// CompatibleDevices returns the devices named in the udev rules.
func (s *Supervisor) CompatibleDevices() []usb.Identifier {
	return append([]usb.Identifier(nil), s.cfg.Rules...)
}

// Profiles returns the server's saved profile names.
func (s *Supervisor) Profiles(ctx context.Context) ([]string, error) {
	sess, err := s.currentSession()
	if err != nil {
		return nil, err
	}
	return sess.ProfileList(ctx)
}

// SaveProfile stores the current server state under name.
func (s *Supervisor) SaveProfile(ctx context.Context, name string) error {
	sess, err := s.currentSession()
	if err != nil {
		return err
	}
	return sess.SaveProfile(ctx, name)
}

// LoadProfile stops the running effect and loads a saved profile.
func (s *Supervisor) LoadProfile(ctx context.Context, name string) error {
	sess, err := s.currentSession()
	if err != nil {
		return err
	}
	s.engine.StopAll()
	return sess.LoadProfile(ctx, name)
}

// DeleteProfile removes a saved profile.
func (s *Supervisor) DeleteProfile(ctx context.Context, name string) error {
	sess, err := s.currentSession()
	if err != nil {
		return err
	}
	return sess.DeleteProfile(ctx, name)
}
