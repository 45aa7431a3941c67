package effect

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

// Registry errors.
var (
	ErrInvalidDefinition = errors.New("invalid effect definition")
	ErrDuplicateEffect   = errors.New("effect already registered")
	ErrUnknownEffect     = errors.New("unknown effect")
)

// Animation renders frames. Implementations keep their own state between
// steps and are only ever driven by a single worker.
type Animation interface {
	// Step updates f and returns the delay before the next step.
	Step(f *Frame) (time.Duration, error)
}

// AnimationFunc adapts a function to Animation.
type AnimationFunc func(f *Frame) (time.Duration, error)

// Step calls fn(f).
func (fn AnimationFunc) Step(f *Frame) (time.Duration, error) {
	return fn(f)
}

// Definition describes one registrable effect.
type Definition struct {
	// Name is the unique registry key.
	Name string

	// SupportsColor reports whether the caller's color drives the effect.
	SupportsColor bool

	// DefaultColor is the initial color of color effects and the fixed
	// color of presets.
	DefaultColor color.Color

	// PerDevice runs one worker per device instead of one shared worker.
	PerDevice bool

	// New creates fresh animation state for one worker.
	New func() Animation
}

// Validate reports whether the definition can be registered.
func (d Definition) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	case d.New == nil:
		return fmt.Errorf("%w: %s has no constructor", ErrInvalidDefinition, d.Name)
	}
	return nil
}

// Preset derives a fixed-color variant of base under a new name.
func Preset(name string, base Definition, c color.Color) Definition {
	return Definition{
		Name:         name,
		DefaultColor: c,
		PerDevice:    base.PerDevice,
		New:          base.New,
	}
}

// Provider supplies effect definitions to an Engine.
type Provider interface {
	Definitions() []Definition
}

// Frame is the mutable per-step canvas handed to an Animation.
type Frame struct {
	// Devices are the devices driven by this worker.
	Devices []*model.Device

	// Colors holds one undimmed buffer per device, sized to its LEDs.
	Colors [][]color.Color

	// Color is the effect's base color.
	Color color.Color

	// Rand is the worker's random source.
	Rand *rand.Rand

	// Tick counts completed steps.
	Tick uint64
}

func newFrame(devices []*model.Device, c color.Color, r *rand.Rand) *Frame {
	f := &Frame{Devices: devices, Color: c, Rand: r}
	f.Colors = make([][]color.Color, len(devices))
	for i, d := range devices {
		f.Colors[i] = make([]color.Color, d.LEDCount())
	}
	return f
}

// Fill sets every LED of every device to c.
func (f *Frame) Fill(c color.Color) {
	for _, buf := range f.Colors {
		for i := range buf {
			buf[i] = c
		}
	}
}

// Set colors LED led of device dev; out-of-range indices are ignored.
func (f *Frame) Set(dev, led int, c color.Color) {
	if dev < 0 || dev >= len(f.Colors) || led < 0 || led >= len(f.Colors[dev]) {
		return
	}
	f.Colors[dev][led] = c
}

// Columns returns the device's LEDs arranged as vertical columns, left to
// right across its zones. MATRIX zones with a non-empty map yield their
// map columns (top to bottom, NoLED cells included); every other LED is a
// column of height one.
func Columns(d *model.Device) [][]int {
	var cols [][]int
	for i := range d.Zones {
		z := &d.Zones[i]
		if z.HasMap() {
			for c := range z.Matrix.Width {
				cols = append(cols, z.Matrix.Column(c))
			}
			continue
		}
		for led := z.Start; led < z.End(); led++ {
			cols = append(cols, []int{led})
		}
	}
	return cols
}
