package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

// Model errors.
var (
	// ErrInvalidLayout indicates zones do not partition the LED array.
	ErrInvalidLayout = errors.New("invalid zone layout")

	// ErrColorCount indicates a color buffer of the wrong length.
	ErrColorCount = errors.New("color count does not match LED count")
)

// LED is one addressable light.
type LED struct {
	Name  string
	Value uint32
}

// Device is one controller as enumerated from the server.
//
// The descriptive fields are filled once by the catalog and must not be
// modified afterwards. Enabled state and the color buffer may be used
// concurrently.
type Device struct {
	// Index is the controller's position in the server's list; it is the
	// device_id used on the wire.
	Index uint32

	Type        DeviceType
	Name        string
	Vendor      string
	Description string
	Version     string
	Serial      string
	Location    string

	Modes      []Mode
	ActiveMode int32
	Zones      []Zone
	LEDs       []LED

	enabled atomic.Bool

	mu     sync.Mutex
	colors []color.Color
}

// NewDevice creates an enabled device with a black color buffer sized to
// its LEDs. Callers fill Zones and LEDs before calling Init.
func NewDevice(index uint32, name string) *Device {
	d := &Device{Index: index, Name: name}
	d.enabled.Store(true)
	return d
}

// Init sizes the color buffer and assigns zone start offsets from the zone
// order. colors may be nil; otherwise it seeds the buffer.
func (d *Device) Init(colors []color.Color) {
	start := 0
	for i := range d.Zones {
		d.Zones[i].Start = start
		start += d.Zones[i].LEDCount
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.colors = make([]color.Color, len(d.LEDs))
	copy(d.colors, colors)
}

// LEDCount returns the number of LEDs on the device.
func (d *Device) LEDCount() int {
	return len(d.LEDs)
}

// Enabled reports whether the device is physically present.
func (d *Device) Enabled() bool {
	return d.enabled.Load()
}

// SetEnabled marks the device present or absent.
func (d *Device) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
}

// Colors returns a copy of the last colors written to the device.
func (d *Device) Colors() []color.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]color.Color, len(d.colors))
	copy(out, d.colors)
	return out
}

// SetColors records colors as the device's current state.
func (d *Device) SetColors(colors []color.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(colors) != len(d.colors) {
		return fmt.Errorf("%w: got %d, want %d", ErrColorCount, len(colors), len(d.colors))
	}
	copy(d.colors, colors)
	return nil
}

// Zone returns the zone containing device-level LED index i.
func (d *Device) Zone(i int) (*Zone, bool) {
	for z := range d.Zones {
		if d.Zones[z].Contains(i) {
			return &d.Zones[z], true
		}
	}
	return nil, false
}

// LongestZone returns the largest zone column count, at least 1.
func (d *Device) LongestZone() int {
	n := 1
	for i := range d.Zones {
		n = max(n, d.Zones[i].Columns())
	}
	return n
}

// FindMode returns the index of the mode with the given name,
// compared case-insensitively.
func (d *Device) FindMode(name string) (int, bool) {
	for i := range d.Modes {
		if strings.EqualFold(d.Modes[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// Validate checks that zones exactly partition the LED array and that
// matrix cells refer to LEDs of their own zone.
func (d *Device) Validate() error {
	next := 0
	for i := range d.Zones {
		z := &d.Zones[i]
		if z.LEDCount < 0 {
			return fmt.Errorf("%w: zone %q has negative size", ErrInvalidLayout, z.Name)
		}
		if z.Start != next {
			return fmt.Errorf("%w: zone %q starts at %d, want %d", ErrInvalidLayout, z.Name, z.Start, next)
		}
		next = z.End()

		if z.Matrix == nil {
			continue
		}
		if len(z.Matrix.Cells) != z.Matrix.Height*z.Matrix.Width {
			return fmt.Errorf("%w: zone %q matrix has %d cells, want %dx%d",
				ErrInvalidLayout, z.Name, len(z.Matrix.Cells), z.Matrix.Height, z.Matrix.Width)
		}
		for _, c := range z.Matrix.Cells {
			if c != NoLED && !z.Contains(c) {
				return fmt.Errorf("%w: zone %q matrix cell %d outside zone", ErrInvalidLayout, z.Name, c)
			}
		}
	}
	if next != len(d.LEDs) {
		return fmt.Errorf("%w: zones cover %d LEDs, device has %d", ErrInvalidLayout, next, len(d.LEDs))
	}
	return nil
}

// String returns a short description for logs.
func (d *Device) String() string {
	return fmt.Sprintf("%d:%s", d.Index, d.Name)
}
