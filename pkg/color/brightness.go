package color

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBrightness indicates an unknown brightness name or level.
var ErrInvalidBrightness = errors.New("invalid brightness")

// Brightness is the global lighting intensity level.
type Brightness uint8

const (
	// Off disables lighting; starting an effect at Off only pushes black.
	Off Brightness = iota
	Low
	Medium
	High
	Max
)

// Factor returns the dimming factor for the level.
func (b Brightness) Factor() float64 {
	switch b {
	case Low:
		return 0.25
	case Medium:
		return 0.5
	case High:
		return 0.75
	case Max:
		return 1.0
	default:
		return 0
	}
}

// Valid reports whether b is one of the defined levels.
func (b Brightness) Valid() bool {
	return b <= Max
}

// String returns the level name.
func (b Brightness) String() string {
	switch b {
	case Off:
		return "OFF"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case Max:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// ParseBrightness accepts a level name (case-insensitive) or its ordinal 0-4.
func ParseBrightness(s string) (Brightness, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF", "0":
		return Off, nil
	case "LOW", "1":
		return Low, nil
	case "MEDIUM", "2":
		return Medium, nil
	case "HIGH", "3":
		return High, nil
	case "MAX", "4":
		return Max, nil
	}
	return Off, fmt.Errorf("%w: %q", ErrInvalidBrightness, s)
}

// Levels returns every level in ascending order.
func Levels() []Brightness {
	return []Brightness{Off, Low, Medium, High, Max}
}
