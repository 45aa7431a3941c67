package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex indicates a malformed hex color string.
var ErrInvalidHex = errors.New("invalid hex color")

// Color is a 24-bit RGB color.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Common colors.
var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
)

// RGB builds a color from its channels.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Dim scales every channel by factor, rounding to the nearest integer.
// Factors outside [0,1] are clamped.
func (c Color) Dim(factor float64) Color {
	if factor <= 0 {
		return Black
	}
	if factor >= 1 {
		return c
	}
	return Color{
		R: scale(c.R, factor),
		G: scale(c.G, factor),
		B: scale(c.B, factor),
	}
}

func scale(v uint8, factor float64) uint8 {
	return uint8(math.Round(float64(v) * factor))
}

// FromHSV converts hue (degrees, any range), saturation and value ([0,1]) to RGB.
func FromHSV(h, s, v float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, clamp01(s), clamp01(v)).Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// HSV returns the hue in degrees [0,360) and saturation/value in [0,1].
func (c Color) HSV() (h, s, v float64) {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsv()
}

// Complement returns the color with its hue rotated by 180 degrees.
func (c Color) Complement() Color {
	h, s, v := c.HSV()
	return FromHSV(h+180, s, v)
}

// IsBlack reports whether all channels are zero.
func (c Color) IsBlack() bool {
	return c == Black
}

// Hex returns the color as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// ParseHex parses "#RRGGBB", "RRGGBB", "#RGB" or "RGB".
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return Black, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Black, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Fill returns n copies of c.
func Fill(c Color, n int) []Color {
	out := make([]Color, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// DimAll returns a dimmed copy of colors.
func DimAll(colors []Color, factor float64) []Color {
	out := make([]Color, len(colors))
	for i, c := range colors {
		out[i] = c.Dim(factor)
	}
	return out
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
