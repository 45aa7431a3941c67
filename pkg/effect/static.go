package effect

import (
	"regexp"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

// staticRefresh is how often a static frame is re-pushed, so that other
// controllers resetting the hardware do not win.
const staticRefresh = 3 * time.Second

func newStatic() Animation {
	return AnimationFunc(func(f *Frame) (time.Duration, error) {
		f.Fill(f.Color)
		return staticRefresh, nil
	})
}

// gamingRule recolors LEDs whose name matches.
type gamingRule struct {
	match *regexp.Regexp
	color func(base color.Color) color.Color
}

var gamingRules = []gamingRule{
	{regexp.MustCompile(`(?i)^Key: [WASD]$`), color.Color.Complement},
	{regexp.MustCompile(`(?i)^Key: (Up|Down|Left|Right)( Arrow)?$`), color.Color.Complement},
	{regexp.MustCompile(`(?i)^Key: (Escape|Space|Left Shift|Left Control)$`), func(color.Color) color.Color { return color.White }},
}

// gamingColor returns the color for an LED label.
func gamingColor(name string, base color.Color) color.Color {
	for _, r := range gamingRules {
		if r.match.MatchString(name) {
			return r.color(base)
		}
	}
	return base
}

func newGaming() Animation {
	return AnimationFunc(func(f *Frame) (time.Duration, error) {
		for di, d := range f.Devices {
			for i := range f.Colors[di] {
				f.Colors[di][i] = gamingColor(d.LEDs[i].Name, f.Color)
			}
		}
		return staticRefresh, nil
	})
}
