package effect

import "github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"

// Built-in effect names.
const (
	NameStatic      = "Static"
	NameBreathing   = "Breathing"
	NameSpectrum    = "Spectrum"
	NameRainbowWave = "Rainbow wave"
	NameStarryNight = "Starry night"
	NameDigitalRain = "Digital rain"
	NameRain        = "Rain"
	NameDanceFloor  = "Dance floor"
	NameGaming      = "Gaming"
)

// Builtins returns the built-in definitions in menu order.
func Builtins() []Definition {
	return []Definition{
		{Name: NameStatic, SupportsColor: true, DefaultColor: color.Red, New: newStatic},
		{Name: NameBreathing, SupportsColor: true, DefaultColor: color.Red, New: newBreathing},
		{Name: NameSpectrum, New: newSpectrum},
		{Name: NameRainbowWave, PerDevice: true, New: newRainbowWave},
		{Name: NameStarryNight, PerDevice: true, New: newStarryNight},
		{Name: NameDigitalRain, SupportsColor: true, DefaultColor: color.Green, PerDevice: true, New: newDigitalRain},
		{Name: NameRain, PerDevice: true, New: newRain},
		{Name: NameDanceFloor, New: newDanceFloor},
		{Name: NameGaming, SupportsColor: true, DefaultColor: color.Red, New: newGaming},
	}
}

// Builtin returns the built-in definition with the given name.
func Builtin(name string) (Definition, bool) {
	for _, def := range Builtins() {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
