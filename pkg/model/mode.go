package model

import (
	"strings"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

// Mode is a hardware lighting mode offered by a controller.
type Mode struct {
	Name          string
	Value         int32
	Flags         ModeFlags
	SpeedMin      uint32
	SpeedMax      uint32
	BrightnessMin uint32
	BrightnessMax uint32
	ColorsMin     uint32
	ColorsMax     uint32
	Speed         uint32
	Brightness    uint32
	Direction     uint32
	ColorMode     ColorMode
	Colors        []color.Color
}

// IsDirect reports whether the mode accepts per-LED colors from the client.
func (m *Mode) IsDirect() bool {
	switch strings.ToLower(m.Name) {
	case "direct", "custom", "static":
		return m.Flags.Has(ModeFlagHasPerLEDColor) || m.ColorMode == ColorModePerLED
	}
	return false
}
