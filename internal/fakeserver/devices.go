package fakeserver

import (
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

// LinearDevice builds a controller with one LINEAR zone of n LEDs.
func LinearDevice(idx uint32, name string, n int) *model.Device {
	d := model.NewDevice(idx, name)
	d.Type = model.DeviceTypeLEDStrip
	d.Modes = []model.Mode{{Name: "Direct", Flags: model.ModeFlagHasPerLEDColor, ColorMode: model.ColorModePerLED}}
	d.Zones = []model.Zone{{Name: "Strip", Type: model.ZoneLinear, LEDsMin: uint32(n), LEDsMax: uint32(n), LEDCount: n}}
	d.LEDs = make([]model.LED, n)
	for i := range d.LEDs {
		d.LEDs[i].Name = fmt.Sprintf("LED %d", i+1)
	}
	d.Init(nil)
	return d
}

// MatrixDevice builds a keyboard-like controller with one fully populated
// rows x cols MATRIX zone. LED names follow "Key: <letter>" for the first
// 26 LEDs.
func MatrixDevice(idx uint32, name string, rows, cols int) *model.Device {
	n := rows * cols
	d := model.NewDevice(idx, name)
	d.Type = model.DeviceTypeKeyboard
	d.Modes = []model.Mode{{Name: "Direct", Flags: model.ModeFlagHasPerLEDColor, ColorMode: model.ColorModePerLED}}
	m := &model.MatrixMap{Height: rows, Width: cols, Cells: make([]int, n)}
	for i := range m.Cells {
		m.Cells[i] = i
	}
	d.Zones = []model.Zone{{Name: "Keys", Type: model.ZoneMatrix, LEDsMin: uint32(n), LEDsMax: uint32(n), LEDCount: n, Matrix: m}}
	d.LEDs = make([]model.LED, n)
	for i := range d.LEDs {
		if i < 26 {
			d.LEDs[i].Name = "Key: " + string(rune('A'+i))
		} else {
			d.LEDs[i].Name = fmt.Sprintf("Key %d", i)
		}
	}
	d.Init(nil)
	return d
}
