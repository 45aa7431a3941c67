package catalog

import (
	"testing"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

func FuzzParse(f *testing.F) {
	for v := uint32(0); v <= 4; v++ {
		f.Add(v, Encode(v, keyboard()))
	}
	empty := keyboard()
	empty.Zones[0].Matrix = &model.MatrixMap{Width: 3}
	f.Add(uint32(4), Encode(4, empty))
	f.Add(uint32(3), []byte{})
	f.Add(uint32(4), []byte{0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, v uint32, data []byte) {
		dev, err := Parse(v%6, 0, data)
		if err != nil {
			return
		}
		if err := dev.Validate(); err != nil {
			t.Fatalf("Parse returned an invalid device: %v", err)
		}
		if len(dev.Colors()) != dev.LEDCount() {
			t.Fatalf("color buffer %d, LEDs %d", len(dev.Colors()), dev.LEDCount())
		}
	})
}
