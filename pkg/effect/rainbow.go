package effect

import (
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

const (
	rainbowCycle   = 3 * time.Second
	rainbowMinTick = 30 * time.Millisecond
)

// rainbowWave scrolls a hue gradient sized to the device's longest zone.
// It runs per device, so Frame holds exactly one device.
type rainbowWave struct {
	gradient []color.Color
}

func newRainbowWave() Animation {
	return &rainbowWave{}
}

func rainbowGradient(n int) []color.Color {
	g := make([]color.Color, n)
	for i := range g {
		g[i] = color.FromHSV(360*float64(i)/float64(n), 1, 1)
	}
	return g
}

// gradientIndex maps position pos of width onto a gradient of length n.
func gradientIndex(pos, width, n int) int {
	if width <= 1 {
		return 0
	}
	return pos * n / width
}

func (r *rainbowWave) Step(f *Frame) (time.Duration, error) {
	if len(f.Devices) == 0 {
		return rainbowCycle, nil
	}
	d := f.Devices[0]
	if r.gradient == nil {
		r.gradient = rainbowGradient(d.LongestZone())
	}
	n := len(r.gradient)

	for zi := range d.Zones {
		z := &d.Zones[zi]
		if z.HasMap() {
			for col := range z.Matrix.Width {
				c := r.gradient[gradientIndex(col, z.Matrix.Width, n)]
				for _, led := range z.Matrix.Column(col) {
					if led != model.NoLED {
						f.Set(0, led, c)
					}
				}
			}
			continue
		}
		for pos := range z.LEDCount {
			f.Set(0, z.Start+pos, r.gradient[gradientIndex(pos, z.LEDCount, n)])
		}
	}

	r.gradient = append(r.gradient[1:], r.gradient[0])
	return max(rainbowCycle/time.Duration(n), rainbowMinTick), nil
}
