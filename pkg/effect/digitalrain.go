package effect

import (
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

const (
	digitalRainTick      = 60 * time.Millisecond
	digitalRainDecay     = 0.70
	digitalRainCutoff    = 0.05
	digitalRainOccupancy = 0.25
)

// digitalRain drops the base color down each column. A drop enters the
// top cell at full intensity, moves one row per tick and is multiplied by
// digitalRainDecay on every move. A drop that reaches the bottom row keeps
// decaying there. New drops only enter dark columns, at most one per tick,
// while fewer than digitalRainOccupancy of the columns are lit.
type digitalRain struct {
	columns [][]int
	levels  [][]float64
}

func newDigitalRain() Animation {
	return &digitalRain{}
}

func (r *digitalRain) init(d *model.Device) {
	r.columns = Columns(d)
	r.levels = make([][]float64, len(r.columns))
	for i, col := range r.columns {
		r.levels[i] = make([]float64, len(col))
	}
}

// advance moves every drop one row down and decays it.
func (r *digitalRain) advance() {
	for _, lv := range r.levels {
		if len(lv) == 0 {
			continue
		}
		last := len(lv) - 1
		bottom := lv[last] * digitalRainDecay
		for row := last; row > 0; row-- {
			lv[row] = lv[row-1] * digitalRainDecay
		}
		lv[0] = 0
		lv[last] = max(lv[last], bottom)
		for row := range lv {
			if lv[row] < digitalRainCutoff {
				lv[row] = 0
			}
		}
	}
}

func (r *digitalRain) dark(col int) bool {
	for _, v := range r.levels[col] {
		if v > 0 {
			return false
		}
	}
	return true
}

// admit starts a drop in one random dark column if occupancy is below
// target.
func (r *digitalRain) admit(f *Frame) {
	var dark []int
	for i := range r.levels {
		if r.dark(i) {
			dark = append(dark, i)
		}
	}
	lit := len(r.levels) - len(dark)
	if len(dark) == 0 || float64(lit) >= digitalRainOccupancy*float64(len(r.levels)) {
		return
	}
	r.levels[dark[f.Rand.IntN(len(dark))]][0] = 1
}

func (r *digitalRain) Step(f *Frame) (time.Duration, error) {
	if len(f.Devices) == 0 {
		return digitalRainTick, nil
	}
	if r.columns == nil {
		r.init(f.Devices[0])
	}

	r.advance()
	r.admit(f)

	for ci, col := range r.columns {
		for row, led := range col {
			if led != model.NoLED {
				f.Set(0, led, f.Color.Dim(r.levels[ci][row]))
			}
		}
	}
	return digitalRainTick, nil
}
